package repos

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/ahrav/go-prograde/internal/domain"
	"github.com/ahrav/go-prograde/internal/ports"
)

// fakeRunner records invocations and fails any whose command line
// contains failOn.
type fakeRunner struct {
	calls  []string
	failOn string
}

func (f *fakeRunner) Run(_ context.Context, dir string, name string, args ...string) error {
	line := strings.Join(append([]string{name}, args...), " ")
	f.calls = append(f.calls, filepath.Base(dir)+": "+line)
	if f.failOn != "" && strings.Contains(line, f.failOn) {
		return ports.NewCommandError(dir, append([]string{name}, args...), errors.New("exit status 1"))
	}
	return nil
}

func TestManager_MakeRepos(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "existing"), 0o755))
	runner := &fakeRunner{}

	m := NewManager(runner, ManagerConfig{Root: root, OrgURL: "https://github.com/course-org/", Strict: true}, nil)
	require.NoError(t, m.MakeRepos(context.Background(), []string{"existing", "fresh"}))

	assert.Equal(t, []string{
		"fresh: git init",
		"fresh: hub create course-org/fresh --private",
	}, runner.calls)
	assert.DirExists(t, filepath.Join(root, "fresh"))
}

func TestManager_MakeReposNeedsGithub(t *testing.T) {
	tests := []struct {
		name   string
		orgURL string
	}{
		{name: "unset", orgURL: ""},
		{name: "other host", orgURL: "https://gitlab.com/course-org"},
		{name: "no organisation", orgURL: "https://github.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager(&fakeRunner{}, ManagerConfig{Root: t.TempDir(), OrgURL: tt.orgURL}, nil)
			err := m.MakeRepos(context.Background(), []string{"a"})
			assert.True(t, errors.Is(err, domain.ErrConfiguration))
		})
	}
}

func TestManager_PullRepos(t *testing.T) {
	tests := []struct {
		name   string
		rebase bool
		push   bool
		want   []string
	}{
		{
			name: "plain pull",
			want: []string{"a: git pull", "b: git pull"},
		},
		{
			name:   "rebase and push",
			rebase: true,
			push:   true,
			want:   []string{"a: git pull --rebase", "a: git push", "b: git pull --rebase", "b: git push"},
		},
		{
			name: "push without rebase is ignored",
			push: true,
			want: []string{"a: git pull", "b: git pull"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{}
			m := NewManager(runner, ManagerConfig{Root: t.TempDir(), Strict: true}, nil)
			require.NoError(t, m.PullRepos(context.Background(), []string{"a", "b"}, tt.rebase, tt.push))
			assert.Equal(t, tt.want, runner.calls)
		})
	}
}

func TestManager_StrictAndLenient(t *testing.T) {
	names := []string{"a", "b"}

	strict := &fakeRunner{failOn: "pull"}
	err := NewManager(strict, ManagerConfig{Root: t.TempDir(), Strict: true}, nil).
		PullRepos(context.Background(), names, false, false)
	assert.True(t, errors.Is(err, ports.ErrCommandFailed))
	assert.Len(t, strict.calls, 1, "strict mode stops at the first failure")

	lenient := &fakeRunner{failOn: "pull"}
	err = NewManager(lenient, ManagerConfig{Root: t.TempDir(), Strict: false}, nil).
		PullRepos(context.Background(), names, false, false)
	assert.NoError(t, err)
	assert.Len(t, lenient.calls, 2, "lenient mode carries on")
}

func TestManager_AddSubmodules(t *testing.T) {
	runner := &fakeRunner{}
	root := t.TempDir()
	m := NewManager(runner, ManagerConfig{Root: root, OrgURL: "https://github.com/org", Strict: true}, nil)

	require.NoError(t, m.AddSubmodules(context.Background(), []string{"a"}))
	assert.Equal(t, []string{filepath.Base(root) + ": git submodule add https://github.com/org/a a"}, runner.calls)

	err := NewManager(runner, ManagerConfig{Root: root}, nil).AddSubmodules(context.Background(), []string{"a"})
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}

func TestManager_CmdInRepos(t *testing.T) {
	runner := &fakeRunner{}
	m := NewManager(runner, ManagerConfig{Root: t.TempDir(), Strict: true}, nil)

	require.NoError(t, m.CmdInRepos(context.Background(), []string{"a"}, "git status"))
	assert.Equal(t, []string{"a: sh -c git status"}, runner.calls)

	err := m.CmdInRepos(context.Background(), []string{"a"}, "  ")
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}

func TestManager_WriteGitignore(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "a"), 0o755))
	runner := &fakeRunner{}

	m := NewManager(runner, ManagerConfig{Root: root, Strict: true}, nil)
	require.NoError(t, m.WriteGitignore(context.Background(), []string{"a"}))

	data, err := os.ReadFile(filepath.Join(root, "a", ".gitignore"))
	require.NoError(t, err)
	assert.Equal(t, Gitignore, string(data))
	assert.Equal(t, []string{"a: git add .gitignore", "a: git commit -m Add .gitignore"}, runner.calls)

	assert.Error(t, m.WriteGitignore(context.Background(), []string{"absent"}))
}

func TestExecRunner(t *testing.T) {
	var stdout bytes.Buffer
	r := NewExecRunner(&stdout, &stdout, rate.Inf, 0)
	dir := t.TempDir()

	require.NoError(t, r.Run(context.Background(), dir, "sh", "-c", "echo hello"))
	assert.Equal(t, "hello\n", stdout.String())

	err := r.Run(context.Background(), dir, "sh", "-c", "exit 3")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ports.ErrCommandFailed))

	var cmdErr *ports.CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, []string{"sh", "-c", "exit 3"}, cmdErr.Args)
}

func TestExecRunner_CancelledWhileWaiting(t *testing.T) {
	r := NewExecRunner(nil, nil, rate.Limit(0.001), 1)
	ctx, cancel := context.WithCancel(context.Background())

	// First call consumes the only token.
	require.NoError(t, r.Run(ctx, t.TempDir(), "sh", "-c", "true"))
	cancel()

	err := r.Run(ctx, t.TempDir(), "sh", "-c", "true")
	assert.ErrorIs(t, err, context.Canceled)
}
