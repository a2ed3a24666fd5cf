package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-prograde/internal/domain"
	"github.com/ahrav/go-prograde/internal/testutils"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		env     map[string]string
		want    options
		wantKey string
		wantErr bool
	}{
		{
			name: "action with defaults",
			args: []string{"check"},
			want: options{action: "check", config: "projects.yaml", feedbackOutPath: "feedback", logLevel: "info"},
		},
		{
			name: "flags before and after the action",
			args: []string{"-config", "course.yaml", "write-marks", "--allow-missing", "-log-level=debug"},
			want: options{
				action: "write-marks", config: "course.yaml", allowMissing: true,
				feedbackOutPath: "feedback", logLevel: "debug",
			},
		},
		{
			name: "repository flags",
			args: []string{"pull-repos", "-rebase", "-no-check"},
			want: options{
				action: "pull-repos", config: "projects.yaml", rebase: true, noCheck: true,
				feedbackOutPath: "feedback", logLevel: "info",
			},
		},
		{
			name: "environment",
			args: []string{"cmd-in-repos"},
			env:  map[string]string{"PROGRADE_REPO_CMD": "git status", "PROGRADE_CONFIG": "env.yaml"},
			want: options{
				action: "cmd-in-repos", config: "env.yaml", repoCmd: "git status",
				feedbackOutPath: "feedback", logLevel: "info",
			},
		},
		{
			name:    "unknown action",
			args:    []string{"grade-everything"},
			wantKey: "action",
		},
		{
			name:    "no action",
			args:    []string{"-rebase"},
			wantKey: "action",
		},
		{
			name:    "second positional argument",
			args:    []string{"check", "report"},
			wantErr: true,
		},
		{
			name:    "undefined flag",
			args:    []string{"check", "-verbose"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			got, err := parseArgs(tt.args, &bytes.Buffer{})
			switch {
			case tt.wantKey != "":
				var cfgErr *domain.ConfigError
				require.True(t, errors.As(err, &cfgErr))
				assert.Equal(t, tt.wantKey, cfgErr.Key)
			case tt.wantErr:
				assert.Error(t, err)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParseArgs_Help(t *testing.T) {
	var stderr bytes.Buffer
	_, err := parseArgs([]string{"-h"}, &stderr)
	assert.True(t, errors.Is(err, flag.ErrHelp))
	assert.Contains(t, stderr.String(), "write-feedback")
}

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "off", "INFO"} {
		_, err := newLogger(level, &bytes.Buffer{})
		assert.NoError(t, err, level)
	}
	_, err := newLogger("loud", &bytes.Buffer{})
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}

// writeCourse lays out a one-project course and returns the config path.
func writeCourse(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"students.csv": "login,name\nalice,Alice\nbob,Bob\n",
		"projects.yaml": "roster_path: students.csv\n" +
			"student_id_col: login\n" +
			"projects_path: projects\n" +
			"projects:\n  alpha: {members: {alice: 100}, presentation: 8}\n" + extra,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}

	nb, err := testutils.MarksNotebook(testutils.ExampleMarks())
	require.NoError(t, err)
	pdir := filepath.Join(dir, "projects", "alpha")
	require.NoError(t, os.MkdirAll(pdir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(pdir, "report.ipynb"), nb, 0o600))
	return filepath.Join(dir, "projects.yaml")
}

func TestRun_WriteMarks(t *testing.T) {
	config := writeCourse(t, "metrics_textfile: prograde.prom\n")
	t.Chdir(t.TempDir())

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-config", config, "write-marks"}, &stdout, &stderr)
	require.NoError(t, err)

	data, err := os.ReadFile("project_marks.csv")
	require.NoError(t, err)
	assert.Contains(t, string(data), "alice,Alice,alpha,8,9,7,8,9,8,7,100,8\n")
	assert.Contains(t, string(data), "bob,Bob,,,,,,,,,,\n")

	prom, err := os.ReadFile("prograde.prom")
	require.NoError(t, err)
	assert.Contains(t, string(prom), `prograde_projects_total{status="graded"} 1`)
	assert.Contains(t, string(prom), `prograde_students{state="scored"} 1`)
}

func TestRun_Check(t *testing.T) {
	config := writeCourse(t, "")
	t.Chdir(t.TempDir())

	var stdout bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"check", "-config", config}, &stdout, &bytes.Buffer{}))
	assert.Contains(t, stdout.String(), "Missing students")
	assert.FileExists(t, "missing.csv")
}

func TestRun_Errors(t *testing.T) {
	t.Run("missing config file", func(t *testing.T) {
		err := run(context.Background(), []string{"-config", filepath.Join(t.TempDir(), "none.yaml"), "check"},
			&bytes.Buffer{}, &bytes.Buffer{})
		assert.Error(t, err)
	})

	t.Run("cmd-in-repos without command", func(t *testing.T) {
		config := writeCourse(t, "")
		err := run(context.Background(), []string{"-config", config, "cmd-in-repos"}, &bytes.Buffer{}, &bytes.Buffer{})
		var cfgErr *domain.ConfigError
		require.True(t, errors.As(err, &cfgErr))
		assert.Equal(t, "repo-cmd", cfgErr.Key)
	})

	t.Run("export without gradebook", func(t *testing.T) {
		config := writeCourse(t, "")
		err := run(context.Background(), []string{"-config", config, "export-marks"}, &bytes.Buffer{}, &bytes.Buffer{})
		assert.True(t, errors.Is(err, domain.ErrConfiguration))
	})
}
