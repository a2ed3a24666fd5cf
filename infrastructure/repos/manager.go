package repos

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/labstack/gommon/log"

	"github.com/ahrav/go-prograde/internal/domain"
	"github.com/ahrav/go-prograde/internal/ports"
)

// Gitignore is written into every project repository by WriteGitignore.
const Gitignore = `
.ipynb_checkpoints/
*.Rmd
__pycache__/
`

// Manager runs repository actions over the configured projects, one
// project at a time.
type Manager struct {
	runner ports.CommandRunner
	root   string
	orgURL string
	strict bool
	logger *log.Logger
}

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	// Root is the directory holding one repository per project.
	Root string
	// OrgURL is the hosting organisation URL, e.g.
	// https://github.com/my-course-projects.
	OrgURL string
	// Strict makes a failing command abort the action. When false the
	// failure is logged and the action moves on.
	Strict bool
}

// NewManager creates a Manager. A nil logger discards progress messages.
func NewManager(runner ports.CommandRunner, cfg ManagerConfig, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.New("repos")
		logger.SetOutput(io.Discard)
	}
	return &Manager{
		runner: runner,
		root:   cfg.Root,
		orgURL: strings.TrimSuffix(cfg.OrgURL, "/"),
		strict: cfg.Strict,
		logger: logger,
	}
}

func (m *Manager) run(ctx context.Context, dir, name string, args ...string) error {
	err := m.runner.Run(ctx, dir, name, args...)
	if err == nil || m.strict {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	m.logger.Warnf("ignoring failure: %v", err)
	return nil
}

func (m *Manager) requireOrgURL() error {
	if m.orgURL == "" {
		return domain.NewConfigError("projects_url", `set "projects_url" in config`)
	}
	return nil
}

// githubOrg returns the organisation name of a github.com URL.
func (m *Manager) githubOrg() (string, error) {
	if err := m.requireOrgURL(); err != nil {
		return "", err
	}
	u, err := url.Parse(m.orgURL)
	if err != nil || !strings.EqualFold(u.Host, "github.com") {
		return "", domain.NewConfigError("projects_url", "repository creation needs a github.com organisation URL")
	}
	org := path.Base(u.Path)
	if org == "" || org == "/" || org == "." {
		return "", domain.NewConfigError("projects_url", "URL has no organisation name")
	}
	return org, nil
}

// MakeRepos creates a local repository and a private remote for every
// project that has no directory yet.
func (m *Manager) MakeRepos(ctx context.Context, names []string) error {
	org, err := m.githubOrg()
	if err != nil {
		return err
	}
	for _, name := range names {
		dir := filepath.Join(m.root, name)
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			m.logger.Infof("existing repository %q", name)
			continue
		}
		m.logger.Infof("creating repository %q", name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
		if err := m.run(ctx, dir, "git", "init"); err != nil {
			return err
		}
		if err := m.run(ctx, dir, "hub", "create", org+"/"+name, "--private"); err != nil {
			return err
		}
	}
	return nil
}

// PullRepos pulls every project repository, optionally rebasing. push
// only takes effect together with rebase.
func (m *Manager) PullRepos(ctx context.Context, names []string, rebase, push bool) error {
	args := []string{"pull"}
	if rebase {
		args = append(args, "--rebase")
	}
	for _, name := range names {
		m.logger.Infof("pull for %s", name)
		dir := filepath.Join(m.root, name)
		if err := m.run(ctx, dir, "git", args...); err != nil {
			return err
		}
		if push && rebase {
			if err := m.run(ctx, dir, "git", "push"); err != nil {
				return err
			}
		}
	}
	return nil
}

// AddSubmodules registers every project repository as a submodule of the
// repository at the projects root.
func (m *Manager) AddSubmodules(ctx context.Context, names []string) error {
	if err := m.requireOrgURL(); err != nil {
		return err
	}
	for _, name := range names {
		if err := m.run(ctx, m.root, "git", "submodule", "add", m.orgURL+"/"+name, name); err != nil {
			return err
		}
	}
	return nil
}

// CmdInRepos runs a shell command line in every project repository.
func (m *Manager) CmdInRepos(ctx context.Context, names []string, command string) error {
	if strings.TrimSpace(command) == "" {
		return domain.NewConfigError("repo-cmd", "specify --repo-cmd")
	}
	for _, name := range names {
		m.logger.Infof("running %s in %s", command, name)
		if err := m.run(ctx, filepath.Join(m.root, name), "sh", "-c", command); err != nil {
			return err
		}
	}
	return nil
}

// WriteGitignore writes Gitignore into every project repository and
// commits it.
func (m *Manager) WriteGitignore(ctx context.Context, names []string) error {
	for _, name := range names {
		dir := filepath.Join(m.root, name)
		if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(Gitignore), 0o644); err != nil {
			return fmt.Errorf("failed to write .gitignore for %s: %w", name, err)
		}
		if err := m.run(ctx, dir, "git", "add", ".gitignore"); err != nil {
			return err
		}
		if err := m.run(ctx, dir, "git", "commit", "-m", "Add .gitignore"); err != nil {
			return err
		}
	}
	return nil
}
