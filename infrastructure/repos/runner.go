// Package repos performs maintenance across the per-project git
// repositories: creation, pulls, submodules and ad hoc commands.
package repos

import (
	"context"
	"fmt"
	"io"
	"os/exec"

	"golang.org/x/time/rate"

	"github.com/ahrav/go-prograde/internal/ports"
)

var _ ports.CommandRunner = (*ExecRunner)(nil)

// ExecRunner implements ports.CommandRunner with os/exec. Every command
// waits on a token bucket first so bulk git operations against a hosting
// service stay under its request limits.
type ExecRunner struct {
	stdout  io.Writer
	stderr  io.Writer
	limiter *rate.Limiter
}

// NewExecRunner creates a runner writing process output to stdout and
// stderr. limit is in commands per second; rate.Inf disables pacing.
func NewExecRunner(stdout, stderr io.Writer, limit rate.Limit, burst int) *ExecRunner {
	if burst < 1 {
		burst = 1
	}
	return &ExecRunner{
		stdout:  stdout,
		stderr:  stderr,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Run executes name with args in dir and waits for it to exit.
func (r *ExecRunner) Run(ctx context.Context, dir string, name string, args ...string) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr
	if err := cmd.Run(); err != nil {
		return ports.NewCommandError(dir, append([]string{name}, args...), err)
	}
	return nil
}
