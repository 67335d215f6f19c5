package process

import (
	"context"
	"os/exec"
)

// Runner executes a short-lived command and returns its stdout.
type Runner interface {
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec. A non-zero exit returns the
// captured stdout together with an *exec.ExitError.
type ExecRunner struct{}

// Output implements Runner.
func (ExecRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output() //nolint:gosec // binary comes from config
}
