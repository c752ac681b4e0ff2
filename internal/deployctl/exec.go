package deployctl

import (
	"context"
	"os"
	"os/exec"
)

// CommandRunner abstracts external command execution so convergence steps
// can be exercised against a fake in tests.
type CommandRunner interface {
	// Capture runs the command and returns its combined output.
	Capture(ctx context.Context, name string, args ...string) (string, error)
	// Stream runs the command with stdout/stderr attached to the terminal.
	Stream(ctx context.Context, name string, args ...string) error
	// LookPath reports whether a binary is resolvable on PATH.
	LookPath(name string) (string, error)
}

type execRunner struct{}

// NewRunner returns the CommandRunner backed by os/exec.
func NewRunner() CommandRunner {
	return execRunner{}
}

func (execRunner) Capture(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func (execRunner) Stream(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func (execRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}
