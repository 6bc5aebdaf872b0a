package transcoder

import (
	"bytes"
	"context"
	"os/exec"
)

// Runner executes external tools. It exists so ffprobe and ffmpeg can be
// replaced in tests.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// CommandRunner runs commands with os/exec
type CommandRunner struct{}

// NewCommandRunner creates a new CommandRunner
func NewCommandRunner() *CommandRunner {
	return &CommandRunner{}
}

// Run executes name with args and captures stdout and stderr separately
func (r *CommandRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}
