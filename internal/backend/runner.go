// Package backend adapts external GR(1) synthesis engines to synth.Backend.
//
// Each adapter renders a fragment in the engine's input language, runs the
// engine as a subprocess through a Runner, and parses its answer into a
// synth.Result. Anything the adapter cannot read is a *synth.BackendError
// carrying the engine's output.
package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
)

// Output is what a finished process left behind.
type Output struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Diagnostic returns stderr, or stdout when stderr is empty.
func (o *Output) Diagnostic() string {
	if len(bytes.TrimSpace(o.Stderr)) > 0 {
		return string(o.Stderr)
	}
	return string(o.Stdout)
}

// Runner executes an engine. A non-zero exit is reported in Output, not as
// an error; the error return is for processes that could not run at all.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) (*Output, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	Logger *slog.Logger
}

// Run executes name in dir and captures both output streams.
func (r ExecRunner) Run(ctx context.Context, dir, name string, args ...string) (*Output, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("executing engine", "command", name, "args", args, "dir", dir)

	err := cmd.Run()
	out := &Output{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return out, ctxErr
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			out.ExitCode = exitErr.ExitCode()
			return out, nil
		}
		return out, fmt.Errorf("run %s: %w", name, err)
	}
	return out, nil
}
