package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"
)

// Result describes a finished build command.
type Result struct {
	ExitCode int
	Duration time.Duration
}

// Success reports whether the command exited zero.
func (r Result) Success() bool { return r.ExitCode == 0 }

// Executor runs an invocation to completion.
//
// A non-zero exit is reported through Result, not as an error; the error
// return is reserved for commands that could not be started or waited on.
type Executor interface {
	Execute(ctx context.Context, inv Invocation) (Result, error)
}

// ExecExecutor runs commands as child processes.
type ExecExecutor struct {
	// Dir is the working directory of the child. Empty means the current
	// directory.
	Dir string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// WaitDelay bounds how long a cancelled child may take to exit after
	// being interrupted before it is killed.
	WaitDelay time.Duration
}

// NewExecExecutor returns an executor wired to the process's own stdio.
func NewExecExecutor(dir string) *ExecExecutor {
	return &ExecExecutor{
		Dir:       dir,
		Stdin:     os.Stdin,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		WaitDelay: 5 * time.Second,
	}
}

// Execute implements Executor.
func (e *ExecExecutor) Execute(ctx context.Context, inv Invocation) (Result, error) {
	if len(inv.Args) == 0 {
		return Result{}, ErrEmptyCommand
	}

	cmd := exec.CommandContext(ctx, inv.Args[0], inv.Args[1:]...) //nolint:gosec
	cmd.Dir = e.Dir
	cmd.Stdin = e.Stdin
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr
	cmd.Cancel = func() error { return cmd.Process.Signal(os.Interrupt) }
	cmd.WaitDelay = e.WaitDelay

	start := time.Now()
	err := cmd.Run()
	res := Result{Duration: time.Since(start)}

	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}

	return res, fmt.Errorf("running %s: %w", inv.Name(), err)
}
