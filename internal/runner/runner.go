package runner

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
)

// Runner couples a terminal, an executor and a busy guard into the
// per-change handler the watch loop dispatches.
type Runner struct {
	Invocation Invocation
	Executor   Executor
	Terminal   *Terminal
	Guard      *Guard
	Status     *Status
	Logger     *slog.Logger

	runs atomic.Int64
}

// Runs returns how many builds have been started.
func (r *Runner) Runs() int64 { return r.runs.Load() }

// Handle runs the build command for a qualifying change at path. Build
// failures are reported and swallowed so the watcher keeps going.
func (r *Runner) Handle(ctx context.Context, path string) {
	logger := r.logger()

	release, ok := r.Guard.Acquire(ctx)
	if !ok {
		if ctx.Err() == nil {
			logger.Debug("build already running, change dropped", slog.String("path", path))
			r.status().Skipped(path)
		}

		return
	}
	defer release()

	if err := r.Terminal.Clear(); err != nil {
		logger.Warn("terminal clear failed", slog.String("error", err.Error()))
	}

	r.runs.Add(1)
	r.status().Started(path)
	logger.Debug("running build command",
		slog.String("path", path),
		slog.String("command", r.Invocation.String()),
	)

	res, err := r.Executor.Execute(ctx, r.Invocation)
	if err != nil {
		logger.Error("build command failed to run", slog.String("error", err.Error()))
		r.status().Failed(err)

		return
	}

	if !res.Success() {
		logger.Warn("build command exited non-zero",
			slog.Int("exitCode", res.ExitCode),
			slog.Duration("duration", res.Duration),
		)
	}

	r.status().Finished(res)
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}

	return r.Logger
}

var discardStatus = NewStatus(io.Discard, false)

func (r *Runner) status() *Status {
	if r.Status == nil {
		return discardStatus
	}

	return r.Status
}
