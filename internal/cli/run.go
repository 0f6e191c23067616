package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/rewatch/internal/config"
	"github.com/hupe1980/rewatch/internal/logging"
	"github.com/hupe1980/rewatch/internal/runner"
	"github.com/hupe1980/rewatch/internal/watch"
)

// watchRun is swapped in tests.
var watchRun = watch.Run

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Watch the source tree and re-run the build on every change",
		Long: `Run watches the root directory and all of its subdirectories.
Every time a file whose path ends in --ext is modified, the terminal is
cleared and --exec is run from the root directory.

Saving a file by renaming a temporary copy over it counts as a change.
Creating a new file, deleting or renaming files never triggers a build.
When a change arrives while a build is still running, --on-busy decides
whether the builds overlap, queue up, or the new change is dropped.

Without --root the directory holding the rewatch executable is watched,
not the current directory. A binary built with "go install" lives in
$GOBIN and one started with "go run" lives in a temporary directory, so
pass --root (or set root in the config file) unless rewatch is installed
next to the sources.

Arguments after run are ignored.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args)
		},
	}

	f := cmd.Flags()
	f.String("root", "", "directory to watch (default: directory of the rewatch executable)")
	f.String("ext", config.DefaultExt, "path suffix that triggers a build")
	f.String("exec", config.DefaultExec, "build command line")
	f.String("clear", config.ClearAuto, "clear the terminal before builds: auto, always, never")
	f.String("on-busy", config.OnBusyOverlap, "when a build is running: overlap, queue, drop")
	f.Duration("debounce", 0, "collapse bursts of changes within this interval (0 disables)")
	f.StringSlice("ignore", config.DefaultIgnore, "directory names excluded from the watch")

	_ = cmd.RegisterFlagCompletionFunc("clear", fixedCompletion(config.ClearAuto, config.ClearAlways, config.ClearNever))
	_ = cmd.RegisterFlagCompletionFunc("on-busy", fixedCompletion(config.OnBusyOverlap, config.OnBusyQueue, config.OnBusyDrop))
	_ = cmd.MarkFlagDirname("root")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	logger := logging.Component(ctx, "run")

	if len(args) > 0 {
		logger.Debug("ignoring extra arguments", slog.Any("args", args))
	}

	root, err := watch.ResolveRoot(cfg.Root)
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	inv, err := runner.ParseInvocation(cfg.Exec)
	if err != nil {
		return &ExitError{Code: 2, Err: err}
	}

	guard, err := runner.NewGuard(cfg.OnBusy)
	if err != nil {
		return &ExitError{Code: 2, Err: err}
	}

	logger.Debug("starting watch mode",
		slog.String("root", root),
		slog.String("ext", cfg.Ext),
		slog.String("exec", inv.String()),
		slog.String("onBusy", guard.Policy()),
		slog.Duration("debounce", cfg.Debounce),
	)

	statusOut := cmd.ErrOrStderr()
	status := runner.NewStatus(statusOut, useColor(cfg, statusOut))

	r := &runner.Runner{
		Invocation: inv,
		Executor:   newExecutor(cmd, root),
		Terminal:   runner.NewTerminal(cmd.OutOrStdout(), cfg.Clear),
		Guard:      guard,
		Status:     status,
		Logger:     logger,
	}

	opts := watch.Options{
		Root:     root,
		Ext:      cfg.Ext,
		Ignore:   cfg.Ignore,
		Debounce: cfg.Debounce,
		Logger:   logging.Component(ctx, "watch"),
		Ready: func(root string) {
			if !cfg.Quiet {
				status.Watching(root, cfg.Ext, inv)
			}
		},
		Stopped: func() { status.Stopped(r.Runs()) },
	}

	if err := watchRun(ctx, opts, r.Handle); err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	return nil
}

// newExecutor runs builds from dir with output routed through cmd.
func newExecutor(cmd *cobra.Command, dir string) runner.Executor {
	e := runner.NewExecExecutor(dir)
	e.Stdout = cmd.OutOrStdout()
	e.Stderr = cmd.ErrOrStderr()

	return e
}

// useColor honours --no-color and the NO_COLOR convention before checking w.
func useColor(cfg *config.Config, w io.Writer) bool {
	if cfg.NoColor || os.Getenv("NO_COLOR") != "" {
		return false
	}

	return runner.IsTerminal(w)
}
