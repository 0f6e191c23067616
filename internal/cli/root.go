// Package cli implements the cobra command tree for rewatch.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/rewatch/internal/command"
	"github.com/hupe1980/rewatch/internal/config"
	"github.com/hupe1980/rewatch/internal/logging"
)

// ExitError wraps an error with a specific process exit code. A nil Err
// means the user has already been told what went wrong.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}

	return fmt.Sprintf("exit code %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// Execute builds the command tree, runs it against os.Args, and returns
// the exit code.
func Execute() int {
	return execute(NewRootCommand(), os.Args[1:], os.Stderr)
}

func execute(cmd *cobra.Command, args []string, stderr io.Writer) int {
	cmd.SetArgs(args)

	err := cmd.Execute()
	if err == nil {
		return 0
	}

	code := 1

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.Code

		if exitErr.Err == nil {
			return code
		}
	}

	fmt.Fprintln(stderr, "Error:", err)

	return code
}

// NewRootCommand constructs the top-level cobra.Command with all
// subcommands attached.
func NewRootCommand() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "rewatch <command>",
		Short: "Re-run a build command whenever a source file changes",
		Long: `rewatch watches a source tree recursively and re-runs a build
command each time a file with the configured extension changes.

The terminal is cleared before every build so successive runs are easy
to tell apart. The build command's output streams straight through.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// A bare invocation only prints a hint, so a broken config
			// file must not turn it into an error.
			if cmd == cmd.Root() && command.Parse(args).Kind == command.Missing {
				return nil
			}

			cfg, err := config.Load(cmd, cfgFile)
			if err != nil {
				return &ExitError{Code: 2, Err: err}
			}

			logger := logging.Setup(cfg)

			ctx := cmd.Context()
			ctx = config.NewContext(ctx, cfg)
			ctx = logging.NewContext(ctx, logger)
			cmd.SetContext(ctx)

			logger.Debug("configuration loaded",
				slog.String("logLevel", cfg.LogLevel),
				slog.String("logFormat", cfg.LogFormat),
				slog.String("configFile", cfg.ConfigFile),
			)

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return dispatch(cmd, command.Parse(args))
		},
	}

	// Global persistent flags.
	pf := cmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: .rewatch.yaml)")
	pf.String("log-level", config.LogLevelInfo, "log level: debug, info, warn, error")
	pf.String("log-format", config.LogFormatText, "log format: text, json")
	pf.Bool("no-color", false, "disable colored output")
	pf.BoolP("quiet", "q", false, "suppress non-essential output")

	// Flag parsing errors return exit code 2.
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: 2, Err: err}
	})

	cmd.AddCommand(
		newRunCommand(),
		newVersionCommand(),
		newConfigCommand(),
		newCompletionCommand(),
	)

	return cmd
}

// dispatch handles positional commands cobra did not route to a
// subcommand. `rewatch -- run` still lands here as Run.
func dispatch(cmd *cobra.Command, c command.Command) error {
	switch c.Kind {
	case command.Run:
		return runWatch(cmd, nil)
	case command.Missing:
		_, err := fmt.Fprintln(cmd.OutOrStdout(), command.MissingMessage)
		return err
	case command.Unknown:
		logging.FromContext(cmd.Context()).Debug("unknown command", slog.String("name", c.Name))

		if _, err := fmt.Fprintln(cmd.OutOrStdout(), command.UnknownMessage); err != nil {
			return err
		}

		return &ExitError{Code: 2}
	default:
		return fmt.Errorf("unhandled command kind %s", c.Kind)
	}
}
