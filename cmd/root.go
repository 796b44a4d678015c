// Package cmd implements the seekx command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oakwood-commons/seekx/internal/config"
	"github.com/oakwood-commons/seekx/internal/limiter"
	"github.com/oakwood-commons/seekx/internal/search"
	"github.com/oakwood-commons/seekx/internal/ui"
	"github.com/oakwood-commons/seekx/pkg/logger"
	"github.com/oakwood-commons/seekx/pkg/settings"
)

// Exit statuses.
const (
	ExitConfirmed   = 0
	ExitAborted     = 1
	ExitConfigError = 2
)

// errAborted is returned when the user leaves the picker without choosing.
// It carries no message.
var errAborted = errors.New("aborted")

// usageError marks bad flags or arguments.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// runPicker runs the interactive picker and reports the chosen identifier.
var runPicker = func(ctx context.Context, cfg ui.Config, opts ...tea.ProgramOption) (string, bool, error) {
	m, err := ui.RunModel(ctx, cfg, opts...)
	if err != nil {
		return "", false, err
	}
	id, ok := m.Chosen()
	return id, ok, nil
}

// NewRootCmd returns the seekx command with its flags bound to a fresh
// settings.Run.
func NewRootCmd() *cobra.Command {
	run := settings.NewCliParams()
	var debug bool

	root := &cobra.Command{
		Use:   settings.CliBinaryName,
		Short: "Interactive search picker backed by an external search command",
		Long: `seekx reads a configuration document (JSON, YAML or TOML) from stdin or
--config-file, then opens a terminal picker. Every edit of the query runs the
configured command once typing pauses; its JSON results are listed below the
prompt. Enter writes the selected identifier to stderr, Esc aborts.`,
		Example: `  seekx < search.json 2> choice.txt
  seekx --config-file search.yaml --exec-timeout 5s`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if debug {
				run.MinLogLevel = -1
			}
			lgr, err := logger.Get(run.MinLogLevel, run.LogFile)
			if err != nil {
				return err
			}
			lgr = logger.WithValues(lgr, logger.CommandKey, cmd.CommandPath())
			ctx := logger.WithLogger(cmd.Context(), lgr)
			cmd.SetContext(settings.IntoContext(ctx, run))
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateRun(run); err != nil {
				return err
			}
			return runSearch(cmd.Context(), cmd.InOrStdin(), cmd.ErrOrStderr())
		},
	}

	bindRunFlags(root.Flags(), run)
	root.PersistentFlags().StringVar(&run.LogFile, "log-file", "", "append JSON logs to `PATH` (stderr is reserved for the selection)")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "log debug detail (needs --log-file)")

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	root.Version = versionString()
	root.SetVersionTemplate("{{.Version}}\n")
	root.AddCommand(newVersionCmd())
	return root
}

// bindRunFlags registers the picker flags on flags.
func bindRunFlags(flags *pflag.FlagSet, run *settings.Run) {
	flags.StringVarP(&run.ConfigPath, "config-file", "c", "", "read the configuration from `PATH` instead of stdin (\"-\" means stdin)")
	flags.DurationVar(&run.ExecTimeout, "exec-timeout", 0, "kill a search command running longer than this (default from config, else 10s)")
	flags.IntVar(&run.MaxRows, "height", 0, "maximum number of result rows (0 fills the terminal)")
	flags.BoolVar(&run.Inline, "inline", false, "draw below the cursor instead of on the alternate screen")
	flags.BoolVar(&run.NoColor, "no-color", os.Getenv("NO_COLOR") != "", "disable colors")
	flags.SortFlags = false
}

func validateRun(run *settings.Run) error {
	if err := (limiter.Config{Limit: run.MaxRows}).Validate(); err != nil {
		return &usageError{err: fmt.Errorf("--height: %w", err)}
	}
	if run.ExecTimeout < 0 {
		return &usageError{err: fmt.Errorf("--exec-timeout must not be negative, got %s", run.ExecTimeout)}
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print seekx version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), versionString())
			return err
		},
	}
}

func versionString() string {
	v := settings.VersionInformation
	return fmt.Sprintf("%s %s (commit %s, built %s, %s)",
		settings.CliBinaryName, v.BuildVersion, v.Commit, v.BuildTime, runtime.Version())
}

// runSearch loads the configuration, runs the picker and writes the chosen
// identifier to selection.
func runSearch(ctx context.Context, stdin io.Reader, selection io.Writer) error {
	run, ok := settings.FromContext(ctx)
	if !ok {
		run = settings.NewCliParams()
	}
	lgr := logger.FromContext(ctx)

	cfg, err := loadConfig(run, stdin)
	if err != nil {
		return err
	}
	compiled, err := config.Compile(cfg, config.Overrides{ExecTimeout: run.ExecTimeout})
	if err != nil {
		return err
	}
	lgr.V(1).Info("configuration loaded",
		"executable", cfg.QueryCommand.Executable,
		"display", compiled.Display.Source(),
		"debounce", compiled.Debounce.String(),
		"timeout", compiled.Timeout.String())

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM)
	defer stop()

	opts, cleanup := programOptions(ctx)
	defer cleanup()

	sched := search.New(ctx, compiled.Command, compiled.Debounce, compiled.Timeout)
	id, chosen, err := runPicker(ctx, ui.Config{
		Scheduler: sched,
		Display:   compiled.Display,
		MaxRows:   run.MaxRows,
		NoColor:   run.NoColor,
		Inline:    run.Inline,
		Logger:    *lgr,
	}, opts...)
	if err != nil {
		return err
	}
	if !chosen {
		lgr.V(1).Info("picker aborted")
		return errAborted
	}

	lgr.Info("selection confirmed", "identifier", id)
	if _, err := fmt.Fprintln(selection, id); err != nil {
		return fmt.Errorf("writing selection: %w", err)
	}
	return nil
}

func loadConfig(run *settings.Run, stdin io.Reader) (*config.Config, error) {
	if run.ConfigFromStdin() {
		return config.Load(stdin)
	}
	return config.LoadFile(run.ConfigPath)
}

// ExitCode maps an Execute error to the process exit status.
func ExitCode(err error) int {
	var cfgErr *config.Error
	var usageErr *usageError
	switch {
	case err == nil:
		return ExitConfirmed
	case errors.Is(err, errAborted):
		return ExitAborted
	case errors.As(err, &cfgErr), errors.As(err, &usageErr):
		return ExitConfigError
	default:
		return ExitAborted
	}
}

// ErrorMessage returns the text to print for err, or "" when nothing should
// be printed.
func ErrorMessage(err error) string {
	if err == nil || errors.Is(err, errAborted) {
		return ""
	}
	return fmt.Sprintf("%s: %v", settings.CliBinaryName, err)
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().ExecuteContext(context.Background())
}
