package cli

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/perfmodel/internal/config"
	"github.com/roach88/perfmodel/internal/engine"
	"github.com/roach88/perfmodel/internal/store"
	"github.com/roach88/perfmodel/internal/validate"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	Database   string

	// Config is loaded before any subcommand runs.
	Config *config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the perfmodel CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "perfmodel",
		Short: "perfmodel - performance models from execution traces",
		Long: `Merge recorded call/reply execution traces into a performance model.

Traces with the same call structure fold into one interaction per scenario,
accumulating net execution times per span. Components, interfaces and their
deployment are merged into a static architecture graph. The model and a log
of every merge are kept in a SQLite database.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return opts.setup(cmd)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default: search "+config.ConfigFileName+")")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")

	cmd.AddCommand(NewMergeCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// setup loads the config file and installs the default logger.
func (o *RootOptions) setup(cmd *cobra.Command) error {
	var (
		cfg  *config.Config
		path string
		err  error
	)
	if o.ConfigPath != "" {
		cfg, path, err = config.LoadFromPath(o.ConfigPath)
	} else {
		cfg, path, err = config.Load()
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	o.Config = cfg

	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid log level", err)
	}
	if o.Verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))

	if path != "" {
		slog.Debug("config loaded", "path", path)
	}
	return nil
}

// settings returns the loaded config, or defaults when a command runs
// without the root's pre-run (tests construct subcommands directly).
func (o *RootOptions) settings() *config.Config {
	if o.Config == nil {
		o.Config = config.DefaultConfig()
	}
	return o.Config
}

// databasePath returns the --db flag, falling back to the config.
func (o *RootOptions) databasePath() string {
	if o.Database != "" {
		return o.Database
	}
	return o.settings().Database.Path
}

// openStore opens the configured database.
func (o *RootOptions) openStore() (*store.Store, error) {
	path := o.databasePath()
	slog.Debug("opening database", "path", path)
	st, err := store.Open(path, store.WithRateScale(o.settings().Merge.ArrivalRateScale))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// validator returns the model validator, or nil when validation is
// disabled in the config.
func (o *RootOptions) validator() (*validate.Validator, error) {
	if !o.settings().ValidationEnabled() {
		return nil, nil
	}
	v, err := validate.New(validate.WithRateScale(o.settings().Merge.ArrivalRateScale))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to build validator", err)
	}
	return v, nil
}

// mergeOptions returns the engine options every session the CLI opens
// shares.
func (o *RootOptions) mergeOptions() []engine.Option {
	cfg := o.settings()
	return []engine.Option{
		engine.WithClampZeroEntry(cfg.ClampZeroEntry()),
		engine.WithRateScale(cfg.Merge.ArrivalRateScale),
	}
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
