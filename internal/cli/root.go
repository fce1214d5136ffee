package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/tinytest/internal/config"
	"github.com/roach88/tinytest/internal/runner"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	// Config is the effective configuration: the file (or defaults) with
	// explicitly set global flags applied. Resolved before any subcommand runs.
	Config config.Config

	suite      *runner.Suite
	runnerOpts []runner.Option
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{config.FormatText, config.FormatJSON}

// NewRootCommand creates the root command for a binary that runs suite.
// runnerOpts are applied to every runner the commands create.
func NewRootCommand(suite *runner.Suite, runnerOpts ...runner.Option) *cobra.Command {
	if suite == nil {
		suite = runner.NewSuite()
	}
	opts := &RootOptions{suite: suite, runnerOpts: runnerOpts}

	cmd := &cobra.Command{
		Use:   "tinytest",
		Short: "tinytest - a minimal sequential test runner",
		Long: `Run a compiled-in suite of tests one at a time, in registration order.

Every test runs to completion before the next starts. Failures are recorded
and never stop the run; the exit code tells whether everything passed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return resolveConfig(opts, cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", config.FormatText, "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to YAML config file")

	// Add subcommands
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))

	return cmd
}

// Execute runs the command line and returns the process exit code.
// Command errors are printed to stderr; test failures are already visible in
// the command output.
func Execute(suite *runner.Suite, args []string, stdout, stderr io.Writer, runnerOpts ...runner.Option) int {
	cmd := NewRootCommand(suite, runnerOpts...)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	code := GetExitCode(err)
	if err != nil && code != ExitFailure {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return code
}

// resolveConfig loads the config file, applies explicitly set global flags and
// validates the result.
func resolveConfig(opts *RootOptions, cmd *cobra.Command) error {
	cfg := config.Default()
	if opts.ConfigPath != "" {
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load config", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Format = opts.Format
	}
	if flags.Changed("verbose") {
		cfg.Verbose = opts.Verbose
	}

	if !isValidFormat(cfg.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", cfg.Format, ValidFormats))
	}

	opts.Config = cfg
	return nil
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Config.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Config.Verbose,
	}
}

// logger writes structured logs to stderr: warnings and errors by default,
// everything under --verbose.
func (o *RootOptions) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if o.Config.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: level,
	}))
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

var errNoDatabase = errors.New("no database configured: pass --db or set db in the config file")

// contextOf returns the command context, or Background when the command was
// executed without one.
func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
