package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/tinytest/internal/config"
	"github.com/roach88/tinytest/internal/report"
	"github.com/roach88/tinytest/internal/runner"
	"github.com/roach88/tinytest/internal/store"
	"github.com/roach88/tinytest/internal/stream"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Filter        string
	Database      string
	FailuresFirst bool
	KafkaBrokers  []string
	KafkaTopic    string
}

// RunResult is the JSON payload of the run command.
type RunResult struct {
	Report *runner.Report `json:"report"`
	Digest string         `json:"digest,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the test suite",
		Long: `Run every test in registration order, one at a time.

Each result is printed as soon as the test settles, followed by a recap and a
summary line. With --db the report is also stored for "history" and "show";
with --kafka-brokers and --kafka-topic every result is published as it is
produced.

Exit codes:
  0 - All tests passed
  1 - One or more tests failed
  2 - Command error (invalid flags, config, database, etc.)

Examples:
  tinytest run
  tinytest run --filter "adder*"
  tinytest run --db ./runs.db --failures-first
  tinytest run --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuite(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "run only tests whose name matches this glob pattern")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database for run history")
	cmd.Flags().BoolVar(&opts.FailuresFirst, "failures-first", false, "list failing tests before passing ones in the recap")
	cmd.Flags().StringSliceVar(&opts.KafkaBrokers, "kafka-brokers", nil, "Kafka brokers (host:port) to publish results to")
	cmd.Flags().StringVar(&opts.KafkaTopic, "kafka-topic", "", "Kafka topic to publish results to")

	return cmd
}

// effectiveConfig applies explicitly set run flags over the resolved config.
func (o *RunOptions) effectiveConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := o.Config
	flags := cmd.Flags()

	if flags.Changed("filter") {
		cfg.Filter = o.Filter
	}
	if flags.Changed("db") {
		cfg.DB = o.Database
	}
	if flags.Changed("failures-first") {
		cfg.FailuresFirst = o.FailuresFirst
	}
	if flags.Changed("kafka-brokers") {
		cfg.Kafka.Brokers = o.KafkaBrokers
	}
	if flags.Changed("kafka-topic") {
		cfg.Kafka.Topic = o.KafkaTopic
	}

	return cfg, cfg.Validate()
}

func runSuite(opts *RunOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.effectiveConfig(cmd)
	if err != nil {
		return formatter.Fail(ErrCodeConfig, "invalid run options", err)
	}
	formatter.Verbose = cfg.Verbose

	suite := opts.suite
	if cfg.Filter != "" {
		suite, err = suite.Filter(cfg.Filter)
		if err != nil {
			return formatter.Fail(ErrCodeFilter, "invalid --filter", err)
		}
		formatter.VerboseLog("Filter %q selected %d of %d test(s)", cfg.Filter, suite.Len(), opts.suite.Len())
	}

	logger := opts.logger(cmd)
	reporters := []runner.Reporter{}
	if !formatter.JSON() {
		reporters = append(reporters, &consoleReporter{w: formatter.Writer, verbose: formatter.Verbose})
	}

	var recorder *store.Recorder
	if cfg.DB != "" {
		st, err := store.Open(cfg.DB)
		if err != nil {
			return formatter.Fail(ErrCodeStore, "failed to open database", err)
		}
		defer closeWithLog(logger, "database", st.Close)

		recorder = store.NewRecorder(st, logger)
		reporters = append(reporters, recorder)
		formatter.VerboseLog("Recording run history in %s", cfg.DB)
	}

	var publisher *stream.Publisher
	if cfg.Kafka.Enabled() {
		publisher, err = stream.NewPublisher(stream.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
		}, stream.WithLogger(logger))
		if err != nil {
			return formatter.Fail(ErrCodeStream, "failed to create publisher", err)
		}
		reporters = append(reporters, publisher)
		formatter.VerboseLog("Publishing results to topic %s", cfg.Kafka.Topic)
	}

	runnerOpts := append([]runner.Option{
		runner.WithLogger(logger),
		runner.WithReporter(reporters...),
	}, opts.runnerOpts...)

	rep := runner.New(runnerOpts...).Run(contextOf(cmd), suite)

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("failed to flush publisher", "error", err)
		}
	}

	if err := outputRun(formatter, rep, cfg.FailuresFirst); err != nil {
		return err
	}

	if recorder != nil && recorder.Err() != nil {
		return WrapExitError(ExitCommandError, "failed to record run", recorder.Err())
	}
	if publisher != nil && publisher.Err() != nil {
		return WrapExitError(ExitCommandError, "failed to publish results", publisher.Err())
	}

	if !rep.OK() {
		// Test failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("%d test(s) failed", rep.Failed))
	}
	return nil
}

func outputRun(f *OutputFormatter, rep *runner.Report, failuresFirst bool) error {
	if f.JSON() {
		return outputRunJSON(f, rep)
	}

	if rep.Total() == 0 {
		fmt.Fprintln(f.Writer, "No tests found.")
		return nil
	}
	writeRecap(f.Writer, rep, failuresFirst)
	writeSummary(f.Writer, rep)
	return nil
}

func outputRunJSON(f *OutputFormatter, rep *runner.Report) error {
	result := RunResult{Report: rep}
	if digest, err := report.Digest(rep); err == nil {
		result.Digest = digest
	}

	response := CLIResponse{Status: "ok", Data: result}
	if !rep.OK() {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    ErrCodeTestFailed,
			Message: fmt.Sprintf("%d test(s) failed", rep.Failed),
		}
	}
	return f.encode(response)
}

func closeWithLog(logger *slog.Logger, what string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logger.Error("error closing "+what, "error", err)
	}
}
