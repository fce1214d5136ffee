package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/tinytest/internal/store"
)

// HistoryOptions holds flags for the history and show commands.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
}

// HistoryResult is the JSON payload of the history command.
type HistoryResult struct {
	Runs []store.RunSummary `json:"runs"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs, newest first",
		Long: `List runs recorded with "run --db", most recent first.

Examples:
  tinytest history --db ./runs.db
  tinytest history --db ./runs.db --limit 5 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of runs to list (0 = config default)")

	return cmd
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print a recorded run",
		Long: `Print every outcome of a run recorded with "run --db".

Examples:
  tinytest show --db ./runs.db 0193a6a2-...
  tinytest show --db ./runs.db 0193a6a2-... --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")

	return cmd
}

func (o *HistoryOptions) openStore(cmd *cobra.Command, formatter *OutputFormatter) (*store.Store, error) {
	path := o.Config.DB
	if cmd.Flags().Changed("db") {
		path = o.Database
	}
	if path == "" {
		return nil, formatter.Fail(ErrCodeConfig, "missing --db", errNoDatabase)
	}

	st, err := store.Open(path)
	if err != nil {
		return nil, formatter.Fail(ErrCodeStore, "failed to open database", err)
	}
	return st, nil
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	limit := opts.Config.HistoryLimit
	if cmd.Flags().Changed("limit") {
		limit = opts.Limit
	}
	if limit < 0 {
		return formatter.Fail(ErrCodeConfig, "invalid --limit", fmt.Errorf("limit must be >= 0, got %d", limit))
	}

	st, err := opts.openStore(cmd, formatter)
	if err != nil {
		return err
	}
	defer closeWithLog(opts.logger(cmd), "database", st.Close)

	runs, err := st.ListRuns(contextOf(cmd), limit)
	if err != nil {
		return formatter.Fail(ErrCodeStore, "failed to list runs", err)
	}

	if formatter.JSON() {
		return formatter.Success(HistoryResult{Runs: runs})
	}

	w := formatter.Writer
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	for _, run := range runs {
		mark := "✓"
		if run.Failed > 0 {
			mark = "✗"
		}
		fmt.Fprintf(w, "%s %s  %s  %d passed, %d failed, %d total\n",
			mark, run.ID, run.StartedAt.Format(time.RFC3339), run.Passed, run.Failed, run.Total())
	}
	return nil
}

func runShow(opts *HistoryOptions, runID string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	st, err := opts.openStore(cmd, formatter)
	if err != nil {
		return err
	}
	defer closeWithLog(opts.logger(cmd), "database", st.Close)

	rep, err := st.ReadReport(contextOf(cmd), runID)
	if errors.Is(err, store.ErrNotFound) {
		return formatter.Fail(ErrCodeNotFound, fmt.Sprintf("run %s not found", runID), nil)
	}
	if err != nil {
		return formatter.Fail(ErrCodeStore, "failed to read run", err)
	}

	if formatter.JSON() {
		return formatter.Success(rep)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Run %s (%s)\n\n", rep.ID, rep.StartedAt.Format(time.RFC3339))
	for _, o := range rep.Outcomes {
		writeOutcome(w, o, formatter.Verbose)
	}
	writeSummary(w, rep)
	return nil
}
