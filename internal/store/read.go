package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/tinytest/internal/runner"
)

// RunSummary is one row of run history.
type RunSummary struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Passed     int       `json:"passed"`
	Failed     int       `json:"failed"`
	Digest     string    `json:"digest"`
}

// Total returns the number of tests in the run.
func (s RunSummary) Total() int {
	return s.Passed + s.Failed
}

// ReadReport loads a stored run with its outcomes in suite order.
// Returns ErrNotFound if no run has the given ID.
func (s *Store) ReadReport(ctx context.Context, id string) (*runner.Report, error) {
	summary, err := s.readRun(ctx, id)
	if err != nil {
		return nil, err
	}

	outcomes, err := s.readOutcomes(ctx, id)
	if err != nil {
		return nil, err
	}

	return &runner.Report{
		ID:         summary.ID,
		Outcomes:   outcomes,
		Passed:     summary.Passed,
		Failed:     summary.Failed,
		StartedAt:  summary.StartedAt,
		FinishedAt: summary.FinishedAt,
	}, nil
}

// ListRuns returns the most recent runs first.
// A non-positive limit returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at_ns, finished_at_ns, passed, failed, digest
		FROM runs
		ORDER BY started_at_ns DESC, id COLLATE BINARY ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunSummary{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}

func (s *Store) readRun(ctx context.Context, id string) (RunSummary, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, started_at_ns, finished_at_ns, passed, failed, digest
		FROM runs
		WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RunSummary{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return run, err
}

func (s *Store) readOutcomes(ctx context.Context, runID string) ([]runner.Outcome, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT idx, name, status, message, stack, duration_ns
		FROM outcomes
		WHERE run_id = ?
		ORDER BY idx ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	outcomes := []runner.Outcome{}
	for rows.Next() {
		var (
			o          = runner.Outcome{RunID: runID}
			status     string
			message    sql.NullString
			stack      sql.NullString
			durationNs int64
		)
		if err := rows.Scan(&o.Index, &o.Name, &status, &message, &stack, &durationNs); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		o.Status = runner.Status(status)
		o.Duration = time.Duration(durationNs)
		if message.Valid {
			o.Failure = &runner.Failure{Message: message.String, Stack: stack.String}
		}
		outcomes = append(outcomes, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}

	return outcomes, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (RunSummary, error) {
	var (
		run                   RunSummary
		startedNs, finishedNs int64
	)
	if err := row.Scan(&run.ID, &startedNs, &finishedNs, &run.Passed, &run.Failed, &run.Digest); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RunSummary{}, err
		}
		return RunSummary{}, fmt.Errorf("scan run: %w", err)
	}
	run.StartedAt = time.Unix(0, startedNs).UTC()
	run.FinishedAt = time.Unix(0, finishedNs).UTC()
	return run, nil
}
