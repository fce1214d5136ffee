package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/tinytest/internal/report"
	"github.com/roach88/tinytest/internal/runner"
)

// WriteReport stores a completed run and all of its outcomes in one
// transaction. Uses ON CONFLICT DO NOTHING for idempotency - writing the same
// run ID twice leaves the first copy untouched.
func (s *Store) WriteReport(ctx context.Context, r *runner.Report) error {
	digest, err := report.Digest(r)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write report: begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, started_at_ns, finished_at_ns, passed, failed, digest)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		r.ID,
		r.StartedAt.UnixNano(),
		r.FinishedAt.UnixNano(),
		r.Passed,
		r.Failed,
		digest,
	)
	if err != nil {
		return fmt.Errorf("write report: insert run: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// Already stored.
		return tx.Commit()
	}

	for _, o := range r.Outcomes {
		var message, stack sql.NullString
		if o.Failure != nil {
			message = sql.NullString{String: o.Failure.Message, Valid: true}
			stack = sql.NullString{String: o.Failure.Stack, Valid: o.Failure.Stack != ""}
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO outcomes
			(run_id, idx, name, status, message, stack, duration_ns)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT DO NOTHING
		`,
			r.ID,
			o.Index,
			o.Name,
			string(o.Status),
			message,
			stack,
			int64(o.Duration),
		)
		if err != nil {
			return fmt.Errorf("write report: insert outcome %d: %w", o.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write report: commit: %w", err)
	}
	return nil
}
