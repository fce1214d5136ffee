package store

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/roach88/tinytest/internal/runner"
)

// Recorder is a runner.Reporter that persists every finished run.
// Every failed write is logged and the first is kept for Err; a failure never
// affects the run.
type Recorder struct {
	store  *Store
	logger *slog.Logger

	mu  sync.Mutex
	err error
}

// NewRecorder creates a Recorder writing to s. A nil logger discards.
func NewRecorder(s *Store, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Recorder{store: s, logger: logger}
}

// TestFinished implements runner.Reporter. Outcomes are written with the run.
func (r *Recorder) TestFinished(context.Context, runner.Outcome) {}

// RunFinished implements runner.Reporter.
func (r *Recorder) RunFinished(ctx context.Context, rep *runner.Report) {
	err := r.store.WriteReport(ctx, rep)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		if r.err == nil {
			r.err = err
		}
		r.logger.Error("failed to record run", "run_id", rep.ID, "error", err)
		return
	}
	r.logger.Info("run recorded", "run_id", rep.ID, "tests", rep.Total())
}

// Err returns the first write error, if any.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}
