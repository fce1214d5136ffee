package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tinytest/internal/report"
	"github.com/roach88/tinytest/internal/runner"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func sampleReport(id string, startedAt time.Time) *runner.Report {
	return &runner.Report{
		ID: id,
		Outcomes: []runner.Outcome{
			{RunID: id, Index: 0, Name: "adds", Status: runner.StatusPassed, Duration: time.Millisecond},
			{
				RunID:    id,
				Index:    1,
				Name:     "rejects",
				Status:   runner.StatusFailed,
				Failure:  &runner.Failure{Message: "fail(): boom", Stack: "goroutine 1 [running]:"},
				Duration: 2 * time.Millisecond,
			},
			{
				RunID:    id,
				Index:    2,
				Name:     "no stack",
				Status:   runner.StatusFailed,
				Failure:  &runner.Failure{Message: "plain error"},
				Duration: 3 * time.Millisecond,
			},
		},
		Passed:     1,
		Failed:     2,
		StartedAt:  startedAt,
		FinishedAt: startedAt.Add(10 * time.Millisecond),
	}
}

func TestWriteReport_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	want := sampleReport("run-1", t0)

	require.NoError(t, s.WriteReport(ctx, want))

	got, err := s.ReadReport(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestWriteReport_StoresDigest(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	r := sampleReport("run-1", t0)

	require.NoError(t, s.WriteReport(ctx, r))

	var digest string
	require.NoError(t, s.db.QueryRow("SELECT digest FROM runs WHERE id = ?", r.ID).Scan(&digest))

	want, err := report.Digest(r)
	require.NoError(t, err)
	assert.Equal(t, want, digest)
}

func TestWriteReport_Idempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	r := sampleReport("run-1", t0)

	require.NoError(t, s.WriteReport(ctx, r))
	require.NoError(t, s.WriteReport(ctx, r))

	var runs, outcomes int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&runs))
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM outcomes").Scan(&outcomes))
	assert.Equal(t, 1, runs)
	assert.Equal(t, 3, outcomes)
}

func TestWriteReport_EmptyRun(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	r := &runner.Report{ID: "empty", Outcomes: []runner.Outcome{}, StartedAt: t0, FinishedAt: t0}

	require.NoError(t, s.WriteReport(ctx, r))

	got, err := s.ReadReport(ctx, "empty")
	require.NoError(t, err)
	assert.Empty(t, got.Outcomes)
	assert.Equal(t, 0, got.Total())
	assert.True(t, got.OK())
}

func TestReadReport_NotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.ReadReport(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "missing")
}

func TestListRuns_NewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteReport(ctx, sampleReport("old", t0)))
	require.NoError(t, s.WriteReport(ctx, sampleReport("new", t0.Add(time.Hour))))
	require.NoError(t, s.WriteReport(ctx, sampleReport("mid-b", t0.Add(time.Minute))))
	require.NoError(t, s.WriteReport(ctx, sampleReport("mid-a", t0.Add(time.Minute))))

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)

	var ids []string
	for _, r := range runs {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"new", "mid-a", "mid-b", "old"}, ids)

	assert.Equal(t, 1, runs[0].Passed)
	assert.Equal(t, 2, runs[0].Failed)
	assert.Equal(t, 3, runs[0].Total())
	assert.Equal(t, t0.Add(time.Hour), runs[0].StartedAt)
	assert.Len(t, runs[0].Digest, 64)
}

func TestListRuns_Limit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.WriteReport(ctx, sampleReport(string(rune('a'+i)), t0.Add(time.Duration(i)*time.Second))))
	}

	runs, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "e", runs[0].ID)
	assert.Equal(t, "d", runs[1].ID)
}

func TestListRuns_Empty(t *testing.T) {
	s := openTestStore(t)

	runs, err := s.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestRecorder_PersistsFinishedRun(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	suite := runner.NewSuite()
	suite.Test("ok", func() {})
	suite.Test("bad", func() { panic("boom") })

	rec := NewRecorder(s, nil)
	rep := runner.New(runner.WithReporter(rec)).Run(ctx, suite)

	require.NoError(t, rec.Err())

	got, err := s.ReadReport(ctx, rep.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Passed)
	assert.Equal(t, 1, got.Failed)
	require.Len(t, got.Outcomes, 2)
	assert.Equal(t, "bad", got.Outcomes[1].Name)
	assert.NotEmpty(t, got.Outcomes[1].Failure.Stack)
}

func TestRecorder_KeepsWriteError(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Close())

	rec := NewRecorder(s, nil)
	rec.RunFinished(context.Background(), sampleReport("run-1", t0))

	assert.Error(t, rec.Err())
}

func TestRecorder_KeepsFirstError(t *testing.T) {
	s := openTestStore(t)
	rec := NewRecorder(s, nil)

	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	rec.RunFinished(canceled, sampleReport("run-1", t0))
	first := rec.Err()
	require.ErrorIs(t, first, context.Canceled)

	rec.RunFinished(context.Background(), sampleReport("run-2", t0))
	assert.Same(t, first, rec.Err())

	_, err := s.ReadReport(context.Background(), "run-2")
	assert.NoError(t, err)
}
