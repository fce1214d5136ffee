package runner

import "context"

// Reporter receives results as a run produces them.
// TestFinished is called once per test, in suite order, and RunFinished once
// after the last test. Both are called from the run's goroutine. A panic in
// either is recovered and logged by the Runner; the run and the other
// reporters carry on.
type Reporter interface {
	TestFinished(ctx context.Context, o Outcome)
	RunFinished(ctx context.Context, r *Report)
}

// ReporterFuncs adapts plain callbacks into a Reporter. Nil fields are skipped.
type ReporterFuncs struct {
	OnTest func(ctx context.Context, o Outcome)
	OnRun  func(ctx context.Context, r *Report)
}

// TestFinished implements Reporter.
func (f ReporterFuncs) TestFinished(ctx context.Context, o Outcome) {
	if f.OnTest != nil {
		f.OnTest(ctx, o)
	}
}

// RunFinished implements Reporter.
func (f ReporterFuncs) RunFinished(ctx context.Context, r *Report) {
	if f.OnRun != nil {
		f.OnRun(ctx, r)
	}
}
