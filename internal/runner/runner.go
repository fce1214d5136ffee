package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
)

// Runner executes suites one test at a time.
//
// A Runner keeps no per-run state, but the reporters it was built with are
// not required to be safe for concurrent use: callers that share reporters
// must not start a run while another is still in flight.
type Runner struct {
	reporters []Reporter
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

// Option configures a Runner.
type Option func(*Runner)

// WithReporter adds reporters that receive results as they are produced.
// They are called in the order given; nil reporters are skipped.
func WithReporter(reporters ...Reporter) Option {
	return func(r *Runner) {
		for _, rep := range reporters {
			if rep != nil {
				r.reporters = append(r.reporters, rep)
			}
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock replaces time.Now for timestamps and durations.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// WithIDGenerator replaces the random run ID generator.
func WithIDGenerator(gen func() string) Option {
	return func(r *Runner) {
		if gen != nil {
			r.newID = gen
		}
	}
}

// New creates a Runner.
func New(opts ...Option) *Runner {
	r := &Runner{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run is an execution started by Runner.Start.
type Run struct {
	done   chan struct{}
	report *Report
}

// Done is closed once the report is complete.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until every test has settled and returns the report.
func (r *Run) Wait() *Report {
	<-r.done
	return r.report
}

// Start begins executing suite and returns immediately.
//
// The suite is snapshotted before Start returns, so later changes to it do not
// affect the run. Tests execute on a separate goroutine that first yields, so
// nothing is reported before the caller regains control. Each test is awaited,
// including any pending computation it returns, before the next one starts.
//
// There is no timeout and ctx cancellation does not stop the run: a test that
// never settles stalls it forever. ctx is handed to every procedure and
// reporter unchanged.
func (r *Runner) Start(ctx context.Context, suite *Suite) *Run {
	cases := suite.Cases()
	run := &Run{done: make(chan struct{})}

	go func() {
		defer close(run.done)
		runtime.Gosched()
		run.report = r.execute(ctx, cases)
	}()

	return run
}

// Run executes suite and waits for its report.
func (r *Runner) Run(ctx context.Context, suite *Suite) *Report {
	return r.Start(ctx, suite).Wait()
}

func (r *Runner) execute(ctx context.Context, cases []Case) *Report {
	report := newReport(r.newID(), len(cases), r.now())
	r.logger.Info("run started", "run_id", report.ID, "tests", len(cases))

	for i, c := range cases {
		outcome := r.runCase(ctx, report.ID, i, c)
		report.record(outcome)
		r.notify("TestFinished", func(rep Reporter) { rep.TestFinished(ctx, outcome) })
	}

	report.FinishedAt = r.now()
	r.logger.Info("run finished",
		"run_id", report.ID,
		"passed", report.Passed,
		"failed", report.Failed,
	)
	r.notify("RunFinished", func(rep Reporter) { rep.RunFinished(ctx, report) })
	return report
}

// notify delivers one event to every reporter. A panicking reporter is
// logged and skipped for this event only.
func (r *Runner) notify(event string, deliver func(Reporter)) {
	for _, rep := range r.reporters {
		func() {
			defer func() {
				if v := recover(); v != nil {
					r.logger.Error("reporter panicked",
						"event", event,
						"reporter", fmt.Sprintf("%T", rep),
						"panic", v,
						"stack", string(debug.Stack()),
					)
				}
			}()
			deliver(rep)
		}()
	}
}

// runCase moves one test from running to a terminal state.
// Errors never escape: every test yields exactly one outcome.
func (r *Runner) runCase(ctx context.Context, runID string, index int, c Case) Outcome {
	r.logger.Debug("test started", "index", index, "name", c.Name)

	start := r.now()
	err := invoke(ctx, c.Proc)

	outcome := Outcome{
		RunID:    runID,
		Index:    index,
		Name:     c.Name,
		Status:   StatusPassed,
		Duration: r.now().Sub(start),
	}
	if err != nil {
		outcome.Status = StatusFailed
		outcome.Failure = failureOf(c.Name, err)
	}

	r.logger.Info("test finished",
		"index", index,
		"name", c.Name,
		"status", outcome.Status,
		"duration", outcome.Duration,
	)
	return outcome
}

func invoke(ctx context.Context, proc Procedure) error {
	if proc == nil {
		return errors.New("test procedure is nil")
	}
	return Go(func() error { return proc(ctx) }).Wait()
}

type stackTracer interface {
	Stack() string
}

func failureOf(name string, err error) *Failure {
	f := &Failure{Message: err.Error()}

	var st stackTracer
	if errors.As(err, &st) && st.Stack() != "" {
		f.Stack = st.Stack()
	} else {
		f.Stack = fmt.Sprintf("%s\n\tat test %q (%T returned, no stack captured)", f.Message, name, err)
	}
	return f
}
