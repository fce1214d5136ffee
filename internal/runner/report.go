package runner

import "time"

// Status is the terminal state of a test.
type Status string

const (
	StatusPassed Status = "passed"
	StatusFailed Status = "failed"
)

// Failure is the diagnostic detail of a failed test.
type Failure struct {
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

// Outcome is the result of running exactly one test.
type Outcome struct {
	RunID    string        `json:"run_id"`
	Index    int           `json:"index"`
	Name     string        `json:"name"`
	Status   Status        `json:"status"`
	Failure  *Failure      `json:"failure,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Passed reports whether the test passed.
func (o Outcome) Passed() bool {
	return o.Status == StatusPassed
}

// Report aggregates every outcome of one run.
// Outcomes follow suite order and Passed+Failed always equals len(Outcomes).
type Report struct {
	ID         string    `json:"id"`
	Outcomes   []Outcome `json:"outcomes"`
	Passed     int       `json:"passed"`
	Failed     int       `json:"failed"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

func newReport(id string, size int, startedAt time.Time) *Report {
	return &Report{
		ID:        id,
		Outcomes:  make([]Outcome, 0, size),
		StartedAt: startedAt,
	}
}

// record appends an outcome and updates the counts.
func (r *Report) record(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
	if o.Passed() {
		r.Passed++
	} else {
		r.Failed++
	}
}

// Total returns the number of tests run.
func (r *Report) Total() int {
	return len(r.Outcomes)
}

// OK reports whether every test passed.
func (r *Report) OK() bool {
	return r.Failed == 0
}

// Failures returns the failed outcomes in order.
func (r *Report) Failures() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if !o.Passed() {
			failed = append(failed, o)
		}
	}
	return failed
}
