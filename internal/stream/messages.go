package stream

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/tinytest/internal/runner"
)

const (
	messageTypeOutcome = "outcome"
	messageTypeSummary = "summary"
)

type outcomeEnvelope struct {
	Type       string        `json:"type"`
	RunID      string        `json:"run_id"`
	Index      int           `json:"index"`
	Name       string        `json:"name"`
	Status     runner.Status `json:"status"`
	Message    string        `json:"message,omitempty"`
	Stack      string        `json:"stack,omitempty"`
	DurationMs int64         `json:"duration_ms"`
	Timestamp  time.Time     `json:"timestamp"`
}

type summaryEnvelope struct {
	Type       string    `json:"type"`
	RunID      string    `json:"run_id"`
	Passed     int       `json:"passed"`
	Failed     int       `json:"failed"`
	Total      int       `json:"total"`
	Failures   []string  `json:"failures,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Timestamp  time.Time `json:"timestamp"`
}

func encodeOutcome(o runner.Outcome, now time.Time) ([]byte, error) {
	env := outcomeEnvelope{
		Type:       messageTypeOutcome,
		RunID:      o.RunID,
		Index:      o.Index,
		Name:       o.Name,
		Status:     o.Status,
		DurationMs: o.Duration.Milliseconds(),
		Timestamp:  now.UTC(),
	}
	if o.Failure != nil {
		env.Message = o.Failure.Message
		env.Stack = o.Failure.Stack
	}

	payload, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal outcome: %w", err)
	}
	return payload, nil
}

func encodeSummary(r *runner.Report, now time.Time) ([]byte, error) {
	env := summaryEnvelope{
		Type:       messageTypeSummary,
		RunID:      r.ID,
		Passed:     r.Passed,
		Failed:     r.Failed,
		Total:      r.Total(),
		StartedAt:  r.StartedAt.UTC(),
		FinishedAt: r.FinishedAt.UTC(),
		Timestamp:  now.UTC(),
	}
	for _, o := range r.Failures() {
		env.Failures = append(env.Failures, o.Name)
	}

	payload, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal summary: %w", err)
	}
	return payload, nil
}
