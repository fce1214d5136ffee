package stream

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/roach88/tinytest/internal/assert"
	"github.com/roach88/tinytest/internal/runner"
	"github.com/roach88/tinytest/internal/testutil"
)

func TestPublisherValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewPublisher(Config{}); err == nil {
		t.Fatalf("expected error when brokers missing")
	}
	if _, err := NewPublisher(Config{Brokers: []string{"localhost:9092"}}); err == nil {
		t.Fatalf("expected error when topic missing")
	}
}

func TestNewPublisherValidConfig(t *testing.T) {
	t.Parallel()

	publisher, err := NewPublisher(Config{Brokers: []string{"localhost:9092"}, Topic: "test-results"})
	if err != nil {
		t.Fatalf("NewPublisher returned error: %v", err)
	}
	if err := publisher.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
}

func TestPublisherPublishesRun(t *testing.T) {
	t.Parallel()

	writer := &fakeWriter{}
	clock := testutil.NewDeterministicClock(time.Millisecond)
	publisher := newPublisher(writer, WithClock(testutil.NewDeterministicClock(time.Second).Now))

	suite := runner.NewSuite()
	suite.Test("adds", func() { assert.Equals(2, 1+1) })
	suite.Test("breaks", func() { assert.Fail("boom") })

	r := runner.New(
		runner.WithReporter(publisher),
		runner.WithClock(clock.Now),
		runner.WithIDGenerator(testutil.NewFixedIDGenerator("run-7").Generate),
	)
	report := r.Run(context.Background(), suite)

	if err := publisher.Err(); err != nil {
		t.Fatalf("unexpected publish error: %v", err)
	}
	if len(writer.messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(writer.messages))
	}
	for i, msg := range writer.messages {
		if string(msg.Key) != report.ID {
			t.Fatalf("message %d key = %q, want %q", i, msg.Key, report.ID)
		}
	}

	var first outcomeEnvelope
	if err := json.Unmarshal(writer.messages[0].Value, &first); err != nil {
		t.Fatalf("decode outcome: %v", err)
	}
	if first.Type != messageTypeOutcome || first.Name != "adds" || first.Status != runner.StatusPassed {
		t.Fatalf("unexpected first outcome: %+v", first)
	}
	if first.Message != "" {
		t.Fatalf("passing outcome should carry no message, got %q", first.Message)
	}

	var second outcomeEnvelope
	if err := json.Unmarshal(writer.messages[1].Value, &second); err != nil {
		t.Fatalf("decode outcome: %v", err)
	}
	if second.Index != 1 || second.Status != runner.StatusFailed {
		t.Fatalf("unexpected second outcome: %+v", second)
	}
	if second.Message != "fail(): boom" {
		t.Fatalf("unexpected message: %q", second.Message)
	}
	if second.Stack == "" {
		t.Fatalf("expected failure stack")
	}
	if second.DurationMs != 1 {
		t.Fatalf("duration_ms = %d, want 1", second.DurationMs)
	}

	var summary summaryEnvelope
	if err := json.Unmarshal(writer.messages[2].Value, &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.Type != messageTypeSummary || summary.RunID != "run-7" {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.Passed != 1 || summary.Failed != 1 || summary.Total != 2 {
		t.Fatalf("unexpected counts: %+v", summary)
	}
	if len(summary.Failures) != 1 || summary.Failures[0] != "breaks" {
		t.Fatalf("unexpected failures: %v", summary.Failures)
	}
	if !summary.StartedAt.Equal(testutil.Epoch) {
		t.Fatalf("started_at = %v, want %v", summary.StartedAt, testutil.Epoch)
	}
}

func TestPublisherMessageTimestampsUseClock(t *testing.T) {
	t.Parallel()

	writer := &fakeWriter{}
	publisher := newPublisher(writer, WithClock(testutil.NewDeterministicClock(time.Second).Now))

	publisher.TestFinished(context.Background(), runner.Outcome{RunID: "r", Name: "t", Status: runner.StatusPassed})

	if len(writer.messages) != 1 {
		t.Fatalf("expected one message, got %d", len(writer.messages))
	}
	var env outcomeEnvelope
	if err := json.Unmarshal(writer.messages[0].Value, &env); err != nil {
		t.Fatalf("decode outcome: %v", err)
	}
	if !env.Timestamp.Equal(testutil.Epoch) {
		t.Fatalf("timestamp = %v, want %v", env.Timestamp, testutil.Epoch)
	}
}

func TestPublisherWriteErrorsDoNotAbortRun(t *testing.T) {
	t.Parallel()

	writer := &fakeWriter{err: errors.New("broker down")}
	publisher := newPublisher(writer)

	suite := runner.NewSuite()
	suite.Test("one", func() {})
	suite.Test("two", func() {})

	report := runner.New(runner.WithReporter(publisher)).Run(context.Background(), suite)

	if report.Total() != 2 || report.Passed != 2 {
		t.Fatalf("run should complete despite publish errors: %+v", report)
	}
	err := publisher.Err()
	if err == nil || !strings.Contains(err.Error(), "write message") {
		t.Fatalf("expected write failure, got %v", err)
	}
}

func TestPublisherKeepsFirstError(t *testing.T) {
	t.Parallel()

	writer := &fakeWriter{err: errors.New("broker down")}
	publisher := newPublisher(writer)

	publisher.TestFinished(context.Background(), runner.Outcome{RunID: "r", Name: "one"})
	writer.err = errors.New("leader not available")
	publisher.RunFinished(context.Background(), &runner.Report{ID: "r"})

	err := publisher.Err()
	if err == nil || !strings.Contains(err.Error(), "broker down") {
		t.Fatalf("expected first write failure, got %v", err)
	}
}

func TestPublisherUninitialized(t *testing.T) {
	t.Parallel()

	publisher := newPublisher(nil)
	publisher.RunFinished(context.Background(), &runner.Report{ID: "r"})

	if err := publisher.Err(); err == nil || !strings.Contains(err.Error(), "not initialized") {
		t.Fatalf("expected not initialized error, got %v", err)
	}
	if err := publisher.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
}

func TestPublisherCloseProxiesUnderlyingWriter(t *testing.T) {
	t.Parallel()

	writer := &fakeWriter{}
	publisher := newPublisher(writer)

	if err := publisher.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if !writer.closed {
		t.Fatalf("expected writer to be closed")
	}
}

type fakeWriter struct {
	messages []kafkago.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}
