package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/roach88/tinytest/internal/runner"
)

// Ensure Publisher implements runner.Reporter.
var _ runner.Reporter = (*Publisher)(nil)

// Config configures the Kafka publisher.
type Config struct {
	Brokers []string
	Topic   string
}

// Publisher is a runner.Reporter that writes results to a Kafka topic.
//
// A failed write never affects the run: the error is logged and the first one
// is kept for Err.
type Publisher struct {
	writer messageWriter
	logger *slog.Logger
	now    func() time.Time

	mu  sync.Mutex
	err error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithLogger sets the logger used for write failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithClock replaces time.Now for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Publisher) {
		if now != nil {
			p.now = now
		}
	}
}

// NewPublisher constructs a Publisher writing to cfg.Topic.
func NewPublisher(cfg Config, opts ...Option) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("at least one broker must be provided")
	}
	if cfg.Topic == "" {
		return nil, errors.New("topic must be provided")
	}

	writer := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		AllowAutoTopicCreation: true,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		BatchTimeout:           10 * time.Millisecond,
	}

	return newPublisher(writer, opts...), nil
}

func newPublisher(writer messageWriter, opts ...Option) *Publisher {
	p := &Publisher{
		writer: writer,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// TestFinished implements runner.Reporter.
func (p *Publisher) TestFinished(ctx context.Context, o runner.Outcome) {
	payload, err := encodeOutcome(o, p.now())
	if err == nil {
		err = p.write(ctx, o.RunID, payload)
	}
	if err != nil {
		p.fail(err, "run_id", o.RunID, "test", o.Name)
	}
}

// RunFinished implements runner.Reporter.
func (p *Publisher) RunFinished(ctx context.Context, r *runner.Report) {
	payload, err := encodeSummary(r, p.now())
	if err == nil {
		err = p.write(ctx, r.ID, payload)
	}
	if err != nil {
		p.fail(err, "run_id", r.ID)
	}
}

// Err returns the first publish error, if any.
func (p *Publisher) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Close flushes and releases the underlying Kafka writer.
func (p *Publisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

func (p *Publisher) write(ctx context.Context, key string, payload []byte) error {
	if p.writer == nil {
		return errors.New("publisher is not initialized")
	}

	msg := kafkago.Message{
		Key:   []byte(key),
		Value: payload,
		Time:  p.now(),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

func (p *Publisher) fail(err error, attrs ...any) {
	p.logger.Error("failed to publish result", append(attrs, "error", err)...)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err == nil {
		p.err = err
	}
}
