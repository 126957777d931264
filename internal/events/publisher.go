// Package events publishes digest run lifecycle events to Kafka so
// downstream consumers (notification fan-out, analytics) can react to
// completed digests without polling the service.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/helixir/literature-digest-service/internal/domain"
)

// Event types emitted over the run lifecycle.
const (
	EventTypeRunStarted   = "digest.run_started"
	EventTypeRunCompleted = "digest.run_completed"
	EventTypeRunFailed    = "digest.run_failed"
)

const defaultServiceName = "literature-digest-service"

// Event is the envelope written to Kafka. Payload holds the event-type
// specific body.
type Event struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	Source     string          `json:"source"`
	RunID      string          `json:"run_id"`
	Variant    string          `json:"variant"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// RunStartedPayload is the body of a digest.run_started event.
type RunStartedPayload struct {
	Preset   string `json:"preset"`
	Query    string `json:"query"`
	DaysBack int    `json:"days_back"`
}

// RunCompletedPayload is the body of a digest.run_completed event.
type RunCompletedPayload struct {
	PapersFetched   int `json:"papers_fetched"`
	PapersScored    int `json:"papers_scored"`
	PapersPublished int `json:"papers_published"`
}

// RunFailedPayload is the body of a digest.run_failed event.
type RunFailedPayload struct {
	Error string `json:"error"`
}

// messageWriter is the subset of kafka.Writer the publisher needs.
// This interface allows for easy mocking in tests.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Config holds configuration for the event publisher.
type Config struct {
	// Brokers is the list of Kafka broker addresses.
	Brokers []string
	// Topic is the Kafka topic for digest run events.
	Topic string
	// ServiceName identifies the source service in event envelopes.
	ServiceName string
	// Enabled toggles publishing. When false all publish calls are no-ops.
	Enabled bool
}

// Publisher writes digest run lifecycle events to Kafka.
// Messages are keyed by run ID so a run's events stay ordered within
// a partition.
type Publisher struct {
	writer  messageWriter
	source  string
	enabled bool
	logger  zerolog.Logger
}

// NewPublisher creates a Publisher connected to the configured brokers.
func NewPublisher(cfg Config, logger zerolog.Logger) *Publisher {
	if cfg.ServiceName == "" {
		cfg.ServiceName = defaultServiceName
	}

	var writer messageWriter
	if cfg.Enabled {
		writer = &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 50 * time.Millisecond,
		}
	}

	return &Publisher{
		writer:  writer,
		source:  cfg.ServiceName,
		enabled: cfg.Enabled,
		logger:  logger.With().Str("component", "event_publisher").Logger(),
	}
}

// newPublisherWithWriter creates a Publisher around an existing writer.
// Used by tests to substitute a fake writer.
func newPublisherWithWriter(writer messageWriter, source string, logger zerolog.Logger) *Publisher {
	if source == "" {
		source = defaultServiceName
	}
	return &Publisher{
		writer:  writer,
		source:  source,
		enabled: true,
		logger:  logger.With().Str("component", "event_publisher").Logger(),
	}
}

// requireRun rejects a missing run record before any payload field is read.
func requireRun(eventType string, run *domain.DigestRun) error {
	if run == nil {
		return fmt.Errorf("publish %s: run is required", eventType)
	}
	return nil
}

// RunStarted publishes a digest.run_started event.
func (p *Publisher) RunStarted(ctx context.Context, run *domain.DigestRun) error {
	if err := requireRun(EventTypeRunStarted, run); err != nil {
		return err
	}
	return p.publish(ctx, EventTypeRunStarted, run, RunStartedPayload{
		Preset:   run.Preset,
		Query:    run.Query,
		DaysBack: run.DaysBack,
	})
}

// RunCompleted publishes a digest.run_completed event.
func (p *Publisher) RunCompleted(ctx context.Context, run *domain.DigestRun) error {
	if err := requireRun(EventTypeRunCompleted, run); err != nil {
		return err
	}
	return p.publish(ctx, EventTypeRunCompleted, run, RunCompletedPayload{
		PapersFetched:   run.PapersFetched,
		PapersScored:    run.PapersScored,
		PapersPublished: run.PapersPublished,
	})
}

// RunFailed publishes a digest.run_failed event.
func (p *Publisher) RunFailed(ctx context.Context, run *domain.DigestRun, cause string) error {
	if err := requireRun(EventTypeRunFailed, run); err != nil {
		return err
	}
	return p.publish(ctx, EventTypeRunFailed, run, RunFailedPayload{Error: cause})
}

func (p *Publisher) publish(ctx context.Context, eventType string, run *domain.DigestRun, payload interface{}) error {
	if !p.enabled {
		return nil
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventType, err)
	}

	event := Event{
		EventID:    uuid.New().String(),
		EventType:  eventType,
		Source:     p.source,
		RunID:      run.ID.String(),
		Variant:    string(run.Variant),
		OccurredAt: time.Now().UTC(),
		Payload:    payloadBytes,
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}

	msg := kafka.Message{
		Key:   []byte(event.RunID),
		Value: value,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s event: %w", eventType, err)
	}

	p.logger.Debug().
		Str("event_type", eventType).
		Str("run_id", event.RunID).
		Str("variant", event.Variant).
		Msg("published run event")

	return nil
}

// Close closes the underlying Kafka writer.
func (p *Publisher) Close() error {
	if !p.enabled || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
