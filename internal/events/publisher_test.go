package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/literature-digest-service/internal/domain"
)

// fakeWriter records written messages.
type fakeWriter struct {
	messages []kafka.Message
	writeErr error
	closed   bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func newPublishedTestRun() *domain.DigestRun {
	return &domain.DigestRun{
		ID:              uuid.New(),
		Variant:         domain.VariantDaily,
		Preset:          "default",
		Query:           `("cellular senescence"[Title/Abstract])`,
		DaysBack:        7,
		Status:          domain.RunStatusCompleted,
		PapersFetched:   120,
		PapersScored:    85,
		PapersPublished: 5,
		StartedAt:       time.Now().UTC(),
	}
}

func TestPublisher_RunLifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("run started carries query context", func(t *testing.T) {
		writer := &fakeWriter{}
		pub := newPublisherWithWriter(writer, "", zerolog.Nop())
		run := newPublishedTestRun()

		require.NoError(t, pub.RunStarted(ctx, run))
		require.Len(t, writer.messages, 1)

		var event Event
		require.NoError(t, json.Unmarshal(writer.messages[0].Value, &event))
		assert.Equal(t, EventTypeRunStarted, event.EventType)
		assert.Equal(t, "literature-digest-service", event.Source)
		assert.Equal(t, run.ID.String(), event.RunID)
		assert.Equal(t, "daily", event.Variant)
		assert.Equal(t, run.ID.String(), string(writer.messages[0].Key))

		var payload RunStartedPayload
		require.NoError(t, json.Unmarshal(event.Payload, &payload))
		assert.Equal(t, run.Preset, payload.Preset)
		assert.Equal(t, run.Query, payload.Query)
		assert.Equal(t, 7, payload.DaysBack)
	})

	t.Run("run completed carries stage counters", func(t *testing.T) {
		writer := &fakeWriter{}
		pub := newPublisherWithWriter(writer, "custom-source", zerolog.Nop())
		run := newPublishedTestRun()

		require.NoError(t, pub.RunCompleted(ctx, run))
		require.Len(t, writer.messages, 1)

		var event Event
		require.NoError(t, json.Unmarshal(writer.messages[0].Value, &event))
		assert.Equal(t, EventTypeRunCompleted, event.EventType)
		assert.Equal(t, "custom-source", event.Source)

		var payload RunCompletedPayload
		require.NoError(t, json.Unmarshal(event.Payload, &payload))
		assert.Equal(t, 120, payload.PapersFetched)
		assert.Equal(t, 85, payload.PapersScored)
		assert.Equal(t, 5, payload.PapersPublished)
	})

	t.Run("run failed carries the cause", func(t *testing.T) {
		writer := &fakeWriter{}
		pub := newPublisherWithWriter(writer, "", zerolog.Nop())
		run := newPublishedTestRun()

		require.NoError(t, pub.RunFailed(ctx, run, "PubMed API error (status 500)"))
		require.Len(t, writer.messages, 1)

		var event Event
		require.NoError(t, json.Unmarshal(writer.messages[0].Value, &event))
		assert.Equal(t, EventTypeRunFailed, event.EventType)

		var payload RunFailedPayload
		require.NoError(t, json.Unmarshal(event.Payload, &payload))
		assert.Equal(t, "PubMed API error (status 500)", payload.Error)
	})

	t.Run("write errors are wrapped with event type", func(t *testing.T) {
		writer := &fakeWriter{writeErr: errors.New("broker unavailable")}
		pub := newPublisherWithWriter(writer, "", zerolog.Nop())

		err := pub.RunStarted(ctx, newPublishedTestRun())
		require.Error(t, err)
		assert.Contains(t, err.Error(), EventTypeRunStarted)
	})

	t.Run("nil run is rejected before any field is read", func(t *testing.T) {
		writer := &fakeWriter{}
		pub := newPublisherWithWriter(writer, "", zerolog.Nop())

		err := pub.RunStarted(ctx, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), EventTypeRunStarted)

		err = pub.RunCompleted(ctx, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), EventTypeRunCompleted)

		err = pub.RunFailed(ctx, nil, "fetch failed")
		require.Error(t, err)
		assert.Contains(t, err.Error(), EventTypeRunFailed)

		assert.Empty(t, writer.messages)
	})
}

func TestPublisher_Disabled(t *testing.T) {
	t.Run("disabled publisher is a no-op", func(t *testing.T) {
		pub := NewPublisher(Config{Enabled: false}, zerolog.Nop())

		require.NoError(t, pub.RunStarted(context.Background(), newPublishedTestRun()))
		require.NoError(t, pub.Close())
	})
}

func TestPublisher_Close(t *testing.T) {
	t.Run("close shuts down the writer", func(t *testing.T) {
		writer := &fakeWriter{}
		pub := newPublisherWithWriter(writer, "", zerolog.Nop())

		require.NoError(t, pub.Close())
		assert.True(t, writer.closed)
	})
}
