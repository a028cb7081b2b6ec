package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/capitalize-ai/sales-coach/internal/model"
	"github.com/capitalize-ai/sales-coach/pkg/logger"
	"github.com/capitalize-ai/sales-coach/pkg/metrics"
)

const (
	// StreamName is the name of the coaching events stream.
	StreamName = "COACHING_EVENTS"

	// SubjectPrefix is the prefix for all event subjects.
	SubjectPrefix = "coach"
)

// EventPublisher delivers domain events. Publishing is best effort: callers
// log failures and carry on.
type EventPublisher interface {
	Publish(ctx context.Context, event *model.ConversationEvent) error
}

// streamPublisher is the slice of jetstream.JetStream the publisher needs.
type streamPublisher interface {
	Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// EventSubject returns the subject for an event.
func EventSubject(event *model.ConversationEvent) string {
	return fmt.Sprintf("%s.%s.%s.%s", SubjectPrefix, event.UserID, event.ConversationID, event.Type)
}

// EnsureStream creates the events stream if it does not exist yet.
func EnsureStream(ctx context.Context, js jetstream.JetStream) error {
	if _, err := js.Stream(ctx, StreamName); err == nil {
		return nil
	}

	_, err := js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{SubjectPrefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      90 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Duplicates:  2 * time.Minute,
		Description: "Roleplay lifecycle events",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	return nil
}

// JetStreamPublisher publishes events to JetStream, deduplicated by event ID.
type JetStreamPublisher struct {
	js     streamPublisher
	logger *logger.Logger
}

// NewJetStreamPublisher creates a publisher on top of a JetStream context.
func NewJetStreamPublisher(js jetstream.JetStream, log *logger.Logger) *JetStreamPublisher {
	return newJetStreamPublisher(js, log)
}

func newJetStreamPublisher(js streamPublisher, log *logger.Logger) *JetStreamPublisher {
	return &JetStreamPublisher{js: js, logger: log}
}

// Publish marshals and publishes a single event.
func (p *JetStreamPublisher) Publish(ctx context.Context, event *model.ConversationEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(string(event.Type), "error").Inc()
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ack, err := p.js.Publish(ctx, EventSubject(event), data, jetstream.WithMsgID(event.ID))
	if err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(string(event.Type), "error").Inc()
		return fmt.Errorf("failed to publish event: %w", err)
	}

	metrics.EventsPublishedTotal.WithLabelValues(string(event.Type), "ok").Inc()
	p.logger.Debug("event published",
		zap.String("type", string(event.Type)),
		zap.String("conversation_id", event.ConversationID),
		zap.Uint64("sequence", ack.Sequence),
	)
	return nil
}

// NopPublisher drops every event. It is used when NATS_URL is unset.
type NopPublisher struct{}

// Publish implements EventPublisher.
func (NopPublisher) Publish(context.Context, *model.ConversationEvent) error {
	return nil
}
