// Package service composes extraction, onboarding, generation and
// persistence into the operations the HTTP layer exposes.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/capitalize-ai/sales-coach/internal/model"
	natsclient "github.com/capitalize-ai/sales-coach/internal/nats"
	"github.com/capitalize-ai/sales-coach/pkg/logger"
)

var tracer = otel.Tracer("github.com/capitalize-ai/sales-coach/internal/service")

// ResponseGenerator is the text-generation surface the services depend on.
// *llm.Generator implements it.
type ResponseGenerator interface {
	Persona(ctx context.Context, sc model.SalesContext) (string, error)
	Reply(ctx context.Context, history []model.Message, current, persona string, sc model.SalesContext) (string, error)
	Feedback(ctx context.Context, history []model.Message) (string, error)
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func utcNow() time.Time {
	return time.Now().UTC()
}

// publish sends an event and only logs a failure.
func publish(ctx context.Context, events natsclient.EventPublisher, log *logger.Logger, event *model.ConversationEvent) {
	if err := events.Publish(ctx, event); err != nil {
		log.Warn("failed to publish event",
			zap.String("type", string(event.Type)),
			zap.String("conversation_id", event.ConversationID),
			zap.Error(err),
		)
	}
}
