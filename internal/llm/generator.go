package llm

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/capitalize-ai/sales-coach/internal/apperr"
	"github.com/capitalize-ai/sales-coach/internal/model"
)

// ReplyHistoryLimit is how many stored messages are sent with a reply request.
const ReplyHistoryLimit = 20

var tracer = otel.Tracer("github.com/capitalize-ai/sales-coach/internal/llm")

// Generator produces personas, in-character replies and feedback.
type Generator struct {
	client Client
	model  string
}

// NewGenerator creates a generator over client. An empty model selects the
// provider default.
func NewGenerator(client Client, model string) *Generator {
	return &Generator{client: client, model: model}
}

// Persona describes the customer the user will sell to.
func (g *Generator) Persona(ctx context.Context, sc model.SalesContext) (string, error) {
	return g.complete(ctx, "persona", &CompletionRequest{
		System:      personaPrompt(sc),
		Messages:    []ChatMessage{{Role: RoleUser, Content: personaRequest}},
		Temperature: personaTemperature,
	})
}

// Reply answers the current message in character. Only the last
// ReplyHistoryLimit entries of history are sent.
func (g *Generator) Reply(ctx context.Context, history []model.Message, current, persona string, sc model.SalesContext) (string, error) {
	if len(history) > ReplyHistoryLimit {
		history = history[len(history)-ReplyHistoryLimit:]
	}
	msgs := append(chatMessages(history), ChatMessage{Role: RoleUser, Content: current})

	return g.complete(ctx, "reply", &CompletionRequest{
		System:      roleplayPrompt(persona, sc),
		Messages:    msgs,
		Temperature: replyTemperature,
	})
}

// Feedback reviews a finished roleplay.
func (g *Generator) Feedback(ctx context.Context, history []model.Message) (string, error) {
	msgs := append(chatMessages(history), ChatMessage{Role: RoleUser, Content: feedbackRequest})

	return g.complete(ctx, "feedback", &CompletionRequest{
		System:      feedbackPrompt,
		Messages:    msgs,
		Temperature: feedbackTemperature,
	})
}

func (g *Generator) complete(ctx context.Context, op string, req *CompletionRequest) (string, error) {
	ctx, span := tracer.Start(ctx, "llm."+op, trace.WithAttributes(
		attribute.String("llm.provider", g.client.Name()),
		attribute.Float64("llm.temperature", req.Temperature),
		attribute.Int("llm.messages", len(req.Messages)),
	))
	defer span.End()

	req.Model = g.model
	resp, err := g.client.Complete(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("generate %s: %w", op, err)
	}

	text := strings.TrimSpace(resp.Content)
	if text == "" {
		err := fmt.Errorf("generate %s: empty response: %w", op, apperr.ErrPermanentGeneration)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	span.SetAttributes(
		attribute.Int("llm.tokens_in", resp.TokensIn),
		attribute.Int("llm.tokens_out", resp.TokensOut),
	)
	return text, nil
}

func chatMessages(history []model.Message) []ChatMessage {
	out := make([]ChatMessage, 0, len(history)+1)
	for _, m := range history {
		out = append(out, ChatMessage{Role: string(m.Role), Content: m.Content})
	}
	return out
}
