package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/capitalize-ai/sales-coach/internal/apperr"
	"github.com/capitalize-ai/sales-coach/internal/llm"
	"github.com/capitalize-ai/sales-coach/internal/model"
	natsclient "github.com/capitalize-ai/sales-coach/internal/nats"
	"github.com/capitalize-ai/sales-coach/internal/onboarding"
	"github.com/capitalize-ai/sales-coach/internal/store"
	"github.com/capitalize-ai/sales-coach/pkg/logger"
	"github.com/capitalize-ai/sales-coach/pkg/metrics"
)

const (
	titleWords  = 5
	titleMaxLen = 30
)

// ChatService handles inbound user messages.
type ChatService struct {
	db        *sql.DB
	uow       store.UnitOfWork
	machine   *onboarding.Machine
	generator ResponseGenerator
	events    natsclient.EventPublisher
	logger    *logger.Logger
	now       func() time.Time
}

// NewChatService creates a new chat service.
func NewChatService(
	db *sql.DB,
	uow store.UnitOfWork,
	generator ResponseGenerator,
	events natsclient.EventPublisher,
	log *logger.Logger,
) *ChatService {
	return &ChatService{
		db:        db,
		uow:       uow,
		machine:   onboarding.NewMachine(generator),
		generator: generator,
		events:    events,
		logger:    log,
		now:       utcNow,
	}
}

// Send stores a user message and the assistant's answer. Onboarding
// conversations are advanced by the state machine; roleplay conversations
// get an in-character reply. Nothing is stored when generation fails.
func (s *ChatService) Send(ctx context.Context, userID, conversationID, content string) (*model.SendMessageResponse, error) {
	ctx, span := tracer.Start(ctx, "chat.send", trace.WithAttributes(
		attribute.String("conversation.id", conversationID),
	))
	defer span.End()

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.Validation("Message content is required")
	}

	conv, err := store.NewConversationRepo(s.db).Get(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}
	received := s.now()

	startedOnboarding := conv.Phase() == model.PhaseOnboarding
	reply, err := s.respond(ctx, conv, content)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		return nil, err
	}
	roleplayStarted := startedOnboarding && conv.Phase() == model.PhaseRoleplay

	userMsg := &model.Message{
		ID:             newID(),
		ConversationID: conv.ID,
		Role:           model.RoleUser,
		Content:        content,
		CreatedAt:      received,
	}
	assistantMsg := &model.Message{
		ID:             newID(),
		ConversationID: conv.ID,
		Role:           model.RoleAssistant,
		Content:        reply,
		CreatedAt:      s.now(),
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx store.DBTX) error {
		messages := store.NewMessageRepo(tx)
		if err := messages.Create(ctx, userMsg); err != nil {
			return err
		}
		if err := messages.Create(ctx, assistantMsg); err != nil {
			return err
		}

		count, err := messages.Count(ctx, conv.ID)
		if err != nil {
			return err
		}
		if count <= 2 && conv.Title == model.DefaultTitle {
			if title, ok := DeriveTitle(content); ok {
				conv.Title = title
			}
		}
		conv.UpdatedAt = assistantMsg.CreatedAt
		return store.NewConversationRepo(tx).Update(ctx, conv)
	})
	if err != nil {
		return nil, fmt.Errorf("saving messages: %w", err)
	}

	phase := conv.Phase()
	metrics.MessagesTotal.WithLabelValues(string(model.RoleUser), string(phase)).Inc()
	metrics.MessagesTotal.WithLabelValues(string(model.RoleAssistant), string(phase)).Inc()
	span.SetAttributes(attribute.String("conversation.phase", string(phase)))

	if roleplayStarted {
		metrics.RoleplaysStartedTotal.Inc()
		s.logger.Info("roleplay started",
			zap.String("conversation_id", conv.ID),
			zap.String("target_market", conv.TargetMarket),
		)
		publish(ctx, s.events, s.logger, &model.ConversationEvent{
			ID:             newID(),
			ConversationID: conv.ID,
			UserID:         userID,
			Type:           model.EventTypeRoleplayStarted,
			Metadata: map[string]any{
				"sales_experience": conv.SalesExperience,
				"product_service":  conv.ProductService,
				"target_market":    conv.TargetMarket,
			},
			CreatedAt: assistantMsg.CreatedAt,
		})
	}

	return &model.SendMessageResponse{
		Status: "success",
		Message: model.MessageView{
			Role:      model.RoleAssistant,
			Content:   reply,
			Timestamp: assistantMsg.CreatedAt,
		},
		Phase: phase,
		Title: conv.Title,
	}, nil
}

func (s *ChatService) respond(ctx context.Context, conv *model.Conversation, content string) (string, error) {
	if conv.Phase() == model.PhaseOnboarding {
		res, err := s.machine.Advance(ctx, conv, content)
		if err != nil {
			return "", err
		}
		return res.Reply, nil
	}

	history, err := store.NewMessageRepo(s.db).Recent(ctx, conv.ID, llm.ReplyHistoryLimit)
	if err != nil {
		return "", err
	}
	return s.generator.Reply(ctx, history, content, conv.Persona, conv.SalesContext())
}

// DeriveTitle builds a conversation title from the first five words of a
// message. Messages of two words or fewer yield no title.
func DeriveTitle(message string) (string, bool) {
	words := strings.Fields(message)
	if len(words) <= 2 {
		return "", false
	}
	if len(words) > titleWords {
		words = words[:titleWords]
	}

	title := strings.Join(words, " ")
	if runes := []rune(title); len(runes) > titleMaxLen {
		title = string(runes[:titleMaxLen-3]) + "..."
	}
	return title, true
}
