package service

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/sales-coach/internal/model"
	natsclient "github.com/capitalize-ai/sales-coach/internal/nats"
	"github.com/capitalize-ai/sales-coach/internal/store"
	"github.com/capitalize-ai/sales-coach/pkg/logger"
	"github.com/capitalize-ai/sales-coach/pkg/metrics"
)

// ConversationService handles conversation lifecycle operations.
type ConversationService struct {
	db     *sql.DB
	events natsclient.EventPublisher
	logger *logger.Logger
	now    func() time.Time
}

// NewConversationService creates a new conversation service.
func NewConversationService(db *sql.DB, events natsclient.EventPublisher, log *logger.Logger) *ConversationService {
	return &ConversationService{db: db, events: events, logger: log, now: utcNow}
}

// Create starts an empty conversation in onboarding.
func (s *ConversationService) Create(ctx context.Context, userID string) (*model.Conversation, error) {
	now := s.now()
	conv := &model.Conversation{
		ID:        newID(),
		UserID:    userID,
		Title:     model.DefaultTitle,
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  []model.Message{},
	}

	if err := store.NewConversationRepo(s.db).Create(ctx, conv); err != nil {
		return nil, err
	}

	metrics.ConversationsTotal.Inc()
	s.logger.Info("conversation created",
		zap.String("conversation_id", conv.ID),
		zap.String("user_id", userID),
	)
	return conv, nil
}

// Get returns the conversation with all of its messages.
func (s *ConversationService) Get(ctx context.Context, userID, conversationID string) (*model.Conversation, error) {
	conv, err := store.NewConversationRepo(s.db).Get(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	conv.Messages, err = store.NewMessageRepo(s.db).List(ctx, conv.ID)
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// List returns the user's conversations, most recently active first.
func (s *ConversationService) List(ctx context.Context, userID string, limit int) (*model.ListConversationsResponse, error) {
	convs, err := store.NewConversationRepo(s.db).ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	summaries := make([]model.ConversationSummary, 0, len(convs))
	for _, c := range convs {
		summaries = append(summaries, c.Summary())
	}
	return &model.ListConversationsResponse{
		Conversations: summaries,
		Total:         len(summaries),
	}, nil
}

// Delete removes the conversation and its messages.
func (s *ConversationService) Delete(ctx context.Context, userID, conversationID string) error {
	if err := store.NewConversationRepo(s.db).Delete(ctx, userID, conversationID); err != nil {
		return err
	}

	s.logger.Info("conversation deleted",
		zap.String("conversation_id", conversationID),
		zap.String("user_id", userID),
	)
	publish(ctx, s.events, s.logger, &model.ConversationEvent{
		ID:             newID(),
		ConversationID: conversationID,
		UserID:         userID,
		Type:           model.EventTypeConversationDeleted,
		CreatedAt:      s.now(),
	})
	return nil
}
