package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/capitalize-ai/sales-coach/internal/apperr"
	"github.com/capitalize-ai/sales-coach/internal/feedback"
	"github.com/capitalize-ai/sales-coach/internal/model"
	natsclient "github.com/capitalize-ai/sales-coach/internal/nats"
	"github.com/capitalize-ai/sales-coach/internal/store"
	"github.com/capitalize-ai/sales-coach/pkg/logger"
	"github.com/capitalize-ai/sales-coach/pkg/metrics"
)

// MinFeedbackMessages is the history needed before feedback: two exchanges.
const MinFeedbackMessages = 4

// FeedbackService reviews finished roleplays and updates the skill profile.
type FeedbackService struct {
	db        *sql.DB
	uow       store.UnitOfWork
	generator ResponseGenerator
	parser    feedback.SectionParser
	events    natsclient.EventPublisher
	logger    *logger.Logger
	now       func() time.Time
}

// NewFeedbackService creates a feedback service. A nil parser selects the
// heading-based MarkerParser.
func NewFeedbackService(
	db *sql.DB,
	uow store.UnitOfWork,
	generator ResponseGenerator,
	parser feedback.SectionParser,
	events natsclient.EventPublisher,
	log *logger.Logger,
) *FeedbackService {
	if parser == nil {
		parser = feedback.MarkerParser{}
	}
	return &FeedbackService{
		db:        db,
		uow:       uow,
		generator: generator,
		parser:    parser,
		events:    events,
		logger:    log,
		now:       utcNow,
	}
}

// Request generates feedback for the conversation, applies it to the
// user's skill profile and counts the roleplay as completed.
func (s *FeedbackService) Request(ctx context.Context, userID, conversationID string) (*model.FeedbackResponse, error) {
	ctx, span := tracer.Start(ctx, "feedback.request", trace.WithAttributes(
		attribute.String("conversation.id", conversationID),
	))
	defer span.End()

	if _, err := store.NewConversationRepo(s.db).Get(ctx, userID, conversationID); err != nil {
		return nil, err
	}

	history, err := store.NewMessageRepo(s.db).List(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if len(history) < MinFeedbackMessages {
		metrics.FeedbackTotal.WithLabelValues("insufficient_history").Inc()
		return nil, apperr.New(apperr.ErrInsufficientHistory, "Not enough conversation history to generate feedback")
	}

	text, err := s.generator.Feedback(ctx, history)
	if err != nil {
		metrics.FeedbackTotal.WithLabelValues("error").Inc()
		span.RecordError(err)
		return nil, err
	}

	var user *model.User
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx store.DBTX) error {
		users := store.NewUserRepo(tx)
		u, err := users.GetByID(ctx, userID)
		if err != nil {
			return err
		}

		u.SkillProfile = s.applySkills(userID, u.SkillProfile, text)
		u.CompletedRoleplays++
		u.UpdatedAt = s.now()
		if err := users.Update(ctx, u); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("saving feedback: %w", err)
	}

	metrics.FeedbackTotal.WithLabelValues("success").Inc()
	publish(ctx, s.events, s.logger, &model.ConversationEvent{
		ID:             newID(),
		ConversationID: conversationID,
		UserID:         userID,
		Type:           model.EventTypeFeedbackCompleted,
		Metadata: map[string]any{
			"completed_roleplays": user.CompletedRoleplays,
			"skills":              user.Scores,
		},
		CreatedAt: user.UpdatedAt,
	})

	return &model.FeedbackResponse{
		Status:     "success",
		Feedback:   text,
		Skills:     user.Scores,
		Strengths:  user.Strengths,
		Weaknesses: user.Weaknesses,
	}, nil
}

// applySkills never fails the request: a broken parse leaves the profile
// as it was and is logged.
func (s *FeedbackService) applySkills(userID string, profile model.SkillProfile, text string) (updated model.SkillProfile) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("skill update failed",
				zap.String("user_id", userID),
				zap.Any("panic", r),
			)
			updated = profile
		}
	}()
	return feedback.Apply(profile, s.parser.Parse(text))
}
