package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/sales-coach/internal/apperr"
	"github.com/capitalize-ai/sales-coach/internal/feedback"
	"github.com/capitalize-ai/sales-coach/internal/llm"
	"github.com/capitalize-ai/sales-coach/internal/model"
	"github.com/capitalize-ai/sales-coach/internal/store"
	"github.com/capitalize-ai/sales-coach/internal/testutil"
	"github.com/capitalize-ai/sales-coach/pkg/logger"
)

const sampleFeedback = `Overall a solid call.

### Strengths
- Great rapport and closing technique

### Areas for Improvement
- Needs more product knowledge

### Actionable Recommendations
- Review the spec sheet before the next call`

type panickingParser struct{}

func (panickingParser) Parse(string) feedback.Sections {
	panic("unparseable")
}

func TestRequestFeedback_UpdatesSkills(t *testing.T) {
	db, uow, events := setupDB(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, db, "rep@example.com")
	conv := testutil.NewTestConversation(t, db, user.ID, testutil.WithPersona(testPersona))
	testutil.AddMessages(t, db, conv.ID, "Hi Dana", "Hello.", "Can I ask about your fleet?", "Sure.")

	client := llm.NewMockClient(sampleFeedback)
	svc := NewFeedbackService(db, uow, llm.NewGenerator(client, ""), nil, events, logger.NewNop())

	resp, err := svc.Request(ctx, user.ID, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, sampleFeedback, resp.Feedback)
	assert.Equal(t, 5, resp.Skills[model.SkillRapportBuilding])
	assert.Equal(t, 5, resp.Skills[model.SkillClosing])
	assert.Equal(t, 2, resp.Skills[model.SkillProductKnowledge])
	assert.Equal(t, 0, resp.Skills[model.SkillNeedsDiscovery])

	// The whole history plus the review request goes to the generator.
	assert.Len(t, client.LastCall().Messages, 5)

	stored, err := store.NewUserRepo(db).GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.CompletedRoleplays)
	assert.Equal(t, []string{"Great rapport and closing technique"}, stored.Strengths)
	assert.Equal(t, []string{"Needs more product knowledge"}, stored.Weaknesses)
	assert.Equal(t, 5, stored.Scores[model.SkillClosing])
	assert.Equal(t, []model.EventType{model.EventTypeFeedbackCompleted}, events.types())
}

func TestRequestFeedback_RepeatedRoundsDoNotDuplicateItems(t *testing.T) {
	db, uow, events := setupDB(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, db, "rep@example.com")
	conv := testutil.NewTestConversation(t, db, user.ID, testutil.WithPersona(testPersona))
	testutil.AddMessages(t, db, conv.ID, "a", "b", "c", "d")

	svc := NewFeedbackService(db, uow, llm.NewGenerator(llm.NewMockClient(sampleFeedback), ""), nil, events, logger.NewNop())

	for i := 0; i < 3; i++ {
		_, err := svc.Request(ctx, user.ID, conv.ID)
		require.NoError(t, err)
	}

	stored, err := store.NewUserRepo(db).GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.CompletedRoleplays)
	assert.Len(t, stored.Strengths, 1)
	assert.Equal(t, 15, stored.Scores[model.SkillRapportBuilding])
	assert.Equal(t, 6, stored.Scores[model.SkillProductKnowledge])
}

func TestRequestFeedback_InsufficientHistory(t *testing.T) {
	db, uow, events := setupDB(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, db, "rep@example.com")
	conv := testutil.NewTestConversation(t, db, user.ID, testutil.WithPersona(testPersona))
	testutil.AddMessages(t, db, conv.ID, "Hi", "Hello.", "How are you?")

	client := llm.NewMockClient(sampleFeedback)
	svc := NewFeedbackService(db, uow, llm.NewGenerator(client, ""), nil, events, logger.NewNop())

	_, err := svc.Request(ctx, user.ID, conv.ID)
	require.ErrorIs(t, err, apperr.ErrInsufficientHistory)
	assert.Equal(t, "Not enough conversation history to generate feedback", apperr.Message(err))
	assert.Equal(t, 0, client.CallCount())

	stored, err := store.NewUserRepo(db).GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.CompletedRoleplays)
	assert.Equal(t, model.NewSkillScores(), stored.Scores)
	assert.Empty(t, events.types())
}

func TestRequestFeedback_SkillUpdateIsBestEffort(t *testing.T) {
	db, uow, events := setupDB(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, db, "rep@example.com")
	conv := testutil.NewTestConversation(t, db, user.ID, testutil.WithPersona(testPersona))
	testutil.AddMessages(t, db, conv.ID, "a", "b", "c", "d")

	svc := NewFeedbackService(db, uow, llm.NewGenerator(llm.NewMockClient(sampleFeedback), ""), panickingParser{}, events, logger.NewNop())

	resp, err := svc.Request(ctx, user.ID, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.NewSkillScores(), resp.Skills)

	stored, err := store.NewUserRepo(db).GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.CompletedRoleplays)
}

func TestRequestFeedback_GenerationFailure(t *testing.T) {
	db, uow, events := setupDB(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, db, "rep@example.com")
	conv := testutil.NewTestConversation(t, db, user.ID, testutil.WithPersona(testPersona))
	testutil.AddMessages(t, db, conv.ID, "a", "b", "c", "d")

	client := &llm.MockClient{
		CompleteFunc: func(context.Context, *llm.CompletionRequest) (*llm.CompletionResponse, error) {
			return nil, fmt.Errorf("invalid api key: %w", apperr.ErrPermanentGeneration)
		},
	}
	svc := NewFeedbackService(db, uow, llm.NewGenerator(client, ""), nil, events, logger.NewNop())

	_, err := svc.Request(ctx, user.ID, conv.ID)
	require.ErrorIs(t, err, apperr.ErrPermanentGeneration)

	stored, err := store.NewUserRepo(db).GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.CompletedRoleplays)
}

func TestRequestFeedback_OtherUsersConversationIsNotFound(t *testing.T) {
	db, uow, events := setupDB(t)
	owner := testutil.NewTestUser(t, db, "owner@example.com")
	intruder := testutil.NewTestUser(t, db, "intruder@example.com")
	conv := testutil.NewTestConversation(t, db, owner.ID)
	testutil.AddMessages(t, db, conv.ID, "a", "b", "c", "d")

	svc := NewFeedbackService(db, uow, llm.NewGenerator(llm.NewMockClient(sampleFeedback), ""), nil, events, logger.NewNop())

	_, err := svc.Request(context.Background(), intruder.ID, conv.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}
