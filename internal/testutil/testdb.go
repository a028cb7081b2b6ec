// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/capitalize-ai/sales-coach/internal/model"
	"github.com/capitalize-ai/sales-coach/internal/store"
)

// NewTestDB creates an in-memory SQLite database with all migrations
// applied. The database is closed when the test completes.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := store.OpenDB(store.MemoryPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

// NewTestUser inserts a user with a zeroed skill profile.
func NewTestUser(t *testing.T, db *sql.DB, email string) *model.User {
	t.Helper()
	u := model.NewUser(uuid.NewString(), "Test User", email, time.Now().UTC())
	if err := store.NewUserRepo(db).Create(context.Background(), u); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// ConversationOption customises NewTestConversation.
type ConversationOption func(*model.Conversation)

// WithContext sets the onboarding facts.
func WithContext(experience, product, market string) ConversationOption {
	return func(c *model.Conversation) {
		c.SalesExperience = experience
		c.ProductService = product
		c.TargetMarket = market
	}
}

// WithPersona puts the conversation in roleplay.
func WithPersona(persona string) ConversationOption {
	return func(c *model.Conversation) {
		c.Persona = persona
	}
}

// WithUpdatedAt overrides the last-activity timestamp.
func WithUpdatedAt(at time.Time) ConversationOption {
	return func(c *model.Conversation) {
		c.UpdatedAt = at
	}
}

// NewTestConversation inserts a conversation owned by userID.
func NewTestConversation(t *testing.T, db *sql.DB, userID string, opts ...ConversationOption) *model.Conversation {
	t.Helper()
	now := time.Now().UTC()
	c := &model.Conversation{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     model.DefaultTitle,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := store.NewConversationRepo(db).Create(context.Background(), c); err != nil {
		t.Fatalf("failed to create test conversation: %v", err)
	}
	return c
}

// AddMessages appends alternating user and assistant messages.
func AddMessages(t *testing.T, db *sql.DB, conversationID string, contents ...string) {
	t.Helper()
	repo := store.NewMessageRepo(db)
	base := time.Now().UTC()
	for i, content := range contents {
		role := model.RoleUser
		if i%2 == 1 {
			role = model.RoleAssistant
		}
		m := &model.Message{
			ID:             uuid.NewString(),
			ConversationID: conversationID,
			Role:           role,
			Content:        content,
			CreatedAt:      base.Add(time.Duration(i) * time.Millisecond),
		}
		if err := repo.Create(context.Background(), m); err != nil {
			t.Fatalf("failed to add message: %v", err)
		}
	}
}
