package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/capitalize-ai/sales-coach/internal/model"
	"github.com/capitalize-ai/sales-coach/internal/store"
	"github.com/capitalize-ai/sales-coach/internal/testutil"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.ConversationEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e *model.ConversationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, *e)
	return nil
}

func (p *recordingPublisher) types() []model.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func setupDB(t *testing.T) (*sql.DB, store.UnitOfWork, *recordingPublisher) {
	t.Helper()
	db := testutil.NewTestDB(t)
	return db, store.NewUnitOfWork(db), &recordingPublisher{}
}

func messageCount(t *testing.T, db *sql.DB, conversationID string) int {
	t.Helper()
	n, err := store.NewMessageRepo(db).Count(context.Background(), conversationID)
	if err != nil {
		t.Fatalf("counting messages: %v", err)
	}
	return n
}
