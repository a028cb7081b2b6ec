package store

import (
	"context"
	"fmt"

	"github.com/capitalize-ai/sales-coach/internal/model"
)

// MessageRepo persists conversation messages. Messages are append-only.
type MessageRepo struct {
	db DBTX
}

// NewMessageRepo creates a MessageRepo over db.
func NewMessageRepo(db DBTX) *MessageRepo {
	return &MessageRepo{db: db}
}

func (r *MessageRepo) Create(ctx context.Context, m *model.Message) error {
	query := `INSERT INTO messages (id, conversation_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		m.ID,
		m.ConversationID,
		string(m.Role),
		m.Content,
		formatTime(m.CreatedAt),
	)
	return mapErr(err, "inserting message")
}

// List returns every message of the conversation, oldest first.
func (r *MessageRepo) List(ctx context.Context, conversationID string) ([]model.Message, error) {
	query := `SELECT id, conversation_id, role, content, created_at FROM messages
		WHERE conversation_id = ? ORDER BY created_at, rowid`
	return r.query(ctx, query, conversationID)
}

// Recent returns the last n messages of the conversation, oldest first.
func (r *MessageRepo) Recent(ctx context.Context, conversationID string, n int) ([]model.Message, error) {
	query := `SELECT id, conversation_id, role, content, created_at FROM (
			SELECT id, conversation_id, role, content, created_at, rowid AS seq FROM messages
			WHERE conversation_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?
		) ORDER BY created_at, seq`
	return r.query(ctx, query, conversationID, n)
}

func (r *MessageRepo) Count(ctx context.Context, conversationID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages WHERE conversation_id = ?`, conversationID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting messages: %w", err)
	}
	return n, nil
}

func (r *MessageRepo) query(ctx context.Context, query string, args ...any) ([]model.Message, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	defer rows.Close()

	msgs := []model.Message{}
	for rows.Next() {
		var m model.Message
		var role, createdAt string
		if err := rows.Scan(&m.ID, &m.ConversationID, &role, &m.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		m.Role = model.Role(role)
		if m.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating messages: %w", err)
	}
	return msgs, nil
}
