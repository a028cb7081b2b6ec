package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/capitalize-ai/sales-coach/internal/model"
)

// ConversationRepo persists conversations. Every read and write is scoped to
// the owning user; another user's conversation is reported as not found.
type ConversationRepo struct {
	db DBTX
}

// NewConversationRepo creates a ConversationRepo over db.
func NewConversationRepo(db DBTX) *ConversationRepo {
	return &ConversationRepo{db: db}
}

const conversationColumns = `id, user_id, title, product_service, target_market, sales_experience,
	persona, created_at, updated_at`

func (r *ConversationRepo) Create(ctx context.Context, c *model.Conversation) error {
	query := `INSERT INTO conversations (` + conversationColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		c.ID,
		c.UserID,
		c.Title,
		c.ProductService,
		c.TargetMarket,
		c.SalesExperience,
		c.Persona,
		formatTime(c.CreatedAt),
		formatTime(c.UpdatedAt),
	)
	return mapErr(err, "inserting conversation")
}

// Get returns the conversation if it belongs to userID.
func (r *ConversationRepo) Get(ctx context.Context, userID, id string) (*model.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE id = ? AND user_id = ?`
	return scanConversation(r.db.QueryRowContext(ctx, query, id, userID))
}

// ListByUser returns the user's conversations, most recently updated first.
// A limit of zero or less returns all of them.
func (r *ConversationRepo) ListByUser(ctx context.Context, userID string, limit int) ([]*model.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE user_id = ?
		ORDER BY updated_at DESC, rowid DESC`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	defer rows.Close()

	convs := []*model.Conversation{}
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		convs = append(convs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating conversations: %w", err)
	}
	return convs, nil
}

func (r *ConversationRepo) Update(ctx context.Context, c *model.Conversation) error {
	query := `UPDATE conversations SET title = ?, product_service = ?, target_market = ?,
		sales_experience = ?, persona = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`
	res, err := r.db.ExecContext(ctx, query,
		c.Title,
		c.ProductService,
		c.TargetMarket,
		c.SalesExperience,
		c.Persona,
		formatTime(c.UpdatedAt),
		c.ID,
		c.UserID,
	)
	if err != nil {
		return mapErr(err, "updating conversation")
	}
	return requireAffected(res, "updating conversation")
}

// Delete removes the conversation and, by cascade, its messages.
func (r *ConversationRepo) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return mapErr(err, "deleting conversation")
	}
	return requireAffected(res, "deleting conversation")
}

func scanConversation(row rowScanner) (*model.Conversation, error) {
	var c model.Conversation
	var createdAt, updatedAt string

	err := row.Scan(&c.ID, &c.UserID, &c.Title, &c.ProductService, &c.TargetMarket, &c.SalesExperience,
		&c.Persona, &createdAt, &updatedAt)
	if err != nil {
		return nil, mapErr(err, "scanning conversation")
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func requireAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if n == 0 {
		return mapErr(sql.ErrNoRows, what)
	}
	return nil
}
