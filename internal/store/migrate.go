package store

import (
	"database/sql"
	"fmt"
)

// Migrate runs all schema migrations. Statements are idempotent.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id                  TEXT PRIMARY KEY,
		name                TEXT NOT NULL,
		email               TEXT NOT NULL UNIQUE COLLATE NOCASE,
		password_hash       TEXT NOT NULL DEFAULT '',
		external_id         TEXT UNIQUE,
		completed_roleplays INTEGER NOT NULL DEFAULT 0,
		skills              TEXT NOT NULL DEFAULT '{}',
		strengths           TEXT NOT NULL DEFAULT '[]',
		weaknesses          TEXT NOT NULL DEFAULT '[]',
		created_at          TEXT NOT NULL,
		updated_at          TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS conversations (
		id               TEXT PRIMARY KEY,
		user_id          TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title            TEXT NOT NULL DEFAULT 'New Conversation',
		product_service  TEXT NOT NULL DEFAULT '',
		target_market    TEXT NOT NULL DEFAULT '',
		sales_experience TEXT NOT NULL DEFAULT '',
		persona          TEXT NOT NULL DEFAULT '',
		created_at       TEXT NOT NULL,
		updated_at       TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_conversations_user ON conversations(user_id, updated_at)`,

	`CREATE TABLE IF NOT EXISTS messages (
		id              TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		role            TEXT NOT NULL CHECK(role IN ('user','assistant')),
		content         TEXT NOT NULL,
		created_at      TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, created_at)`,
}
