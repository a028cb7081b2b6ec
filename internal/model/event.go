package model

import (
	"time"
)

// EventType represents the type of conversation event.
type EventType string

const (
	EventTypeRoleplayStarted     EventType = "roleplay_started"
	EventTypeFeedbackCompleted   EventType = "feedback_completed"
	EventTypeConversationDeleted EventType = "conversation_deleted"
)

// ConversationEvent is published when a conversation changes phase or is
// scored.
type ConversationEvent struct {
	ID             string         `json:"id"`
	ConversationID string         `json:"conversation_id"`
	UserID         string         `json:"user_id"`
	Type           EventType      `json:"type"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}
