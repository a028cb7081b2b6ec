package model

import (
	"time"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one immutable turn of a conversation.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"timestamp"`
}

// SendMessageRequest is the request to send a new message.
type SendMessageRequest struct {
	Message string `json:"message"`
}

// MessageView is the assistant reply returned to the client.
type MessageView struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// SendMessageResponse is the response after sending a message.
type SendMessageResponse struct {
	Status  string      `json:"status"`
	Message MessageView `json:"message"`
	Phase   Phase       `json:"phase"`
	Title   string      `json:"title"`
}

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retry_after,omitempty"`
}
