// Package model defines data structures for the sales roleplay coach.
package model

import (
	"time"
)

// DefaultTitle is the title a conversation carries until one is derived
// from the user's first substantive message.
const DefaultTitle = "New Conversation"

// Phase is the coarse conversation mode.
type Phase string

const (
	PhaseOnboarding Phase = "onboarding"
	PhaseRoleplay   Phase = "roleplay"
)

// Conversation represents a single roleplay session owned by a user.
type Conversation struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Title  string `json:"title"`

	// Sales context gathered during onboarding. Each field is set once.
	ProductService  string `json:"product_service,omitempty"`
	TargetMarket    string `json:"target_market,omitempty"`
	SalesExperience string `json:"sales_experience,omitempty"`

	// Persona is generated exactly once, when the sales context is complete.
	Persona string `json:"persona,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Messages []Message `json:"messages,omitempty"`
}

// Phase reports roleplay once a persona exists, onboarding otherwise.
func (c *Conversation) Phase() Phase {
	if c.Persona != "" {
		return PhaseRoleplay
	}
	return PhaseOnboarding
}

// SalesContext returns the onboarding facts.
func (c *Conversation) SalesContext() SalesContext {
	return SalesContext{
		ProductService:  c.ProductService,
		TargetMarket:    c.TargetMarket,
		SalesExperience: c.SalesExperience,
	}
}

// SalesContext is the set of facts a persona is generated from.
type SalesContext struct {
	ProductService  string `json:"product_service"`
	TargetMarket    string `json:"target_market"`
	SalesExperience string `json:"sales_experience"`
}

// Complete reports whether all three facts are known.
func (s SalesContext) Complete() bool {
	return s.ProductService != "" && s.TargetMarket != "" && s.SalesExperience != ""
}

// ConversationSummary is the listing view of a conversation.
type ConversationSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Phase     Phase     `json:"phase"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Summary returns the listing view.
func (c *Conversation) Summary() ConversationSummary {
	return ConversationSummary{
		ID:        c.ID,
		Title:     c.Title,
		Phase:     c.Phase(),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// ListConversationsResponse is the response for listing conversations.
type ListConversationsResponse struct {
	Conversations []ConversationSummary `json:"conversations"`
	Total         int                   `json:"total"`
}
