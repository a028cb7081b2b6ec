package model

import (
	"time"
)

// Skill names one of the tracked sales competencies.
type Skill string

const (
	SkillRapportBuilding   Skill = "rapport_building"
	SkillNeedsDiscovery    Skill = "needs_discovery"
	SkillObjectionHandling Skill = "objection_handling"
	SkillClosing           Skill = "closing"
	SkillProductKnowledge  Skill = "product_knowledge"
)

// Skills lists every tracked competency in display order.
var Skills = []Skill{
	SkillRapportBuilding,
	SkillNeedsDiscovery,
	SkillObjectionHandling,
	SkillClosing,
	SkillProductKnowledge,
}

// SkillScores maps each competency to its score.
type SkillScores map[Skill]int

// NewSkillScores returns a vector with every competency at zero.
func NewSkillScores() SkillScores {
	s := make(SkillScores, len(Skills))
	for _, k := range Skills {
		s[k] = 0
	}
	return s
}

// SkillProfile is the user's tracked progress.
type SkillProfile struct {
	Scores     SkillScores `json:"skills"`
	Strengths  []string    `json:"strengths"`
	Weaknesses []string    `json:"weaknesses"`
}

// User is an account of the coaching application.
type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	ExternalID   string `json:"-"`

	CompletedRoleplays int `json:"completed_roleplays"`
	SkillProfile

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUser returns a user with an initialised, all-zero skill vector.
func NewUser(id, name, email string, now time.Time) *User {
	return &User{
		ID:    id,
		Name:  name,
		Email: email,
		SkillProfile: SkillProfile{
			Scores:     NewSkillScores(),
			Strengths:  []string{},
			Weaknesses: []string{},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// RegisterRequest is the request to create an account.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the request to sign in.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

// ExternalIdentity is what a federated login provider vouches for.
type ExternalIdentity struct {
	ExternalID  string
	Email       string
	DisplayName string
}

// FeedbackResponse is returned after a feedback round.
type FeedbackResponse struct {
	Status     string      `json:"status"`
	Feedback   string      `json:"feedback"`
	Skills     SkillScores `json:"skills"`
	Strengths  []string    `json:"strengths"`
	Weaknesses []string    `json:"weaknesses"`
}

// Dashboard is the signed-in user's overview.
type Dashboard struct {
	User                *User                 `json:"user"`
	RecentConversations []ConversationSummary `json:"recent_conversations"`
}
