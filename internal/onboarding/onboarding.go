// Package onboarding gathers the sales context for a new roleplay one fact
// per user message and hands off to roleplay once a persona exists.
package onboarding

import (
	"context"
	"fmt"
	"strings"

	"github.com/capitalize-ai/sales-coach/internal/extract"
	"github.com/capitalize-ai/sales-coach/internal/model"
)

// State is the onboarding step a conversation is in.
type State string

const (
	NeedExperience State = "NEED_EXPERIENCE"
	NeedProduct    State = "NEED_PRODUCT"
	NeedMarket     State = "NEED_MARKET"
	Ready          State = "READY"
	Roleplay       State = "ROLEPLAY"
)

// ExperiencePrompt asks for the user's sales experience.
const ExperiencePrompt = "Thanks for starting a roleplay! To create a realistic scenario, I need to know how long you've been in sales. Could you tell me about your sales experience?"

// Greeting is returned once the persona has been generated.
const Greeting = "Great! Let's begin the roleplay. I'll act as a potential customer based on the information you've provided. " +
	"I'll respond as this customer would naturally, with appropriate questions and objections.\n\nHello there! How can I help you today?"

// ProductPrompt asks for the product and echoes the known experience.
func ProductPrompt(experience string) string {
	return fmt.Sprintf("Thanks! You have %s of sales experience. What product or service will you be selling in this roleplay?",
		describeExperience(experience))
}

// MarketPrompt asks for the target market and echoes the known product.
func MarketPrompt(product string) string {
	return fmt.Sprintf("Great! So you'll be selling %s. Is your target market B2B (business-to-business), B2C (business-to-consumer), or a mix of both?", product)
}

// Keyword levels read badly after "You have", so they get a suffix.
func describeExperience(experience string) string {
	switch experience {
	case extract.LevelBeginner, extract.LevelIntermediate, extract.LevelExperienced:
		return experience + "-level"
	}
	return experience
}

// PersonaGenerator produces the customer persona for a complete sales context.
type PersonaGenerator interface {
	Persona(ctx context.Context, sc model.SalesContext) (string, error)
}

// Phase derives the onboarding state from the stored facts.
func Phase(c *model.Conversation) State {
	switch {
	case c.Persona != "":
		return Roleplay
	case c.SalesContext().Complete():
		return Ready
	case c.SalesExperience == "":
		return NeedExperience
	case c.ProductService == "":
		return NeedProduct
	default:
		return NeedMarket
	}
}

// Result is the outcome of one onboarding step.
type Result struct {
	Reply string
	State State
}

// Machine advances conversations through onboarding.
type Machine struct {
	personas PersonaGenerator
}

// NewMachine creates a new onboarding machine.
func NewMachine(personas PersonaGenerator) *Machine {
	return &Machine{personas: personas}
}

// Advance consumes one user message. At most one fact is extracted per call
// and facts already set are never overwritten. When the market is learned
// the persona is generated in the same call, since nothing else remains to
// be extracted. The conversation is mutated in place; on error it may hold
// the fact extracted this turn but never a persona.
func (m *Machine) Advance(ctx context.Context, c *model.Conversation, message string) (Result, error) {
	text := strings.ToLower(message)

	switch Phase(c) {
	case Roleplay:
		return Result{State: Roleplay}, fmt.Errorf("conversation %s already in roleplay", c.ID)

	case NeedExperience:
		exp, ok := extract.Experience(text)
		if !ok {
			return Result{Reply: ExperiencePrompt, State: NeedExperience}, nil
		}
		c.SalesExperience = exp
		return Result{Reply: ProductPrompt(exp), State: NeedProduct}, nil

	case NeedProduct:
		product, ok := extract.Product(text)
		if !ok {
			return Result{Reply: ProductPrompt(c.SalesExperience), State: NeedProduct}, nil
		}
		c.ProductService = product
		return Result{Reply: MarketPrompt(product), State: NeedMarket}, nil

	case NeedMarket:
		market, ok := extract.Market(text)
		if !ok {
			return Result{Reply: MarketPrompt(c.ProductService), State: NeedMarket}, nil
		}
		c.TargetMarket = market
	}

	persona, err := m.personas.Persona(ctx, c.SalesContext())
	if err != nil {
		return Result{State: Ready}, fmt.Errorf("generate persona: %w", err)
	}
	c.Persona = persona
	return Result{Reply: Greeting, State: Roleplay}, nil
}
