package llm

import (
	"fmt"
	"strings"

	"github.com/capitalize-ai/sales-coach/internal/model"
)

const (
	personaTemperature  = 0.8
	replyTemperature    = 0.7
	feedbackTemperature = 0.3
)

const personaRequest = "Create the customer persona now."

const feedbackRequest = "The roleplay is over. Please review the conversation above."

func personaPrompt(sc model.SalesContext) string {
	customer := "consumer (B2C)"
	if strings.Contains(strings.ToLower(sc.TargetMarket), "b2b") {
		customer = "business customer (B2B)"
	}
	experience := sc.SalesExperience
	if experience == "" {
		experience = "intermediate"
	}

	return fmt.Sprintf(`Generate a detailed, realistic customer persona for a sales roleplay scenario.
This should be for a %s sales context.

The customer should be interested in: %s

Include the following in your persona:
1. Background information (name, age, role, company if B2B)
2. Personality traits and communication style
3. Specific needs and pain points related to the product/service
4. Potential objections they might have
5. Buying motivation and decision factors
6. Calibration to a salesperson with %s experience

Create a rich, detailed character that feels like a real person with genuine concerns and interests.`,
		customer, sc.ProductService, experience)
}

func roleplayPrompt(persona string, sc model.SalesContext) string {
	experience := orDefault(sc.SalesExperience, "some")
	product := orDefault(sc.ProductService, "their product/service")

	return fmt.Sprintf(`You are roleplaying as a customer with the following persona:

%s

Respond naturally as this customer would, based on the conversation history.
Raise appropriate objections and ask questions while being realistic.
The person you're talking to is a salesperson with %s experience selling %s.

Guidelines:
- Stay in character as the customer at all times
- Respond conversationally and naturally
- Express appropriate emotions and hesitations
- Never break character to explain what you're doing
- Be somewhat skeptical but not unreasonably difficult
- Ask questions that a real customer would ask
- Raise realistic objections about price, features, or alternatives
- React to how well the salesperson addresses your needs and concerns`,
		persona, experience, product)
}

const feedbackPrompt = `Analyze this sales roleplay conversation between a salesperson (user) and a customer (assistant).
Provide detailed, constructive feedback with these clearly labeled sections:

### Strengths
Highlight what the salesperson did well, with specific examples from the conversation. Use one "-" bullet per point.

### Areas for Improvement
Identify specific opportunities the salesperson missed or things they could have handled better. Use one "-" bullet per point.

### Actionable Recommendations
Provide 3-5 concrete techniques, phrases, or approaches the salesperson could use in future conversations.

Be specific, balanced, and focus on practical advice that will help them improve their sales skills.`

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
