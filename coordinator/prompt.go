package coordinator

import (
	"strings"

	shelfsense "github.com/egorairo/ShelfSense"
	"github.com/egorairo/ShelfSense/tools"
)

type Prompt struct {
	Messages []Message `json:"messages"`
	Tools    []ToolSpec `json:"tools,omitempty"`
}

// ModeTools lists the tools each mode may call.
var ModeTools = map[shelfsense.Mode][]string{
	shelfsense.ModeConcierge: {
		tools.SearchTasteEntitiesName,
		tools.GetRecommendationsName,
	},
	shelfsense.ModeRetail: {
		tools.GetCulturalSignalsName,
		tools.FindTasteGapsName,
		tools.AssessBusinessFitName,
		tools.SearchTasteEntitiesName,
	},
}

// SystemPrompt returns the instructions for a mode.
func SystemPrompt(mode shelfsense.Mode) string {
	if mode == shelfsense.ModeRetail {
		return retailPrompt
	}
	return conciergePrompt
}

// NewPrompt turns a session into a model prompt. Empty turns are dropped,
// consecutive turns from the same role are merged and a leading assistant
// turn is removed so the conversation always opens with the user.
func NewPrompt(session shelfsense.Session, tp shelfsense.ToolProvider) Prompt {
	available := tp.GetTools()
	specs := make([]ToolSpec, 0, len(available))
	for _, tool := range available {
		specs = append(specs, ToolSpec{
			Name:        tool.Name(),
			Description: tool.Description(),
			InputSchema: tool.InputSchema(),
		})
	}

	system := SystemPrompt(session.Mode)
	if c := strings.TrimSpace(session.Context); c != "" {
		system += "\n\nSHOP CONTEXT:\n" + c
	}

	messages := []Message{{
		Role:    "system",
		Content: MessageParts{{Type: PartText, Text: system}},
	}}
	for _, m := range session.Messages {
		role := strings.ToLower(strings.TrimSpace(m.Role))
		text := strings.TrimSpace(m.Content)
		if text == "" || (role != "user" && role != "assistant") {
			continue
		}
		if len(messages) == 1 && role == "assistant" {
			continue
		}

		last := &messages[len(messages)-1]
		if last.Role == role {
			last.Content = append(last.Content, MessagePart{Type: PartText, Text: "\n\n" + text})
			continue
		}
		messages = append(messages, Message{
			Role:    role,
			Content: MessageParts{{Type: PartText, Text: text}},
		})
	}

	return Prompt{Messages: messages, Tools: specs}
}

// HasToolResult reports whether a result for the named tool is already in the history.
func (p *Prompt) HasToolResult(tool string) bool {
	return p.LastToolResult(tool) != nil
}

// LastToolResult returns the most recent result data for the named tool.
func (p *Prompt) LastToolResult(tool string) map[string]any {
	for i := len(p.Messages) - 1; i >= 0; i-- {
		for _, part := range p.Messages[i].Content {
			if part.Type == PartToolResult && part.ToolName == tool {
				return part.Data
			}
		}
	}
	return nil
}

// LastUserText returns the text of the latest user turn.
func (p *Prompt) LastUserText() string {
	for i := len(p.Messages) - 1; i >= 0; i-- {
		m := p.Messages[i]
		if m.Role != "user" {
			continue
		}
		if text := m.Content.Join(); text != "" {
			return text
		}
	}
	return ""
}

// System returns the joined system instructions.
func (p *Prompt) System() string {
	var parts []string
	for _, m := range p.Messages {
		if m.Role == "system" {
			parts = append(parts, m.Content.Join())
		}
	}
	return strings.Join(parts, "\n\n")
}

const conciergePrompt = `You are TasteGraph Concierge, a travel assistant powered by the Qloo taste graph.

Your role is to create personalized travel itineraries based on user preferences and location.

When a user mentions:
- Location and time (e.g., "Berlin Friday night")
- Preferences (e.g., "I love Radiohead and Korean BBQ")

Follow this process:
1. Use search_taste_entities to find entity IDs for their preferences (music artists, food types, etc.)
2. Use get_recommendations to get personalized suggestions for their location
3. Create a narrative itinerary explaining WHY each recommendation fits their taste profile

Key guidelines:
- Always explain the connection between their preferences and recommendations
- Include affinity scores to show recommendation strength
- Focus on experiences that align with their stated tastes
- Be conversational and enthusiastic about the recommendations
- Prioritize venues, restaurants, events, and experiences over generic suggestions
- If booking links are available, mention them naturally
- If a tool returns an "error" field, explain the problem briefly and continue with what you have

Example response structure:
"Based on your love for Radiohead and Korean BBQ, here's your personalized Berlin itinerary:

**Music Venue**: [Venue Name] - This indie venue has hosted similar alternative rock acts and has that intimate, underground vibe that Radiohead fans love. (Affinity: 0.85)

**Korean BBQ**: [Restaurant Name] - Authentic Korean BBQ with a modern twist, perfect for your taste preferences. (Affinity: 0.92)

The connections run deeper than surface level - your appreciation for Radiohead's experimental sound suggests you'd enjoy..."`

const retailPrompt = `You are ShelfSense, a merchandising advisor for small independent shops.

Your role is to find products the neighbourhood already loves that the shop does not stock yet, and to keep only the ideas that suit the shop.

Follow this process:
1. Use get_cultural_signals for the shop's location to learn what nearby places are known for.
2. Pass the trending_categories to find_taste_gaps. It compares them with the shop's sales records.
3. Pass the gaps to assess_business_fit with the shop's store_type and a short location_context.
4. Recommend only gaps with is_viable true, best first. Mention the predicted impact and the rationale.
5. Briefly list rejected ideas with the issue that ruled them out.

Key guidelines:
- Never recommend a product flagged with an issue.
- Mention operational notes (refrigeration, licences, equipment) when they apply.
- If the shop context is missing a store type or location, ask for it before calling tools.
- If a tool returns an "error" field, explain the problem briefly and continue with what you have.
- Keep the answer short: a ranked list followed by one paragraph of reasoning.`
