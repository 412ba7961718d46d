package coordinator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	shelfsense "github.com/egorairo/ShelfSense"
	"github.com/egorairo/ShelfSense/tools"
)

func TestNewPrompt(t *testing.T) {
	registry, err := tools.NewRegistry(stubTaste{}, nil)
	require.NoError(t, err)
	retail, err := registry.Subset(ModeTools[shelfsense.ModeRetail]...)
	require.NoError(t, err)

	session := shelfsense.Session{
		Mode:    shelfsense.ModeRetail,
		Context: "Store type: coffee_shop\nLocation: Greenpoint",
		Messages: []shelfsense.ChatMessage{
			{Role: "assistant", Content: "Hi! How can I help?"},
			{Role: "user", Content: "What should I stock?"},
			{Role: "user", Content: "  "},
			{Role: "user", Content: "We are near a museum."},
			{Role: "assistant", Content: ""},
			{Role: "tool", Content: "ignored"},
			{Role: "assistant", Content: "Let me check."},
		},
	}

	prompt := NewPrompt(session, retail)

	require.Len(t, prompt.Messages, 3)
	assert.Equal(t, "system", prompt.Messages[0].Role)
	assert.Contains(t, prompt.System(), "You are ShelfSense")
	assert.Contains(t, prompt.System(), "SHOP CONTEXT:\nStore type: coffee_shop")

	assert.Equal(t, "user", prompt.Messages[1].Role)
	assert.Equal(t, "What should I stock?\n\nWe are near a museum.", prompt.Messages[1].Content.Join())
	assert.Equal(t, "assistant", prompt.Messages[2].Role)
	assert.Equal(t, "What should I stock?\n\nWe are near a museum.", prompt.LastUserText())

	names := make([]string, 0, len(prompt.Tools))
	for _, spec := range prompt.Tools {
		names = append(names, spec.Name)
		assert.NotNil(t, spec.InputSchema)
	}
	assert.ElementsMatch(t, ModeTools[shelfsense.ModeRetail], names)
}

func TestSystemPrompt(t *testing.T) {
	assert.Contains(t, SystemPrompt(shelfsense.ModeConcierge), "TasteGraph Concierge")
	assert.Contains(t, SystemPrompt(shelfsense.Mode("unknown")), "TasteGraph Concierge")
	assert.Contains(t, SystemPrompt(shelfsense.ModeRetail), "assess_business_fit")
}

func TestPromptToolResults(t *testing.T) {
	p := Prompt{}
	assert.False(t, p.HasToolResult(tools.FindTasteGapsName))

	p.Messages = append(p.Messages,
		NewToolResultMessage([]ToolResult{{ToolUseID: "1", ToolName: tools.FindTasteGapsName, Data: map[string]any{"v": 1}}}),
		NewToolResultMessage([]ToolResult{{ToolUseID: "2", ToolName: tools.FindTasteGapsName, Data: map[string]any{"v": 2}}}),
	)
	assert.True(t, p.HasToolResult(tools.FindTasteGapsName))
	assert.Equal(t, map[string]any{"v": 2}, p.LastToolResult(tools.FindTasteGapsName))
	assert.Equal(t, "", p.LastUserText())
}

func TestMessagePartsJoin(t *testing.T) {
	parts := MessageParts{
		{Type: PartText, Text: "a"},
		{Type: PartToolUse, ToolName: "x"},
		{Type: PartText, Text: "b"},
	}
	assert.Equal(t, "ab", parts.Join())
}
