package coordinator

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"github.com/egorairo/ShelfSense/tools"
)

// LLMClient is implemented by every model provider.
type LLMClient interface {
	Invoke(ctx context.Context, prompt Prompt) (Response, error)
}

type MessagePart struct {
	Type      string         `json:"type"`
	Text      string         `json:"text,omitempty"`
	ToolUseID string         `json:"tool_use_id,omitempty"`
	ToolName  string         `json:"tool_name,omitempty"`
	Data      map[string]any `json:"data,omitempty"` // tool input for tool_use, result for tool_result
}

const (
	PartText       = "text"
	PartToolUse    = "tool_use"
	PartToolResult = "tool_result"
)

type MessageParts []MessagePart

// Join concatenates the text parts.
func (mp MessageParts) Join() string {
	var b strings.Builder
	for _, part := range mp {
		if part.Type == PartText {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

type Message struct {
	Role    string       `json:"role"`
	Content MessageParts `json:"content"`
}

type ToolSpec struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	InputSchema *jsonschema.Schema `json:"input_schema"`
}

type ToolResult struct {
	ToolUseID string
	ToolName  string
	Data      map[string]any
}

// NewToolResultMessage wraps results in a user message, the shape both
// Converse and the mock planner expect.
func NewToolResultMessage(results []ToolResult) Message {
	parts := make(MessageParts, 0, len(results))
	for _, result := range results {
		parts = append(parts, MessagePart{
			Type:      PartToolResult,
			ToolUseID: result.ToolUseID,
			ToolName:  result.ToolName,
			Data:      result.Data,
		})
	}
	return Message{
		Role:    "user",
		Content: parts,
	}
}

// Response represents the model's response structure.
type Response struct {
	Content   string       `json:"content,omitempty"`
	ToolCalls []tools.Call `json:"tool_calls,omitempty"`
}
