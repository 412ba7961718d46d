package shelfsense

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/egorairo/ShelfSense/slack"
	"github.com/egorairo/ShelfSense/tools"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type SlackClient interface {
	PostMessage(ctx context.Context, channel string, message string) error
	PostReport(ctx context.Context, channel string, report slack.Report) error
}

type ToolProvider interface {
	GetTools() []tools.Tool
	GetTool(name string) (tools.Tool, error)
}

// Coordinator drives a chat session through the model and its tools,
// reporting progress to the sink as it goes.
type Coordinator interface {
	Run(ctx context.Context, session Session, sink EventSink) (Outcome, error)
}

// Mode selects the system prompt and tool subset for a session.
type Mode string

const (
	ModeConcierge Mode = "concierge"
	ModeRetail    Mode = "retail"
)

// ParseMode maps free text onto a known mode, defaulting to concierge.
func ParseMode(s string) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeRetail:
		return ModeRetail
	default:
		return ModeConcierge
	}
}

// ChatMessage is one turn of the user-visible conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Session is everything a coordinator needs to answer one chat request.
type Session struct {
	ID       string
	Mode     Mode
	Messages []ChatMessage

	// Context describes the shop (type, location, inventory size) and is
	// appended to the system prompt when set.
	Context string
}

// ShopProfile describes the shop a retail session is advising.
type ShopProfile struct {
	StoreType string
	Location  string
	Products  int
}

// Context renders the profile as the block appended to the system prompt.
func (p ShopProfile) Context() string {
	var lines []string
	if p.StoreType != "" {
		lines = append(lines, "Store type: "+p.StoreType)
	}
	if p.Location != "" {
		lines = append(lines, "Location: "+p.Location)
	}
	if p.Products > 0 {
		lines = append(lines, fmt.Sprintf("Products in sales data: %d", p.Products))
	}
	return strings.Join(lines, "\n")
}

// Outcome summarises a finished run.
type Outcome struct {
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason"`
	Iterations   int    `json:"iterations"`
	ToolCalls    int    `json:"tool_calls"`
}

const (
	FinishStop   = "stop"
	FinishLength = "length"
	FinishError  = "error"
)

type EventType string

const (
	EventText       EventType = "text"
	EventToolCall   EventType = "tool_call"
	EventToolResult EventType = "tool_result"
	EventFinish     EventType = "finish"
	EventError      EventType = "error"
)

// Event is a single streamed step of a run.
type Event struct {
	Type         EventType      `json:"type"`
	Text         string         `json:"text,omitempty"`
	ToolCallID   string         `json:"tool_call_id,omitempty"`
	ToolName     string         `json:"tool_name,omitempty"`
	Args         map[string]any `json:"args,omitempty"`
	Result       map[string]any `json:"result,omitempty"`
	FinishReason string         `json:"finish_reason,omitempty"`
}

type EventSink interface {
	Emit(ctx context.Context, event Event) error
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(ctx context.Context, event Event) error

func (f EventSinkFunc) Emit(ctx context.Context, event Event) error { return f(ctx, event) }

// DiscardSink drops every event.
var DiscardSink EventSink = EventSinkFunc(func(context.Context, Event) error { return nil })
