package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"github.com/egorairo/ShelfSense/qloo"
)

type Tool interface {
	Name() string
	Title() string
	Description() string
	InputSchema() *jsonschema.Schema
	OutputSchema() *jsonschema.Schema
	Run(ctx context.Context, input map[string]any) (output map[string]any, err error)
}

type Call struct {
	Name      string         `json:"name"`
	Input     map[string]any `json:"input"`
	ToolUseID string         `json:"tool_use_id,omitempty"`
}

// TasteAPI is the slice of the taste graph client the tools depend on.
type TasteAPI interface {
	Search(ctx context.Context, query, entityType string) ([]qloo.SearchResult, error)
	Recommendations(ctx context.Context, req qloo.RecommendationsRequest) ([]qloo.Recommendation, error)
	PlaceInsights(ctx context.Context, q qloo.PlaceQuery) ([]qloo.InsightsEntity, error)
}

// Error codes reported back to the model.
const (
	CodeInvalidInput = "invalid_input"
	CodeUpstream     = "upstream_error"
	CodeNoData       = "no_data"
)

// Error is a tool failure the model is expected to recover from.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Code + ": " + e.Message }

func (e *Error) Unwrap() error { return e.Err }

func newError(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func upstreamError(err error, action string) *Error {
	return &Error{Code: CodeUpstream, Message: fmt.Sprintf("%s: %v", action, err), Err: err}
}

// decodeInput maps the model's loosely typed arguments onto a struct.
func decodeInput(input map[string]any, v any) error {
	b, err := json.Marshal(input)
	if err != nil {
		return newError(CodeInvalidInput, "encode input: %v", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return newError(CodeInvalidInput, "decode input: %v", err)
	}
	return nil
}

// marshal -> map[string]any to keep outputs uniform
func toOutput(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func stringSchema(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: description}
}

func stringArraySchema(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "array", Description: description, Items: &jsonschema.Schema{Type: "string"}}
}
