package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/egorairo/ShelfSense/coordinator"
	"github.com/egorairo/ShelfSense/tools"
)

const (
	// defaultModelID is the default model ID for Bedrock Claude.
	// It's an inference profile ID or ARN, not the foundation model's ID.
	// See https://docs.aws.amazon.com/bedrock/latest/userguide/inference-profiles.html.
	defaultModelID = "us.anthropic.claude-sonnet-4-20250514-v1:0"

	// Narrative itineraries and gap reports run longer than a single JSON answer.
	defaultMaxTokens = 2048

	// Low temperature keeps tool arguments consistent.
	defaultTemperature = 0.2

	defaultTopP = 0.9
)

var (
	ErrMaxTokens = errors.New("model hit MaxTokens limit; consider increasing MaxTokens or chunking")
	ErrBlocked   = errors.New("model response blocked by Bedrock safety filters")
)

type bedrockRuntimeClient interface {
	Converse(context.Context, *bedrockruntime.ConverseInput, ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

type LLMOptions struct {
	ModelID     string
	MaxTokens   int32
	Temperature float32
	TopP        float32
}

type LLMClient struct {
	brc  bedrockRuntimeClient
	opts LLMOptions
}

func NewLLMClient(brc bedrockRuntimeClient, opts LLMOptions) *LLMClient {
	if opts.ModelID == "" {
		opts.ModelID = defaultModelID
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.Temperature == 0 {
		opts.Temperature = defaultTemperature
	}
	if opts.TopP == 0 {
		opts.TopP = defaultTopP
	}
	return &LLMClient{
		brc:  brc,
		opts: opts,
	}
}

func (c *LLMClient) Invoke(ctx context.Context, prompt coordinator.Prompt) (coordinator.Response, error) {
	slog.Info("LLM_CLIENT: Invoked", "messages_len", len(prompt.Messages))

	in, err := c.buildInput(prompt)
	if err != nil {
		return coordinator.Response{}, err
	}

	out, err := c.brc.Converse(ctx, in)
	if err != nil {
		slog.Error("LLM_CLIENT: Bedrock Claude invoke failed", "error", err, "model", c.opts.ModelID)
		return coordinator.Response{}, err
	}

	attrs := []any{"stop_reason", out.StopReason}
	if out.Metrics != nil {
		attrs = append(attrs, "latency_ms", aws.ToInt64(out.Metrics.LatencyMs))
	}
	if out.Usage != nil {
		attrs = append(attrs,
			"input_tokens", aws.ToInt32(out.Usage.InputTokens),
			"output_tokens", aws.ToInt32(out.Usage.OutputTokens),
		)
	}
	slog.Info("LLM_CLIENT: Bedrock Claude invoke succeeded", attrs...)

	switch out.StopReason {
	case types.StopReasonMaxTokens:
		slog.Warn("LLM_CLIENT: Model hit MaxTokens limit; consider increasing MaxTokens or chunking")
		return coordinator.Response{}, ErrMaxTokens

	case types.StopReasonGuardrailIntervened, types.StopReasonContentFiltered:
		slog.Warn("LLM_CLIENT: Model response blocked by Bedrock safety filters")
		return coordinator.Response{}, ErrBlocked
	}

	// Claude often explains itself before a tool call, so text and tool uses
	// are both kept whatever the stop reason.
	text, err := textFromOutput(out)
	if err != nil {
		return coordinator.Response{}, fmt.Errorf("failed to extract text: %w", err)
	}
	calls, err := toolCallsFromOutput(out)
	if err != nil {
		return coordinator.Response{}, fmt.Errorf("failed to parse tool calls: %w", err)
	}
	slog.Info("LLM_CLIENT: Parsed response", "text_len", len(text), "calls_len", len(calls))
	return coordinator.Response{Content: text, ToolCalls: calls}, nil
}

func (c *LLMClient) buildInput(prompt coordinator.Prompt) (*bedrockruntime.ConverseInput, error) {
	// Build system block
	var sys []types.SystemContentBlock
	for _, m := range prompt.Messages {
		if m.Role == "system" {
			sys = append(sys, &types.SystemContentBlockMemberText{Value: m.Content.Join()})
		}
	}

	// Build messages
	var msgs []types.Message
	for _, m := range prompt.Messages {
		if m.Role == "system" {
			continue // already handled above
		}
		msg := types.Message{Role: types.ConversationRole(m.Role)}

		for _, part := range m.Content {
			switch part.Type {
			case coordinator.PartText:
				if part.Text == "" {
					continue
				}
				msg.Content = append(msg.Content, &types.ContentBlockMemberText{Value: part.Text})

			case coordinator.PartToolUse:
				msg.Content = append(msg.Content, &types.ContentBlockMemberToolUse{Value: types.ToolUseBlock{
					ToolUseId: aws.String(part.ToolUseID),
					Name:      aws.String(part.ToolName),
					Input:     document.NewLazyDocument(cloneData(part.Data)),
				}})

			case coordinator.PartToolResult:
				status := types.ToolResultStatusSuccess
				if _, failed := part.Data["error"]; failed {
					status = types.ToolResultStatusError
				}
				msg.Content = append(msg.Content, &types.ContentBlockMemberToolResult{Value: types.ToolResultBlock{
					ToolUseId: aws.String(part.ToolUseID),
					Status:    status,
					Content: []types.ToolResultContentBlock{
						&types.ToolResultContentBlockMemberJson{
							Value: document.NewLazyDocument(cloneData(part.Data)),
						},
					},
				}})
			}
		}

		if len(msg.Content) > 0 {
			msgs = append(msgs, msg)
		}
	}

	in := &bedrockruntime.ConverseInput{
		ModelId:  aws.String(c.opts.ModelID),
		System:   sys,
		Messages: msgs,
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(c.opts.MaxTokens),
			Temperature: aws.Float32(c.opts.Temperature),
			TopP:        aws.Float32(c.opts.TopP),
		},
	}

	// Build tools
	var specs []types.Tool
	for _, t := range prompt.Tools {
		spec, err := buildToolSpec(t)
		if err != nil {
			return nil, err
		}
		specs = append(specs, &types.ToolMemberToolSpec{Value: spec})
	}
	if len(specs) > 0 {
		in.ToolConfig = &types.ToolConfiguration{Tools: specs, ToolChoice: &types.ToolChoiceMemberAuto{}}
	}

	return in, nil
}

// cloneData gives the lazy document its own copy of the map.
func cloneData(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	b, err := json.Marshal(data)
	if err != nil {
		for k, v := range data {
			out[k] = v
		}
		return out
	}
	if err := json.Unmarshal(b, &out); err != nil {
		slog.Error("LLM_CLIENT: Failed to copy block data", "error", err)
	}
	return out
}

// buildToolSpec constructs a ToolSpecification for a tool.
func buildToolSpec(t coordinator.ToolSpec) (types.ToolSpecification, error) {
	// Pre-marshal the schema so the jsonschema MarshalJSON method is honoured.
	schemaJSON, err := json.Marshal(t.InputSchema)
	if err != nil {
		return types.ToolSpecification{}, fmt.Errorf("failed to marshal tool schema for %s: %w", t.Name, err)
	}

	var schemaMap map[string]any
	if err := json.Unmarshal(schemaJSON, &schemaMap); err != nil {
		return types.ToolSpecification{}, fmt.Errorf("failed to unmarshal tool schema for %s: %w", t.Name, err)
	}

	return types.ToolSpecification{
		Name:        aws.String(t.Name),
		Description: aws.String(t.Description),
		InputSchema: &types.ToolInputSchemaMemberJson{
			Value: document.NewLazyDocument(schemaMap),
		},
	}, nil
}

// textFromOutput joins the assistant's text blocks with '\n'.
func textFromOutput(out *bedrockruntime.ConverseOutput) (string, error) {
	if out == nil || out.Output == nil {
		return "", nil
	}

	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok || msg == nil || len(msg.Value.Content) == 0 {
		return "", nil
	}

	texts := make([]string, 0, len(msg.Value.Content))
	for _, cb := range msg.Value.Content {
		if t, ok := cb.(*types.ContentBlockMemberText); ok && t != nil && strings.TrimSpace(t.Value) != "" {
			texts = append(texts, t.Value)
		}
	}
	return strings.Join(texts, "\n"), nil
}

// toolCallsFromOutput extracts tool uses emitted by the assistant.
func toolCallsFromOutput(out *bedrockruntime.ConverseOutput) ([]tools.Call, error) {
	var calls []tools.Call
	if out == nil {
		return calls, nil
	}

	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok || msg == nil || msg.Value.Content == nil {
		return calls, nil
	}

	for _, cb := range msg.Value.Content {
		tu, ok := cb.(*types.ContentBlockMemberToolUse)
		if !ok || tu == nil {
			continue
		}

		var input map[string]any
		if tu.Value.Input == nil || tu.Value.Input.UnmarshalSmithyDocument(&input) != nil || input == nil {
			input = map[string]any{}
		}

		calls = append(calls, tools.Call{
			Name:      aws.ToString(tu.Value.Name),
			Input:     normalizeInput(input).(map[string]any),
			ToolUseID: aws.ToString(tu.Value.ToolUseId),
		})
	}

	return calls, nil
}

type floatNumber interface {
	Float64() (float64, error)
}

// normalizeInput recursively coerces types for safe downstream use.
func normalizeInput(val any) any {
	switch v := val.(type) {
	case float64:
		// Convert whole numbers like 2.0 → 2
		if v == float64(int(v)) {
			return int(v)
		}
		return v

	case floatNumber:
		// smithy documents decode numbers as document.Number
		if f, err := v.Float64(); err == nil {
			return normalizeInput(f)
		}
		return v

	case string:
		// Models sometimes send arrays or objects as JSON strings.
		s := strings.TrimSpace(v)
		if strings.HasPrefix(s, "[") || strings.HasPrefix(s, "{") {
			var decoded any
			if json.Unmarshal([]byte(s), &decoded) == nil {
				return normalizeInput(decoded)
			}
		}
		return v

	case []any:
		for i := range v {
			v[i] = normalizeInput(v[i])
		}
		return v

	case map[string]any:
		for key, val := range v {
			v[key] = normalizeInput(val)
		}
		return v

	default:
		return v
	}
}
