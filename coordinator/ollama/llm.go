package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	shelfsense "github.com/egorairo/ShelfSense"
	"github.com/egorairo/ShelfSense/coordinator"
	"github.com/egorairo/ShelfSense/tools"
)

const defaultModelID = "llama3.1"

type Client struct {
	endpoint   string
	model      string
	httpClient shelfsense.HTTPClient
	options    options
}

type ClientOpts struct {
	BaseEndpoint string
	ModelID      string
	HTTPClient   shelfsense.HTTPClient
}

func NewClient(opts ClientOpts) (*Client, error) {
	if strings.TrimSpace(opts.BaseEndpoint) == "" {
		return nil, fmt.Errorf("ollama base endpoint is required")
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.ModelID == "" {
		opts.ModelID = defaultModelID
	}

	return &Client{
		model:      opts.ModelID,
		httpClient: opts.HTTPClient,
		endpoint:   strings.TrimRight(opts.BaseEndpoint, "/") + "/api/chat",
		options: options{
			Temperature:   0.2,
			TopP:          0.9,
			RepeatPenalty: 1.05,
			NumCtx:        16384,
		},
	}, nil
}

// Invoke sends the prompt to the Ollama chat API. Ollama does not assign
// tool call ids, so the returned calls carry none.
func (c *Client) Invoke(ctx context.Context, prompt coordinator.Prompt) (coordinator.Response, error) {
	slog.Info("LLM_CLIENT: Invoked", "messages_len", len(prompt.Messages), "model", c.model)

	reqBytes, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: buildMessages(prompt),
		Tools:    buildTools(prompt.Tools),
		Stream:   false,
		Options:  c.options,
	})
	if err != nil {
		return coordinator.Response{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(reqBytes))
	if err != nil {
		return coordinator.Response{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return coordinator.Response{}, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return coordinator.Response{}, fmt.Errorf("ollama: %s: %s", resp.Status, string(body))
	}

	var cr chatResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		slog.Warn("LLM_CLIENT: decode failed, returning raw", "err", err, "body", string(body))
		return coordinator.Response{Content: string(body)}, nil
	}

	out := coordinator.Response{Content: strings.TrimSpace(cr.Message.Content)}
	for _, call := range cr.Message.ToolCalls {
		args := call.Function.Arguments
		if args == nil {
			args = map[string]any{}
		}
		out.ToolCalls = append(out.ToolCalls, tools.Call{
			Name:  call.Function.Name,
			Input: args,
		})
	}
	if len(out.ToolCalls) == 0 {
		out.ParseModelOutput()
	}
	slog.Info("LLM_CLIENT: Parsed response", "text_len", len(out.Content), "calls_len", len(out.ToolCalls))
	return out, nil
}

// buildMessages converts the shared prompt into Ollama chat messages.
// Tool uses become assistant tool_calls and tool results become one
// role=tool message per result with the JSON payload as content.
func buildMessages(prompt coordinator.Prompt) []Message {
	messages := make([]Message, 0, len(prompt.Messages))

	for _, m := range prompt.Messages {
		switch m.Role {
		case "system":
			messages = append(messages, Message{Role: "system", Content: m.Content.Join()})

		case "user", "assistant":
			msg := Message{Role: m.Role, Content: m.Content.Join()}
			var results []Message
			for _, part := range m.Content {
				switch part.Type {
				case coordinator.PartToolUse:
					msg.ToolCalls = append(msg.ToolCalls, ToolCall{Function: FunctionCall{
						Name:      part.ToolName,
						Arguments: part.Data,
					}})
				case coordinator.PartToolResult:
					content, err := json.Marshal(part.Data)
					if err != nil {
						slog.Warn("LLM_CLIENT: dropping unencodable tool result", "tool", part.ToolName, "error", err)
						continue
					}
					results = append(results, Message{Role: "tool", Name: part.ToolName, Content: string(content)})
				}
			}
			if msg.Content != "" || len(msg.ToolCalls) > 0 {
				messages = append(messages, msg)
			}
			messages = append(messages, results...)

		default:
			slog.Warn("LLM_CLIENT: unknown role, coercing to user", "role", m.Role)
			messages = append(messages, Message{Role: "user", Content: m.Content.Join()})
		}
	}

	return messages
}

func buildTools(specs []coordinator.ToolSpec) []Tool {
	if len(specs) == 0 {
		return nil
	}
	out := make([]Tool, 0, len(specs))
	for _, s := range specs {
		out = append(out, Tool{
			Type: "function",
			Function: ToolSchema{
				Name:        s.Name,
				Description: s.Description,
				Parameters:  s.InputSchema,
			},
		})
	}
	return out
}
