package bedrock

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/modelcontextprotocol/go-sdk/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egorairo/ShelfSense/coordinator"
	"github.com/egorairo/ShelfSense/tools"
)

// mockBedrockClient implements bedrockRuntimeClient for testing
type mockBedrockClient struct {
	response *bedrockruntime.ConverseOutput
	err      error
	input    *bedrockruntime.ConverseInput
}

func (m *mockBedrockClient) Converse(ctx context.Context, input *bedrockruntime.ConverseInput, opts ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	m.input = input
	return m.response, m.err
}

func textOutput(stop types.StopReason, blocks ...types.ContentBlock) *bedrockruntime.ConverseOutput {
	return &bedrockruntime.ConverseOutput{
		StopReason: stop,
		Output: &types.ConverseOutputMemberMessage{
			Value: types.Message{Role: types.ConversationRoleAssistant, Content: blocks},
		},
		Usage: &types.TokenUsage{
			InputTokens:  aws.Int32(10),
			OutputTokens: aws.Int32(20),
		},
		Metrics: &types.ConverseMetrics{
			LatencyMs: aws.Int64(100),
		},
	}
}

func userPrompt(text string) coordinator.Prompt {
	return coordinator.Prompt{
		Messages: []coordinator.Message{
			{Role: "system", Content: coordinator.MessageParts{{Type: coordinator.PartText, Text: "be helpful"}}},
			{Role: "user", Content: coordinator.MessageParts{{Type: coordinator.PartText, Text: text}}},
		},
	}
}

func TestNewLLMClient(t *testing.T) {
	tests := []struct {
		name     string
		input    LLMOptions
		expected LLMOptions
	}{
		{
			name:  "empty options uses defaults",
			input: LLMOptions{},
			expected: LLMOptions{
				ModelID:     defaultModelID,
				MaxTokens:   defaultMaxTokens,
				Temperature: defaultTemperature,
				TopP:        defaultTopP,
			},
		},
		{
			name: "custom options preserved",
			input: LLMOptions{
				ModelID:     "custom-model",
				MaxTokens:   4096,
				Temperature: 0.5,
				TopP:        0.8,
			},
			expected: LLMOptions{
				ModelID:     "custom-model",
				MaxTokens:   4096,
				Temperature: 0.5,
				TopP:        0.8,
			},
		},
		{
			name: "partial options with defaults",
			input: LLMOptions{
				ModelID:   "custom-model",
				MaxTokens: 512,
			},
			expected: LLMOptions{
				ModelID:     "custom-model",
				MaxTokens:   512,
				Temperature: defaultTemperature,
				TopP:        defaultTopP,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockClient := &mockBedrockClient{}
			client := NewLLMClient(mockClient, tt.input)

			assert.Equal(t, tt.expected, client.opts)
			assert.Equal(t, mockClient, client.brc)
		})
	}
}

func TestLLMClient_Invoke(t *testing.T) {
	tests := []struct {
		name          string
		mockResponse  *bedrockruntime.ConverseOutput
		mockError     error
		expectedResp  coordinator.Response
		expectedError error
	}{
		{
			name: "narrative answer",
			mockResponse: textOutput(types.StopReasonEndTurn,
				&types.ContentBlockMemberText{Value: "Here is your Berlin itinerary."},
			),
			expectedResp: coordinator.Response{Content: "Here is your Berlin itinerary."},
		},
		{
			name: "text and tool use",
			mockResponse: textOutput(types.StopReasonToolUse,
				&types.ContentBlockMemberText{Value: "Searching for Radiohead."},
				&types.ContentBlockMemberToolUse{Value: types.ToolUseBlock{
					ToolUseId: aws.String("test-id"),
					Name:      aws.String(tools.SearchTasteEntitiesName),
					Input:     document.NewLazyDocument(map[string]any{}),
				}},
			),
			expectedResp: coordinator.Response{
				Content: "Searching for Radiohead.",
				ToolCalls: []tools.Call{
					{Name: tools.SearchTasteEntitiesName, Input: map[string]any{}, ToolUseID: "test-id"},
				},
			},
		},
		{
			name:          "max tokens error",
			mockResponse:  textOutput(types.StopReasonMaxTokens),
			expectedError: ErrMaxTokens,
		},
		{
			name:          "safety filter error",
			mockResponse:  textOutput(types.StopReasonContentFiltered),
			expectedError: ErrBlocked,
		},
		{
			name:          "bedrock API error",
			mockError:     assert.AnError,
			expectedError: assert.AnError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockClient := &mockBedrockClient{
				response: tt.mockResponse,
				err:      tt.mockError,
			}

			llmClient := NewLLMClient(mockClient, LLMOptions{})
			resp, err := llmClient.Invoke(context.Background(), userPrompt("Berlin Friday night"))

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expectedResp, resp)
		})
	}
}

func TestLLMClient_BuildInput(t *testing.T) {
	prompt := userPrompt("Find me jazz bars")
	prompt.Messages = append(prompt.Messages,
		coordinator.Message{Role: "assistant", Content: coordinator.MessageParts{
			{Type: coordinator.PartText, Text: ""},
			{Type: coordinator.PartToolUse, ToolUseID: "tu-1", ToolName: tools.SearchTasteEntitiesName, Data: map[string]any{"query": "jazz"}},
		}},
		coordinator.NewToolResultMessage([]coordinator.ToolResult{
			{ToolUseID: "tu-1", ToolName: tools.SearchTasteEntitiesName, Data: map[string]any{"error": "upstream_error", "message": "boom"}},
		}),
	)
	prompt.Tools = []coordinator.ToolSpec{{
		Name:        tools.SearchTasteEntitiesName,
		Description: "search",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}}

	in, err := NewLLMClient(&mockBedrockClient{}, LLMOptions{}).buildInput(prompt)
	require.NoError(t, err)

	assert.Equal(t, defaultModelID, aws.ToString(in.ModelId))
	require.Len(t, in.System, 1)
	assert.Equal(t, "be helpful", in.System[0].(*types.SystemContentBlockMemberText).Value)

	require.Len(t, in.Messages, 3)
	assert.Equal(t, types.ConversationRoleUser, in.Messages[0].Role)

	assistant := in.Messages[1]
	require.Len(t, assistant.Content, 1, "empty text blocks are dropped")
	toolUse := assistant.Content[0].(*types.ContentBlockMemberToolUse)
	assert.Equal(t, "tu-1", aws.ToString(toolUse.Value.ToolUseId))

	result := in.Messages[2].Content[0].(*types.ContentBlockMemberToolResult)
	assert.Equal(t, types.ToolResultStatusError, result.Value.Status)

	require.NotNil(t, in.ToolConfig)
	require.Len(t, in.ToolConfig.Tools, 1)

	t.Run("no tool config without tools", func(t *testing.T) {
		in, err := NewLLMClient(&mockBedrockClient{}, LLMOptions{}).buildInput(userPrompt("hi"))
		require.NoError(t, err)
		assert.Nil(t, in.ToolConfig)
	})
}

func TestTextFromOutput(t *testing.T) {
	tests := []struct {
		name     string
		output   *bedrockruntime.ConverseOutput
		expected string
	}{
		{
			name:     "nil output",
			output:   nil,
			expected: "",
		},
		{
			name:     "single text block",
			output:   textOutput(types.StopReasonEndTurn, &types.ContentBlockMemberText{Value: "Hello world"}),
			expected: "Hello world",
		},
		{
			name: "multiple text blocks",
			output: textOutput(types.StopReasonEndTurn,
				&types.ContentBlockMemberText{Value: "Hello"},
				&types.ContentBlockMemberText{Value: "  "},
				&types.ContentBlockMemberText{Value: "world"},
			),
			expected: "Hello\nworld",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := textFromOutput(tt.output)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

type fakeNumber string

func (n fakeNumber) Float64() (float64, error) {
	switch n {
	case "800":
		return 800, nil
	case "0.5":
		return 0.5, nil
	}
	return 0, assert.AnError
}

func TestNormalizeInput(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected any
	}{
		{
			name:     "whole number float to int",
			input:    2.0,
			expected: 2,
		},
		{
			name:     "decimal float unchanged",
			input:    2.5,
			expected: 2.5,
		},
		{
			name:     "string unchanged",
			input:    "hello",
			expected: "hello",
		},
		{
			name:     "numeric string stays a string",
			input:    "123",
			expected: "123",
		},
		{
			name:     "stringified array decoded",
			input:    `["matcha", "tea"]`,
			expected: []any{"matcha", "tea"},
		},
		{
			name:     "document numbers",
			input:    map[string]any{"radius": fakeNumber("800"), "relevance": fakeNumber("0.5")},
			expected: map[string]any{"radius": 800, "relevance": 0.5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := normalizeInput(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestToolCallsFromOutput(t *testing.T) {
	tests := []struct {
		name     string
		output   *bedrockruntime.ConverseOutput
		expected []tools.Call
	}{
		{
			name: "multiple tool calls",
			output: textOutput(types.StopReasonToolUse,
				&types.ContentBlockMemberToolUse{Value: types.ToolUseBlock{
					ToolUseId: aws.String("id1"),
					Name:      aws.String("tool1"),
					Input:     document.NewLazyDocument(map[string]any{}),
				}},
				&types.ContentBlockMemberToolUse{Value: types.ToolUseBlock{
					ToolUseId: aws.String("id2"),
					Name:      aws.String("tool2"),
					Input:     document.NewLazyDocument(map[string]any{}),
				}},
			),
			expected: []tools.Call{
				{Name: "tool1", Input: map[string]any{}, ToolUseID: "id1"},
				{Name: "tool2", Input: map[string]any{}, ToolUseID: "id2"},
			},
		},
		{
			name:     "no tool calls",
			output:   textOutput(types.StopReasonEndTurn, &types.ContentBlockMemberText{Value: "Just text"}),
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := toolCallsFromOutput(tt.output)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestBuildToolSpec(t *testing.T) {
	spec := coordinator.ToolSpec{
		Name:        tools.FindTasteGapsName,
		Description: "Find gaps",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"categories": {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
			},
		},
	}

	result, err := buildToolSpec(spec)
	require.NoError(t, err)
	assert.Equal(t, spec.Name, *result.Name)
	assert.Equal(t, spec.Description, *result.Description)
	assert.NotNil(t, result.InputSchema)
}
