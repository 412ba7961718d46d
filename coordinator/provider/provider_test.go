package provider

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	shelfsense "github.com/egorairo/ShelfSense"
	"github.com/egorairo/ShelfSense/coordinator/mock"
	"github.com/egorairo/ShelfSense/coordinator/ollama"
)

func TestNewLLMClient(t *testing.T) {
	t.Run("mock", func(t *testing.T) {
		cfg := shelfsense.Config{Agent: shelfsense.AgentConfig{Provider: shelfsense.ProviderMock}}
		llm, model, err := NewLLMClient(context.Background(), cfg, nil)
		require.NoError(t, err)
		assert.IsType(t, &mock.LLMClient{}, llm)
		assert.Equal(t, "mock", model)
	})

	t.Run("ollama", func(t *testing.T) {
		cfg := shelfsense.Config{Agent: shelfsense.AgentConfig{
			Provider:           shelfsense.ProviderOllama,
			BaseOllamaEndpoint: "http://localhost:11434",
			OllamaModelID:      "qwen2.5",
		}}
		llm, model, err := NewLLMClient(context.Background(), cfg, http.DefaultClient)
		require.NoError(t, err)
		assert.IsType(t, &ollama.Client{}, llm)
		assert.Equal(t, "qwen2.5", model)
	})

	t.Run("ollama without endpoint", func(t *testing.T) {
		cfg := shelfsense.Config{Agent: shelfsense.AgentConfig{Provider: shelfsense.ProviderOllama}}
		_, _, err := NewLLMClient(context.Background(), cfg, nil)
		assert.Error(t, err)
	})

	t.Run("unknown", func(t *testing.T) {
		cfg := shelfsense.Config{Agent: shelfsense.AgentConfig{Provider: "openai"}}
		_, _, err := NewLLMClient(context.Background(), cfg, nil)
		assert.EqualError(t, err, `unknown LLM provider "openai"`)
	})
}
