// Package provider picks the LLM backend named by the configuration.
package provider

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	shelfsense "github.com/egorairo/ShelfSense"
	"github.com/egorairo/ShelfSense/coordinator"
	"github.com/egorairo/ShelfSense/coordinator/bedrock"
	"github.com/egorairo/ShelfSense/coordinator/mock"
	"github.com/egorairo/ShelfSense/coordinator/ollama"
)

// NewLLMClient builds the client for cfg.Agent.Provider and returns it with
// the model id used in coordination log names.
func NewLLMClient(ctx context.Context, cfg shelfsense.Config, httpClient shelfsense.HTTPClient) (coordinator.LLMClient, string, error) {
	switch cfg.Agent.Provider {
	case shelfsense.ProviderBedrock:
		brc, err := newBedrockRuntimeClient(ctx)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create Bedrock client: %w", err)
		}
		slog.Info("SETUP: Using Bedrock provider", "model", cfg.Model.ModelID)
		return bedrock.NewLLMClient(brc, bedrock.LLMOptions{
			ModelID:     cfg.Model.ModelID,
			MaxTokens:   cfg.Model.MaxTokens,
			Temperature: cfg.Model.Temperature,
			TopP:        cfg.Model.TopP,
		}), cfg.Model.ModelID, nil

	case shelfsense.ProviderOllama:
		llm, err := ollama.NewClient(ollama.ClientOpts{
			BaseEndpoint: cfg.Agent.BaseOllamaEndpoint,
			ModelID:      cfg.Agent.OllamaModelID,
			HTTPClient:   httpClient,
		})
		if err != nil {
			return nil, "", err
		}
		slog.Info("SETUP: Using Ollama provider", "endpoint", cfg.Agent.BaseOllamaEndpoint, "model", cfg.Agent.OllamaModelID)
		return llm, cfg.Agent.OllamaModelID, nil

	case shelfsense.ProviderMock:
		slog.Info("SETUP: Using mock provider")
		return mock.NewLLMClient(), shelfsense.ProviderMock, nil
	}
	return nil, "", fmt.Errorf("unknown LLM provider %q", cfg.Agent.Provider)
}

func newBedrockRuntimeClient(ctx context.Context) (*bedrockruntime.Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRetryMaxAttempts(5))
	if err != nil {
		return nil, err
	}
	return bedrockruntime.NewFromConfig(awsCfg), nil
}
