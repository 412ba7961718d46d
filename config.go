package shelfsense

import (
	"fmt"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
)

const (
	ProviderBedrock = "bedrock"
	ProviderOllama  = "ollama"
	ProviderMock    = "mock"
)

type ModelConfig struct {
	ModelID     string  `env:"MODEL_ID,default=us.anthropic.claude-sonnet-4-20250514-v1:0"`
	MaxTokens   int32   `env:"MAX_TOKENS,default=2048"`
	Temperature float32 `env:"TEMPERATURE,default=0.2"`
	TopP        float32 `env:"TOP_P,default=0.9"`
}

type AgentConfig struct {
	Provider           string `env:"LLM_PROVIDER,default=bedrock"`
	BaseOllamaEndpoint string `env:"BASE_OLLAMA_ENDPOINT,default=http://localhost:11434"`
	OllamaModelID      string `env:"OLLAMA_MODEL_ID,default=llama3.1"`
	MaxIterations      int    `env:"MAX_ITERATIONS,default=10"`
	CoordinationLog    string `env:"COORDINATION_LOG,default=stdout"`
	CoordinationLogDir string `env:"COORDINATION_LOG_DIR,default=./logs"`
}

type QlooConfig struct {
	APIKey        string        `env:"QLOO_API_KEY,required"`
	BaseURL       string        `env:"QLOO_BASE_URL,default=https://hackathon.api.qloo.com"`
	RatePerSecond float64       `env:"QLOO_RATE_PER_SECOND,default=5"`
	Burst         int           `env:"QLOO_BURST,default=10"`
	CacheTTL      time.Duration `env:"QLOO_CACHE_TTL,default=10m"`
}

type ServerConfig struct {
	Port           string        `env:"PORT,default=8080"`
	AllowedOrigins string        `env:"ALLOWED_ORIGINS,default=http://localhost:*"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT,default=30s"`
	GinMode        string        `env:"GIN_MODE,default=release"`
}

// Origins splits the comma-separated allowed origins.
func (c ServerConfig) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

type SalesConfig struct {
	CSVPath  string `env:"SALES_CSV_PATH"`
	S3Bucket string `env:"SALES_S3_BUCKET"`
	S3Key    string `env:"SALES_S3_KEY"`
}

type SlackConfig struct {
	WebhookURL string `env:"SLACK_WEBHOOK_URL"`
	Channel    string `env:"SLACK_CHANNEL,default=#shelfsense"`
}

// Config groups every setting read from the environment.
type Config struct {
	Model  ModelConfig
	Agent  AgentConfig
	Qloo   QlooConfig
	Server ServerConfig
	Sales  SalesConfig
	Slack  SlackConfig
}

// LoadConfig decodes and validates the configuration from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Agent.Provider {
	case ProviderBedrock, ProviderOllama, ProviderMock:
	default:
		return fmt.Errorf("invalid LLM_PROVIDER %q: must be one of %s, %s, %s", c.Agent.Provider, ProviderBedrock, ProviderOllama, ProviderMock)
	}
	if c.Agent.MaxIterations < 1 {
		return fmt.Errorf("MAX_ITERATIONS must be at least 1, got %d", c.Agent.MaxIterations)
	}
	switch c.Agent.CoordinationLog {
	case "stdout", "file", "none":
	default:
		return fmt.Errorf("invalid COORDINATION_LOG %q: must be stdout, file or none", c.Agent.CoordinationLog)
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	if (c.Sales.S3Bucket == "") != (c.Sales.S3Key == "") {
		return fmt.Errorf("SALES_S3_BUCKET and SALES_S3_KEY must be set together")
	}
	return nil
}
