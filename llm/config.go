package llm

import (
	"fmt"
	"os"
	"time"
)

// DefaultGatewayURL is the OpenAI-compatible AI gateway roadmaps are
// generated through.
const DefaultGatewayURL = "https://ai.gateway.lovable.dev/v1"

// Config selects and configures the roadmap generation backend.
type Config struct {
	// Provider is "gateway" (default), "openai", "gemini", "anthropic", or
	// "mock" for offline runs.
	Provider string

	Gateway   OpenAIConfig
	OpenAI    OpenAIConfig
	Gemini    GeminiConfig
	Anthropic AnthropicConfig
	Retry     RetryConfig

	// Timeout bounds a single generation, retries included.
	Timeout time.Duration
}

// OpenAIConfig configures an OpenAI-compatible endpoint.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string // Optional.
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string // Optional.
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey  string
	Model   string
	BaseURL string // Optional.
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns a Config targeting the AI gateway.
func DefaultConfig() Config {
	return Config{
		Provider: "gateway",
		Gateway: OpenAIConfig{
			Model:   "gemini-flash",
			BaseURL: DefaultGatewayURL,
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		Gemini: GeminiConfig{
			Model: "gemini-flash",
		},
		Anthropic: AnthropicConfig{
			Model: "claude-haiku",
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 60 * time.Second,
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	setString(&cfg.Provider, "ROADMAP_LLM_PROVIDER")

	// The gateway key keeps the name the hosted functions used.
	setString(&cfg.Gateway.APIKey, "LOVABLE_API_KEY")
	setString(&cfg.Gateway.APIKey, "ROADMAP_GATEWAY_API_KEY")
	setString(&cfg.Gateway.Model, "ROADMAP_GATEWAY_MODEL")
	setString(&cfg.Gateway.BaseURL, "ROADMAP_GATEWAY_URL")

	setString(&cfg.OpenAI.APIKey, "ROADMAP_OPENAI_API_KEY")
	setString(&cfg.OpenAI.Model, "ROADMAP_OPENAI_MODEL")
	setString(&cfg.OpenAI.BaseURL, "ROADMAP_OPENAI_BASE_URL")

	setString(&cfg.Gemini.APIKey, "ROADMAP_GEMINI_API_KEY")
	setString(&cfg.Gemini.Model, "ROADMAP_GEMINI_MODEL")
	setString(&cfg.Gemini.BaseURL, "ROADMAP_GEMINI_BASE_URL")

	setString(&cfg.Anthropic.APIKey, "ROADMAP_ANTHROPIC_API_KEY")
	setString(&cfg.Anthropic.Model, "ROADMAP_ANTHROPIC_MODEL")
	setString(&cfg.Anthropic.BaseURL, "ROADMAP_ANTHROPIC_BASE_URL")

	if v := os.Getenv("ROADMAP_LLM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Timeout = d
		}
	}

	return cfg
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate checks that the selected provider is known and has a key. The
// error names the environment variable to set.
func (c Config) Validate() error {
	var key, env string
	switch c.Provider {
	case "mock":
		return nil
	case "gateway":
		key, env = c.Gateway.APIKey, "LOVABLE_API_KEY"
	case "openai":
		key, env = c.OpenAI.APIKey, "ROADMAP_OPENAI_API_KEY"
	case "gemini":
		key, env = c.Gemini.APIKey, "ROADMAP_GEMINI_API_KEY"
	case "anthropic":
		key, env = c.Anthropic.APIKey, "ROADMAP_ANTHROPIC_API_KEY"
	default:
		return fmt.Errorf("unknown LLM provider %q (want gateway, openai, gemini, anthropic or mock)", c.Provider)
	}
	if key == "" {
		return fmt.Errorf("%s is required for the %s provider", env, c.Provider)
	}
	return nil
}

// resolveModel maps a short model name through models. Unknown names are
// used as-is so full model ids keep working.
func resolveModel(name string, models map[string]string) string {
	if id, ok := models[name]; ok {
		return id
	}
	return name
}
