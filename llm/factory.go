package llm

import (
	"context"
	"fmt"
	"log/slog"
)

// NewProvider builds the backend cfg.Provider names and wraps it so that
// every attempt is logged and transient failures are retried:
// caller → retry → logging → backend. The "mock" provider is returned bare
// and answers with OfflineRoadmap.
func NewProvider(ctx context.Context, cfg Config, logger *slog.Logger) (Provider, error) {
	if cfg.Provider == "mock" {
		return NewOfflineProvider(), nil
	}

	backend, err := newBackend(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("llm: %s provider: %w", cfg.Provider, err)
	}
	return WithRetry(WithLogging(backend, logger), cfg.Retry), nil
}

func newBackend(ctx context.Context, cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "gateway":
		return NewGatewayProvider(cfg.Gateway)
	case "openai":
		return NewOpenAIProvider(cfg.OpenAI)
	case "gemini":
		return NewGeminiProvider(ctx, cfg.Gemini)
	case "anthropic":
		return NewAnthropicProvider(cfg.Anthropic)
	}
	return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
}
