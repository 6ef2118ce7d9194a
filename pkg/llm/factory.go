package llm

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/menu-etl/pkg/config"
)

// NewCompleter creates the client for the configured provider.
func NewCompleter(cfg config.LLMConfig, logger *zap.Logger) (Completer, error) {
	clientCfg := &Config{
		Endpoint:  cfg.BaseURL,
		Model:     cfg.Model,
		APIKey:    cfg.APIKey,
		MaxTokens: cfg.MaxTokens,
		Timeout:   cfg.Timeout,
	}

	switch cfg.Provider {
	case config.ProviderOpenAI, "":
		client, err := NewClient(clientCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("create openai client: %w", err)
		}
		return client, nil
	case config.ProviderAnthropic:
		client, err := NewAnthropicClient(clientCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("create anthropic client: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
