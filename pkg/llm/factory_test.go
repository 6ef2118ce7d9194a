package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/menu-etl/pkg/config"
)

func TestNewCompleter_SelectsProvider(t *testing.T) {
	completer, err := NewCompleter(config.LLMConfig{Provider: config.ProviderOpenAI, Model: "gpt-4o"}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &Client{}, completer)

	completer, err = NewCompleter(config.LLMConfig{Provider: config.ProviderAnthropic, Model: "claude", APIKey: "k"}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &AnthropicClient{}, completer)
}

func TestNewCompleter_Errors(t *testing.T) {
	_, err := NewCompleter(config.LLMConfig{Provider: "cohere", Model: "x"}, zap.NewNop())
	assert.Error(t, err)

	_, err = NewCompleter(config.LLMConfig{Provider: config.ProviderAnthropic, Model: "claude"}, zap.NewNop())
	assert.Error(t, err)
}
