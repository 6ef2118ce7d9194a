// Package llm provides language-model completion clients.
package llm

import (
	"context"
)

// CompletionResult contains a completion and its token usage.
type CompletionResult struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Completer sends a single prompt and returns a single free-text completion.
// Use this interface for dependency injection to enable mocking in tests.
type Completer interface {
	// Complete sends prompt as one user message.
	Complete(ctx context.Context, prompt string) (*CompletionResult, error)

	// GetModel returns the configured model name.
	GetModel() string

	// GetEndpoint returns the configured endpoint.
	GetEndpoint() string
}

// Ensure clients implement Completer at compile time.
var (
	_ Completer = (*Client)(nil)
	_ Completer = (*AnthropicClient)(nil)
	_ Completer = (*MockLLMClient)(nil)
)
