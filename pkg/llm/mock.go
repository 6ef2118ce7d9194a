package llm

import (
	"context"
)

// MockLLMClient is a configurable mock for testing LLM functionality.
// Set the function fields to control behavior in tests.
type MockLLMClient struct {
	// CompleteFunc is called when Complete is invoked.
	// If nil, returns an empty result and nil error.
	CompleteFunc func(ctx context.Context, prompt string) (*CompletionResult, error)

	// Model is returned by GetModel. Defaults to "mock-model".
	Model string

	// Endpoint is returned by GetEndpoint. Defaults to "http://mock-endpoint".
	Endpoint string

	// Call tracking for verification
	CompleteCalls int
	LastPrompt    string
}

// NewMockLLMClient creates a new mock with sensible defaults.
func NewMockLLMClient() *MockLLMClient {
	return &MockLLMClient{
		Model:    "mock-model",
		Endpoint: "http://mock-endpoint",
	}
}

// NewMockLLMClientWithResponse creates a mock that always answers with content.
func NewMockLLMClientWithResponse(content string) *MockLLMClient {
	m := NewMockLLMClient()
	m.CompleteFunc = func(ctx context.Context, prompt string) (*CompletionResult, error) {
		return &CompletionResult{Content: content}, nil
	}
	return m
}

// Complete implements Completer.
func (m *MockLLMClient) Complete(ctx context.Context, prompt string) (*CompletionResult, error) {
	m.CompleteCalls++
	m.LastPrompt = prompt
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, prompt)
	}
	return &CompletionResult{}, nil
}

// GetModel implements Completer.
func (m *MockLLMClient) GetModel() string {
	if m.Model == "" {
		return "mock-model"
	}
	return m.Model
}

// GetEndpoint implements Completer.
func (m *MockLLMClient) GetEndpoint() string {
	if m.Endpoint == "" {
		return "http://mock-endpoint"
	}
	return m.Endpoint
}
