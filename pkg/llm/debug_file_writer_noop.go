//go:build !debug

package llm

import "context"

// transcript is a no-op in non-debug builds.
type transcript struct{}

func startTranscript(ctx context.Context, model, endpoint, prompt string) *transcript {
	return &transcript{}
}

func (t *transcript) response(content string) {}

func (t *transcript) failure(err error) {}
