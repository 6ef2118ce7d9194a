package llm

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

const (
	requestIDKey contextKey = "llm_request_id"

	// requestIDHeader correlates a completion request with proxy and provider logs.
	requestIDHeader = "X-Request-Id"
)

// WithRequestID returns a context carrying the request ID sent with LLM calls.
func WithRequestID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request ID attached with WithRequestID.
func RequestIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(requestIDKey).(uuid.UUID)
	return id, ok
}

// contextAwareTransport copies the context's request ID onto outgoing requests.
type contextAwareTransport struct {
	base http.RoundTripper
}

func (t *contextAwareTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if id, ok := RequestIDFromContext(req.Context()); ok {
		req = req.Clone(req.Context())
		req.Header.Set(requestIDHeader, id.String())
	}
	return t.base.RoundTrip(req)
}
