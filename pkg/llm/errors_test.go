package llm

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantType   ErrorType
		wantStatus int
	}{
		{"auth", errors.New("error, status code: 401, message: Incorrect API key"), ErrorTypeAuth, 401},
		{"model", errors.New("The model `gpt-9` does not exist"), ErrorTypeModel, 0},
		{"endpoint 404", errors.New("status code: 404"), ErrorTypeEndpoint, 404},
		{"connection", errors.New("dial tcp: connection refused"), ErrorTypeEndpoint, 0},
		{"timeout", errors.New("context deadline exceeded"), ErrorTypeEndpoint, 0},
		{"rate limit", errors.New("status code: 429, rate limit reached"), ErrorTypeUnknown, 429},
		{"server", errors.New("status code: 503"), ErrorTypeEndpoint, 503},
		{"unknown", errors.New("something odd"), ErrorTypeUnknown, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classified := ClassifyError(tt.err)
			assert.Equal(t, tt.wantType, classified.Type)
			assert.Equal(t, tt.wantStatus, classified.StatusCode)
			assert.ErrorIs(t, classified, tt.err)
		})
	}
}

func TestClassifyError_Nil(t *testing.T) {
	assert.Nil(t, ClassifyError(nil))
}

func TestClassifyError_AlreadyClassified(t *testing.T) {
	original := NewError(ErrorTypeModel, "model not found", nil)
	wrapped := fmt.Errorf("structure: %w", original)

	assert.Same(t, original, ClassifyError(wrapped))
	assert.Equal(t, ErrorTypeModel, GetErrorType(wrapped))
}

func TestError_Message(t *testing.T) {
	err := NewError(ErrorTypeAuth, "authentication failed", errors.New("bad key"))
	err.StatusCode = 401
	err.Model = "gpt-4o"

	assert.Equal(t, "auth HTTP 401 model=gpt-4o authentication failed: bad key", err.Error())
}
