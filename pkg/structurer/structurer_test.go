package structurer

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/menu-etl/pkg/apperrors"
	"github.com/ekaya-inc/menu-etl/pkg/llm"
)

const (
	testSourceURL = "https://www.chick-fil-a.com/menu/sides"
	friesResponse = `[{"id":"x","name":"Fries","category":"sides","price":"$2.50","calories":"360","allergens":["wheat"],"is_vegetarian":true,"is_gluten_free":false}]`
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestStructurer(t *testing.T, mock *llm.MockLLMClient) (*Structurer, Options) {
	t.Helper()
	dir := t.TempDir()
	opts := Options{
		InputPath:  filepath.Join(dir, "raw_blob.txt"),
		OutputPath: filepath.Join(dir, "out", "menu_data.json"),
		SourceURL:  testSourceURL,
	}
	s := New(mock, opts, zap.NewNop())
	s.now = func() time.Time { return fixedNow }
	return s, opts
}

func TestStructurer_Run_WritesStampedItems(t *testing.T) {
	mock := llm.NewMockLLMClientWithResponse("```json\n" + friesResponse + "\n```")
	s, opts := newTestStructurer(t, mock)
	require.NoError(t, os.WriteFile(opts.InputPath, []byte("Waffle Potato Fries\n360 Cal"), 0o644))

	count, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Contains(t, mock.LastPrompt, "Text: Waffle Potato Fries\n360 Cal")

	data, err := os.ReadFile(opts.OutputPath)
	require.NoError(t, err)

	var written []map[string]any
	require.NoError(t, json.Unmarshal(data, &written))
	require.Len(t, written, 1)

	var expected map[string]any
	require.NoError(t, json.Unmarshal([]byte(friesResponse[1:len(friesResponse)-1]), &expected))
	for key, value := range expected {
		assert.Equal(t, value, written[0][key], "field %s", key)
	}
	assert.Equal(t, testSourceURL, written[0]["source_url"])
	assert.Equal(t, "2024-05-01T12:00:00Z", written[0]["extracted_at"])
	assert.NotContains(t, written[0], "updated_at")
	assert.Contains(t, string(data), "\n  {\n    \"id\": \"x\"", "output should be indented")
}

func TestStructurer_Run_MissingInput(t *testing.T) {
	mock := llm.NewMockLLMClient()
	s, _ := newTestStructurer(t, mock)

	_, err := s.Run(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrNotCollected)
	assert.Zero(t, mock.CompleteCalls)
}

func TestStructurer_Run_NothingExtractedWritesNothing(t *testing.T) {
	mock := llm.NewMockLLMClientWithResponse("Sorry, I cannot help with that.")
	s, opts := newTestStructurer(t, mock)
	require.NoError(t, os.WriteFile(opts.InputPath, []byte("text"), 0o644))

	_, err := s.Run(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrNoItems)

	_, statErr := os.Stat(opts.OutputPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestStructurer_Structure_FailuresYieldEmpty(t *testing.T) {
	tests := []struct {
		name     string
		complete func(ctx context.Context, prompt string) (*llm.CompletionResult, error)
	}{
		{"request error", func(ctx context.Context, prompt string) (*llm.CompletionResult, error) {
			return nil, errors.New("connection refused")
		}},
		{"invalid json", func(ctx context.Context, prompt string) (*llm.CompletionResult, error) {
			return &llm.CompletionResult{Content: `[{"id": "x",]`}, nil
		}},
		{"object instead of array", func(ctx context.Context, prompt string) (*llm.CompletionResult, error) {
			return &llm.CompletionResult{Content: `{"id": "x"}`}, nil
		}},
		{"array of strings", func(ctx context.Context, prompt string) (*llm.CompletionResult, error) {
			return &llm.CompletionResult{Content: `["fries"]`}, nil
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := llm.NewMockLLMClient()
			mock.CompleteFunc = tt.complete
			s, _ := newTestStructurer(t, mock)

			items := s.Structure(context.Background(), "text")
			assert.NotNil(t, items)
			assert.Empty(t, items)
		})
	}
}

func TestStructurer_Structure_CoercesLooseFields(t *testing.T) {
	mock := llm.NewMockLLMClientWithResponse(`[{"id":"fruit-cup","name":"Fruit Cup","calories":60,"price":3,"is_vegetarian":"true","is_gluten_free":1,"allergens":"none"}]`)
	s, _ := newTestStructurer(t, mock)

	items := s.Structure(context.Background(), "text")
	require.Len(t, items, 1)

	item := items[0]
	assert.Equal(t, "60", item.Calories)
	assert.Equal(t, "3", item.Price)
	assert.True(t, item.IsVegetarian)
	assert.True(t, item.IsGlutenFree)
	assert.JSONEq(t, `"none"`, string(item.Allergens))
	assert.Equal(t, testSourceURL, item.SourceURL)
	require.NotNil(t, item.ExtractedAt)
	assert.True(t, item.ExtractedAt.Equal(fixedNow))
}

func TestStructurer_Structure_TruncatesInput(t *testing.T) {
	mock := llm.NewMockLLMClientWithResponse(`[]`)
	s, _ := newTestStructurer(t, mock)
	s.opts.MaxInputChars = 5

	_ = s.Structure(context.Background(), "abcdefghij")
	assert.Contains(t, mock.LastPrompt, "Text: abcde\n")
	assert.NotContains(t, mock.LastPrompt, "abcdef")
}

func TestStructurer_Structure_AttachesRequestID(t *testing.T) {
	mock := llm.NewMockLLMClient()
	var sawID bool
	mock.CompleteFunc = func(ctx context.Context, prompt string) (*llm.CompletionResult, error) {
		_, sawID = llm.RequestIDFromContext(ctx)
		return &llm.CompletionResult{Content: `[]`}, nil
	}
	s, _ := newTestStructurer(t, mock)

	_ = s.Structure(context.Background(), "text")
	assert.True(t, sawID)
}
