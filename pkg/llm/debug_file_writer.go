//go:build debug

package llm

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

var transcriptDir = filepath.Join(os.TempDir(), "menu-etl-llm-transcripts")

func init() {
	if err := os.MkdirAll(transcriptDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: Failed to create LLM transcript directory %s: %v\n", transcriptDir, err)
		return
	}
	fmt.Fprintf(os.Stderr, "DEBUG: LLM transcripts will be written to %s\n", transcriptDir)
}

// transcript collects one completion exchange into a single file named after
// the request ID, so a bad structuring run can be replayed by hand.
type transcript struct {
	path  string
	model string
	start time.Time
}

func startTranscript(ctx context.Context, model, endpoint, prompt string) *transcript {
	id := "no-request-id"
	if rid, ok := RequestIDFromContext(ctx); ok {
		id = rid.String()
	}
	t := &transcript{
		path:  filepath.Join(transcriptDir, fmt.Sprintf("%s_%s.txt", time.Now().Format("2006-01-02_15-04-05.000"), id)),
		model: model,
		start: time.Now(),
	}
	t.write(fmt.Sprintf("MODEL: %s\nENDPOINT: %s\nREQUEST_ID: %s\n\n=== PROMPT ===\n%s\n", model, endpoint, id, prompt))
	return t
}

func (t *transcript) response(content string) {
	t.write(fmt.Sprintf("\n=== RESPONSE (%dms) ===\n%s\n", time.Since(t.start).Milliseconds(), content))
}

func (t *transcript) failure(err error) {
	t.write(fmt.Sprintf("\n=== ERROR (%dms) ===\n%v\n", time.Since(t.start).Milliseconds(), err))
}

func (t *transcript) write(s string) {
	f, err := os.OpenFile(t.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: Failed to open LLM transcript %s: %v\n", t.path, err)
		return
	}
	defer f.Close()
	if _, err := f.WriteString(s); err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: Failed to write LLM transcript %s: %v\n", t.path, err)
	}
}
