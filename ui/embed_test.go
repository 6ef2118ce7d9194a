package ui

import (
	"io/fs"
	"strings"
	"testing"
)

// TestTemplatesEmbedded verifies that the dashboard template is embedded.
func TestTemplatesEmbedded(t *testing.T) {
	data, err := fs.ReadFile(TemplatesFS(), "templates/dashboard.html")
	if err != nil {
		t.Fatalf("Failed to read dashboard.html from embedded filesystem: %v", err)
	}

	content := string(data)
	if !strings.Contains(content, "<!DOCTYPE html>") {
		t.Error("dashboard.html does not appear to be valid HTML (missing DOCTYPE)")
	}
	if !strings.Contains(content, "cdn.plot.ly") {
		t.Error("dashboard.html should load Plotly")
	}
}
