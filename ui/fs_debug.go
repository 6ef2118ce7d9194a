//go:build debug

// Package ui holds the dashboard's HTML templates.
package ui

import (
	"io/fs"
	"os"
)

// TemplatesFS returns a live filesystem rooted at ui/ (debug: reads from disk,
// so template edits show up on restart without recompiling).
func TemplatesFS() fs.FS {
	return os.DirFS("ui")
}
