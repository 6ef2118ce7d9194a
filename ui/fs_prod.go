//go:build !debug

// Package ui holds the dashboard's HTML templates.
package ui

import (
	"embed"
	"io/fs"
)

//go:embed templates
var templatesFS embed.FS

// TemplatesFS returns the embedded templates (production: baked into binary).
func TemplatesFS() fs.FS {
	return templatesFS
}
