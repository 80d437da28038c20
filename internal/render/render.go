// Package render converts tutor answers, written in markdown, into the text
// stored in a transcript.
package render

import (
	"bytes"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Renderer formats answer text.
type Renderer interface {
	Render(markdown string) string
}

// Markdown renders to HTML. Raw HTML in the source is dropped.
type Markdown struct {
	md goldmark.Markdown
}

// NewMarkdown returns a GitHub flavoured markdown renderer.
func NewMarkdown() *Markdown {
	return &Markdown{md: goldmark.New(goldmark.WithExtensions(extension.GFM))}
}

func (m *Markdown) Render(src string) string {
	var buf bytes.Buffer
	if err := m.md.Convert([]byte(src), &buf); err != nil {
		return "<p>" + html.EscapeString(src) + "</p>\n"
	}
	return buf.String()
}

// Plain keeps the markdown as is, for terminals.
type Plain struct{}

func (Plain) Render(src string) string { return strings.TrimSpace(src) }

// New returns the renderer for a configured mode: "html" or "plain".
func New(mode string) Renderer {
	if strings.EqualFold(mode, "html") {
		return NewMarkdown()
	}
	return Plain{}
}
