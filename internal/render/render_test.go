package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkdownRendersHTML(t *testing.T) {
	r := NewMarkdown()
	assert.Equal(t, "<p>42</p>\n", r.Render("42"))
	assert.Contains(t, r.Render("**bold** and `code`"), "<strong>bold</strong>")
	assert.Contains(t, r.Render("| a | b |\n|---|---|\n| 1 | 2 |"), "<table>")
}

func TestMarkdownDropsRawHTML(t *testing.T) {
	out := NewMarkdown().Render("<script>alert(1)</script>")
	assert.NotContains(t, out, "<script>")
}

func TestNew(t *testing.T) {
	assert.IsType(t, &Markdown{}, New("HTML"))
	assert.IsType(t, Plain{}, New("plain"))
	assert.IsType(t, Plain{}, New(""))
	assert.Equal(t, "# hi", Plain{}.Render("  # hi \n"))
}
