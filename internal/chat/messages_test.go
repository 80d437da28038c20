package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rcliao/ai-tutor/internal/model"
	"github.com/rcliao/ai-tutor/internal/render"
)

func TestSplitSourcesIgnoresSourcesLineInAnswer(t *testing.T) {
	text := formatAnswer(render.Plain{}, "Cite your work.\nSources:\n- the textbook\n- lecture notes", nil, true)

	body, sources := SplitSources(text)
	assert.Equal(t, text, body)
	assert.Empty(t, sources)
	assert.False(t, HasSources(model.Message{Text: text, Sender: model.SenderBot}))
}

func TestSplitSourcesUsesTrailingBlock(t *testing.T) {
	answer := "Cite your work.\nSources:\n- the textbook"
	text := formatAnswer(render.Plain{}, answer, []model.Source{
		{Source: strptr("week2.pdf"), Score: 0.812, Chunk: "first line\nsecond line"},
		{Source: strptr("week3.pdf"), Score: 0.5},
	}, true)

	body, sources := SplitSources(text)
	assert.Equal(t, answer, body)
	assert.Equal(t, "• week2.pdf (Similarity score: 0.81)\n  Text chunk: first line second line\n• week3.pdf (Similarity score: 0.50)\n", sources)
	assert.True(t, HasSources(model.Message{Text: text, Sender: model.SenderBot}))
	assert.False(t, HasSources(model.Message{Text: text, Sender: model.SenderUser}))
}
