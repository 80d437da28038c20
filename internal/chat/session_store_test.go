package chat

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/ai-tutor/internal/model"
	"github.com/rcliao/ai-tutor/internal/store"
)

func TestImportedTranscriptSurvivesSessionSave(t *testing.T) {
	ctx := context.Background()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.SaveState(ctx, model.SessionState{
		Active:      "CS101",
		Sidebar:     []string{"CS101"},
		Transcripts: map[string][]model.Message{"CS101": {{Text: Greeting("CS101"), Sender: model.SenderBot}}},
	}))
	n, err := s.Import(ctx, []store.Record{{Course: "CS202", Sender: model.SenderUser, Text: "old question"}})
	require.NoError(t, err)
	require.Equal(t, 1, n)
	imported, err := s.Transcript(ctx, "CS202")
	require.NoError(t, err)
	require.Len(t, imported, 1)

	st, err := s.LoadState(ctx)
	require.NoError(t, err)
	c, _ := newTestController(t, &fakeBackend{}, "tok")
	c.Restore(*st)

	var codes []string
	for _, course := range c.Sidebar() {
		codes = append(codes, course.Code)
	}
	assert.Equal(t, []string{"CS101"}, codes)
	assert.Equal(t, "CS101", c.Active())
	assert.Len(t, c.Transcript("CS202"), 1)

	require.NoError(t, s.SaveState(ctx, c.State()))

	got, err := s.Transcript(ctx, "CS202")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "old question", got[0].Text)
	assert.Equal(t, imported[0].ID, got[0].ID)
}

func TestRestoreUnpinnedActiveIsCleared(t *testing.T) {
	c, _ := newTestController(t, &fakeBackend{}, "tok")
	c.Restore(model.SessionState{
		Active:      "CS202",
		Sidebar:     []string{"CS101"},
		Transcripts: map[string][]model.Message{"CS202": {{Text: "hi", Sender: model.SenderUser}}},
	})
	assert.Empty(t, c.Active())
	assert.Len(t, c.Transcript("CS202"), 1)
}
