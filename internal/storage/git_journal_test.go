package storage

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGitJournal_CommitsEveryWrite(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	inner, err := NewDiskSink(root, "")
	require.NoError(t, err)
	journal := NewGitJournal(inner, root, zerolog.Nop())

	require.NoError(t, journal.WriteFile(ctx, "p1", "index.html", "v1"))
	require.NoError(t, journal.WriteFile(ctx, "p1", "index.html", "v2"))
	require.NoError(t, journal.WriteFile(ctx, "p1", "about.html", "a1"))

	content, err := journal.ReadFile(ctx, "p1", "index.html")
	require.NoError(t, err)
	assert.Equal(t, "v2", content)

	history, err := journal.History(ctx, "p1", "index.html")
	require.NoError(t, err)
	require.Len(t, history, 2)
	for _, rev := range history {
		assert.Equal(t, "write index.html", rev.Message)
		assert.NotEmpty(t, rev.Hash)
	}

	about, err := journal.History(ctx, "p1", "about.html")
	require.NoError(t, err)
	assert.Len(t, about, 1)
}

func TestGitJournal_HistoryWithoutRepo(t *testing.T) {
	root := t.TempDir()
	inner, err := NewDiskSink(root, "")
	require.NoError(t, err)
	journal := NewGitJournal(inner, root, zerolog.Nop())

	history, err := journal.History(context.Background(), "p1", "index.html")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestGitJournal_InvalidNameSkipsCommit(t *testing.T) {
	root := t.TempDir()
	inner, err := NewDiskSink(root, "")
	require.NoError(t, err)
	journal := NewGitJournal(inner, root, zerolog.Nop())

	err = journal.WriteFile(context.Background(), "p1", "../x.html", "v1")
	require.Error(t, err)

	history, err := journal.History(context.Background(), "p1", "index.html")
	require.NoError(t, err)
	assert.Empty(t, history)
}
