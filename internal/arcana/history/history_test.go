package history

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecordAndRecent(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Record(ctx, "reason why", "success", "because"))
	require.NoError(t, store.Record(ctx, "cd /tmp", "error", "no such directory"))

	entries, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		require.Equal(t, store.SessionID(), e.SessionID)
		require.NotEmpty(t, e.ID)
		require.False(t, e.SubmittedAt.IsZero())
	}
}

func TestRecentRespectsLimit(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Record(ctx, "reason x", "success", "y"))
	}
	entries, err := store.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
}

func TestRecordRequiresCommand(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer store.Close()
	require.Error(t, store.Record(context.Background(), "", "info", ""))
}

func TestSessionsGetDistinctIDs(t *testing.T) {
	dir := t.TempDir()
	first, err := Open(filepath.Join(dir, "history.db"))
	require.NoError(t, err)
	firstID := first.SessionID()
	require.NoError(t, first.Close())

	second, err := Open(filepath.Join(dir, "history.db"))
	require.NoError(t, err)
	defer second.Close()
	require.NotEqual(t, firstID, second.SessionID())
}
