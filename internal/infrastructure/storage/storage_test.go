package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRunLifecycle(t *testing.T) {
	store := newTestStore(t)

	runID, err := store.StartRun()
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	require.NoError(t, store.CompleteRun(runID, 5, 12, 1, 2))

	runs, err := store.RecentRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, runID, runs[0].ID)
	assert.Equal(t, "completed", runs[0].Status)
	assert.Equal(t, 5, runs[0].MatchedPairs)
	assert.Equal(t, 12, runs[0].Singletons)
	assert.Equal(t, 1, runs[0].Ambiguities)
	assert.Equal(t, 2, runs[0].Rejected)
}

func TestSaveAndReadLinks(t *testing.T) {
	store := newTestStore(t)
	runID, err := store.StartRun()
	require.NoError(t, err)

	links := []MatchLink{
		{CanonicalID: "a1", LinkedID: "c1", Phase: "reference", Reason: "exact_reference"},
		{CanonicalID: "w1", LinkedID: "c2", Phase: "intermediary", Reason: "intermediary:wechat-cmb"},
	}
	require.NoError(t, store.SaveLinks(runID, links))

	got, err := store.LinksByRun(runID)
	require.NoError(t, err)
	assert.Equal(t, links, got)
}

func TestSaveLinks_EmptyIsNoop(t *testing.T) {
	store := newTestStore(t)
	runID, err := store.StartRun()
	require.NoError(t, err)

	require.NoError(t, store.SaveLinks(runID, nil))

	got, err := store.LinksByRun(runID)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFileImports(t *testing.T) {
	store := newTestStore(t)

	seen, err := store.WasImported("abc123")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, store.RecordFileImport("abc123", "alipay_record.csv", "alipay", 42))

	seen, err = store.WasImported("abc123")
	require.NoError(t, err)
	assert.True(t, seen)

	// Re-importing the same content replaces the row rather than failing.
	require.NoError(t, store.RecordFileImport("abc123", "alipay_record.csv", "alipay", 42))
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	store, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening applies no new migrations and must not fail.
	store, err = NewStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())
}
