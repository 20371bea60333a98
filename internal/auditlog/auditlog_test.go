package auditlog

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vectorbase/internal/store"
)

func TestLog_RecordAndListForLibrary(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "audit.db")
	log, err := Open(dbPath)
	require.NoError(t, err)
	defer log.Close()

	started := time.Now().Add(-time.Second)
	require.NoError(t, log.Record("lib-1", store.IndexerLinear, started, 250*time.Millisecond, true, ""))
	require.NoError(t, log.Record("lib-1", store.IndexerBallTree, started, 400*time.Millisecond, false, "build failed"))
	require.NoError(t, log.Record("lib-2", store.IndexerLinear, started, 100*time.Millisecond, true, ""))

	entries, err := log.ListForLibrary("lib-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "lib-1", entries[0].LibraryID)
	assert.Equal(t, "lib-1", entries[1].LibraryID)
}

func TestLog_ListForLibraryWithNoEntriesIsEmpty(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "audit.db")
	log, err := Open(dbPath)
	require.NoError(t, err)
	defer log.Close()

	entries, err := log.ListForLibrary("never-built")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLog_RecordPreservesFailureDetail(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "audit.db")
	log, err := Open(dbPath)
	require.NoError(t, err)
	defer log.Close()

	require.NoError(t, log.Record("lib-3", store.IndexerBallTree, time.Now(), time.Second, false, "leaf_size too small"))

	entries, err := log.ListForLibrary("lib-3")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Success)
	assert.Equal(t, "leaf_size too small", entries[0].Detail)
}
