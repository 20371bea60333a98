package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vectorbase/internal/store"
)

func TestSaveAndLoadAll_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	st := store.New()
	mgr := New(dir, st, nil)

	lib, err := st.CreateLibrary(&store.Library{ID: "lib-1", Name: "Library One"})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		doc, err := st.CreateDocument(&store.Document{ID: "doc-" + string(rune('a'+i)), LibraryID: lib.ID, Name: "doc"})
		require.NoError(t, err)
		for j := 0; j < 4; j++ {
			_, err := st.CreateChunk(&store.Chunk{
				ID:         doc.ID + "-c" + string(rune('0'+j)),
				DocumentID: doc.ID,
				Text:       "some text",
				Embedding:  []float32{1, 2, 3},
			})
			require.NoError(t, err)
		}
	}
	require.NoError(t, st.SetIndexStatus(lib.ID, store.IndexStatus{Indexed: true, IndexerKind: store.IndexerLinear}))

	require.NoError(t, mgr.Save(lib.ID))

	raw, err := filepath.Glob(filepath.Join(dir, "library_*.json"))
	require.NoError(t, err)
	require.Len(t, raw, 1)

	fresh := store.New()
	freshMgr := New(dir, fresh, nil)
	errs := freshMgr.LoadAll()
	assert.Empty(t, errs)

	restored := fresh.GetLibrary(lib.ID)
	require.NotNil(t, restored)
	assert.False(t, restored.IndexStatus.Indexed)
	assert.Equal(t, store.IndexerNone, restored.IndexStatus.IndexerKind)

	docs := fresh.ListDocumentsByLibrary(lib.ID)
	assert.Len(t, docs, 3)

	chunks := fresh.ListChunksByLibrary(lib.ID)
	require.Len(t, chunks, 12)
	for _, c := range chunks {
		assert.Nil(t, c.Embedding)
	}
}

func TestLoadOne_RestoresSingleLibrary(t *testing.T) {
	dir := t.TempDir()
	st := store.New()
	mgr := New(dir, st, nil)

	lib, err := st.CreateLibrary(&store.Library{ID: "lib-one", Name: "Library One"})
	require.NoError(t, err)
	_, err = st.CreateDocument(&store.Document{ID: "doc-1", LibraryID: lib.ID, Name: "doc"})
	require.NoError(t, err)
	require.NoError(t, mgr.Save(lib.ID))

	fresh := store.New()
	freshMgr := New(dir, fresh, nil)
	require.NoError(t, freshMgr.LoadOne(lib.ID))

	restored := fresh.GetLibrary(lib.ID)
	require.NotNil(t, restored)
	assert.False(t, restored.IndexStatus.Indexed)
	docs := fresh.ListDocumentsByLibrary(lib.ID)
	assert.Len(t, docs, 1)
}

func TestLoadOne_MissingFileErrors(t *testing.T) {
	dir := t.TempDir()
	st := store.New()
	mgr := New(dir, st, nil)

	assert.Error(t, mgr.LoadOne("never-existed"))
}

func TestLoadAll_SkipsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	st := store.New()
	mgr := New(dir, st, nil)

	badPath := filepath.Join(dir, "library_bad.json")
	require.NoError(t, os.WriteFile(badPath, []byte("not json"), 0o644))

	errs := mgr.LoadAll()
	assert.Len(t, errs, 1)
}

func TestDelete_RemovesFile(t *testing.T) {
	dir := t.TempDir()
	st := store.New()
	mgr := New(dir, st, nil)

	lib, err := st.CreateLibrary(&store.Library{ID: "lib-del", Name: "lib"})
	require.NoError(t, err)
	require.NoError(t, mgr.Save(lib.ID))

	require.NoError(t, mgr.Delete(lib.ID))

	matches, err := filepath.Glob(filepath.Join(dir, "library_*.json"))
	require.NoError(t, err)
	assert.Empty(t, matches)

	// Deleting a non-existent snapshot is not an error.
	assert.NoError(t, mgr.Delete("never-existed"))
}
