package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLibrary(id string) *Library {
	return &Library{ID: id, Name: "lib-" + id}
}

func TestCascadeDelete(t *testing.T) {
	s := New()

	_, err := s.CreateLibrary(newTestLibrary("L1"))
	require.NoError(t, err)

	_, err = s.CreateDocument(&Document{ID: "D1", LibraryID: "L1", Name: "doc"})
	require.NoError(t, err)

	_, err = s.CreateChunk(&Chunk{ID: "C1", DocumentID: "D1", Text: "a"})
	require.NoError(t, err)
	_, err = s.CreateChunk(&Chunk{ID: "C2", DocumentID: "D1", Text: "b"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteLibrary("L1"))

	assert.Nil(t, s.GetLibrary("L1"))
	assert.Nil(t, s.GetDocument("D1"))
	assert.Nil(t, s.GetChunk("C1"))
	assert.Nil(t, s.GetChunk("C2"))
	assert.Empty(t, s.ListDocumentsByLibrary("L1"))
	assert.Empty(t, s.ListChunksByDocument("D1"))
}

func TestCreateChunkMissingParentFails(t *testing.T) {
	s := New()
	_, err := s.CreateChunk(&Chunk{ID: "C1", DocumentID: "missing", Text: "a"})
	require.Error(t, err)
}

func TestUpdateChunkImmutableDocumentID(t *testing.T) {
	s := New()
	_, err := s.CreateLibrary(newTestLibrary("L1"))
	require.NoError(t, err)
	_, err = s.CreateDocument(&Document{ID: "D1", LibraryID: "L1", Name: "doc"})
	require.NoError(t, err)
	_, err = s.CreateDocument(&Document{ID: "D2", LibraryID: "L1", Name: "other"})
	require.NoError(t, err)
	_, err = s.CreateChunk(&Chunk{ID: "C1", DocumentID: "D1", Text: "a"})
	require.NoError(t, err)

	other := "D2"
	_, err = s.UpdateChunk("C1", ChunkPatch{DocumentID: &other})
	require.Error(t, err)
}

func TestUpdateChunkSamePartialFieldsOK(t *testing.T) {
	s := New()
	_, err := s.CreateLibrary(newTestLibrary("L1"))
	require.NoError(t, err)
	_, err = s.CreateDocument(&Document{ID: "D1", LibraryID: "L1", Name: "doc"})
	require.NoError(t, err)
	_, err = s.CreateChunk(&Chunk{ID: "C1", DocumentID: "D1", Text: "a"})
	require.NoError(t, err)

	same := "D1"
	newText := "updated"
	updated, err := s.UpdateChunk("C1", ChunkPatch{DocumentID: &same, Text: &newText})
	require.NoError(t, err)
	assert.Equal(t, "updated", updated.Text)
}

func TestGetReturnsIsolatedCopy(t *testing.T) {
	s := New()
	lib := newTestLibrary("L1")
	lib.Metadata = map[string]interface{}{"k": "v"}
	_, err := s.CreateLibrary(lib)
	require.NoError(t, err)

	got := s.GetLibrary("L1")
	got.Name = "mutated"
	got.Metadata["k"] = "mutated"

	again := s.GetLibrary("L1")
	assert.Equal(t, "lib-L1", again.Name)
	assert.Equal(t, "v", again.Metadata["k"])
}

func TestListByParent(t *testing.T) {
	s := New()
	_, err := s.CreateLibrary(newTestLibrary("L1"))
	require.NoError(t, err)
	_, err = s.CreateLibrary(newTestLibrary("L2"))
	require.NoError(t, err)
	_, err = s.CreateDocument(&Document{ID: "D1", LibraryID: "L1", Name: "a"})
	require.NoError(t, err)
	_, err = s.CreateDocument(&Document{ID: "D2", LibraryID: "L2", Name: "b"})
	require.NoError(t, err)

	docs := s.ListDocumentsByLibrary("L1")
	require.Len(t, docs, 1)
	assert.Equal(t, "D1", docs[0].ID)
}
