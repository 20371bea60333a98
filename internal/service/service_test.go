package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vectorbase/internal/embeddings"
	"vectorbase/internal/indexmanager"
	"vectorbase/internal/snapshot"
	"vectorbase/internal/store"
)

type fakeEmbedder struct{ dims int }

func (f *fakeEmbedder) Generate(ctx context.Context, text string, inputType embeddings.InputType) ([]float32, error) {
	v := make([]float32, f.dims)
	for i := range v {
		v[i] = float32(len(text) + i)
	}
	return v, nil
}

func (f *fakeEmbedder) GenerateBatch(ctx context.Context, texts []string, inputType embeddings.InputType) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, _ := f.Generate(ctx, t, inputType)
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) GetDimensions() int { return f.dims }

func (f *fakeEmbedder) HealthCheck(ctx context.Context) error { return nil }

func newFacade(t *testing.T) *Facade {
	t.Helper()
	st := store.New()
	idx := indexmanager.New(st, &fakeEmbedder{dims: 4}, nil)
	snap := snapshot.New(t.TempDir(), st, nil)
	return New(st, idx, snap, nil)
}

func TestCreateLibrary_CascadesNestedDocumentsAndChunks(t *testing.T) {
	f := newFacade(t)

	body := []byte(`{
		"name": "Library One",
		"documents": [
			{"name": "Doc A", "chunks": [{"text": "hello"}, {"text": "world"}]}
		]
	}`)

	lib, err := f.CreateLibrary(body)
	require.NoError(t, err)
	assert.NotEmpty(t, lib.ID)

	docs := f.ListDocumentsByLibrary(lib.ID)
	require.Len(t, docs, 1)

	chunks := f.ListChunksByDocument(docs[0].ID)
	require.Len(t, chunks, 2)
}

func TestCreateLibrary_MissingNameFails(t *testing.T) {
	f := newFacade(t)
	_, err := f.CreateLibrary([]byte(`{"metadata": {}}`))
	require.Error(t, err)
}

func TestUpdateLibrary_RejectsDocumentsField(t *testing.T) {
	f := newFacade(t)
	lib, err := f.CreateLibrary([]byte(`{"name": "L"}`))
	require.NoError(t, err)

	_, err = f.UpdateLibrary(lib.ID, []byte(`{"documents": []}`))
	require.Error(t, err)
}

func TestUpdateLibrary_BlockedWhileIndexing(t *testing.T) {
	f := newFacade(t)
	lib, err := f.CreateLibrary([]byte(`{"name": "L"}`))
	require.NoError(t, err)
	_, err = f.CreateDocument([]byte(`{"library_id": "` + lib.ID + `", "name": "D", "chunks":[{"text":"hi"}]}`))
	require.NoError(t, err)

	_, err = f.StartIndex(lib.ID, "BRUTE_FORCE", 0)
	require.NoError(t, err)

	_, err = f.UpdateLibrary(lib.ID, []byte(`{"name": "renamed"}`))
	require.Error(t, err)
}

func TestUpdateDocument_RejectsChunksField(t *testing.T) {
	f := newFacade(t)
	lib, err := f.CreateLibrary([]byte(`{"name": "L"}`))
	require.NoError(t, err)
	doc, err := f.CreateDocument([]byte(`{"library_id": "` + lib.ID + `", "name": "D"}`))
	require.NoError(t, err)

	_, err = f.UpdateDocument(doc.ID, []byte(`{"chunks": []}`))
	require.Error(t, err)
}

func TestUpdateChunk_ImmutableDocumentIDRejected(t *testing.T) {
	f := newFacade(t)
	lib, err := f.CreateLibrary([]byte(`{"name": "L"}`))
	require.NoError(t, err)
	doc, err := f.CreateDocument([]byte(`{"library_id": "` + lib.ID + `", "name": "D"}`))
	require.NoError(t, err)
	chunk, err := f.CreateChunk([]byte(`{"document_id": "` + doc.ID + `", "text": "hi"}`))
	require.NoError(t, err)

	_, err = f.UpdateChunk(chunk.ID, []byte(`{"document_id": "some-other-doc"}`))
	require.Error(t, err)
}

func TestChunkMutation_InvalidatesIndex(t *testing.T) {
	f := newFacade(t)
	lib, err := f.CreateLibrary([]byte(`{"name": "L"}`))
	require.NoError(t, err)
	doc, err := f.CreateDocument([]byte(`{"library_id": "` + lib.ID + `", "name": "D"}`))
	require.NoError(t, err)
	_, err = f.CreateChunk([]byte(`{"document_id": "` + doc.ID + `", "text": "hi"}`))
	require.NoError(t, err)

	_, err = f.StartIndex(lib.ID, "BRUTE_FORCE", 0)
	require.NoError(t, err)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		status, _, err := f.IndexStatus(lib.ID)
		require.NoError(t, err)
		if status.Indexed {
			break
		}
		time.Sleep(time.Millisecond)
	}

	_, err = f.CreateChunk([]byte(`{"document_id": "` + doc.ID + `", "text": "another"}`))
	require.NoError(t, err)

	status, _, err := f.IndexStatus(lib.ID)
	require.NoError(t, err)
	assert.False(t, status.Indexed)
	assert.Equal(t, store.IndexerLinear, status.IndexerKind)
}

func TestSearch_TopKZeroReturnsEmpty(t *testing.T) {
	f := newFacade(t)
	lib, err := f.CreateLibrary([]byte(`{"name": "L"}`))
	require.NoError(t, err)
	doc, err := f.CreateDocument([]byte(`{"library_id": "` + lib.ID + `", "name": "D"}`))
	require.NoError(t, err)
	_, err = f.CreateChunk([]byte(`{"document_id": "` + doc.ID + `", "text": "hi"}`))
	require.NoError(t, err)

	_, err = f.StartIndex(lib.ID, "BRUTE_FORCE", 0)
	require.NoError(t, err)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		status, _, err := f.IndexStatus(lib.ID)
		require.NoError(t, err)
		if status.Indexed {
			break
		}
		time.Sleep(time.Millisecond)
	}

	results, err := f.Search(context.Background(), lib.ID, "query", 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestCreateChunksBatch_AllOrNothing(t *testing.T) {
	f := newFacade(t)
	lib, err := f.CreateLibrary([]byte(`{"name": "L"}`))
	require.NoError(t, err)
	doc, err := f.CreateDocument([]byte(`{"library_id": "` + lib.ID + `", "name": "D"}`))
	require.NoError(t, err)

	body := []byte(`{"chunks": [{"text": "good"}, {"text": ""}]}`)
	_, err = f.CreateChunksBatch(doc.ID, body)
	require.Error(t, err)

	chunks := f.ListChunksByDocument(doc.ID)
	assert.Empty(t, chunks)
}

func TestSearch_NotIndexedReturnsConflict(t *testing.T) {
	f := newFacade(t)
	lib, err := f.CreateLibrary([]byte(`{"name": "L"}`))
	require.NoError(t, err)

	_, err = f.Search(context.Background(), lib.ID, "query", 5)
	require.Error(t, err)
}

func TestStartIndex_RejectsInvalidLeafSize(t *testing.T) {
	f := newFacade(t)
	lib, err := f.CreateLibrary([]byte(`{"name": "L"}`))
	require.NoError(t, err)

	_, err = f.StartIndex(lib.ID, "BALL_TREE", 5)
	require.Error(t, err)
}

func TestStartIndex_RejectsUnknownIndexerType(t *testing.T) {
	f := newFacade(t)
	lib, err := f.CreateLibrary([]byte(`{"name": "L"}`))
	require.NoError(t, err)

	_, err = f.StartIndex(lib.ID, "MAGIC", 0)
	require.Error(t, err)
}
