// Package indexmanager owns the per-library nearest-neighbor index
// lifecycle: building in the background, invalidating on mutation,
// reporting status, and dispatching search against whatever index is
// currently installed.
package indexmanager

import (
	"context"
	"sync"
	"time"

	"vectorbase/internal/embeddings"
	vberrors "vectorbase/internal/errors"
	"vectorbase/internal/index"
	"vectorbase/internal/logging"
	"vectorbase/internal/store"
)

// BuildParams describes how a library's index should be constructed.
type BuildParams struct {
	Kind     store.IndexerKind
	LeafSize int // only meaningful for store.IndexerBallTree
}

// IndexDescription summarizes an installed index for status reporting.
type IndexDescription struct {
	Kind        store.IndexerKind `json:"kind"`
	VectorCount int               `json:"vector_count"`
	LeafSize    int               `json:"leaf_size,omitempty"`
}

// DocumentInfo is the document context attached to a search result.
type DocumentInfo struct {
	ID       string                 `json:"id"`
	Name     string                 `json:"name"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// SearchResult is one ranked, document-enriched search hit.
type SearchResult struct {
	ChunkID  string
	Text     string
	Score    float32
	Document DocumentInfo
}

// Manager owns library_id -> installed index and library_id -> running
// build cancellation handle. Its own lock is independent of the Store's
// locks and is never held across an embedder call or index build.
type Manager struct {
	store    *store.Store
	embedder embeddings.EmbeddingService
	logger   logging.Logger

	mu           sync.Mutex
	indexes      map[string]index.Index
	descriptions map[string]IndexDescription
	builds       map[string]context.CancelFunc

	// onBuildComplete, if set, is called after every build attempt
	// (success or failure) for audit purposes. Never blocks the caller
	// and is never required for correctness.
	onBuildComplete func(libraryID string, kind store.IndexerKind, startedAt time.Time, duration time.Duration, success bool, detail string)
}

// SetBuildObserver installs a callback invoked after every build attempt.
// Used to wire an audit log without coupling the build path to it.
func (m *Manager) SetBuildObserver(fn func(libraryID string, kind store.IndexerKind, startedAt time.Time, duration time.Duration, success bool, detail string)) {
	m.mu.Lock()
	m.onBuildComplete = fn
	m.mu.Unlock()
}

// New creates an index manager bound to a store and embedding service.
func New(st *store.Store, embedder embeddings.EmbeddingService, logger logging.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &Manager{
		store:        st,
		embedder:     embedder,
		logger:       logger,
		indexes:      make(map[string]index.Index),
		descriptions: make(map[string]IndexDescription),
		builds:       make(map[string]context.CancelFunc),
	}
}

// StartBuild kicks off a background build for a library. If a build is
// already running for this library, it returns the current (in-progress)
// status without starting a second one.
func (m *Manager) StartBuild(libraryID string, params BuildParams) (store.IndexStatus, error) {
	lib := m.store.GetLibrary(libraryID)
	if lib == nil {
		return store.IndexStatus{}, vberrors.NewNotFoundError("library", libraryID)
	}

	m.mu.Lock()
	if _, running := m.builds[libraryID]; running {
		m.mu.Unlock()
		return lib.IndexStatus, nil
	}

	buildCtx, cancel := context.WithCancel(context.Background())
	m.builds[libraryID] = cancel
	m.mu.Unlock()

	newStatus := store.IndexStatus{
		Indexed:            false,
		IndexerKind:        params.Kind,
		IndexingInProgress: true,
	}
	if err := m.store.SetIndexStatus(libraryID, newStatus); err != nil {
		m.mu.Lock()
		delete(m.builds, libraryID)
		m.mu.Unlock()
		return store.IndexStatus{}, err
	}

	go m.runBuild(buildCtx, libraryID, params)

	return newStatus, nil
}

// runBuild performs the actual embedding + index construction off the
// request path. It never holds m.mu or any store lock while calling the
// embedder.
func (m *Manager) runBuild(ctx context.Context, libraryID string, params BuildParams) {
	startedAt := time.Now()
	success := false
	detail := ""
	buildLogger := m.logger.WithComponent("indexmanager").WithTraceID(logging.GenerateTraceID())

	defer func() {
		m.mu.Lock()
		delete(m.builds, libraryID)
		observer := m.onBuildComplete
		m.mu.Unlock()
		if observer != nil {
			observer(libraryID, params.Kind, startedAt, time.Since(startedAt), success, detail)
		}
	}()

	chunks := m.store.ListChunksByLibrary(libraryID)

	var pending []int // indices into chunks that need embedding
	for i, c := range chunks {
		if c.Embedding == nil {
			pending = append(pending, i)
		}
	}

	if len(pending) > 0 {
		texts := make([]string, len(pending))
		for j, i := range pending {
			texts[j] = chunks[i].Text
		}
		vectors, err := m.embedder.GenerateBatch(ctx, texts, embeddings.InputTypeDocument)
		if err != nil {
			buildLogger.Error("index build failed: embedding batch", "library_id", libraryID, "error", err)
			detail = err.Error()
			m.failBuild(libraryID)
			return
		}
		for j, i := range pending {
			chunks[i].Embedding = vectors[j]
			emb := vectors[j]
			if _, err := m.store.UpdateChunk(chunks[i].ID, store.ChunkPatch{EmbeddingSet: true, Embedding: emb}); err != nil {
				// Chunk may have been deleted mid-build; drop it from this build.
				buildLogger.Warn("index build: chunk vanished during embedding", "chunk_id", chunks[i].ID)
			}
		}
	}

	descriptors := make([]index.ChunkDescriptor, 0, len(chunks))
	vectors := make([][]float32, 0, len(chunks))
	for _, c := range chunks {
		if c.Embedding == nil {
			continue
		}
		descriptors = append(descriptors, index.ChunkDescriptor{
			ChunkID:    c.ID,
			DocumentID: c.DocumentID,
			Text:       c.Text,
			Metadata:   c.Metadata,
		})
		vectors = append(vectors, c.Embedding)
	}

	var built index.Index
	var desc IndexDescription
	switch params.Kind {
	case store.IndexerBallTree:
		leafSize := params.LeafSize
		bt := index.NewBallTreeIndex(descriptors, vectors, index.BallTreeParams{LeafSize: leafSize})
		built = bt
		desc = IndexDescription{Kind: store.IndexerBallTree, VectorCount: bt.Len(), LeafSize: leafSize}
	default:
		li := index.NewLinearIndex(descriptors, vectors)
		built = li
		desc = IndexDescription{Kind: store.IndexerLinear, VectorCount: li.Len()}
	}

	m.mu.Lock()
	m.indexes[libraryID] = built
	m.descriptions[libraryID] = desc
	m.mu.Unlock()

	now := time.Now().UTC()
	finalStatus := store.IndexStatus{
		Indexed:            true,
		IndexerKind:        params.Kind,
		LastIndexedTime:    &now,
		IndexingInProgress: false,
	}
	if err := m.store.SetIndexStatus(libraryID, finalStatus); err != nil {
		// Library was deleted mid-build; tear down what we just installed.
		m.mu.Lock()
		delete(m.indexes, libraryID)
		delete(m.descriptions, libraryID)
		m.mu.Unlock()
		detail = err.Error()
		return
	}
	success = true
}

// failBuild resets status and removes any partially installed index.
func (m *Manager) failBuild(libraryID string) {
	m.mu.Lock()
	delete(m.indexes, libraryID)
	delete(m.descriptions, libraryID)
	m.mu.Unlock()

	_ = m.store.SetIndexStatus(libraryID, store.IndexStatus{
		Indexed:            false,
		IndexerKind:        store.IndexerNone,
		IndexingInProgress: false,
	})
}

// Invalidate flips a library's indexed flag to false if it is currently
// true, preserving indexer_kind and last_indexed_time for display. It
// never touches an in-flight build.
func (m *Manager) Invalidate(libraryID string) {
	lib := m.store.GetLibrary(libraryID)
	if lib == nil || !lib.IndexStatus.Indexed {
		return
	}
	status := lib.IndexStatus
	status.Indexed = false
	_ = m.store.SetIndexStatus(libraryID, status)
}

// Status returns the library's index status plus a description of the
// installed index, if any.
func (m *Manager) Status(libraryID string) (store.IndexStatus, *IndexDescription, error) {
	lib := m.store.GetLibrary(libraryID)
	if lib == nil {
		return store.IndexStatus{}, nil, vberrors.NewNotFoundError("library", libraryID)
	}

	m.mu.Lock()
	desc, ok := m.descriptions[libraryID]
	m.mu.Unlock()

	if !ok {
		return lib.IndexStatus, nil, nil
	}
	return lib.IndexStatus, &desc, nil
}

// Search embeds the query, delegates to the installed index, and
// enriches each hit with the parent document's current name/metadata.
func (m *Manager) Search(ctx context.Context, libraryID, queryText string, k int) ([]SearchResult, error) {
	lib := m.store.GetLibrary(libraryID)
	if lib == nil {
		return nil, vberrors.NewNotFoundError("library", libraryID)
	}
	if lib.IndexStatus.IndexingInProgress {
		return nil, vberrors.NewConflictError("library is currently being indexed")
	}
	if !lib.IndexStatus.Indexed {
		return nil, vberrors.NewConflictError("library is not indexed")
	}

	m.mu.Lock()
	idx, ok := m.indexes[libraryID]
	m.mu.Unlock()
	if !ok {
		return nil, vberrors.NewConflictError("library has no installed index")
	}

	queryVec, err := m.embedder.Generate(ctx, queryText, embeddings.InputTypeQuery)
	if err != nil {
		return nil, vberrors.NewUpstreamError("failed to embed query", err)
	}

	raw := idx.Search(queryVec, k)
	results := make([]SearchResult, len(raw))
	for i, r := range raw {
		results[i] = SearchResult{
			ChunkID:  r.ChunkID,
			Text:     r.Text,
			Score:    r.Score,
			Document: m.resolveDocument(r.DocumentID),
		}
	}
	return results, nil
}

func (m *Manager) resolveDocument(documentID string) DocumentInfo {
	doc := m.store.GetDocument(documentID)
	if doc == nil {
		return DocumentInfo{ID: documentID, Name: "[deleted document]"}
	}
	return DocumentInfo{ID: doc.ID, Name: doc.Name, Metadata: doc.Metadata}
}

// Drop removes any installed index and cancels any in-flight build for a
// library. Called when the library itself is deleted.
func (m *Manager) Drop(libraryID string) {
	m.mu.Lock()
	if cancel, ok := m.builds[libraryID]; ok {
		cancel()
		delete(m.builds, libraryID)
	}
	delete(m.indexes, libraryID)
	delete(m.descriptions, libraryID)
	m.mu.Unlock()
}
