// Package service composes the Store, IndexManager and Snapshot manager
// into the operations the HTTP surface exposes: validating requests the
// Store itself doesn't know how to validate (forbidden fields, indexing
// preconditions), cascading nested creates, and formatting search results.
package service

import (
	"context"
	"encoding/json"

	"github.com/go-viper/mapstructure/v2"
	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	vberrors "vectorbase/internal/errors"
	"vectorbase/internal/indexmanager"
	"vectorbase/internal/logging"
	"vectorbase/internal/snapshot"
	"vectorbase/internal/store"
)

// Facade is the single entry point handlers call into.
type Facade struct {
	store     *store.Store
	index     *indexmanager.Manager
	snapshots *snapshot.Manager
	logger    logging.Logger
}

// New wires a Facade from its three collaborators.
func New(st *store.Store, idx *indexmanager.Manager, snap *snapshot.Manager, logger logging.Logger) *Facade {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &Facade{store: st, index: idx, snapshots: snap, logger: logger}
}

// --- request DTOs, decoded via mapstructure from a loosely-typed JSON body ---

type chunkCreateInput struct {
	ID       string                 `mapstructure:"id"`
	Text     string                 `mapstructure:"text"`
	Metadata map[string]interface{} `mapstructure:"metadata"`
}

type documentCreateInput struct {
	ID        string                 `mapstructure:"id"`
	LibraryID string                 `mapstructure:"library_id"`
	Name      string                 `mapstructure:"name"`
	Metadata  map[string]interface{} `mapstructure:"metadata"`
	Chunks    []chunkCreateInput     `mapstructure:"chunks"`
}

type libraryCreateInput struct {
	ID        string                 `mapstructure:"id"`
	Name      string                 `mapstructure:"name"`
	Metadata  map[string]interface{} `mapstructure:"metadata"`
	Documents []documentCreateInput  `mapstructure:"documents"`
}

// DocumentDTO and SearchResultDTO are the public search-result shapes.
type DocumentDTO struct {
	ID       string                 `json:"id"`
	Name     string                 `json:"name"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

type SearchResultDTO struct {
	ChunkID  string      `json:"chunk_id"`
	Text     string      `json:"text"`
	Score    float32     `json:"score"`
	Document DocumentDTO `json:"document"`
}

func decodeInto(raw map[string]interface{}, target interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{Result: target})
	if err != nil {
		return vberrors.NewInternalError("failed to construct request decoder", err)
	}
	if err := dec.Decode(raw); err != nil {
		return vberrors.NewValidationError("body", "malformed request payload", err.Error())
	}
	return nil
}

func unmarshalRaw(body []byte) (map[string]interface{}, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, vberrors.NewValidationError("body", "invalid JSON", err.Error())
	}
	return raw, nil
}

func hasKey(body []byte, key string) bool {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return false
	}
	_, ok := raw[key]
	return ok
}

func newID(provided string) string {
	if provided != "" {
		return provided
	}
	return uuid.New().String()
}

// --- Library ---

// CreateLibrary creates a library, optionally cascading into nested
// documents and chunks supplied in the same request body.
func (f *Facade) CreateLibrary(body []byte) (*store.Library, error) {
	raw, err := unmarshalRaw(body)
	if err != nil {
		return nil, err
	}
	var input libraryCreateInput
	if err := decodeInto(raw, &input); err != nil {
		return nil, err
	}
	if input.Name == "" {
		return nil, vberrors.NewRequiredFieldError("name")
	}

	lib := &store.Library{ID: newID(input.ID), Name: input.Name, Metadata: input.Metadata}
	created, err := f.store.CreateLibrary(lib)
	if err != nil {
		return nil, err
	}

	for _, d := range input.Documents {
		if _, err := f.createDocument(created.ID, d); err != nil {
			return nil, err
		}
	}

	f.saveSnapshot(created.ID)
	return f.store.GetLibrary(created.ID), nil
}

// GetLibrary fetches a library by id.
func (f *Facade) GetLibrary(id string) (*store.Library, error) {
	lib := f.store.GetLibrary(id)
	if lib == nil {
		return nil, vberrors.NewNotFoundError("library", id)
	}
	return lib, nil
}

// ListLibraries returns every library.
func (f *Facade) ListLibraries() []*store.Library {
	return f.store.ListLibraries()
}

// UpdateLibrary applies a partial update. A `documents` key in the body is
// rejected, and updates are blocked while a build is in progress.
func (f *Facade) UpdateLibrary(id string, body []byte) (*store.Library, error) {
	if hasKey(body, "documents") {
		return nil, vberrors.NewValidationError("documents", "cannot set documents via library update", nil)
	}

	lib := f.store.GetLibrary(id)
	if lib == nil {
		return nil, vberrors.NewNotFoundError("library", id)
	}
	if lib.IndexStatus.IndexingInProgress {
		return nil, vberrors.NewConflictError("cannot update library while indexing is in progress")
	}

	raw, err := unmarshalRaw(body)
	if err != nil {
		return nil, err
	}

	patch := store.LibraryPatch{}
	if v, ok := raw["name"]; ok {
		name, _ := v.(string)
		patch.Name = &name
	}
	if v, ok := raw["metadata"]; ok {
		md, _ := v.(map[string]interface{})
		patch.Metadata = md
		patch.MetadataSet = true
	}

	updated, err := f.store.UpdateLibrary(id, patch)
	if err != nil {
		return nil, err
	}
	// Metadata-only updates intentionally leave IndexStatus untouched.
	f.saveSnapshot(id)
	return updated, nil
}

// DeleteLibrary cascades the delete and tears down any installed index and
// snapshot file.
func (f *Facade) DeleteLibrary(id string) error {
	if err := f.store.DeleteLibrary(id); err != nil {
		return err
	}
	f.index.Drop(id)
	if err := f.snapshots.Delete(id); err != nil {
		f.logger.Warn("failed to remove snapshot on library delete", "library_id", id, "error", err)
	}
	return nil
}

// --- Document ---

func (f *Facade) createDocument(libraryID string, input documentCreateInput) (*store.Document, error) {
	if input.Name == "" {
		return nil, vberrors.NewRequiredFieldError("name")
	}
	doc := &store.Document{ID: newID(input.ID), LibraryID: libraryID, Name: input.Name, Metadata: input.Metadata}
	created, err := f.store.CreateDocument(doc)
	if err != nil {
		return nil, err
	}
	for _, c := range input.Chunks {
		if _, err := f.createChunk(created.ID, c); err != nil {
			return nil, err
		}
	}
	return created, nil
}

// CreateDocument creates a document under the library_id given in the body.
func (f *Facade) CreateDocument(body []byte) (*store.Document, error) {
	raw, err := unmarshalRaw(body)
	if err != nil {
		return nil, err
	}
	var input documentCreateInput
	if err := decodeInto(raw, &input); err != nil {
		return nil, err
	}
	if input.LibraryID == "" {
		return nil, vberrors.NewRequiredFieldError("library_id")
	}

	created, err := f.createDocument(input.LibraryID, input)
	if err != nil {
		return nil, err
	}
	f.index.Invalidate(input.LibraryID)
	f.saveSnapshot(input.LibraryID)
	return created, nil
}

// GetDocument fetches a document by id.
func (f *Facade) GetDocument(id string) (*store.Document, error) {
	doc := f.store.GetDocument(id)
	if doc == nil {
		return nil, vberrors.NewNotFoundError("document", id)
	}
	return doc, nil
}

// ListDocumentsByLibrary returns every document under a library.
func (f *Facade) ListDocumentsByLibrary(libraryID string) []*store.Document {
	return f.store.ListDocumentsByLibrary(libraryID)
}

// UpdateDocument applies a partial update. A `chunks` key in the body is
// rejected, and the store rejects any attempt to change library_id.
func (f *Facade) UpdateDocument(id string, body []byte) (*store.Document, error) {
	if hasKey(body, "chunks") {
		return nil, vberrors.NewValidationError("chunks", "cannot set chunks via document update", nil)
	}

	existing := f.store.GetDocument(id)
	if existing == nil {
		return nil, vberrors.NewNotFoundError("document", id)
	}

	raw, err := unmarshalRaw(body)
	if err != nil {
		return nil, err
	}

	patch := store.DocumentPatch{}
	if v, ok := raw["name"]; ok {
		name, _ := v.(string)
		patch.Name = &name
	}
	if v, ok := raw["metadata"]; ok {
		md, _ := v.(map[string]interface{})
		patch.Metadata = md
		patch.MetadataSet = true
	}
	if v, ok := raw["library_id"]; ok {
		libID, _ := v.(string)
		patch.LibraryID = &libID
	}

	updated, err := f.store.UpdateDocument(id, patch)
	if err != nil {
		return nil, err
	}
	f.index.Invalidate(updated.LibraryID)
	f.saveSnapshot(updated.LibraryID)
	return updated, nil
}

// DeleteDocument removes a document and its chunks.
func (f *Facade) DeleteDocument(id string) error {
	doc := f.store.GetDocument(id)
	if doc == nil {
		return vberrors.NewNotFoundError("document", id)
	}
	if err := f.store.DeleteDocument(id); err != nil {
		return err
	}
	f.index.Invalidate(doc.LibraryID)
	f.saveSnapshot(doc.LibraryID)
	return nil
}

// --- Chunk ---

func (f *Facade) createChunk(documentID string, input chunkCreateInput) (*store.Chunk, error) {
	if input.Text == "" {
		return nil, vberrors.NewRequiredFieldError("text")
	}
	chunk := &store.Chunk{
		ID:         newID(input.ID),
		DocumentID: documentID,
		Text:       norm.NFC.String(input.Text),
		Metadata:   input.Metadata,
	}
	return f.store.CreateChunk(chunk)
}

// CreateChunk creates a chunk under the document_id given in the body.
func (f *Facade) CreateChunk(body []byte) (*store.Chunk, error) {
	raw, err := unmarshalRaw(body)
	if err != nil {
		return nil, err
	}
	var input chunkCreateInput
	var documentID string
	if v, ok := raw["document_id"]; ok {
		documentID, _ = v.(string)
	}
	if documentID == "" {
		return nil, vberrors.NewRequiredFieldError("document_id")
	}
	if err := decodeInto(raw, &input); err != nil {
		return nil, err
	}

	doc := f.store.GetDocument(documentID)
	if doc == nil {
		return nil, vberrors.NewNotFoundError("document", documentID)
	}

	created, err := f.createChunk(documentID, input)
	if err != nil {
		return nil, err
	}
	f.index.Invalidate(doc.LibraryID)
	f.saveSnapshot(doc.LibraryID)
	return created, nil
}

// CreateChunksBatch creates every chunk in body.chunks under documentID, all
// or nothing: if any chunk fails validation, every chunk already created in
// this call is rolled back and the library is invalidated only once.
func (f *Facade) CreateChunksBatch(documentID string, body []byte) ([]*store.Chunk, error) {
	doc := f.store.GetDocument(documentID)
	if doc == nil {
		return nil, vberrors.NewNotFoundError("document", documentID)
	}

	var payload struct {
		Chunks []map[string]interface{} `json:"chunks"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, vberrors.NewValidationError("body", "invalid JSON", err.Error())
	}
	if len(payload.Chunks) == 0 {
		return nil, vberrors.NewRequiredFieldError("chunks")
	}

	var inputs []chunkCreateInput
	for _, raw := range payload.Chunks {
		var in chunkCreateInput
		if err := decodeInto(raw, &in); err != nil {
			return nil, err
		}
		inputs = append(inputs, in)
	}

	created := make([]*store.Chunk, 0, len(inputs))
	for _, in := range inputs {
		c, err := f.createChunk(documentID, in)
		if err != nil {
			for _, done := range created {
				_ = f.store.DeleteChunk(done.ID)
			}
			return nil, err
		}
		created = append(created, c)
	}

	f.index.Invalidate(doc.LibraryID)
	f.saveSnapshot(doc.LibraryID)
	return created, nil
}

// GetChunk fetches a chunk by id.
func (f *Facade) GetChunk(id string) (*store.Chunk, error) {
	chunk := f.store.GetChunk(id)
	if chunk == nil {
		return nil, vberrors.NewNotFoundError("chunk", id)
	}
	return chunk, nil
}

// ListChunksByDocument returns every chunk under a document.
func (f *Facade) ListChunksByDocument(documentID string) []*store.Chunk {
	return f.store.ListChunksByDocument(documentID)
}

// UpdateChunk applies a partial update; the store rejects any attempt to
// change document_id.
func (f *Facade) UpdateChunk(id string, body []byte) (*store.Chunk, error) {
	existing := f.store.GetChunk(id)
	if existing == nil {
		return nil, vberrors.NewNotFoundError("chunk", id)
	}

	raw, err := unmarshalRaw(body)
	if err != nil {
		return nil, err
	}

	patch := store.ChunkPatch{}
	if v, ok := raw["text"]; ok {
		text, _ := v.(string)
		normalized := norm.NFC.String(text)
		patch.Text = &normalized
	}
	if v, ok := raw["metadata"]; ok {
		md, _ := v.(map[string]interface{})
		patch.Metadata = md
		patch.MetadataSet = true
	}
	if v, ok := raw["document_id"]; ok {
		docID, _ := v.(string)
		patch.DocumentID = &docID
	}

	updated, err := f.store.UpdateChunk(id, patch)
	if err != nil {
		return nil, err
	}

	parentDoc := f.store.GetDocument(updated.DocumentID)
	if parentDoc != nil {
		f.index.Invalidate(parentDoc.LibraryID)
		f.saveSnapshot(parentDoc.LibraryID)
	}
	return updated, nil
}

// DeleteChunk removes a chunk.
func (f *Facade) DeleteChunk(id string) error {
	chunk := f.store.GetChunk(id)
	if chunk == nil {
		return vberrors.NewNotFoundError("chunk", id)
	}
	if err := f.store.DeleteChunk(id); err != nil {
		return err
	}
	if doc := f.store.GetDocument(chunk.DocumentID); doc != nil {
		f.index.Invalidate(doc.LibraryID)
		f.saveSnapshot(doc.LibraryID)
	}
	return nil
}

// --- Index ---

const (
	defaultLeafSize = 40
	minLeafSize     = 10
	maxLeafSize     = 1000
)

// StartIndex validates and launches an index build for a library.
func (f *Facade) StartIndex(libraryID, indexerType string, leafSize int) (store.IndexStatus, error) {
	if f.store.GetLibrary(libraryID) == nil {
		return store.IndexStatus{}, vberrors.NewNotFoundError("library", libraryID)
	}

	var kind store.IndexerKind
	switch indexerType {
	case string(store.IndexerLinear):
		kind = store.IndexerLinear
	case string(store.IndexerBallTree):
		kind = store.IndexerBallTree
	default:
		return store.IndexStatus{}, vberrors.NewValidationError("indexer_type", "must be BRUTE_FORCE or BALL_TREE", indexerType)
	}

	if kind == store.IndexerBallTree {
		if leafSize == 0 {
			leafSize = defaultLeafSize
		}
		if leafSize < minLeafSize || leafSize > maxLeafSize {
			return store.IndexStatus{}, vberrors.NewValidationError("leaf_size", "must be between 10 and 1000", leafSize)
		}
	}

	return f.index.StartBuild(libraryID, indexmanager.BuildParams{Kind: kind, LeafSize: leafSize})
}

// IndexStatus reports a library's current index status and, if installed,
// a description of the index.
func (f *Facade) IndexStatus(libraryID string) (store.IndexStatus, *indexmanager.IndexDescription, error) {
	return f.index.Status(libraryID)
}

// Search embeds queryText and returns the top-k results in the public
// {chunk_id, text, score, document} shape.
func (f *Facade) Search(ctx context.Context, libraryID, queryText string, topK int) ([]SearchResultDTO, error) {
	if f.store.GetLibrary(libraryID) == nil {
		return nil, vberrors.NewNotFoundError("library", libraryID)
	}
	if topK < 0 {
		topK = 0
	}

	results, err := f.index.Search(ctx, libraryID, queryText, topK)
	if err != nil {
		return nil, err
	}

	out := make([]SearchResultDTO, len(results))
	for i, r := range results {
		out[i] = SearchResultDTO{
			ChunkID: r.ChunkID,
			Text:    r.Text,
			Score:   r.Score,
			Document: DocumentDTO{
				ID:       r.Document.ID,
				Name:     r.Document.Name,
				Metadata: r.Document.Metadata,
			},
		}
	}
	return out, nil
}

func (f *Facade) saveSnapshot(libraryID string) {
	if err := f.snapshots.Save(libraryID); err != nil {
		f.logger.Error("failed to persist snapshot", "library_id", libraryID, "error", err)
	}
}
