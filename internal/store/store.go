package store

import (
	"sync"

	vberrors "vectorbase/internal/errors"
)

// Store holds the Library/Document/Chunk hierarchy in memory. Each map is
// guarded by its own mutex; when more than one lock is needed, acquisition
// always follows the fixed order library -> document -> chunk, and no lock
// is ever held across external I/O.
type Store struct {
	libraryLock sync.RWMutex
	libraries   map[string]*Library

	documentLock sync.RWMutex
	documents    map[string]*Document
	docToLib     map[string]string

	chunkLock sync.RWMutex
	chunks    map[string]*Chunk
	chunkToDoc map[string]string
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		libraries:  make(map[string]*Library),
		documents:  make(map[string]*Document),
		docToLib:   make(map[string]string),
		chunks:     make(map[string]*Chunk),
		chunkToDoc: make(map[string]string),
	}
}

// --- Library ---

// CreateLibrary installs a new library. Fails if the id is already taken.
func (s *Store) CreateLibrary(l *Library) (*Library, error) {
	s.libraryLock.Lock()
	defer s.libraryLock.Unlock()

	if _, exists := s.libraries[l.ID]; exists {
		return nil, vberrors.NewValidationError("id", "library id already exists", l.ID)
	}
	s.libraries[l.ID] = l.clone()
	return s.libraries[l.ID].clone(), nil
}

// GetLibrary returns a deep copy of the library, or nil if absent.
func (s *Store) GetLibrary(id string) *Library {
	s.libraryLock.RLock()
	defer s.libraryLock.RUnlock()
	return s.libraries[id].clone()
}

// ListLibraries returns a snapshot copy of every library.
func (s *Store) ListLibraries() []*Library {
	s.libraryLock.RLock()
	defer s.libraryLock.RUnlock()

	out := make([]*Library, 0, len(s.libraries))
	for _, l := range s.libraries {
		out = append(out, l.clone())
	}
	return out
}

// LibraryPatch describes a partial update to a library. Name is applied when
// non-nil and Metadata when MetadataSet is true; documents cannot be injected through this path
// because the type carries no such field.
type LibraryPatch struct {
	Name        *string
	Metadata    map[string]interface{}
	MetadataSet bool
}

// UpdateLibrary applies a partial update and returns the resulting library.
func (s *Store) UpdateLibrary(id string, patch LibraryPatch) (*Library, error) {
	s.libraryLock.Lock()
	defer s.libraryLock.Unlock()

	existing, ok := s.libraries[id]
	if !ok {
		return nil, vberrors.NewNotFoundError("library", id)
	}

	updated := existing.clone()
	if patch.Name != nil {
		updated.Name = *patch.Name
	}
	if patch.MetadataSet {
		updated.Metadata = cloneMetadata(patch.Metadata)
	}

	s.libraries[id] = updated
	return updated.clone(), nil
}

// SetIndexStatus overwrites a library's index status in place. Used by the
// index manager; bypasses the public patch validation since it never
// touches user-controlled fields.
func (s *Store) SetIndexStatus(id string, status IndexStatus) error {
	s.libraryLock.Lock()
	defer s.libraryLock.Unlock()

	existing, ok := s.libraries[id]
	if !ok {
		return vberrors.NewNotFoundError("library", id)
	}
	updated := existing.clone()
	updated.IndexStatus = status
	s.libraries[id] = updated
	return nil
}

// DeleteLibrary removes a library and cascades to its documents and chunks.
func (s *Store) DeleteLibrary(id string) error {
	s.libraryLock.Lock()
	if _, ok := s.libraries[id]; !ok {
		s.libraryLock.Unlock()
		return vberrors.NewNotFoundError("library", id)
	}
	delete(s.libraries, id)
	s.libraryLock.Unlock()

	s.deleteDocumentsByLibrary(id)
	return nil
}

// --- Document ---

// CreateDocument installs a new document under an existing library.
func (s *Store) CreateDocument(d *Document) (*Document, error) {
	s.libraryLock.RLock()
	_, libOK := s.libraries[d.LibraryID]
	s.libraryLock.RUnlock()
	if !libOK {
		return nil, vberrors.NewValidationError("library_id", "parent library does not exist", d.LibraryID)
	}

	s.documentLock.Lock()
	defer s.documentLock.Unlock()

	if _, exists := s.documents[d.ID]; exists {
		return nil, vberrors.NewValidationError("id", "document id already exists", d.ID)
	}
	s.documents[d.ID] = d.clone()
	s.docToLib[d.ID] = d.LibraryID
	return s.documents[d.ID].clone(), nil
}

// GetDocument returns a deep copy of the document, or nil if absent.
func (s *Store) GetDocument(id string) *Document {
	s.documentLock.RLock()
	defer s.documentLock.RUnlock()
	return s.documents[id].clone()
}

// ListDocuments returns a snapshot copy of every document.
func (s *Store) ListDocuments() []*Document {
	s.documentLock.RLock()
	defer s.documentLock.RUnlock()

	out := make([]*Document, 0, len(s.documents))
	for _, d := range s.documents {
		out = append(out, d.clone())
	}
	return out
}

// ListDocumentsByLibrary returns every document belonging to a library.
func (s *Store) ListDocumentsByLibrary(libraryID string) []*Document {
	s.documentLock.RLock()
	defer s.documentLock.RUnlock()

	out := make([]*Document, 0)
	for id, lib := range s.docToLib {
		if lib == libraryID {
			out = append(out, s.documents[id].clone())
		}
	}
	return out
}

// DocumentPatch describes a partial update to a document.
type DocumentPatch struct {
	Name        *string
	Metadata    map[string]interface{}
	MetadataSet bool
	// LibraryID, if non-nil, must equal the document's current library id.
	LibraryID *string
}

// UpdateDocument applies a partial update. Fails if LibraryID is present and differs.
func (s *Store) UpdateDocument(id string, patch DocumentPatch) (*Document, error) {
	s.documentLock.Lock()
	defer s.documentLock.Unlock()

	existing, ok := s.documents[id]
	if !ok {
		return nil, vberrors.NewNotFoundError("document", id)
	}
	if patch.LibraryID != nil && *patch.LibraryID != existing.LibraryID {
		return nil, vberrors.NewValidationError("library_id", "cannot change library_id", *patch.LibraryID)
	}

	updated := existing.clone()
	if patch.Name != nil {
		updated.Name = *patch.Name
	}
	if patch.MetadataSet {
		updated.Metadata = cloneMetadata(patch.Metadata)
	}

	s.documents[id] = updated
	return updated.clone(), nil
}

// DeleteDocument removes a document and cascades to its chunks.
func (s *Store) DeleteDocument(id string) error {
	s.documentLock.Lock()
	if _, ok := s.documents[id]; !ok {
		s.documentLock.Unlock()
		return vberrors.NewNotFoundError("document", id)
	}
	delete(s.documents, id)
	delete(s.docToLib, id)
	s.documentLock.Unlock()

	s.deleteChunksByDocument(id)
	return nil
}

// deleteDocumentsByLibrary bulk-cascades a library delete onto its documents.
func (s *Store) deleteDocumentsByLibrary(libraryID string) {
	s.documentLock.Lock()
	var toDelete []string
	for id, lib := range s.docToLib {
		if lib == libraryID {
			toDelete = append(toDelete, id)
		}
	}
	for _, id := range toDelete {
		delete(s.documents, id)
		delete(s.docToLib, id)
	}
	s.documentLock.Unlock()

	for _, id := range toDelete {
		s.deleteChunksByDocument(id)
	}
}

// --- Chunk ---

// CreateChunk installs a new chunk under an existing document.
func (s *Store) CreateChunk(c *Chunk) (*Chunk, error) {
	s.documentLock.RLock()
	_, docOK := s.documents[c.DocumentID]
	s.documentLock.RUnlock()
	if !docOK {
		return nil, vberrors.NewValidationError("document_id", "parent document does not exist", c.DocumentID)
	}

	s.chunkLock.Lock()
	defer s.chunkLock.Unlock()

	if _, exists := s.chunks[c.ID]; exists {
		return nil, vberrors.NewValidationError("id", "chunk id already exists", c.ID)
	}
	s.chunks[c.ID] = c.clone()
	s.chunkToDoc[c.ID] = c.DocumentID
	return s.chunks[c.ID].clone(), nil
}

// GetChunk returns a deep copy of the chunk, or nil if absent.
func (s *Store) GetChunk(id string) *Chunk {
	s.chunkLock.RLock()
	defer s.chunkLock.RUnlock()
	return s.chunks[id].clone()
}

// ListChunks returns a snapshot copy of every chunk.
func (s *Store) ListChunks() []*Chunk {
	s.chunkLock.RLock()
	defer s.chunkLock.RUnlock()

	out := make([]*Chunk, 0, len(s.chunks))
	for _, c := range s.chunks {
		out = append(out, c.clone())
	}
	return out
}

// ListChunksByDocument returns every chunk belonging to a document.
func (s *Store) ListChunksByDocument(documentID string) []*Chunk {
	s.chunkLock.RLock()
	defer s.chunkLock.RUnlock()

	out := make([]*Chunk, 0)
	for id, doc := range s.chunkToDoc {
		if doc == documentID {
			out = append(out, s.chunks[id].clone())
		}
	}
	return out
}

// ListChunksByLibrary returns every chunk belonging to any document of a library.
func (s *Store) ListChunksByLibrary(libraryID string) []*Chunk {
	docs := s.ListDocumentsByLibrary(libraryID)
	docSet := make(map[string]bool, len(docs))
	for _, d := range docs {
		docSet[d.ID] = true
	}

	s.chunkLock.RLock()
	defer s.chunkLock.RUnlock()

	out := make([]*Chunk, 0)
	for id, doc := range s.chunkToDoc {
		if docSet[doc] {
			out = append(out, s.chunks[id].clone())
		}
	}
	return out
}

// ChunkPatch describes a partial update to a chunk.
type ChunkPatch struct {
	Text         *string
	Embedding    []float32
	EmbeddingSet bool
	Metadata     map[string]interface{}
	MetadataSet  bool
	// DocumentID, if non-nil, must equal the chunk's current document id.
	DocumentID *string
}

// UpdateChunk applies a partial update. Fails if DocumentID is present and differs.
func (s *Store) UpdateChunk(id string, patch ChunkPatch) (*Chunk, error) {
	s.chunkLock.Lock()
	defer s.chunkLock.Unlock()

	existing, ok := s.chunks[id]
	if !ok {
		return nil, vberrors.NewNotFoundError("chunk", id)
	}
	if patch.DocumentID != nil && *patch.DocumentID != existing.DocumentID {
		return nil, vberrors.NewValidationError("document_id", "cannot change document_id", *patch.DocumentID)
	}

	updated := existing.clone()
	if patch.Text != nil {
		updated.Text = *patch.Text
	}
	if patch.EmbeddingSet {
		updated.Embedding = patch.Embedding
	}
	if patch.MetadataSet {
		updated.Metadata = cloneMetadata(patch.Metadata)
	}

	s.chunks[id] = updated
	return updated.clone(), nil
}

// DeleteChunk removes a single chunk.
func (s *Store) DeleteChunk(id string) error {
	s.chunkLock.Lock()
	defer s.chunkLock.Unlock()

	if _, ok := s.chunks[id]; !ok {
		return vberrors.NewNotFoundError("chunk", id)
	}
	delete(s.chunks, id)
	delete(s.chunkToDoc, id)
	return nil
}

// deleteChunksByDocument bulk-cascades a document delete onto its chunks.
func (s *Store) deleteChunksByDocument(documentID string) {
	s.chunkLock.Lock()
	defer s.chunkLock.Unlock()

	for id, doc := range s.chunkToDoc {
		if doc == documentID {
			delete(s.chunks, id)
			delete(s.chunkToDoc, id)
		}
	}
}
