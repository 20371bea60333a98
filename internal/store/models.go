// Package store implements the concurrent, in-memory Library/Document/Chunk
// hierarchy: creation, lookup, partial update and cascading delete, each
// guarded by its own per-kind lock.
package store

import "time"

// IndexerKind names the nearest-neighbor index algorithm built for a library.
type IndexerKind string

const (
	// IndexerNone means no index has ever been built, or the last one was torn down.
	IndexerNone IndexerKind = "none"
	// IndexerLinear is the exact cosine-similarity linear scan.
	IndexerLinear IndexerKind = "BRUTE_FORCE"
	// IndexerBallTree is the exact Euclidean ball-tree index.
	IndexerBallTree IndexerKind = "BALL_TREE"
)

// IndexStatus reports the current state of a library's nearest-neighbor index.
type IndexStatus struct {
	Indexed             bool        `json:"indexed"`
	IndexerKind         IndexerKind `json:"indexer_kind"`
	LastIndexedTime     *time.Time  `json:"last_indexed_time,omitempty"`
	IndexingInProgress  bool        `json:"indexing_in_progress"`
}

// Library is the top-level container of documents.
type Library struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	IndexStatus IndexStatus            `json:"index_status"`
}

// Document belongs to exactly one library.
type Document struct {
	ID        string                 `json:"id"`
	LibraryID string                 `json:"library_id"`
	Name      string                 `json:"name"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Chunk belongs to exactly one document and carries the text that gets embedded.
type Chunk struct {
	ID         string                 `json:"id"`
	DocumentID string                 `json:"document_id"`
	Text       string                 `json:"text"`
	Embedding  []float32              `json:"embedding,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

func (l *Library) clone() *Library {
	if l == nil {
		return nil
	}
	cp := *l
	cp.Metadata = cloneMetadata(l.Metadata)
	if l.IndexStatus.LastIndexedTime != nil {
		t := *l.IndexStatus.LastIndexedTime
		cp.IndexStatus.LastIndexedTime = &t
	}
	return &cp
}

func (d *Document) clone() *Document {
	if d == nil {
		return nil
	}
	cp := *d
	cp.Metadata = cloneMetadata(d.Metadata)
	return &cp
}

func (c *Chunk) clone() *Chunk {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Metadata = cloneMetadata(c.Metadata)
	if c.Embedding != nil {
		cp.Embedding = make([]float32, len(c.Embedding))
		copy(cp.Embedding, c.Embedding)
	}
	return &cp
}

func cloneMetadata(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	cp := make(map[string]interface{}, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
