// Package index implements the two nearest-neighbor search structures a
// library can be built with: an exact cosine linear scan and an exact
// Euclidean ball tree.
package index

// ChunkDescriptor is the static payload a search result carries for a
// chunk, captured at build time. Document identity is resolved fresh at
// search time by the caller, since the document may have changed since
// the index was built.
type ChunkDescriptor struct {
	ChunkID    string
	DocumentID string
	Text       string
	Metadata   map[string]interface{}
}

// ScoredChunk is one ranked result out of a Search call.
type ScoredChunk struct {
	ChunkDescriptor
	Score float32
}

// Index is the common contract both nearest-neighbor structures satisfy.
// Implementations are immutable once built: the only way to change an
// index is to build a new one and swap it in under the owner's lock.
type Index interface {
	// Search returns up to k results ordered best-first.
	Search(query []float32, k int) []ScoredChunk
	// Len reports how many vectors the index was built over.
	Len() int
}
