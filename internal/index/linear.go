package index

import (
	"math"
	"sort"
)

// LinearIndex is an exact top-k index over cosine similarity. It scans
// every vector in the library on each query; correct by construction,
// O(n*d) per search.
type LinearIndex struct {
	descriptors []ChunkDescriptor
	normalized  [][]float32 // L2-normalized copy of each vector
}

// NewLinearIndex builds a LinearIndex from parallel descriptor/vector
// slices. vectors[i] must be the embedding for descriptors[i]; every
// embedding is expected to already be populated (the caller - the index
// manager - is responsible for calling the embedder first).
func NewLinearIndex(descriptors []ChunkDescriptor, vectors [][]float32) *LinearIndex {
	normalized := make([][]float32, len(vectors))
	for i, v := range vectors {
		normalized[i] = normalize(v)
	}
	return &LinearIndex{
		descriptors: descriptors,
		normalized:  normalized,
	}
}

// Len reports the number of vectors this index was built over.
func (l *LinearIndex) Len() int {
	return len(l.descriptors)
}

// Search returns the k chunks with the highest cosine similarity to
// query, ordered best-first. Ties are broken by build order, which
// makes results deterministic for a fixed build.
func (l *LinearIndex) Search(query []float32, k int) []ScoredChunk {
	if k <= 0 || len(l.descriptors) == 0 {
		return []ScoredChunk{}
	}

	q := normalize(query)
	scores := make([]float32, len(l.descriptors))
	for i, v := range l.normalized {
		scores[i] = dot(q, v)
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	if k > len(order) {
		k = len(order)
	}
	out := make([]ScoredChunk, k)
	for i := 0; i < k; i++ {
		idx := order[i]
		out[i] = ScoredChunk{
			ChunkDescriptor: l.descriptors[idx],
			Score:           scores[idx],
		}
	}
	return out
}

// normalize returns an L2-normalized copy of v. A zero-norm vector is
// treated as already having unit norm, i.e. it is returned unchanged,
// so its dot product with anything else is simply 0 rather than NaN.
func normalize(v []float32) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	if sumSq == 0 {
		out := make([]float32, len(v))
		copy(out, v)
		return out
	}
	norm := float32(math.Sqrt(sumSq))
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

func dot(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float32
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
