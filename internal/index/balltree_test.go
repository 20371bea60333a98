package index

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBallTreeIndex_EmptyBuild(t *testing.T) {
	idx := NewBallTreeIndex(nil, nil, BallTreeParams{})
	assert.Equal(t, 0, idx.Len())
	assert.Empty(t, idx.Search([]float32{1, 0}, 5))
}

func TestBallTreeIndex_KZeroReturnsEmpty(t *testing.T) {
	idx := NewBallTreeIndex([]ChunkDescriptor{descFor("a")}, [][]float32{{1, 0}}, BallTreeParams{})
	assert.Empty(t, idx.Search([]float32{1, 0}, 0))
}

func TestBallTreeIndex_KGreaterThanNReturnsN(t *testing.T) {
	idx := NewBallTreeIndex(
		[]ChunkDescriptor{descFor("a"), descFor("b")},
		[][]float32{{1, 0}, {0, 1}},
		BallTreeParams{LeafSize: 1},
	)
	results := idx.Search([]float32{0, 0}, 10)
	require.Len(t, results, 2)
}

func TestBallTreeIndex_DegenerateCoincidentPoints(t *testing.T) {
	pts := make([][]float32, 5)
	descs := make([]ChunkDescriptor, 5)
	for i := range pts {
		pts[i] = []float32{3, 3, 3}
		descs[i] = descFor(string(rune('a' + i)))
	}
	idx := NewBallTreeIndex(descs, pts, BallTreeParams{LeafSize: 2})
	results := idx.Search([]float32{3, 3, 3}, 3)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.InDelta(t, 1.0, r.Score, 1e-6) // distance 0 -> score 1
	}
}

// TestBallTreeIndex_MatchesBruteForce cross-checks the ball tree against
// an independent brute-force scan over random 32-D points (scenario 5
// from the testable properties): the returned index set must match.
func TestBallTreeIndex_MatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	const n, dims, k = 200, 32, 5

	pts := make([][]float32, n)
	descs := make([]ChunkDescriptor, n)
	for i := 0; i < n; i++ {
		v := make([]float32, dims)
		for d := 0; d < dims; d++ {
			v[d] = rng.Float32()*2 - 1
		}
		pts[i] = v
		descs[i] = descFor(randID(rng))
	}

	idx := NewBallTreeIndex(descs, pts, BallTreeParams{LeafSize: 20})

	for q := 0; q < 50; q++ {
		query := make([]float32, dims)
		for d := 0; d < dims; d++ {
			query[d] = rng.Float32()*2 - 1
		}

		treeResults := idx.Search(query, k)
		treeSet := make(map[string]bool, len(treeResults))
		for _, r := range treeResults {
			treeSet[r.ChunkID] = true
		}

		bruteSet := bruteForceTopK(pts, descs, query, k)
		assert.Equal(t, bruteSet, treeSet, "query %d: ball tree and brute force disagree", q)
	}
}

func bruteForceTopK(pts [][]float32, descs []ChunkDescriptor, query []float32, k int) map[string]bool {
	type scored struct {
		id   string
		dist float32
	}
	all := make([]scored, len(pts))
	for i, p := range pts {
		all[i] = scored{id: descs[i].ChunkID, dist: euclidean(query, p)}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].dist < all[j].dist })

	out := make(map[string]bool, k)
	for i := 0; i < k && i < len(all); i++ {
		out[all[i].id] = true
	}
	return out
}

func randID(rng *rand.Rand) string {
	const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, 12)
	for i := range b {
		b[i] = letters[rng.Intn(len(letters))]
	}
	return string(b)
}
