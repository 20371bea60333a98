package index

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func descFor(id string) ChunkDescriptor {
	return ChunkDescriptor{ChunkID: id, DocumentID: "d1", Text: "text-" + id}
}

func TestLinearIndex_EmptyBuild(t *testing.T) {
	idx := NewLinearIndex(nil, nil)
	assert.Equal(t, 0, idx.Len())
	assert.Empty(t, idx.Search([]float32{1, 0}, 5))
}

func TestLinearIndex_KZeroReturnsEmpty(t *testing.T) {
	idx := NewLinearIndex([]ChunkDescriptor{descFor("a")}, [][]float32{{1, 0}})
	assert.Empty(t, idx.Search([]float32{1, 0}, 0))
}

func TestLinearIndex_KGreaterThanNReturnsN(t *testing.T) {
	idx := NewLinearIndex(
		[]ChunkDescriptor{descFor("a"), descFor("b")},
		[][]float32{{1, 0}, {0, 1}},
	)
	results := idx.Search([]float32{1, 0}, 10)
	require.Len(t, results, 2)
}

func TestLinearIndex_OrderingMatchesCosineArgsort(t *testing.T) {
	descs := []ChunkDescriptor{descFor("a"), descFor("b"), descFor("c")}
	vecs := [][]float32{
		{1, 0}, // identical to query
		{0, 1}, // orthogonal
		{-1, 0}, // opposite
	}
	idx := NewLinearIndex(descs, vecs)
	results := idx.Search([]float32{1, 0}, 3)
	require.Len(t, results, 3)
	assert.Equal(t, "a", results[0].ChunkID)
	assert.Equal(t, "b", results[1].ChunkID)
	assert.Equal(t, "c", results[2].ChunkID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	assert.InDelta(t, 0.0, results[1].Score, 1e-6)
	assert.InDelta(t, -1.0, results[2].Score, 1e-6)

	assert.True(t, sort.SliceIsSorted(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	}))
}

func TestLinearIndex_ZeroNormRowTreatedAsUnit(t *testing.T) {
	idx := NewLinearIndex([]ChunkDescriptor{descFor("z")}, [][]float32{{0, 0}})
	results := idx.Search([]float32{1, 0}, 1)
	require.Len(t, results, 1)
	assert.Equal(t, float32(0), results[0].Score)
}
