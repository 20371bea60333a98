package index

import (
	"math"
	"sort"
)

const defaultLeafSize = 40

// BallTreeIndex is an exact Euclidean top-k index built as a recursive
// hierarchy of enclosing hyperspheres (ball tree). It prunes branches
// whose enclosing ball cannot contain a point closer than the current
// k-th best candidate.
type BallTreeIndex struct {
	descriptors []ChunkDescriptor
	points      [][]float32
	root        *ballNode
	leafSize    int
}

type ballNode struct {
	indices     []int
	center      []float32
	radius      float32
	left, right *ballNode
}

func (n *ballNode) isLeaf() bool {
	return n.left == nil && n.right == nil
}

// BallTreeParams controls tree construction.
type BallTreeParams struct {
	// LeafSize is the maximum number of points a leaf may hold. Defaults
	// to 40 when zero or negative.
	LeafSize int
}

// NewBallTreeIndex builds a ball tree from parallel descriptor/vector
// slices, per BallTreeParams.
func NewBallTreeIndex(descriptors []ChunkDescriptor, points [][]float32, params BallTreeParams) *BallTreeIndex {
	leafSize := params.LeafSize
	if leafSize <= 0 {
		leafSize = defaultLeafSize
	}

	indices := make([]int, len(points))
	for i := range indices {
		indices[i] = i
	}

	b := &BallTreeIndex{
		descriptors: descriptors,
		points:      points,
		leafSize:    leafSize,
	}
	b.root = b.build(indices)
	return b
}

// Len reports the number of vectors this index was built over.
func (b *BallTreeIndex) Len() int {
	return len(b.points)
}

func (b *BallTreeIndex) build(indices []int) *ballNode {
	if len(indices) <= b.leafSize {
		return b.newLeaf(indices)
	}

	dim := b.dimOfMaxVariance(indices)
	if dim < 0 {
		// All points coincide: degenerate leaf centered on the first point.
		first := indices[0]
		return &ballNode{
			indices: indices,
			center:  cloneVec(b.points[first]),
			radius:  0,
		}
	}

	sorted := make([]int, len(indices))
	copy(sorted, indices)
	sort.Slice(sorted, func(i, j int) bool {
		return b.points[sorted[i]][dim] < b.points[sorted[j]][dim]
	})

	median := len(sorted) / 2
	if median < 1 {
		median = 1
	}
	if median > len(sorted)-1 {
		median = len(sorted) - 1
	}

	left := b.build(sorted[:median])
	right := b.build(sorted[median:])

	center := meanVec(b.points, indices)
	radius := maxDistanceFromCenter(b.points, indices, center)

	return &ballNode{
		indices: indices,
		center:  center,
		radius:  radius,
		left:    left,
		right:   right,
	}
}

func (b *BallTreeIndex) newLeaf(indices []int) *ballNode {
	if len(indices) == 0 {
		return &ballNode{indices: indices, center: []float32{}, radius: 0}
	}
	center := meanVec(b.points, indices)
	radius := maxDistanceFromCenter(b.points, indices, center)
	return &ballNode{indices: indices, center: center, radius: radius}
}

// dimOfMaxVariance returns the dimension with the largest per-dimension
// variance across the given points, or -1 if every point coincides.
func (b *BallTreeIndex) dimOfMaxVariance(indices []int) int {
	if len(indices) == 0 || len(b.points[indices[0]]) == 0 {
		return -1
	}
	dims := len(b.points[indices[0]])
	mean := meanVec(b.points, indices)

	bestDim := -1
	var bestVar float64
	for d := 0; d < dims; d++ {
		var sumSq float64
		for _, idx := range indices {
			diff := float64(b.points[idx][d]) - float64(mean[d])
			sumSq += diff * diff
		}
		variance := sumSq / float64(len(indices))
		if variance > bestVar {
			bestVar = variance
			bestDim = d
		}
	}
	if bestVar == 0 {
		return -1
	}
	return bestDim
}

// candidate is a working (distance, index) pair during search.
type candidate struct {
	dist float32
	idx  int
}

// Search returns the k nearest chunks to query by Euclidean distance,
// converted to a (0,1] similarity via 1/(1+d).
func (b *BallTreeIndex) Search(query []float32, k int) []ScoredChunk {
	if k <= 0 || len(b.points) == 0 || b.root == nil {
		return []ScoredChunk{}
	}

	results := make([]candidate, 0, k)
	b.searchNode(b.root, query, k, &results)

	out := make([]ScoredChunk, len(results))
	for i, c := range results {
		out[i] = ScoredChunk{
			ChunkDescriptor: b.descriptors[c.idx],
			Score:           1 / (1 + c.dist),
		}
	}
	return out
}

func (b *BallTreeIndex) searchNode(n *ballNode, query []float32, k int, results *[]candidate) {
	if n == nil {
		return
	}

	if n.isLeaf() {
		for _, idx := range n.indices {
			d := euclidean(query, b.points[idx])
			insertCandidate(results, candidate{dist: d, idx: idx}, k)
		}
		return
	}

	distLeft := euclidean(query, n.left.center)
	distRight := euclidean(query, n.right.center)

	first, second := n.left, n.right
	firstDist, secondDist := distLeft, distRight
	if distRight < distLeft {
		first, second = n.right, n.left
		firstDist, secondDist = distRight, distLeft
	}

	b.searchNode(first, query, k, results)

	if !full(results, k) || secondDist-second.radius <= worstDistance(results) {
		b.searchNode(second, query, k, results)
	}
	_ = firstDist
}

func full(results *[]candidate, k int) bool {
	return len(*results) >= k
}

func worstDistance(results *[]candidate) float32 {
	if len(*results) == 0 {
		return float32(math.Inf(1))
	}
	return (*results)[len(*results)-1].dist
}

// insertCandidate keeps results sorted ascending by distance, capped at k.
func insertCandidate(results *[]candidate, c candidate, k int) {
	r := *results
	pos := sort.Search(len(r), func(i int) bool { return r[i].dist > c.dist })
	r = append(r, candidate{})
	copy(r[pos+1:], r[pos:])
	r[pos] = c
	if len(r) > k {
		r = r[:k]
	}
	*results = r
}

func meanVec(points [][]float32, indices []int) []float32 {
	if len(indices) == 0 {
		return []float32{}
	}
	dims := len(points[indices[0]])
	sum := make([]float64, dims)
	for _, idx := range indices {
		p := points[idx]
		for d := 0; d < dims; d++ {
			sum[d] += float64(p[d])
		}
	}
	out := make([]float32, dims)
	for d := 0; d < dims; d++ {
		out[d] = float32(sum[d] / float64(len(indices)))
	}
	return out
}

func maxDistanceFromCenter(points [][]float32, indices []int, center []float32) float32 {
	var maxD float32
	for _, idx := range indices {
		d := euclidean(points[idx], center)
		if d > maxD {
			maxD = d
		}
	}
	return maxD
}

func euclidean(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sumSq float64
	for i := 0; i < n; i++ {
		diff := float64(a[i]) - float64(b[i])
		sumSq += diff * diff
	}
	return float32(math.Sqrt(sumSq))
}

func cloneVec(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
