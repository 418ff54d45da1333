package service

import (
	"context"
	"testing"

	"pathfinder/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func ptr(v int64) *int64 { return &v }

func TestTraversalChainScenario(t *testing.T) {
	h := loggedIn(t)
	a := h.backend.AddNode("A")
	b := h.backend.AddNode("B")
	c := h.backend.AddNode("C")
	h.backend.AddEdge(a, b, 1)
	h.backend.AddEdge(b, c, 2)

	got, err := h.algo.RunTraversal(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, got.Order)
	assert.Equal(t, []domain.TreeEntry{
		{NodeID: 1, ParentID: nil, Depth: 0},
		{NodeID: 2, ParentID: ptr(1), Depth: 1},
		{NodeID: 3, ParentID: ptr(2), Depth: 2},
	}, got.Tree)
}

func TestTraversalWithShortcut(t *testing.T) {
	h := loggedIn(t)
	h.abc()

	got, err := h.algo.RunTraversal(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, got.Order)

	// C is one hop from A through A→C, so it hangs off the root
	assert.Equal(t, domain.TreeEntry{NodeID: 3, ParentID: ptr(1), Depth: 1}, got.Tree[2])

	seen := make(map[int64]int)
	for i, id := range got.Order {
		seen[id] = i
	}
	assert.Len(t, seen, len(got.Order), "each node appears once")
	for _, e := range got.Tree[1:] {
		require.NotNil(t, e.ParentID)
		assert.Less(t, seen[*e.ParentID], seen[e.NodeID], "parent visited earlier")
	}
}

func TestTraversalErrors(t *testing.T) {
	h := loggedIn(t)
	ctx := context.Background()

	for _, id := range []int64{0, -3} {
		_, err := h.algo.RunTraversal(ctx, id)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	}
	assert.Zero(t, h.backend.Hits("/graph/bfs"))

	_, err := h.algo.RunTraversal(ctx, 42)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, "Node with id 42 not found", err.Error())
}

func TestShortestPathScenario(t *testing.T) {
	h := loggedIn(t)
	a, _, c := h.abc()

	got, err := h.algo.RunShortestPath(context.Background(), a, c)
	require.NoError(t, err)
	assert.True(t, got.Reachable())
	assert.Equal(t, []int64{1, 2, 3}, got.Path)
	assert.Equal(t, 3.0, got.Distance)
}

// pathWeights enumerates the weight of every simple directed path from src
// to dst
func pathWeights(edges []domain.Edge, src, dst int64) []float64 {
	var (
		out     []float64
		visited = map[int64]bool{}
		walk    func(at int64, acc float64)
	)
	walk = func(at int64, acc float64) {
		if at == dst {
			out = append(out, acc)
			return
		}
		visited[at] = true
		for _, e := range edges {
			if e.SrcID == at && !visited[e.DstID] {
				walk(e.DstID, acc+e.Weight)
			}
		}
		visited[at] = false
	}
	walk(src, 0)
	return out
}

func TestShortestPathIsOptimal(t *testing.T) {
	h := loggedIn(t)
	ids := make([]int64, 6)
	for i, name := range []string{"S", "P", "Q", "R", "U", "T"} {
		ids[i] = h.backend.AddNode(name)
	}
	s, p, q, r, u, dst := ids[0], ids[1], ids[2], ids[3], ids[4], ids[5]
	h.backend.AddEdge(s, p, 4)
	h.backend.AddEdge(s, q, 1)
	h.backend.AddEdge(q, p, 1.5)
	h.backend.AddEdge(p, r, 1)
	h.backend.AddEdge(q, r, 6)
	h.backend.AddEdge(r, dst, 2)
	h.backend.AddEdge(s, u, 0.5)
	h.backend.AddEdge(u, dst, 9)
	h.backend.AddEdge(dst, s, 1)

	got, err := h.algo.RunShortestPath(context.Background(), s, dst)
	require.NoError(t, err)
	require.True(t, got.Reachable())

	alternatives := pathWeights(h.backend.Edges(), s, dst)
	require.NotEmpty(t, alternatives)
	for _, w := range alternatives {
		assert.LessOrEqual(t, got.Distance, w)
	}
	assert.Equal(t, 5.5, got.Distance)
	assert.Equal(t, []int64{s, q, p, r, dst}, got.Path)
}

func TestShortestPathUnreachableIsNotAnError(t *testing.T) {
	h := loggedIn(t)
	a, _, c := h.abc()

	got, err := h.algo.RunShortestPath(context.Background(), c, a)
	require.NoError(t, err)
	assert.False(t, got.Reachable())
}

func TestShortestPathErrors(t *testing.T) {
	h := loggedIn(t)
	a, _, _ := h.abc()
	ctx := context.Background()

	_, err := h.algo.RunShortestPath(ctx, 0, a)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Zero(t, h.backend.Hits("/graph/shortest-path"))

	_, err = h.algo.RunShortestPath(ctx, a, 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, "Destination node with id 99 not found", err.Error())

	_, err = h.algo.RunShortestPath(ctx, 98, a)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// stubAlgorithms returns canned results
type stubAlgorithms struct {
	bfs  *domain.TraversalResult
	path *domain.PathResult
	err  error
}

func (s *stubAlgorithms) BFS(context.Context, int64) (*domain.TraversalResult, error) {
	return s.bfs, s.err
}

func (s *stubAlgorithms) ShortestPath(context.Context, int64, int64) (*domain.PathResult, error) {
	return s.path, s.err
}

func TestMalformedResultsAreFetchErrors(t *testing.T) {
	ctx := context.Background()

	bad := &stubAlgorithms{bfs: &domain.TraversalResult{
		Order: []int64{1, 2},
		Tree: []domain.TreeEntry{
			{NodeID: 1, Depth: 0},
			{NodeID: 2, ParentID: ptr(1), Depth: 3},
		},
	}}
	_, err := NewAlgorithmClient(bad, zap.NewNop()).RunTraversal(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrFetch)

	unvisitedParent := &stubAlgorithms{bfs: &domain.TraversalResult{
		Order: []int64{1, 2},
		Tree: []domain.TreeEntry{
			{NodeID: 1, Depth: 0},
			{NodeID: 2, ParentID: ptr(99), Depth: 1},
		},
	}}
	_, err = NewAlgorithmClient(unvisitedParent, nil).RunTraversal(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrFetch)

	wrongStart := &stubAlgorithms{path: &domain.PathResult{Path: []int64{2, 3}, Distance: 1}}
	_, err = NewAlgorithmClient(wrongStart, nil).RunShortestPath(ctx, 1, 3)
	assert.ErrorIs(t, err, domain.ErrFetch)
}

func TestEmptyPathMeansUnreachable(t *testing.T) {
	stub := &stubAlgorithms{path: &domain.PathResult{Path: []int64{}, Distance: 0}}

	got, err := NewAlgorithmClient(stub, nil).RunShortestPath(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.False(t, got.Reachable())
}

func TestNoPathDetection(t *testing.T) {
	assert.True(t, isNoPath(domain.NewError(domain.KindNotFound, "No path found between nodes 3 and 1")))
	assert.False(t, isNoPath(domain.NewError(domain.KindNotFound, "Source node with id 9 not found")))
	assert.False(t, isNoPath(domain.NewError(domain.KindValidation, "No path found")))
}
