package service

import (
	"context"
	"math/rand"
	"net/http"
	"strconv"
	"testing"

	"pathfinder/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loggedIn(t *testing.T) *harness {
	t.Helper()
	h := newHarness(t, nil)
	_, err := h.session.Login(context.Background(), testUser, testPassword)
	require.NoError(t, err)
	return h
}

func TestLoadAll(t *testing.T) {
	h := loggedIn(t)
	h.abc()

	assert.False(t, h.graph.Loaded())
	assert.True(t, h.graph.Snapshot().Empty())

	snap, err := h.graph.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Nodes, 3)
	assert.Len(t, snap.Edges, 3)
	assert.Same(t, snap, h.graph.Snapshot())
}

func TestLoadAllIsIdempotent(t *testing.T) {
	h := loggedIn(t)
	h.abc()
	ctx := context.Background()

	first, err := h.graph.LoadAll(ctx)
	require.NoError(t, err)
	second, err := h.graph.LoadAll(ctx)
	require.NoError(t, err)

	assert.True(t, first.Equal(second))
	assert.Equal(t, first.Nodes, second.Nodes)
	assert.Equal(t, first.Edges, second.Edges)
}

func TestLoadAllPartialFailureKeepsSnapshot(t *testing.T) {
	for _, path := range []string{"/graph/nodes", "/graph/edges"} {
		t.Run(path, func(t *testing.T) {
			h := loggedIn(t)
			h.abc()
			ctx := context.Background()

			before, err := h.graph.LoadAll(ctx)
			require.NoError(t, err)

			h.backend.AddNode("D")
			h.backend.FailNext(path, http.StatusInternalServerError, "database is down")

			_, err = h.graph.LoadAll(ctx)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrFetch)
			assert.Same(t, before, h.graph.Snapshot(), "previous snapshot is retained")
			assert.True(t, h.session.Authenticated())
		})
	}
}

func TestLoadAllUnauthorized(t *testing.T) {
	h := loggedIn(t)
	h.backend.FailNext("/graph/edges", http.StatusUnauthorized, "Could not validate credentials")

	_, err := h.graph.LoadAll(context.Background())
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
	assert.False(t, h.session.Authenticated())
	assert.False(t, h.graph.Loaded())
}

func TestLoadAllDiscardsStaleResponse(t *testing.T) {
	h := loggedIn(t)
	h.abc()
	ctx := context.Background()

	nodesGate := h.backend.Hold("/graph/nodes")
	edgesGate := h.backend.Hold("/graph/edges")
	done := make(chan error, 1)
	go func() {
		_, err := h.graph.LoadAll(ctx)
		done <- err
	}()

	waitFor(t, nodesGate.Arrived())
	waitFor(t, edgesGate.Arrived())
	require.NoError(t, h.session.Logout(ctx))
	nodesGate.Release()
	edgesGate.Release()

	err := <-done
	assert.ErrorIs(t, err, domain.ErrStaleResponse)
	assert.False(t, h.graph.Loaded(), "a response from the old session is never applied")
}

func TestCreateNodeValidation(t *testing.T) {
	h := loggedIn(t)
	ctx := context.Background()

	for _, name := range []string{"", "   ", "\t\n"} {
		_, err := h.graph.CreateNode(ctx, name)
		assert.ErrorIs(t, err, domain.ErrValidation, "name %q", name)
	}
	assert.Zero(t, h.backend.Hits("/graph/nodes"))
}

func TestCreateNodeDoesNotTouchSnapshot(t *testing.T) {
	h := loggedIn(t)
	ctx := context.Background()
	_, err := h.graph.LoadAll(ctx)
	require.NoError(t, err)

	node, err := h.graph.CreateNode(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, "A", node.Name)
	assert.False(t, h.graph.Snapshot().HasNode(node.ID), "no optimistic insert")

	_, err = h.graph.LoadAll(ctx)
	require.NoError(t, err)
	assert.True(t, h.graph.Snapshot().HasNode(node.ID))
}

func TestCreateNodeDuplicateName(t *testing.T) {
	h := loggedIn(t)
	h.backend.AddNode("A")

	_, err := h.graph.CreateNode(context.Background(), "A")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "Node with name 'A' already exists", err.Error())
}

func TestDeleteMissing(t *testing.T) {
	h := loggedIn(t)
	ctx := context.Background()

	err := h.graph.DeleteNode(ctx, 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, "Node with id 99 not found", err.Error())

	err = h.graph.DeleteEdge(ctx, 42)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, "Edge with id 42 not found", err.Error())
}

func TestCreateEdgeValidation(t *testing.T) {
	h := loggedIn(t)
	a, b, _ := h.abc()
	ctx := context.Background()
	_, err := h.graph.LoadAll(ctx)
	require.NoError(t, err)
	hits := h.backend.Hits("/graph/edges")

	tests := []struct {
		name     string
		src, dst int64
		weight   string
	}{
		{"unknown source", 99, b, "1"},
		{"unknown destination", a, 99, "1"},
		{"non-positive id", 0, b, "1"},
		{"weight not a number", a, b, "heavy"},
		{"weight empty", a, b, ""},
		{"weight infinite", a, b, "Inf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.graph.CreateEdge(ctx, tt.src, tt.dst, tt.weight)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
	assert.Equal(t, hits, h.backend.Hits("/graph/edges"), "rejected locally")
}

func TestCreateEdgeWeightSignIsServerDecision(t *testing.T) {
	h := loggedIn(t)
	a, b, _ := h.abc()
	ctx := context.Background()
	_, err := h.graph.LoadAll(ctx)
	require.NoError(t, err)

	_, err = h.graph.CreateEdge(ctx, a, b, "-2")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "Input should be greater than 0", err.Error())

	edge, err := h.graph.CreateEdge(ctx, a, b, " 2.5 ")
	require.NoError(t, err)
	assert.Equal(t, 2.5, edge.Weight)
}

// After every mutation followed by a reload, no edge references a deleted
// node.
func TestNoDanglingEdgesAfterRandomMutations(t *testing.T) {
	h := loggedIn(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(7))

	snap, err := h.graph.LoadAll(ctx)
	require.NoError(t, err)

	for i := 0; i < 60; i++ {
		switch op := rng.Intn(4); {
		case op == 0 || len(snap.Nodes) < 2:
			_, err = h.graph.CreateNode(ctx, "n"+strconv.Itoa(i))
			require.NoError(t, err)
		case op == 1:
			n := snap.Nodes[rng.Intn(len(snap.Nodes))]
			require.NoError(t, h.graph.DeleteNode(ctx, n.ID))
		case op == 2 && len(snap.Edges) > 0:
			e := snap.Edges[rng.Intn(len(snap.Edges))]
			require.NoError(t, h.graph.DeleteEdge(ctx, e.ID))
		default:
			src := snap.Nodes[rng.Intn(len(snap.Nodes))]
			dst := snap.Nodes[rng.Intn(len(snap.Nodes))]
			_, err = h.graph.CreateEdge(ctx, src.ID, dst.ID, strconv.Itoa(1+rng.Intn(9)))
			require.NoError(t, err)
		}

		snap, err = h.graph.LoadAll(ctx)
		require.NoError(t, err)
		require.Empty(t, snap.DanglingEdges(), "step %d", i)
		require.Equal(t, h.backend.Nodes(), snap.Nodes, "snapshot mirrors server")
		require.Equal(t, h.backend.Edges(), snap.Edges, "snapshot mirrors server")
	}
}

func TestResetDropsSnapshot(t *testing.T) {
	h := loggedIn(t)
	h.abc()
	_, err := h.graph.LoadAll(context.Background())
	require.NoError(t, err)

	h.graph.Reset()
	assert.False(t, h.graph.Loaded())
	assert.True(t, h.graph.Snapshot().Empty())
}
