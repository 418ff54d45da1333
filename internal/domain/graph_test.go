package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot() *Snapshot {
	return NewSnapshot(
		[]Node{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}, {ID: 3, Name: "C"}},
		[]Edge{
			{ID: 10, SrcID: 1, DstID: 2, Weight: 1},
			{ID: 11, SrcID: 2, DstID: 3, Weight: 2},
			{ID: 12, SrcID: 1, DstID: 3, Weight: 5},
		},
	)
}

func TestSnapshotLookup(t *testing.T) {
	s := sampleSnapshot()

	t.Run("known node", func(t *testing.T) {
		n, ok := s.Node(2)
		require.True(t, ok)
		assert.Equal(t, "B", n.Name)
		assert.True(t, s.HasNode(3))
	})

	t.Run("unknown node", func(t *testing.T) {
		_, ok := s.Node(99)
		assert.False(t, ok)
		assert.False(t, s.HasNode(99))
	})

	t.Run("by name", func(t *testing.T) {
		n, ok := s.NodeByName("C")
		require.True(t, ok)
		assert.Equal(t, int64(3), n.ID)
	})

	t.Run("edge by endpoints", func(t *testing.T) {
		e, ok := s.FindEdge(1, 3)
		require.True(t, ok)
		assert.Equal(t, int64(12), e.ID)

		_, ok = s.FindEdge(3, 1)
		assert.False(t, ok, "edges are directed")
	})

	t.Run("decoded snapshot without index", func(t *testing.T) {
		decoded := &Snapshot{Nodes: []Node{{ID: 7, Name: "G"}}}
		assert.True(t, decoded.HasNode(7))
		assert.Equal(t, "G", decoded.NodeName(7))
	})
}

func TestSnapshotNodeNamePlaceholder(t *testing.T) {
	s := sampleSnapshot()
	assert.Equal(t, "A", s.NodeName(1))
	assert.Equal(t, "ID 42", s.NodeName(42))

	var nilSnap *Snapshot
	assert.Equal(t, "ID 1", nilSnap.NodeName(1))
}

func TestSnapshotEqual(t *testing.T) {
	assert.True(t, sampleSnapshot().Equal(sampleSnapshot()))
	assert.True(t, EmptySnapshot().Equal(nil))

	changed := sampleSnapshot()
	changed.Edges[0].Weight = 1.5
	assert.False(t, sampleSnapshot().Equal(changed))

	fewer := NewSnapshot(sampleSnapshot().Nodes[:2], nil)
	assert.False(t, sampleSnapshot().Equal(fewer))
}

func TestSnapshotDanglingEdges(t *testing.T) {
	assert.Empty(t, sampleSnapshot().DanglingEdges())

	s := NewSnapshot(
		[]Node{{ID: 1, Name: "A"}, {ID: 3, Name: "C"}},
		[]Edge{{ID: 10, SrcID: 1, DstID: 2, Weight: 1}, {ID: 12, SrcID: 1, DstID: 3, Weight: 5}},
	)
	dangling := s.DanglingEdges()
	require.Len(t, dangling, 1)
	assert.Equal(t, int64(10), dangling[0].ID)
}

func TestSnapshotEdgeViews(t *testing.T) {
	s := NewSnapshot(
		[]Node{{ID: 1, Name: "A"}},
		[]Edge{{ID: 10, SrcID: 1, DstID: 9, Weight: 2.5}},
	)
	views := s.EdgeViews()
	require.Len(t, views, 1)
	assert.Equal(t, "A", views[0].Src)
	assert.Equal(t, "ID 9", views[0].Dst)
	assert.Equal(t, "A → ID 9 (2.5)", views[0].Summary)
}

func TestSeedFromSnapshot(t *testing.T) {
	f := SeedFromSnapshot(sampleSnapshot())
	assert.Equal(t, []string{"A", "B", "C"}, f.Nodes)
	require.Len(t, f.Edges, 3)
	assert.Equal(t, SeedEdge{Src: "B", Dst: "C", Weight: 2}, f.Edges[1])
}
