package domain

import (
	"fmt"
	"strconv"
)

// Snapshot is the client's copy of the server's nodes and edges, in server
// order. A Snapshot is treated as immutable once published.
type Snapshot struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`

	index map[int64]int
}

// NewSnapshot builds a snapshot and its id index
func NewSnapshot(nodes []Node, edges []Edge) *Snapshot {
	if nodes == nil {
		nodes = make([]Node, 0)
	}
	if edges == nil {
		edges = make([]Edge, 0)
	}
	s := &Snapshot{
		Nodes: nodes,
		Edges: edges,
		index: make(map[int64]int, len(nodes)),
	}
	for i, n := range nodes {
		s.index[n.ID] = i
	}
	return s
}

// EmptySnapshot is the state before the first successful load
func EmptySnapshot() *Snapshot {
	return NewSnapshot(nil, nil)
}

// Node looks up a node by id
func (s *Snapshot) Node(id int64) (Node, bool) {
	if s == nil {
		return Node{}, false
	}
	if s.index == nil {
		// decoded directly rather than built with NewSnapshot
		for _, n := range s.Nodes {
			if n.ID == id {
				return n, true
			}
		}
		return Node{}, false
	}
	i, ok := s.index[id]
	if !ok {
		return Node{}, false
	}
	return s.Nodes[i], true
}

// HasNode reports whether id is a currently known node
func (s *Snapshot) HasNode(id int64) bool {
	_, ok := s.Node(id)
	return ok
}

// NodeByName returns the first node with the given name
func (s *Snapshot) NodeByName(name string) (Node, bool) {
	if s == nil {
		return Node{}, false
	}
	for _, n := range s.Nodes {
		if n.Name == name {
			return n, true
		}
	}
	return Node{}, false
}

// Edge looks up an edge by id
func (s *Snapshot) Edge(id int64) (Edge, bool) {
	if s == nil {
		return Edge{}, false
	}
	for _, e := range s.Edges {
		if e.ID == id {
			return e, true
		}
	}
	return Edge{}, false
}

// FindEdge returns the first edge from src to dst
func (s *Snapshot) FindEdge(srcID, dstID int64) (Edge, bool) {
	if s == nil {
		return Edge{}, false
	}
	for _, e := range s.Edges {
		if e.SrcID == srcID && e.DstID == dstID {
			return e, true
		}
	}
	return Edge{}, false
}

// NodeName resolves an id to its display name. Ids missing from the
// snapshot (stale data) render as a placeholder instead of failing.
func (s *Snapshot) NodeName(id int64) string {
	if n, ok := s.Node(id); ok {
		return n.Name
	}
	return PlaceholderName(id)
}

// PlaceholderName is the display name for an id absent from the snapshot
func PlaceholderName(id int64) string {
	return "ID " + strconv.FormatInt(id, 10)
}

// Empty reports whether the snapshot holds no nodes and no edges
func (s *Snapshot) Empty() bool {
	return s == nil || (len(s.Nodes) == 0 && len(s.Edges) == 0)
}

// Equal reports whether two snapshots hold identical nodes and edges in the
// same order
func (s *Snapshot) Equal(other *Snapshot) bool {
	if s == nil || other == nil {
		return s.Empty() && other.Empty()
	}
	if len(s.Nodes) != len(other.Nodes) || len(s.Edges) != len(other.Edges) {
		return false
	}
	for i := range s.Nodes {
		if s.Nodes[i] != other.Nodes[i] {
			return false
		}
	}
	for i := range s.Edges {
		if s.Edges[i] != other.Edges[i] {
			return false
		}
	}
	return true
}

// DanglingEdges returns edges whose endpoints are missing from the node set.
// After a reload this is always empty because the server cascades deletes.
func (s *Snapshot) DanglingEdges() []Edge {
	var out []Edge
	if s == nil {
		return out
	}
	for _, e := range s.Edges {
		if !s.HasNode(e.SrcID) || !s.HasNode(e.DstID) {
			out = append(out, e)
		}
	}
	return out
}

// EdgeView is an edge with endpoint names resolved for display
type EdgeView struct {
	ID      int64   `json:"id" yaml:"id"`
	Src     string  `json:"src" yaml:"src"`
	Dst     string  `json:"dst" yaml:"dst"`
	Weight  float64 `json:"weight" yaml:"weight"`
	Summary string  `json:"-" yaml:"-"`
}

// EdgeViews derives the display list of edges
func (s *Snapshot) EdgeViews() []EdgeView {
	if s == nil {
		return nil
	}
	views := make([]EdgeView, 0, len(s.Edges))
	for _, e := range s.Edges {
		src, dst := s.NodeName(e.SrcID), s.NodeName(e.DstID)
		views = append(views, EdgeView{
			ID:      e.ID,
			Src:     src,
			Dst:     dst,
			Weight:  e.Weight,
			Summary: fmt.Sprintf("%s → %s (%s)", src, dst, strconv.FormatFloat(e.Weight, 'f', -1, 64)),
		})
	}
	return views
}
