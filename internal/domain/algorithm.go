package domain

import "fmt"

// TreeEntry is one node of a breadth-first tree. ParentID is nil only for
// the start node.
type TreeEntry struct {
	NodeID   int64  `json:"node_id"`
	ParentID *int64 `json:"parent_id"`
	Depth    int    `json:"depth"`
}

// TraversalResult is a breadth-first visitation from a start node
type TraversalResult struct {
	Order []int64     `json:"order"`
	Tree  []TreeEntry `json:"tree"`
}

// Start returns the first visited node id
func (r *TraversalResult) Start() (int64, bool) {
	if r == nil || len(r.Order) == 0 {
		return 0, false
	}
	return r.Order[0], true
}

// Validate checks the structural invariants of a breadth-first tree rooted
// at startID: the order starts at startID, each id is visited once, every
// entry after the first has a parent visited earlier, and depths increase by
// exactly one along parent links. Tie-breaking among nodes at equal depth is
// not checked.
func (r *TraversalResult) Validate(startID int64) error {
	if r == nil || len(r.Order) == 0 {
		return fmt.Errorf("empty traversal order")
	}
	if r.Order[0] != startID {
		return fmt.Errorf("traversal starts at %d, want %d", r.Order[0], startID)
	}

	position := make(map[int64]int, len(r.Order))
	for i, id := range r.Order {
		if _, dup := position[id]; dup {
			return fmt.Errorf("node %d visited twice", id)
		}
		position[id] = i
	}

	if len(r.Tree) != len(r.Order) {
		return fmt.Errorf("tree has %d entries for %d visited nodes", len(r.Tree), len(r.Order))
	}

	depth := make(map[int64]int, len(r.Tree))
	for _, e := range r.Tree {
		if _, ok := position[e.NodeID]; !ok {
			return fmt.Errorf("tree entry for unvisited node %d", e.NodeID)
		}
		if _, dup := depth[e.NodeID]; dup {
			return fmt.Errorf("duplicate tree entry for node %d", e.NodeID)
		}
		depth[e.NodeID] = e.Depth
	}

	for _, e := range r.Tree {
		if e.NodeID == startID {
			if e.ParentID != nil || e.Depth != 0 {
				return fmt.Errorf("start node %d must have no parent and depth 0", startID)
			}
			continue
		}
		if e.ParentID == nil {
			return fmt.Errorf("node %d has no parent", e.NodeID)
		}
		parent := *e.ParentID
		pp, visited := position[parent]
		if !visited {
			return fmt.Errorf("parent %d of node %d was never visited", parent, e.NodeID)
		}
		if pp >= position[e.NodeID] {
			return fmt.Errorf("parent %d of node %d is not visited before it", parent, e.NodeID)
		}
		if e.Depth != depth[parent]+1 {
			return fmt.Errorf("node %d has depth %d, parent %d has depth %d", e.NodeID, e.Depth, parent, depth[parent])
		}
	}

	// breadth-first order never visits a shallower node after a deeper one
	for i := 1; i < len(r.Order); i++ {
		if depth[r.Order[i]] < depth[r.Order[i-1]] {
			return fmt.Errorf("node %d at depth %d visited after depth %d", r.Order[i], depth[r.Order[i]], depth[r.Order[i-1]])
		}
	}
	return nil
}

// PathResult is a minimum-weight directed path. An empty Path means the
// destination is unreachable.
type PathResult struct {
	Path     []int64 `json:"path"`
	Distance float64 `json:"distance"`
}

// Reachable reports whether a path was found
func (r *PathResult) Reachable() bool {
	return r != nil && len(r.Path) > 0
}

// Unreachable is the non-error result for a destination with no path
func Unreachable() *PathResult {
	return &PathResult{Path: nil, Distance: 0}
}

// Validate checks that a reachable path runs from srcID to dstID
func (r *PathResult) Validate(srcID, dstID int64) error {
	if !r.Reachable() {
		return nil
	}
	if r.Path[0] != srcID {
		return fmt.Errorf("path starts at %d, want %d", r.Path[0], srcID)
	}
	if last := r.Path[len(r.Path)-1]; last != dstID {
		return fmt.Errorf("path ends at %d, want %d", last, dstID)
	}
	return nil
}
