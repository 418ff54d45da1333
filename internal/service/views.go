package service

import (
	"strconv"
	"strings"

	"pathfinder/internal/domain"
)

// TreeView is a traversal tree entry with names resolved
type TreeView struct {
	NodeID int64  `json:"node_id"`
	Node   string `json:"node"`
	Parent string `json:"parent,omitempty"`
	Depth  int    `json:"depth"`
}

// TraversalView is a traversal result ready for display
type TraversalView struct {
	Result *domain.TraversalResult `json:"-"`
	Start  string                  `json:"start"`
	Order  []string                `json:"order"`
	Tree   []TreeView              `json:"tree"`
}

// PathView is a shortest-path result ready for display
type PathView struct {
	Result    *domain.PathResult `json:"-"`
	Src       string             `json:"src"`
	Dst       string             `json:"dst"`
	Reachable bool               `json:"reachable"`
	Path      []string           `json:"path,omitempty"`
	Distance  float64            `json:"distance"`
}

// String renders the path as "A → B → C (distance 3)" or "unreachable"
func (v *PathView) String() string {
	if !v.Reachable {
		return v.Src + " → " + v.Dst + ": unreachable"
	}
	return strings.Join(v.Path, " → ") + " (distance " + strconv.FormatFloat(v.Distance, 'f', -1, 64) + ")"
}

func newTraversalView(snap *domain.Snapshot, r *domain.TraversalResult) *TraversalView {
	v := &TraversalView{
		Result: r,
		Order:  make([]string, 0, len(r.Order)),
		Tree:   make([]TreeView, 0, len(r.Tree)),
	}
	if start, ok := r.Start(); ok {
		v.Start = snap.NodeName(start)
	}
	for _, id := range r.Order {
		v.Order = append(v.Order, snap.NodeName(id))
	}
	for _, e := range r.Tree {
		tv := TreeView{NodeID: e.NodeID, Node: snap.NodeName(e.NodeID), Depth: e.Depth}
		if e.ParentID != nil {
			tv.Parent = snap.NodeName(*e.ParentID)
		}
		v.Tree = append(v.Tree, tv)
	}
	return v
}

func newPathView(snap *domain.Snapshot, srcID, dstID int64, r *domain.PathResult) *PathView {
	v := &PathView{
		Result:    r,
		Src:       snap.NodeName(srcID),
		Dst:       snap.NodeName(dstID),
		Reachable: r.Reachable(),
	}
	if v.Reachable {
		v.Distance = r.Distance
		for _, id := range r.Path {
			v.Path = append(v.Path, snap.NodeName(id))
		}
	}
	return v
}
