package testutil

import (
	"container/heap"

	"pathfinder/internal/domain"
)

// BFS is the reference breadth-first traversal. Neighbors are visited in
// edge order, so the result is deterministic for a given edge list.
func BFS(edges []domain.Edge, start int64) domain.TraversalResult {
	adj := make(map[int64][]int64)
	for _, e := range edges {
		adj[e.SrcID] = append(adj[e.SrcID], e.DstID)
	}

	parent := map[int64]*int64{start: nil}
	depth := map[int64]int{start: 0}
	queue := []int64{start}
	result := domain.TraversalResult{}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		result.Order = append(result.Order, id)
		result.Tree = append(result.Tree, domain.TreeEntry{
			NodeID:   id,
			ParentID: parent[id],
			Depth:    depth[id],
		})

		for _, next := range adj[id] {
			if _, seen := parent[next]; seen {
				continue
			}
			p := id
			parent[next] = &p
			depth[next] = depth[id] + 1
			queue = append(queue, next)
		}
	}

	return result
}

// Dijkstra is the reference shortest path over non-negative weights.
// found is false when dst is unreachable from src.
func Dijkstra(edges []domain.Edge, src, dst int64) (result domain.PathResult, found bool) {
	type arc struct {
		to     int64
		weight float64
	}
	adj := make(map[int64][]arc)
	for _, e := range edges {
		adj[e.SrcID] = append(adj[e.SrcID], arc{to: e.DstID, weight: e.Weight})
	}

	dist := map[int64]float64{src: 0}
	prev := make(map[int64]int64)
	visited := make(map[int64]bool)

	pq := &distQueue{}
	heap.Push(pq, distItem{id: src, dist: 0})

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(distItem)
		if visited[cur.id] {
			continue // stale entry
		}
		visited[cur.id] = true
		if cur.id == dst {
			break
		}

		for _, a := range adj[cur.id] {
			if visited[a.to] {
				continue
			}
			nd := cur.dist + a.weight
			if old, ok := dist[a.to]; !ok || nd < old {
				dist[a.to] = nd
				prev[a.to] = cur.id
				heap.Push(pq, distItem{id: a.to, dist: nd})
			}
		}
	}

	d, ok := dist[dst]
	if !ok {
		return domain.PathResult{}, false
	}

	var path []int64
	for at := dst; ; {
		path = append(path, at)
		if at == src {
			break
		}
		at = prev[at]
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	return domain.PathResult{Path: path, Distance: d}, true
}

type distItem struct {
	id   int64
	dist float64
}

// distQueue is a min-heap on dist with lazy deletion
type distQueue []distItem

func (q distQueue) Len() int { return len(q) }

func (q distQueue) Less(i, j int) bool {
	if q[i].dist == q[j].dist {
		return q[i].id < q[j].id
	}
	return q[i].dist < q[j].dist
}

func (q distQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *distQueue) Push(x any) { *q = append(*q, x.(distItem)) }

func (q *distQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}
