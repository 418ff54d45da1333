package service

import (
	"context"
	"fmt"
	"strings"

	"pathfinder/internal/domain"

	"go.uber.org/zap"
)

// SeedResult counts what a seed run changed
type SeedResult struct {
	NodesCreated  int `json:"nodes_created" yaml:"nodes_created"`
	NodesExisting int `json:"nodes_existing" yaml:"nodes_existing"`
	EdgesCreated  int `json:"edges_created" yaml:"edges_created"`
	EdgesReplaced int `json:"edges_replaced" yaml:"edges_replaced"`
	EdgesExisting int `json:"edges_existing" yaml:"edges_existing"`
	EdgesSkipped  int `json:"edges_skipped" yaml:"edges_skipped"`
}

// Changed reports whether the run modified the server
func (r *SeedResult) Changed() bool {
	return r.NodesCreated > 0 || r.EdgesCreated > 0 || r.EdgesReplaced > 0
}

// Seeder brings the server graph in line with a seed file. Running it twice
// with the same file changes nothing the second time.
type Seeder struct {
	graph  *GraphRepository
	logger *zap.Logger
}

// NewSeeder creates a seeder over graph
func NewSeeder(graph *GraphRepository, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{graph: graph, logger: logger}
}

// Seed creates missing nodes by name and missing edges by (src, dst) pair.
// An edge whose weight differs is replaced: the new edge is created before
// the old one is deleted, so a weight the server rejects leaves the old edge
// in place. Edges naming unknown nodes are skipped. The snapshot is reloaded
// at the end, and also when a failure follows a successful write.
func (s *Seeder) Seed(ctx context.Context, file *domain.SeedFile) (result *SeedResult, err error) {
	result = &SeedResult{}
	if file == nil {
		return result, nil
	}

	// set after a write the snapshot has not seen yet
	dirty := false
	defer func() {
		if err == nil || !dirty {
			return
		}
		if _, rerr := s.graph.LoadAll(ctx); rerr != nil {
			s.logger.Warn("reload after failed seed", zap.Error(rerr))
		}
	}()

	snap, err := s.graph.LoadAll(ctx)
	if err != nil {
		return result, err
	}

	seen := make(map[string]bool)
	for _, raw := range file.Nodes {
		name := strings.TrimSpace(raw)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		if _, ok := snap.NodeByName(name); ok {
			result.NodesExisting++
			continue
		}
		if _, err := s.graph.CreateNode(ctx, name); err != nil {
			return result, fmt.Errorf("seed node %q: %w", name, err)
		}
		dirty = true
		result.NodesCreated++
	}

	// new nodes must be in the snapshot before edges can reference them
	if result.NodesCreated > 0 {
		dirty = false
		if snap, err = s.graph.LoadAll(ctx); err != nil {
			return result, err
		}
	}

	type pair struct{ src, dst int64 }
	edges := make(map[pair]domain.Edge, len(snap.Edges))
	for _, e := range snap.Edges {
		if _, dup := edges[pair{e.SrcID, e.DstID}]; !dup {
			edges[pair{e.SrcID, e.DstID}] = e
		}
	}

	for _, se := range file.Edges {
		src, srcOK := snap.NodeByName(strings.TrimSpace(se.Src))
		dst, dstOK := snap.NodeByName(strings.TrimSpace(se.Dst))
		if !srcOK || !dstOK {
			s.logger.Warn("skipping seed edge with unknown endpoint",
				zap.String("src", se.Src),
				zap.String("dst", se.Dst),
			)
			result.EdgesSkipped++
			continue
		}

		key := pair{src.ID, dst.ID}
		existing, found := edges[key]
		if found && existing.Weight == se.Weight {
			result.EdgesExisting++
			continue
		}

		created, err := s.graph.createEdge(ctx, src.ID, dst.ID, se.Weight)
		if err != nil {
			return result, fmt.Errorf("seed edge %s → %s: %w", src.Name, dst.Name, err)
		}
		dirty = true
		edges[key] = *created

		if !found {
			result.EdgesCreated++
			continue
		}
		if err := s.graph.DeleteEdge(ctx, existing.ID); err != nil {
			return result, fmt.Errorf("replace seed edge %s → %s: %w", src.Name, dst.Name, err)
		}
		result.EdgesReplaced++
	}

	dirty = false
	if _, err := s.graph.LoadAll(ctx); err != nil {
		return result, err
	}

	s.logger.Info("seed applied",
		zap.Int("nodes_created", result.NodesCreated),
		zap.Int("edges_created", result.EdgesCreated),
		zap.Int("edges_replaced", result.EdgesReplaced),
		zap.Int("edges_skipped", result.EdgesSkipped),
	)
	return result, nil
}
