package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"pathfinder/internal/client"
	"pathfinder/internal/domain"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// GraphRepository holds the snapshot of server-side nodes and edges.
//
// The snapshot is only ever replaced whole by LoadAll; mutations go straight
// to the server and become visible after the next reload.
type GraphRepository struct {
	api      GraphAPI
	sessions generationSource
	logger   *zap.Logger

	swap     sync.Mutex
	snapshot atomic.Pointer[domain.Snapshot]
}

// NewGraphRepository creates a repository with an empty snapshot
func NewGraphRepository(api GraphAPI, sessions generationSource, logger *zap.Logger) *GraphRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GraphRepository{
		api:      api,
		sessions: sessions,
		logger:   logger,
	}
}

// Snapshot returns the held snapshot, empty before the first load
func (r *GraphRepository) Snapshot() *domain.Snapshot {
	if s := r.snapshot.Load(); s != nil {
		return s
	}
	return domain.EmptySnapshot()
}

// Loaded reports whether a snapshot has been fetched
func (r *GraphRepository) Loaded() bool {
	return r.snapshot.Load() != nil
}

// Reset drops the held snapshot
func (r *GraphRepository) Reset() {
	r.swap.Lock()
	defer r.swap.Unlock()
	r.snapshot.Store(nil)
}

// LoadAll fetches nodes and edges concurrently and swaps in the new snapshot
// only when both succeed. On failure the previous snapshot stays in place.
func (r *GraphRepository) LoadAll(ctx context.Context) (*domain.Snapshot, error) {
	gen := r.sessions.Generation()

	var (
		nodes []domain.Node
		edges []domain.Edge
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		nodes, err = r.api.ListNodes(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		edges, err = r.api.ListEdges(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, asFetchError(err)
	}

	r.swap.Lock()
	defer r.swap.Unlock()
	if gen != r.sessions.Generation() {
		r.logger.Debug("discarding snapshot fetched under a previous session")
		return nil, domain.ErrStaleResponse
	}

	snap := domain.NewSnapshot(nodes, edges)
	r.snapshot.Store(snap)
	r.logger.Debug("snapshot loaded", zap.Int("nodes", len(snap.Nodes)), zap.Int("edges", len(snap.Edges)))
	return snap, nil
}

// CreateNode submits a new node. The snapshot is not touched.
func (r *GraphRepository) CreateNode(ctx context.Context, name string) (*domain.Node, error) {
	in := nodeInput{Name: strings.TrimSpace(name)}
	if err := validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	node, err := r.api.CreateNode(ctx, in.Name)
	if err != nil {
		return nil, err
	}
	r.logger.Info("node created", zap.Int64("id", node.ID), zap.String("name", node.Name))
	return node, nil
}

// DeleteNode deletes a node; the server removes its edges
func (r *GraphRepository) DeleteNode(ctx context.Context, id int64) error {
	if err := r.api.DeleteNode(ctx, id); err != nil {
		return err
	}
	r.logger.Info("node deleted", zap.Int64("id", id))
	return nil
}

// CreateEdge submits a new edge. Both endpoints must be nodes of the current
// snapshot and weight must parse as a finite number; its sign is left to the
// server.
func (r *GraphRepository) CreateEdge(ctx context.Context, srcID, dstID int64, weight string) (*domain.Edge, error) {
	w, err := domain.ParseWeight(weight)
	if err != nil {
		return nil, err
	}
	return r.createEdge(ctx, srcID, dstID, w)
}

func (r *GraphRepository) createEdge(ctx context.Context, srcID, dstID int64, weight float64) (*domain.Edge, error) {
	if err := validate.Struct(edgeInput{SrcID: srcID, DstID: dstID}); err != nil {
		return nil, validationError(err)
	}

	snap := r.Snapshot()
	if !snap.HasNode(srcID) {
		return nil, domain.NewError(domain.KindValidation, fmt.Sprintf("source node %d is not in the graph", srcID))
	}
	if !snap.HasNode(dstID) {
		return nil, domain.NewError(domain.KindValidation, fmt.Sprintf("destination node %d is not in the graph", dstID))
	}

	edge, err := r.api.CreateEdge(ctx, client.EdgeRequest{SrcID: srcID, DstID: dstID, Weight: weight})
	if err != nil {
		return nil, err
	}
	r.logger.Info("edge created",
		zap.Int64("id", edge.ID),
		zap.Int64("src_id", edge.SrcID),
		zap.Int64("dst_id", edge.DstID),
		zap.Float64("weight", edge.Weight),
	)
	return edge, nil
}

// DeleteEdge deletes an edge
func (r *GraphRepository) DeleteEdge(ctx context.Context, id int64) error {
	if err := r.api.DeleteEdge(ctx, id); err != nil {
		return err
	}
	r.logger.Info("edge deleted", zap.Int64("id", id))
	return nil
}

// asFetchError reports a failed load as a fetch error unless the session
// ended, which callers must see as such
func asFetchError(err error) error {
	switch domain.KindOf(err) {
	case domain.KindSessionExpired, domain.KindFetch, domain.KindStale:
		return err
	}
	return domain.NewError(domain.KindFetch, fmt.Sprintf("failed to load graph: %v", err)).WithCause(err)
}
