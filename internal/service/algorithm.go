package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pathfinder/internal/domain"

	"go.uber.org/zap"
)

// noPathPrefix starts the backend's detail for an unreachable destination
const noPathPrefix = "No path found"

// AlgorithmClient maps algorithm requests to results. It holds no state.
type AlgorithmClient struct {
	api    AlgorithmAPI
	logger *zap.Logger
}

// NewAlgorithmClient creates an algorithm client
func NewAlgorithmClient(api AlgorithmAPI, logger *zap.Logger) *AlgorithmClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AlgorithmClient{api: api, logger: logger}
}

// RunTraversal runs a breadth-first traversal from startID. A result that is
// not a valid breadth-first tree rooted at startID is a fetch error.
func (a *AlgorithmClient) RunTraversal(ctx context.Context, startID int64) (*domain.TraversalResult, error) {
	if startID <= 0 {
		return nil, domain.NewError(domain.KindInvalidInput, fmt.Sprintf("start id must be a positive integer, got %d", startID))
	}

	result, err := a.api.BFS(ctx, startID)
	if err != nil {
		return nil, err
	}
	if err := result.Validate(startID); err != nil {
		a.logger.Warn("rejecting malformed traversal", zap.Int64("start_id", startID), zap.Error(err))
		return nil, domain.NewError(domain.KindFetch, "malformed traversal result: "+err.Error()).WithCause(err)
	}
	return result, nil
}

// RunShortestPath finds a minimum-weight directed path. An unreachable
// destination is a result, not an error: check Reachable.
func (a *AlgorithmClient) RunShortestPath(ctx context.Context, srcID, dstID int64) (*domain.PathResult, error) {
	if srcID <= 0 || dstID <= 0 {
		return nil, domain.NewError(domain.KindInvalidInput, fmt.Sprintf("node ids must be positive integers, got %d and %d", srcID, dstID))
	}

	result, err := a.api.ShortestPath(ctx, srcID, dstID)
	if err != nil {
		if isNoPath(err) {
			return domain.Unreachable(), nil
		}
		return nil, err
	}
	if !result.Reachable() {
		return domain.Unreachable(), nil
	}
	if err := result.Validate(srcID, dstID); err != nil {
		a.logger.Warn("rejecting malformed path", zap.Int64("src_id", srcID), zap.Int64("dst_id", dstID), zap.Error(err))
		return nil, domain.NewError(domain.KindFetch, "malformed path result: "+err.Error()).WithCause(err)
	}
	return result, nil
}

// isNoPath distinguishes the backend's unreachable 404 from unknown ids
func isNoPath(err error) bool {
	var de *domain.Error
	if !errors.As(err, &de) || de.Kind != domain.KindNotFound {
		return false
	}
	return strings.HasPrefix(de.Message, noPathPrefix)
}
