package service

import (
	"context"

	"pathfinder/internal/client"
	"pathfinder/internal/domain"
)

// AuthAPI is the account half of the backend
type AuthAPI interface {
	Register(ctx context.Context, creds client.Credentials) (*domain.User, error)
	Login(ctx context.Context, creds client.Credentials) (string, error)
	Me(ctx context.Context) (*domain.User, error)
}

// GraphAPI is the node and edge CRUD half of the backend
type GraphAPI interface {
	ListNodes(ctx context.Context) ([]domain.Node, error)
	CreateNode(ctx context.Context, name string) (*domain.Node, error)
	DeleteNode(ctx context.Context, id int64) error
	ListEdges(ctx context.Context) ([]domain.Edge, error)
	CreateEdge(ctx context.Context, req client.EdgeRequest) (*domain.Edge, error)
	DeleteEdge(ctx context.Context, id int64) error
}

// AlgorithmAPI runs graph algorithms on the backend
type AlgorithmAPI interface {
	BFS(ctx context.Context, startID int64) (*domain.TraversalResult, error)
	ShortestPath(ctx context.Context, srcID, dstID int64) (*domain.PathResult, error)
}

// generationSource reports the current session generation
type generationSource interface {
	Generation() uint64
}

var (
	_ AuthAPI      = (*client.Client)(nil)
	_ GraphAPI     = (*client.Client)(nil)
	_ AlgorithmAPI = (*client.Client)(nil)
)
