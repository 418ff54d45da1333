package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"pathfinder/internal/domain"
)

// Credentials is a username/password pair
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse is the login payload
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// EdgeRequest creates an edge
type EdgeRequest struct {
	SrcID  int64   `json:"src_id"`
	DstID  int64   `json:"dst_id"`
	Weight float64 `json:"weight"`
}

type nodeRequest struct {
	Name string `json:"name"`
}

// Register creates an account. Rejections are validation errors.
func (c *Client) Register(ctx context.Context, creds Credentials) (*domain.User, error) {
	var user domain.User
	err := c.do(ctx, request{
		method:          http.MethodPost,
		path:            "/auth/register",
		jsonBody:        creds,
		clientErrorKind: domain.KindValidation,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Login exchanges credentials for a bearer token. Any 4xx, including 401,
// is an auth error: a failed login never means an expired session.
func (c *Client) Login(ctx context.Context, creds Credentials) (string, error) {
	form := url.Values{}
	form.Set("username", creds.Username)
	form.Set("password", creds.Password)

	var tok TokenResponse
	err := c.do(ctx, request{
		method:          http.MethodPost,
		path:            "/auth/login",
		formBody:        form,
		clientErrorKind: domain.KindAuth,
		notFoundKind:    domain.KindAuth,
	}, &tok)
	if err != nil {
		return "", err
	}
	if tok.AccessToken == "" {
		return "", domain.NewError(domain.KindFetch, "login response carried no token")
	}
	return tok.AccessToken, nil
}

// Me returns the user the held token belongs to
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := c.do(ctx, request{method: http.MethodGet, path: "/auth/me", authenticated: true}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListNodes returns every node
func (c *Client) ListNodes(ctx context.Context) ([]domain.Node, error) {
	var nodes []domain.Node
	if err := c.do(ctx, request{method: http.MethodGet, path: "/graph/nodes", authenticated: true}, &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

// CreateNode creates a node with the given name
func (c *Client) CreateNode(ctx context.Context, name string) (*domain.Node, error) {
	var node domain.Node
	err := c.do(ctx, request{
		method:        http.MethodPost,
		path:          "/graph/nodes",
		jsonBody:      nodeRequest{Name: name},
		authenticated: true,
	}, &node)
	if err != nil {
		return nil, err
	}
	return &node, nil
}

// DeleteNode deletes a node; the backend also deletes its edges
func (c *Client) DeleteNode(ctx context.Context, id int64) error {
	return c.do(ctx, request{
		method:        http.MethodDelete,
		path:          fmt.Sprintf("/graph/nodes/%d", id),
		authenticated: true,
	}, nil)
}

// ListEdges returns every edge
func (c *Client) ListEdges(ctx context.Context) ([]domain.Edge, error) {
	var edges []domain.Edge
	if err := c.do(ctx, request{method: http.MethodGet, path: "/graph/edges", authenticated: true}, &edges); err != nil {
		return nil, err
	}
	return edges, nil
}

// CreateEdge creates a directed weighted edge
func (c *Client) CreateEdge(ctx context.Context, req EdgeRequest) (*domain.Edge, error) {
	var edge domain.Edge
	err := c.do(ctx, request{
		method:        http.MethodPost,
		path:          "/graph/edges",
		jsonBody:      req,
		authenticated: true,
	}, &edge)
	if err != nil {
		return nil, err
	}
	return &edge, nil
}

// DeleteEdge deletes an edge
func (c *Client) DeleteEdge(ctx context.Context, id int64) error {
	return c.do(ctx, request{
		method:        http.MethodDelete,
		path:          fmt.Sprintf("/graph/edges/%d", id),
		authenticated: true,
	}, nil)
}

// BFS runs a breadth-first traversal on the server
func (c *Client) BFS(ctx context.Context, startID int64) (*domain.TraversalResult, error) {
	q := url.Values{}
	q.Set("start_id", strconv.FormatInt(startID, 10))

	var result domain.TraversalResult
	err := c.do(ctx, request{
		method:        http.MethodGet,
		path:          "/graph/bfs",
		query:         q,
		authenticated: true,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ShortestPath runs Dijkstra on the server. An unreachable destination is
// reported by the backend as a 404 and surfaces here as a not-found error;
// callers distinguish it from unknown ids by message.
func (c *Client) ShortestPath(ctx context.Context, srcID, dstID int64) (*domain.PathResult, error) {
	q := url.Values{}
	q.Set("src_id", strconv.FormatInt(srcID, 10))
	q.Set("dst_id", strconv.FormatInt(dstID, 10))

	var result domain.PathResult
	err := c.do(ctx, request{
		method:        http.MethodGet,
		path:          "/graph/shortest-path",
		query:         q,
		authenticated: true,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}
