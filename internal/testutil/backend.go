package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"pathfinder/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Backend is a fake PathFinder server
type Backend struct {
	mu sync.Mutex

	users      map[string]fakeUser
	nodes      map[int64]domain.Node
	edges      map[int64]domain.Edge
	nextUserID int64
	nextNodeID int64
	nextEdgeID int64

	secret   []byte
	tokenTTL time.Duration

	failures map[string][]failure
	gates    map[string]*Gate
	hits     map[string]int

	server *httptest.Server
}

type fakeUser struct {
	id           int64
	passwordHash []byte
}

type failure struct {
	status int
	detail string
}

// NewBackend starts a backend that is closed when the test ends
func NewBackend(t testing.TB) *Backend {
	t.Helper()
	b := &Backend{
		users:    make(map[string]fakeUser),
		nodes:    make(map[int64]domain.Node),
		edges:    make(map[int64]domain.Edge),
		secret:   []byte("test-secret-0"),
		tokenTTL: time.Hour,
		failures: make(map[string][]failure),
		gates:    make(map[string]*Gate),
		hits:     make(map[string]int),
	}
	b.server = httptest.NewServer(b.routes())
	t.Cleanup(b.server.Close)
	return b
}

// URL is the server's base URL
func (b *Backend) URL() string {
	return b.server.URL
}

// Client returns an *http.Client wired to the server
func (b *Backend) Client() *http.Client {
	return b.server.Client()
}

func (b *Backend) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(b.intercept)

	r.Post("/auth/register", b.register)
	r.Post("/auth/login", b.login)

	r.Group(func(r chi.Router) {
		r.Use(b.authenticate)

		r.Get("/auth/me", b.me)
		r.Route("/graph", func(r chi.Router) {
			r.Get("/nodes", b.listNodes)
			r.Post("/nodes", b.createNode)
			r.Delete("/nodes/{nodeID}", b.deleteNode)
			r.Get("/edges", b.listEdges)
			r.Post("/edges", b.createEdge)
			r.Delete("/edges/{edgeID}", b.deleteEdge)
			r.Get("/bfs", b.bfs)
			r.Get("/shortest-path", b.shortestPath)
		})
	})

	return r
}

// ============================================================================
// Test controls
// ============================================================================

// AddUser registers an account directly
func (b *Backend) AddUser(username, password string) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	id, err := b.addUserLocked(username, password)
	if err != nil {
		panic(fmt.Sprintf("add user %s: %v", username, err))
	}
	return id
}

// addUserLocked stores a bcrypt hash, as the real backend does. MinCost
// keeps tests fast.
func (b *Backend) addUserLocked(username, password string) (int64, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return 0, err
	}
	b.nextUserID++
	b.users[username] = fakeUser{id: b.nextUserID, passwordHash: hash}
	return b.nextUserID, nil
}

// AddNode inserts a node directly and returns its id
func (b *Backend) AddNode(name string) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextNodeID++
	b.nodes[b.nextNodeID] = domain.Node{ID: b.nextNodeID, Name: name}
	return b.nextNodeID
}

// AddEdge inserts an edge directly and returns its id
func (b *Backend) AddEdge(src, dst int64, weight float64) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextEdgeID++
	b.edges[b.nextEdgeID] = domain.Edge{ID: b.nextEdgeID, SrcID: src, DstID: dst, Weight: weight}
	return b.nextEdgeID
}

// Nodes returns the stored nodes ordered by id
func (b *Backend) Nodes() []domain.Node {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sortedNodesLocked()
}

// Edges returns the stored edges ordered by id
func (b *Backend) Edges() []domain.Edge {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sortedEdgesLocked()
}

// Token issues a valid token for username with the given lifetime
func (b *Backend) Token(username string, ttl time.Duration) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tokenLocked(username, ttl)
}

// RevokeTokens invalidates every token issued so far
func (b *Backend) RevokeTokens() {
	b.mu.Lock()
	defer b.mu.Unlock()
	gen, _ := strconv.Atoi(strings.TrimPrefix(string(b.secret), "test-secret-"))
	b.secret = []byte(fmt.Sprintf("test-secret-%d", gen+1))
}

// FailNext makes the next request to path answer status with detail
func (b *Backend) FailNext(path string, status int, detail string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[path] = append(b.failures[path], failure{status: status, detail: detail})
}

// Hits counts requests received for path
func (b *Backend) Hits(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[path]
}

// Gate holds one request open until released
type Gate struct {
	arrived chan struct{}
	release chan struct{}
	once    sync.Once
}

// Arrived is closed when the held request reaches the server
func (g *Gate) Arrived() <-chan struct{} {
	return g.arrived
}

// Release lets the held request proceed
func (g *Gate) Release() {
	g.once.Do(func() { close(g.release) })
}

// Hold makes the next request to path wait until the gate is released
func (b *Backend) Hold(path string) *Gate {
	g := &Gate{arrived: make(chan struct{}), release: make(chan struct{})}
	b.mu.Lock()
	b.gates[path] = g
	b.mu.Unlock()
	return g
}

// intercept applies hit counting, held requests and forced failures
func (b *Backend) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		b.mu.Lock()
		b.hits[path]++
		gate := b.gates[path]
		delete(b.gates, path)
		var fail *failure
		if queue := b.failures[path]; len(queue) > 0 {
			fail = &queue[0]
			b.failures[path] = queue[1:]
		}
		b.mu.Unlock()

		if gate != nil {
			close(gate.arrived)
			select {
			case <-gate.release:
			case <-r.Context().Done():
				return
			}
		}

		if fail != nil {
			writeDetail(w, fail.status, fail.detail)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ============================================================================
// Auth
// ============================================================================

func (b *Backend) tokenLocked(username string, ttl time.Duration) string {
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(b.secret)
	if err != nil {
		panic(err)
	}
	return signed
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (b *Backend) register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.users[req.Username]; exists {
		writeDetail(w, http.StatusBadRequest, "Username already registered")
		return
	}
	id, err := b.addUserLocked(req.Username, req.Password)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, domain.User{ID: id, Username: req.Username})
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid form")
		return
	}
	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")

	b.mu.Lock()
	defer b.mu.Unlock()
	u, ok := b.users[username]
	if !ok || bcrypt.CompareHashAndPassword(u.passwordHash, []byte(password)) != nil {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeDetail(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"access_token": b.tokenLocked(username, b.tokenTTL),
		"token_type":   "bearer",
	})
}

type userKey struct{}

func (b *Backend) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

		b.mu.Lock()
		secret := b.secret
		b.mu.Unlock()

		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Method)
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}

		b.mu.Lock()
		u, ok := b.users[claims.Subject]
		b.mu.Unlock()
		if !ok {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}

		ctx := contextWithUser(r.Context(), domain.User{ID: u.id, Username: claims.Subject})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (b *Backend) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userFromContext(r.Context()))
}

// ============================================================================
// Nodes and edges
// ============================================================================

func (b *Backend) sortedNodesLocked() []domain.Node {
	out := make([]domain.Node, 0, len(b.nodes))
	for _, n := range b.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (b *Backend) sortedEdgesLocked() []domain.Edge {
	out := make([]domain.Edge, 0, len(b.edges))
	for _, e := range b.edges {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (b *Backend) listNodes(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.sortedNodesLocked())
}

func (b *Backend) createNode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, n := range b.nodes {
		if n.Name == req.Name {
			writeDetail(w, http.StatusBadRequest, fmt.Sprintf("Node with name '%s' already exists", req.Name))
			return
		}
	}
	b.nextNodeID++
	node := domain.Node{ID: b.nextNodeID, Name: req.Name}
	b.nodes[node.ID] = node
	writeJSON(w, http.StatusCreated, node)
}

func (b *Backend) deleteNode(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "nodeID")
	if !ok {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.nodes[id]; !exists {
		writeDetail(w, http.StatusNotFound, fmt.Sprintf("Node with id %d not found", id))
		return
	}
	for eid, e := range b.edges {
		if e.References(id) {
			delete(b.edges, eid)
		}
	}
	delete(b.nodes, id)
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) listEdges(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.sortedEdgesLocked())
}

func (b *Backend) createEdge(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SrcID  int64   `json:"src_id"`
		DstID  int64   `json:"dst_id"`
		Weight float64 `json:"weight"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	if req.Weight <= 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]any{{
				"loc":  []string{"body", "weight"},
				"msg":  "Input should be greater than 0",
				"type": "greater_than",
			}},
		})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.nodes[req.SrcID]; !ok {
		writeDetail(w, http.StatusBadRequest, fmt.Sprintf("Source node with id %d not found", req.SrcID))
		return
	}
	if _, ok := b.nodes[req.DstID]; !ok {
		writeDetail(w, http.StatusBadRequest, fmt.Sprintf("Destination node with id %d not found", req.DstID))
		return
	}
	b.nextEdgeID++
	edge := domain.Edge{ID: b.nextEdgeID, SrcID: req.SrcID, DstID: req.DstID, Weight: req.Weight}
	b.edges[edge.ID] = edge
	writeJSON(w, http.StatusCreated, edge)
}

func (b *Backend) deleteEdge(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "edgeID")
	if !ok {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.edges[id]; !exists {
		writeDetail(w, http.StatusNotFound, fmt.Sprintf("Edge with id %d not found", id))
		return
	}
	delete(b.edges, id)
	w.WriteHeader(http.StatusNoContent)
}

// ============================================================================
// Algorithms
// ============================================================================

func (b *Backend) bfs(w http.ResponseWriter, r *http.Request) {
	start, ok := queryID(w, r, "start_id")
	if !ok {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.nodes[start]; !exists {
		writeDetail(w, http.StatusNotFound, fmt.Sprintf("Node with id %d not found", start))
		return
	}
	writeJSON(w, http.StatusOK, BFS(b.sortedEdgesLocked(), start))
}

func (b *Backend) shortestPath(w http.ResponseWriter, r *http.Request) {
	src, ok := queryID(w, r, "src_id")
	if !ok {
		return
	}
	dst, ok := queryID(w, r, "dst_id")
	if !ok {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.nodes[src]; !exists {
		writeDetail(w, http.StatusNotFound, fmt.Sprintf("Source node with id %d not found", src))
		return
	}
	if _, exists := b.nodes[dst]; !exists {
		writeDetail(w, http.StatusNotFound, fmt.Sprintf("Destination node with id %d not found", dst))
		return
	}

	result, found := Dijkstra(b.sortedEdgesLocked(), src, dst)
	if !found {
		writeDetail(w, http.StatusNotFound, fmt.Sprintf("No path found between nodes %d and %d", src, dst))
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ============================================================================
// Helpers
// ============================================================================

func pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, fmt.Sprintf("invalid %s", param))
		return 0, false
	}
	return id, true
}

func queryID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(r.URL.Query().Get(param), 10, 64)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, fmt.Sprintf("invalid %s", param))
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
