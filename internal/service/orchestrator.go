package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"pathfinder/internal/domain"

	"go.uber.org/zap"
)

// State is the orchestrator's position in the session lifecycle
type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateAuthenticating  State = "authenticating"
	StateLoading         State = "loading"
	StateReady           State = "ready"
)

// Form identifies an input surface with its own busy flag
type Form string

const (
	FormLogin        Form = "login"
	FormRegister     Form = "register"
	FormDashboard    Form = "dashboard"
	FormNode         Form = "node"
	FormNodeDelete   Form = "node_delete"
	FormEdge         Form = "edge"
	FormEdgeDelete   Form = "edge_delete"
	FormTraversal    Form = "traversal"
	FormShortestPath Form = "shortest_path"
	FormSeed         Form = "seed"
)

// Confirmer asks the user to approve a destructive action
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

// Confirm calls f
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// AlwaysConfirm approves every action
var AlwaysConfirm = ConfirmFunc(func(context.Context, string) (bool, error) { return true, nil })

// Orchestrator sequences session, graph and algorithm calls into the
// user-facing transactions, keeps the lifecycle state and reports failures.
type Orchestrator struct {
	session   *SessionStore
	graph     *GraphRepository
	algo      *AlgorithmClient
	seeder    *Seeder
	confirmer Confirmer
	bus       *EventBus
	logger    *zap.Logger

	mu      sync.Mutex
	state   State
	user    *domain.User
	lastErr error
	busy    map[Form]bool
}

// NewOrchestrator wires the components together. A nil confirmer approves
// everything.
func NewOrchestrator(session *SessionStore, graph *GraphRepository, algo *AlgorithmClient, confirmer Confirmer, bus *EventBus, logger *zap.Logger) *Orchestrator {
	if confirmer == nil {
		confirmer = AlwaysConfirm
	}
	if bus == nil {
		bus = NewEventBus()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		session:   session,
		graph:     graph,
		algo:      algo,
		seeder:    NewSeeder(graph, logger),
		confirmer: confirmer,
		bus:       bus,
		logger:    logger,
		state:     StateUnauthenticated,
		busy:      make(map[Form]bool),
	}
}

// State returns the current lifecycle state
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// User returns the logged-in user once the dashboard has loaded
func (o *Orchestrator) User() (domain.User, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.user == nil {
		return domain.User{}, false
	}
	return *o.user, true
}

// Snapshot returns the graph as last loaded
func (o *Orchestrator) Snapshot() *domain.Snapshot {
	return o.graph.Snapshot()
}

// LastError returns the most recent user-visible failure, nil after a
// success
func (o *Orchestrator) LastError() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// Events returns the bus notifications are published on
func (o *Orchestrator) Events() *EventBus {
	return o.bus
}

// ============================================================================
// Session transactions
// ============================================================================

// Login authenticates and then loads the dashboard
func (o *Orchestrator) Login(ctx context.Context, username, password string) (*domain.User, error) {
	release, err := o.acquire(FormLogin)
	if err != nil {
		return nil, err
	}
	defer release()

	prev := o.State()
	o.setState(StateAuthenticating)
	if _, err := o.session.Login(ctx, username, password); err != nil {
		if o.session.Authenticated() {
			o.setState(prev)
		} else {
			o.setState(StateUnauthenticated)
		}
		return nil, o.fail("login", err)
	}

	return o.loadDashboard(ctx)
}

// Register creates an account; it does not log in
func (o *Orchestrator) Register(ctx context.Context, username, password string) error {
	release, err := o.acquire(FormRegister)
	if err != nil {
		return err
	}
	defer release()

	if err := o.session.Register(ctx, username, password); err != nil {
		return o.fail("register", err)
	}
	o.succeed("register", map[string]string{"username": username})
	return nil
}

// Resume adopts a persisted session and loads the dashboard with it. It
// reports false when there is nothing to resume.
func (o *Orchestrator) Resume(ctx context.Context) (bool, error) {
	ok, err := o.session.Restore(ctx)
	if err != nil {
		o.logger.Warn("could not restore session", zap.Error(err))
		return false, nil
	}
	if !ok {
		return false, nil
	}
	if _, err := o.LoadDashboard(ctx); err != nil {
		return true, err
	}
	return true, nil
}

// LoadDashboard fetches the current user and the graph concurrently
func (o *Orchestrator) LoadDashboard(ctx context.Context) (*domain.User, error) {
	release, err := o.acquire(FormDashboard)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := o.requireSession("load dashboard"); err != nil {
		return nil, err
	}
	return o.loadDashboard(ctx)
}

func (o *Orchestrator) loadDashboard(ctx context.Context) (*domain.User, error) {
	o.setState(StateLoading)

	var (
		user             *domain.User
		userErr, loadErr error
		wg               sync.WaitGroup
	)
	// both halves always run to completion so firstError can rank them
	wg.Add(2)
	go func() {
		defer wg.Done()
		user, userErr = o.session.CurrentUser(ctx)
	}()
	go func() {
		defer wg.Done()
		_, loadErr = o.graph.LoadAll(ctx)
	}()
	wg.Wait()

	// an ended session outranks whatever the other half reported
	if err := firstError(userErr, loadErr); err != nil {
		err = o.fail("load dashboard", err)
		if o.session.Authenticated() && o.graph.Loaded() {
			o.setState(StateReady)
		}
		return nil, err
	}

	o.mu.Lock()
	o.user = user
	o.lastErr = nil
	o.mu.Unlock()
	o.setState(StateReady)
	o.publishReload()
	return user, nil
}

// Logout ends the session and drops all graph data
func (o *Orchestrator) Logout(ctx context.Context) error {
	err := o.session.Logout(ctx)
	o.graph.Reset()

	o.mu.Lock()
	o.user = nil
	o.lastErr = nil
	o.mu.Unlock()
	o.setState(StateUnauthenticated)

	if err != nil {
		o.logger.Warn("failed to clear persisted session", zap.Error(err))
	}
	return err
}

// ============================================================================
// Graph mutations
// ============================================================================

// CreateNode creates a node from the node form and reloads the graph
func (o *Orchestrator) CreateNode(ctx context.Context, name string) (*domain.Node, error) {
	release, err := o.begin(FormNode, "create node")
	if err != nil {
		return nil, err
	}
	defer release()

	node, err := o.graph.CreateNode(ctx, name)
	if err != nil {
		return nil, o.fail("create node", err)
	}
	if err := o.reload(ctx, "create node"); err != nil {
		return node, err
	}
	o.succeed("create node", map[string]any{"id": node.ID, "name": node.Name})
	return node, nil
}

// DeleteNode asks for confirmation, deletes the node and its edges and
// reloads. It reports whether the node was deleted; a declined confirmation
// is not an error.
func (o *Orchestrator) DeleteNode(ctx context.Context, rawID string) (bool, error) {
	release, err := o.begin(FormNodeDelete, "delete node")
	if err != nil {
		return false, err
	}
	defer release()

	id, err := ParseID("node id", rawID)
	if err != nil {
		return false, o.fail("delete node", err)
	}

	prompt := fmt.Sprintf("Delete node %q and all of its edges?", o.graph.Snapshot().NodeName(id))
	if ok, err := o.confirm(ctx, prompt); err != nil || !ok {
		return false, err
	}

	if err := o.graph.DeleteNode(ctx, id); err != nil {
		return false, o.fail("delete node", err)
	}
	if err := o.reload(ctx, "delete node"); err != nil {
		return true, err
	}
	o.succeed("delete node", map[string]any{"id": id})
	return true, nil
}

// CreateEdge creates an edge from raw form fields and reloads the graph
func (o *Orchestrator) CreateEdge(ctx context.Context, rawSrc, rawDst, rawWeight string) (*domain.Edge, error) {
	release, err := o.begin(FormEdge, "create edge")
	if err != nil {
		return nil, err
	}
	defer release()

	src, err := ParseID("source id", rawSrc)
	if err != nil {
		return nil, o.fail("create edge", err)
	}
	dst, err := ParseID("destination id", rawDst)
	if err != nil {
		return nil, o.fail("create edge", err)
	}

	edge, err := o.graph.CreateEdge(ctx, src, dst, rawWeight)
	if err != nil {
		return nil, o.fail("create edge", err)
	}
	if err := o.reload(ctx, "create edge"); err != nil {
		return edge, err
	}
	o.succeed("create edge", map[string]any{"id": edge.ID, "src_id": edge.SrcID, "dst_id": edge.DstID, "weight": edge.Weight})
	return edge, nil
}

// DeleteEdge asks for confirmation, deletes the edge and reloads
func (o *Orchestrator) DeleteEdge(ctx context.Context, rawID string) (bool, error) {
	release, err := o.begin(FormEdgeDelete, "delete edge")
	if err != nil {
		return false, err
	}
	defer release()

	id, err := ParseID("edge id", rawID)
	if err != nil {
		return false, o.fail("delete edge", err)
	}

	prompt := fmt.Sprintf("Delete edge %d?", id)
	snap := o.graph.Snapshot()
	if e, ok := snap.Edge(id); ok {
		prompt = fmt.Sprintf("Delete edge %s → %s (%g)?", snap.NodeName(e.SrcID), snap.NodeName(e.DstID), e.Weight)
	}
	if ok, err := o.confirm(ctx, prompt); err != nil || !ok {
		return false, err
	}

	if err := o.graph.DeleteEdge(ctx, id); err != nil {
		return false, o.fail("delete edge", err)
	}
	if err := o.reload(ctx, "delete edge"); err != nil {
		return true, err
	}
	o.succeed("delete edge", map[string]any{"id": id})
	return true, nil
}

// Seed applies a seed file to the graph
func (o *Orchestrator) Seed(ctx context.Context, file *domain.SeedFile) (*SeedResult, error) {
	release, err := o.begin(FormSeed, "seed")
	if err != nil {
		return nil, err
	}
	defer release()

	result, err := o.seeder.Seed(ctx, file)
	if err != nil {
		return result, o.fail("seed", err)
	}
	o.publishReload()
	o.succeed("seed", result)
	return result, nil
}

// ============================================================================
// Algorithms
// ============================================================================

// RunTraversal runs a breadth-first traversal from the node in the form
func (o *Orchestrator) RunTraversal(ctx context.Context, rawStart string) (*TraversalView, error) {
	release, err := o.begin(FormTraversal, "traversal")
	if err != nil {
		return nil, err
	}
	defer release()

	start, err := ParseID("start id", rawStart)
	if err != nil {
		return nil, o.fail("traversal", err)
	}
	if err := o.requireKnown(start); err != nil {
		return nil, o.fail("traversal", err)
	}

	gen := o.session.Generation()
	result, err := o.algo.RunTraversal(ctx, start)
	if err == nil && gen != o.session.Generation() {
		err = domain.ErrStaleResponse
	}
	if err != nil {
		return nil, o.fail("traversal", err)
	}

	o.clearError()
	return newTraversalView(o.graph.Snapshot(), result), nil
}

// RunShortestPath finds the shortest path between the nodes in the form. An
// unreachable destination is a successful result with Reachable false.
func (o *Orchestrator) RunShortestPath(ctx context.Context, rawSrc, rawDst string) (*PathView, error) {
	release, err := o.begin(FormShortestPath, "shortest path")
	if err != nil {
		return nil, err
	}
	defer release()

	src, err := ParseID("source id", rawSrc)
	if err != nil {
		return nil, o.fail("shortest path", err)
	}
	dst, err := ParseID("destination id", rawDst)
	if err != nil {
		return nil, o.fail("shortest path", err)
	}
	if err := o.requireKnown(src); err != nil {
		return nil, o.fail("shortest path", err)
	}
	if err := o.requireKnown(dst); err != nil {
		return nil, o.fail("shortest path", err)
	}

	gen := o.session.Generation()
	result, err := o.algo.RunShortestPath(ctx, src, dst)
	if err == nil && gen != o.session.Generation() {
		err = domain.ErrStaleResponse
	}
	if err != nil {
		return nil, o.fail("shortest path", err)
	}

	o.clearError()
	return newPathView(o.graph.Snapshot(), src, dst, result), nil
}

// ============================================================================
// Plumbing
// ============================================================================

// begin claims a form and checks for a session
func (o *Orchestrator) begin(form Form, op string) (func(), error) {
	release, err := o.acquire(form)
	if err != nil {
		return nil, err
	}
	if err := o.requireSession(op); err != nil {
		release()
		return nil, err
	}
	return release, nil
}

func (o *Orchestrator) acquire(form Form) (func(), error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.busy[form] {
		return nil, domain.ErrBusy
	}
	o.busy[form] = true
	return func() {
		o.mu.Lock()
		delete(o.busy, form)
		o.mu.Unlock()
	}, nil
}

// Busy reports whether form has a request in flight
func (o *Orchestrator) Busy(form Form) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.busy[form]
}

func (o *Orchestrator) requireSession(op string) error {
	if o.session.Authenticated() {
		return nil
	}
	return o.fail(op, domain.SessionExpired("not logged in"))
}

func (o *Orchestrator) requireKnown(id int64) error {
	if o.graph.Snapshot().HasNode(id) {
		return nil
	}
	return domain.NewError(domain.KindNotFound, fmt.Sprintf("node %d not found", id))
}

func (o *Orchestrator) confirm(ctx context.Context, prompt string) (bool, error) {
	ok, err := o.confirmer.Confirm(ctx, prompt)
	if err != nil {
		return false, fmt.Errorf("confirmation failed: %w", err)
	}
	if !ok {
		o.logger.Debug("action declined", zap.String("prompt", prompt))
	}
	return ok, nil
}

// reload refreshes the snapshot after a successful mutation
func (o *Orchestrator) reload(ctx context.Context, op string) error {
	if _, err := o.graph.LoadAll(ctx); err != nil {
		return o.fail(op, err)
	}
	o.publishReload()
	return nil
}

// fail records err as the visible failure. An ended session resets the
// orchestrator; a stale response is dropped silently.
func (o *Orchestrator) fail(op string, err error) error {
	if errors.Is(err, domain.ErrStaleResponse) {
		o.logger.Debug("discarded stale response", zap.String("op", op))
		return err
	}

	if domain.KindOf(err) == domain.KindSessionExpired {
		o.expire()
	}

	o.mu.Lock()
	o.lastErr = err
	o.mu.Unlock()

	o.logger.Debug("operation failed", zap.String("op", op), zap.Error(err))
	o.bus.Publish(Event{
		Type: EventOperationFailed,
		Payload: map[string]string{
			"op":      op,
			"kind":    string(domain.KindOf(err)),
			"message": err.Error(),
		},
	})
	return err
}

// expire moves to Unauthenticated and exposes no more graph data
func (o *Orchestrator) expire() {
	if err := o.session.Logout(context.Background()); err != nil {
		o.logger.Warn("failed to clear persisted session", zap.Error(err))
	}
	o.graph.Reset()

	o.mu.Lock()
	wasAuthenticated := o.state != StateUnauthenticated
	o.user = nil
	o.mu.Unlock()

	o.setState(StateUnauthenticated)
	if wasAuthenticated {
		o.bus.Publish(Event{Type: EventSessionExpired})
	}
}

func (o *Orchestrator) succeed(op string, payload any) {
	o.clearError()
	o.bus.Publish(Event{
		Type:    EventMutationSucceeded,
		Payload: map[string]any{"op": op, "result": payload},
	})
}

func (o *Orchestrator) clearError() {
	o.mu.Lock()
	o.lastErr = nil
	o.mu.Unlock()
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	prev := o.state
	o.state = s
	o.mu.Unlock()

	if prev != s {
		o.logger.Debug("state changed", zap.String("from", string(prev)), zap.String("to", string(s)))
		o.bus.Publish(Event{
			Type:    EventStateChanged,
			Payload: map[string]string{"from": string(prev), "to": string(s)},
		})
	}
}

func (o *Orchestrator) publishReload() {
	snap := o.graph.Snapshot()
	o.bus.Publish(Event{
		Type:    EventGraphReloaded,
		Payload: map[string]int{"nodes": len(snap.Nodes), "edges": len(snap.Edges)},
	})
}

// firstError prefers a session-ended error over any other
func firstError(errs ...error) error {
	var first error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if domain.KindOf(err) == domain.KindSessionExpired {
			return err
		}
		if first == nil {
			first = err
		}
	}
	return first
}
