package service

import (
	"context"
	"testing"
	"time"

	"pathfinder/internal/client"
	"pathfinder/internal/repository"
	"pathfinder/internal/testutil"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testUser     = "alice"
	testPassword = "secret"
)

// harness wires every component against a fake backend
type harness struct {
	backend *testutil.Backend
	client  *client.Client
	repo    *repository.Memory
	session *SessionStore
	graph   *GraphRepository
	algo    *AlgorithmClient
	bus     *EventBus
	orch    *Orchestrator
	events  chan Event
}

func newHarness(t *testing.T, confirmer Confirmer) *harness {
	t.Helper()

	backend := testutil.NewBackend(t)
	backend.AddUser(testUser, testPassword)

	logger := zap.NewNop()
	c := client.New(backend.URL(), backend.Client(), logger)
	repo := repository.NewMemory()
	session := NewSessionStore(c, repo, logger)
	c.SetAuthorizer(session)

	graph := NewGraphRepository(c, session, logger)
	algo := NewAlgorithmClient(c, logger)
	bus := NewEventBus()
	events := make(chan Event, 256)
	bus.Subscribe(events)

	return &harness{
		backend: backend,
		client:  c,
		repo:    repo,
		session: session,
		graph:   graph,
		algo:    algo,
		bus:     bus,
		orch:    NewOrchestrator(session, graph, algo, confirmer, bus, logger),
		events:  events,
	}
}

// login authenticates through the orchestrator and requires success
func (h *harness) login(t *testing.T) {
	t.Helper()
	_, err := h.orch.Login(context.Background(), testUser, testPassword)
	require.NoError(t, err)
}

// abc seeds A, B, C with A→B 1, B→C 2, A→C 5 directly on the backend
func (h *harness) abc() (a, b, c int64) {
	a = h.backend.AddNode("A")
	b = h.backend.AddNode("B")
	c = h.backend.AddNode("C")
	h.backend.AddEdge(a, b, 1)
	h.backend.AddEdge(b, c, 2)
	h.backend.AddEdge(a, c, 5)
	return a, b, c
}

// drain returns the events published so far
func (h *harness) drain() []Event {
	var out []Event
	for {
		select {
		case e := <-h.events:
			out = append(out, e)
		default:
			return out
		}
	}
}

func hasEvent(events []Event, typ EventType) bool {
	for _, e := range events {
		if e.Type == typ {
			return true
		}
	}
	return false
}

// waitFor fails the test if ch does not close in time
func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for request")
	}
}
