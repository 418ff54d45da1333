// Package service implements the PathFinder client core.
//
// # Components
//
// SessionStore owns the bearer token. It is the transport's Authorizer, so
// a 401 from any endpoint clears the session no matter which call saw it.
//
// GraphRepository holds the snapshot of nodes and edges. LoadAll fetches
// both lists concurrently and swaps the snapshot only when both succeed;
// mutations go to the server and become visible after the next LoadAll.
//
// AlgorithmClient runs breadth-first traversal and shortest path on the
// server and checks the shape of what comes back.
//
// Orchestrator sequences these into the user-facing transactions (load
// dashboard, mutate graph, run traversal, run shortest path), tracks the
// session lifecycle state, and reports failures through LastError and the
// EventBus.
//
// Seeder applies a seed file idempotently.
//
// # Stale responses
//
// Every session change bumps SessionStore.Generation. A response that
// arrives after the generation moved is discarded with ErrStaleResponse
// instead of being applied.
package service
