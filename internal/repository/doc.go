// Package repository defines session persistence for PathFinder.
//
// Only the session is persisted. The graph itself lives on the backend and is
// re-fetched on every dashboard load, so nothing here stores nodes or edges.
//
// # Implementations
//
// Memory keeps the session for the life of the process. The sqlite subpackage
// keeps it in a single-row table so a CLI invocation can reuse the token from
// the previous one.
//
// # Semantics
//
// At most one session is stored. SaveSession replaces it, ClearSession
// removes it, and LoadSession returns ErrNoSession when nothing is stored.
package repository
