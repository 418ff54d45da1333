// Package testutil provides an in-process PathFinder backend for tests.
//
// Backend serves the full REST contract (auth, nodes, edges, bfs,
// shortest-path) from memory behind an httptest.Server. Tests seed it
// directly, force failures on specific paths, hold requests open to create
// races, and invalidate every issued token to simulate session expiry.
package testutil
