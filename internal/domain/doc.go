// Package domain defines the core types shared by the PathFinder client.
//
// These types mirror the backend's REST payloads and carry no transport or
// storage concerns.
//
// # Core Types
//
// Node and Edge describe the weighted directed graph held by the backend.
// Edges are directed from SrcID to DstID; there is no implicit reverse edge.
//
// Snapshot is the client's complete in-memory copy of the server's nodes and
// edges at a point in time. A snapshot is only ever replaced wholesale, never
// patched.
//
// # Algorithm Results
//
// TraversalResult holds a breadth-first visitation order together with the
// parent/depth tree, and can check its own structural validity.
//
// PathResult holds a shortest path and its total weight. An empty path means
// the destination is unreachable, which is a result rather than a failure.
//
// # Errors
//
// Error carries a Kind (auth, session expired, validation, not found, fetch,
// invalid input) and the user-facing message, usually the backend's detail
// text verbatim. Use errors.Is against the Err* sentinels to branch on kind.
package domain
