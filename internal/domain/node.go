package domain

import "strings"

// Node is a graph vertex. IDs are assigned by the server.
type Node struct {
	ID   int64  `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// ValidNodeName reports whether name is acceptable for a new node.
// Whitespace-only names are treated as empty.
func ValidNodeName(name string) bool {
	return strings.TrimSpace(name) != ""
}
