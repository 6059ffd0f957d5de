package model

import (
	"errors"
	"fmt"
)

// Common errors. Callers match them with errors.Is.
var (
	// ErrNotFound means a flat or nested lookup failed: the node was never
	// tracked, or it was purged after removal.
	ErrNotFound = errors.New("node not found")
	// ErrInvalidDrop means a move was rejected before touching the tree.
	ErrInvalidDrop = errors.New("invalid drop")
	// ErrStructuralViolation means a tree invariant does not hold.
	ErrStructuralViolation = errors.New("structural violation")
)

// TreeError wraps a tree error with the operation and node it concerns.
type TreeError struct {
	Op     string // "insert", "remove", "move", "locate", ...
	ID     int64  // Node id, 0 when unknown
	Err    error  // One of the sentinels above
	Detail string // Optional human-readable context
}

func (e *TreeError) Error() string {
	msg := e.Op + ": " + e.Err.Error()
	if e.ID != 0 {
		msg = fmt.Sprintf("%s (node %d)", msg, e.ID)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *TreeError) Unwrap() error {
	return e.Err
}
