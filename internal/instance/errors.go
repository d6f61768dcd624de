package instance

import "errors"

var (
	// ErrChildGroupNotSupported is returned when a child group is requested
	// from a node that is not internal or whose definition does not declare it.
	ErrChildGroupNotSupported = errors.New("instance: child group not supported")

	// ErrInvalidMove is returned when a node would be moved into its own subtree.
	ErrInvalidMove = errors.New("instance: cannot move a node into itself")

	// ErrNotFound is returned when a node id is not in the tree.
	ErrNotFound = errors.New("instance: node not found")

	// ErrNotBoolean is returned when a non-boolean feedback is added to a
	// boolean-only list.
	ErrNotBoolean = errors.New("instance: feedback is not boolean")
)
