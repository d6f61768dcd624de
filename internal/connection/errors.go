package connection

import "errors"

var (
	// ErrUnknownConnection is returned when no Host is registered for an id.
	ErrUnknownConnection = errors.New("connection: unknown connection")

	// ErrQueueFull is returned (through the Pending) when a notification was dropped.
	ErrQueueFull = errors.New("connection: outbound queue full")

	// ErrClosed is returned after the Dispatcher has been closed.
	ErrClosed = errors.New("connection: dispatcher closed")

	// ErrRequestTimeout is returned when a connection does not answer in time.
	ErrRequestTimeout = errors.New("connection: request timed out")

	// ErrRemote wraps an error reported by the connection itself.
	ErrRemote = errors.New("connection: remote error")
)
