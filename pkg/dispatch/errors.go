package dispatch

import "errors"

var (
	// ErrNotFound is reported when no child of a handler matches the token.
	ErrNotFound = errors.New("command not found")
	// ErrPanic wraps a panic recovered from a command action.
	ErrPanic = errors.New("command panicked")
	// ErrNilAction is returned when a command is built without an action.
	ErrNilAction = errors.New("command has no action")
	// ErrEmptyName is returned when a node is built without a name.
	ErrEmptyName = errors.New("node name is empty")
	// ErrUnknownDescriptor is returned by a factory that cannot construct a node.
	ErrUnknownDescriptor = errors.New("unknown node descriptor")
	// ErrWrongKind is returned when a descriptor builds a node of the wrong kind.
	ErrWrongKind = errors.New("descriptor built wrong node kind")
)
