package container

import "errors"

var (
	// ErrNotFound reports a path with no node in the tree.
	ErrNotFound = errors.New("path not found")

	// ErrConflict reports an operation that would make a node both a
	// group and a variable, or overwrite one kind with the other.
	ErrConflict = errors.New("path conflict")

	// ErrFormat reports malformed or undecodable input from a format
	// adapter. Adapters wrap this, they never swallow it.
	ErrFormat = errors.New("format error")
)
