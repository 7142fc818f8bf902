package app

import "errors"

// ErrNotFound and related errors describe validation and runtime failures.
var (
	ErrNotFound          = errors.New("not found")
	ErrDependencyCycle   = errors.New("dependency would create a cycle")
	ErrIDExhausted       = errors.New("could not allocate a unique task id")
	ErrInvalidSortKey    = errors.New("invalid sort key")
	ErrInvalidStatus     = errors.New("invalid status filter")
	ErrInvalidCommitMode = errors.New("invalid commit policy")
)
