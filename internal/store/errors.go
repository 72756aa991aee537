package store

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced to tool handlers. Graph and identity errors
// are never auto-resolved; callers decide how to react.
var (
	// ErrNotFound means the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateAgent means an agent with that id already exists.
	ErrDuplicateAgent = errors.New("agent id already registered")

	// ErrCyclicDependency means the requested dependency edge would make
	// a task depend on itself, directly or transitively.
	ErrCyclicDependency = errors.New("cyclic task dependency")

	// ErrDependenciesUnmet means a task cannot start while one of its
	// dependencies is not completed.
	ErrDependenciesUnmet = errors.New("task dependencies not completed")

	// ErrNotHolder means an agent tried to release a claim it does not hold.
	ErrNotHolder = errors.New("not the claim holder")
)

// ClaimConflictError reports that a file already has an active editing
// claim held by another agent.
type ClaimConflictError struct {
	Filepath string
	Holder   string
}

func (e *ClaimConflictError) Error() string {
	return fmt.Sprintf("file %q is being edited by agent %q", e.Filepath, e.Holder)
}
