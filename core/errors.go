package core

import "fmt"

// ValidationError rejects malformed caller input before any conversation
// state is touched.
type ValidationError struct {
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string { return fmt.Sprintf("invalid input: %s", e.Reason) }

// StateError signals a fatal integrity violation around conversation state,
// for example loading a thread that does not exist when continuation was
// expected. No state is mutated when a StateError is returned.
type StateError struct {
	ThreadID string
	Op       string
	Err      error
}

// Error implements the error interface.
func (e *StateError) Error() string {
	return fmt.Sprintf("state error during %s for thread %s: %v", e.Op, e.ThreadID, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *StateError) Unwrap() error { return e.Err }
