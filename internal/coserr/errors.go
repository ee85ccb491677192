// Package coserr defines the error taxonomy shared across the orchestration
// core: validation failures at the entry point, recoverable per-task
// failures, and blackboard assertion violations.
package coserr

import "fmt"

// ValidationError is a fatal, user-facing error raised before any worker
// starts: a missing goal, an incomplete agent registry, an invalid worker
// count.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Reason)
}

// NewValidationError builds a ValidationError with a formatted reason.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// TaskError wraps a failure from a single task dispatch: an agent returned
// or raised an error. The task is dropped; the blackboard is left
// unchanged for it. Never fatal to the pool.
type TaskError struct {
	Capability string
	Kind       string
	Err        error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task error [%s/%s]: %v", e.Capability, e.Kind, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }

// BlackboardConflict is an assertion-class error: an id collision on
// append, or a malformed mutation. Logged as a bug; the run continues.
type BlackboardConflict struct {
	Reason string
}

func (e *BlackboardConflict) Error() string {
	return fmt.Sprintf("blackboard conflict: %s", e.Reason)
}

// ModelError wraps a failure surfaced by the model-call capability. The
// pool always converts it into a TaskError before logging.
type ModelError struct {
	Err error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model error: %v", e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }
