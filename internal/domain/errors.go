package domain

import (
	"errors"
	"fmt"
)

// Common domain errors surfaced by the scoring core.
var (
	// ErrMalformedAnswers indicates a response's raw answer payload could
	// not be parsed as structured data. Consumers skip the record.
	ErrMalformedAnswers = errors.New("malformed answer payload")

	// ErrTemplateNotFound indicates a response references a template the
	// store no longer has.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrFlagExists indicates the flag store rejected a duplicate flag id.
	ErrFlagExists = errors.New("flag already exists")
)

// StoreError wraps a persistence failure with the operation that hit it.
// Store failures are fatal for the current call; retry policy, if any,
// belongs to the storage collaborator.
type StoreError struct {
	// Op names the store operation that failed, e.g. "list_responses".
	Op string

	// Err is the underlying store error.
	Err error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	return fmt.Sprintf("store error: op=%s, err=%v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As matching.
func (e *StoreError) Unwrap() error { return e.Err }

// NewStoreError creates a StoreError for the given operation.
func NewStoreError(op string, err error) *StoreError {
	return &StoreError{Op: op, Err: err}
}
