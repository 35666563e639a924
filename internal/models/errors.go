package models

import (
	"errors"
	"fmt"
)

// ValidationError reports a precondition that was not met before a
// computation or mutation. Callers fix the input and retry.
type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string {
	return e.Reason
}

// Validation failures shared by the split computations.
var (
	ErrNoParticipants    = ValidationError{Reason: "No participants"}
	ErrNoExpenses        = ValidationError{Reason: "No expenses"}
	ErrZeroOriginalTotal = ValidationError{Reason: "Total original amount is 0"}
)

// NotFoundError reports a lookup that yielded nothing.
type NotFoundError struct {
	Kind string // "bill", "expense", "participant"
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// BillNotFound builds the NotFoundError for a missing bill id.
func BillNotFound(id int64) NotFoundError {
	return NotFoundError{Kind: "bill", ID: fmt.Sprint(id)}
}

// PersistenceError wraps a failure of the underlying store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// ExternalServiceError wraps an opaque failure of a collaborator such as
// the bill image decoder.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}
