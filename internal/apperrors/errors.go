// Package apperrors provides structured application errors with HTTP status mapping.
package apperrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for classification via errors.Is().
//
// ErrCreation, ErrPoll and ErrResultFetch mirror the tracker's failure modes:
// a failed creation call is terminal for its job, while poll and result-fetch
// failures are transient and retried on the normal schedule.
var (
	ErrValidation  = errors.New("validation error")
	ErrCreation    = errors.New("creation error")
	ErrPoll        = errors.New("poll error")
	ErrResultFetch = errors.New("result fetch error")
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrInternal    = errors.New("internal error")
)

// Error provides structured error with context.
type Error struct {
	Sentinel error  // Wrapped sentinel for errors.Is() classification
	Message  string // Human-readable message
	Field    string // For validation errors (e.g., "websiteUrl", "roleTitle")
	Resource string // For not found/conflict (e.g., "guide")
	Op       string // Operation that failed (e.g., "remote.createGuide")
	Cause    error  // Underlying error
}

// Error returns the human-readable error message.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the sentinel error for errors.Is() classification.
func (e *Error) Unwrap() error {
	return e.Sentinel
}

// Validation creates a validation error for a specific field.
func Validation(field, message string) error {
	return &Error{
		Sentinel: ErrValidation,
		Message:  message,
		Field:    field,
	}
}

// Creation wraps a failed job-creation call. Jobs failing this way become
// terminal and are never retried.
func Creation(op string, cause error) error {
	return &Error{
		Sentinel: ErrCreation,
		Message:  fmt.Sprintf("%s: %v", op, cause),
		Op:       op,
		Cause:    cause,
	}
}

// Poll wraps a transient status-check failure.
func Poll(op string, cause error) error {
	return &Error{
		Sentinel: ErrPoll,
		Message:  fmt.Sprintf("%s: %v", op, cause),
		Op:       op,
		Cause:    cause,
	}
}

// ResultFetch wraps a transient results-retrieval failure.
func ResultFetch(op string, cause error) error {
	return &Error{
		Sentinel: ErrResultFetch,
		Message:  fmt.Sprintf("%s: %v", op, cause),
		Op:       op,
		Cause:    cause,
	}
}

// NotFound creates a not found error for a resource.
func NotFound(resource, id string) error {
	return &Error{
		Sentinel: ErrNotFound,
		Message:  fmt.Sprintf("%s %s not found", resource, id),
		Resource: resource,
	}
}

// Conflict creates a conflict error for a resource.
func Conflict(resource, id, reason string) error {
	return &Error{
		Sentinel: ErrConflict,
		Message:  reason,
		Resource: resource,
	}
}

// Internal creates an internal error wrapping an underlying cause.
func Internal(op string, cause error) error {
	return &Error{
		Sentinel: ErrInternal,
		Message:  fmt.Sprintf("%s: %v", op, cause),
		Op:       op,
		Cause:    cause,
	}
}
