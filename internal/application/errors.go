package application

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/example/shift-scheduler/internal/authz"
	"github.com/example/shift-scheduler/internal/persistence"
)

var (
	// ErrUnauthorized is returned when the credential or token is missing,
	// invalid or expired, or its user no longer exists.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when the caller lacks the role or membership.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrBadRequest is returned for malformed input.
	ErrBadRequest = errors.New("bad request")
	// ErrConflict is returned when a uniqueness rule would be violated.
	ErrConflict = errors.New("conflict")
	// ErrInternal is returned for unclassified storage or cryptographic failures.
	ErrInternal = errors.New("internal error")
)

// ValidationError captures malformed input that callers can surface to users.
// It unwraps to ErrBadRequest.
type ValidationError struct {
	Message     string
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	if msg := v.Detail(); msg != "" {
		return ErrBadRequest.Error() + ": " + msg
	}
	return ErrBadRequest.Error()
}

// Unwrap classifies the error as a bad request.
func (v *ValidationError) Unwrap() error {
	return ErrBadRequest
}

// Detail returns the message, or the field errors in field order when no
// message was set.
func (v *ValidationError) Detail() string {
	if v == nil {
		return ""
	}
	if v.Message != "" {
		return v.Message
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field := range v.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	msgs := make([]string, 0, len(fields))
	for _, field := range fields {
		msgs = append(msgs, v.FieldErrors[field])
	}
	return strings.Join(msgs, "; ")
}

// HasErrors reports whether any issue was recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && (v.Message != "" || len(v.FieldErrors) > 0)
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

func badRequest(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// ConflictError describes which uniqueness rule was hit. It unwraps to ErrConflict.
type ConflictError struct {
	Message string
}

func (c *ConflictError) Error() string {
	return ErrConflict.Error() + ": " + c.Message
}

func (c *ConflictError) Unwrap() error {
	return ErrConflict
}

// internalError keeps the underlying failure for logs while classifying it as
// ErrInternal.
type internalError struct {
	cause error
}

func (e *internalError) Error() string {
	return fmt.Sprintf("%s: %v", ErrInternal, e.cause)
}

func (e *internalError) Unwrap() error {
	return ErrInternal
}

// Cause returns the wrapped failure.
func (e *internalError) Cause() error {
	return e.cause
}

func internal(cause error) error {
	return &internalError{cause: cause}
}

// translate maps storage and authorization errors onto the taxonomy. Errors
// already classified pass through.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case isClassified(err):
		return err
	case errors.Is(err, authz.ErrForbidden):
		return ErrForbidden
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrConflict):
		return ErrConflict
	default:
		return internal(err)
	}
}

func isClassified(err error) bool {
	for _, kind := range []error{ErrUnauthorized, ErrForbidden, ErrNotFound, ErrBadRequest, ErrConflict, ErrInternal} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

// PublicMessage renders err as "<kind>[: detail]" for clients. Internal
// causes are never included.
func PublicMessage(err error) string {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr.Error()
	}
	var cErr *ConflictError
	if errors.As(err, &cErr) {
		return cErr.Error()
	}
	switch {
	case errors.Is(err, ErrUnauthorized):
		return ErrUnauthorized.Error()
	case errors.Is(err, ErrForbidden):
		return ErrForbidden.Error()
	case errors.Is(err, ErrNotFound):
		return ErrNotFound.Error()
	case errors.Is(err, ErrBadRequest):
		return ErrBadRequest.Error()
	case errors.Is(err, ErrConflict):
		return ErrConflict.Error()
	default:
		return ErrInternal.Error()
	}
}
