package keai

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates that an id or slug has no visible match.
	ErrNotFound = errors.New("keai: record not found")
	// ErrUnauthorized indicates a missing or incorrect credential.
	ErrUnauthorized = errors.New("keai: unauthorized")
)

// UpstreamError reports a non-2xx response from a backing API.
//
// Status and Body carry the upstream response verbatim so handlers can log the
// failure without re-reading the wire.
type UpstreamError struct {
	// Service names the backing API that failed.
	Service string
	// Status is the upstream HTTP status code.
	Status int
	// Body is the upstream response body, possibly truncated by the caller.
	Body string
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s upstream error: status %d: %s", e.Service, e.Status, e.Body)
}

// AsUpstreamError unwraps err into an UpstreamError when present.
func AsUpstreamError(err error) (*UpstreamError, bool) {
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream, true
	}

	return nil, false
}

// ValidationError reports a missing or malformed request field.
type ValidationError struct {
	// Field names the offending request field.
	Field string
	// Reason explains what the field failed to satisfy.
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid request: missing %s", e.Field)
	}

	return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for one missing field.
func NewValidationError(field string) *ValidationError {
	return &ValidationError{Field: field}
}

// IsValidationError reports whether err carries a ValidationError.
func IsValidationError(err error) bool {
	var validation *ValidationError
	return errors.As(err, &validation)
}
