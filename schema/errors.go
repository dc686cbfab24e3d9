package schema

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel error kinds. Typed errors below match these with errors.Is.
var (
	ErrConfiguration  = errors.New("configuration error")
	ErrAuthentication = errors.New("authentication failed")
	ErrRateLimited    = errors.New("rate limit exceeded")
	ErrAPI            = errors.New("api error")
	ErrValidation     = errors.New("validation error")
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("record already exists")
)

// Presentation categories for errors.
const (
	CategoryUnauthorized        = "unauthorized"
	CategoryRateLimited         = "rate_limited"
	CategoryUpstreamUnavailable = "upstream_unavailable"
	CategoryBadInput            = "bad_input"
	CategoryNotFound            = "not_found"
	CategoryInternal            = "internal"
)

// APIError is returned by the GitHub fetcher. Kind is one of the sentinel
// errors above.
type APIError struct {
	Kind       error
	StatusCode int
	RetryAfter time.Duration
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	msg := e.Kind.Error()
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the underlying cause.
func (e *APIError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewConfigurationError reports a missing or invalid setting.
func NewConfigurationError(msg string) error {
	return &APIError{Kind: ErrConfiguration, Message: msg}
}

// ValidationError reports a payload or input that failed shape or range checks.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Reason)
}

// Is matches ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError creates a ValidationError.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// ErrorCategory maps an error to a coarse category that presentation layers
// can turn into distinct status codes.
func ErrorCategory(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAuthentication), errors.Is(err, ErrConfiguration):
		return CategoryUnauthorized
	case errors.Is(err, ErrRateLimited):
		return CategoryRateLimited
	case errors.Is(err, ErrAPI):
		return CategoryUpstreamUnavailable
	case errors.Is(err, ErrValidation):
		return CategoryBadInput
	case errors.Is(err, ErrNotFound):
		return CategoryNotFound
	default:
		return CategoryInternal
	}
}
