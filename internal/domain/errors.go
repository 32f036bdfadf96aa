package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("validation error")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrConflict      = errors.New("conflict")
	ErrRequestFailed = errors.New("request failed")
	ErrNetwork       = errors.New("network error")
	// ErrCorrupt marks a persisted value that can never be decoded.
	ErrCorrupt = errors.New("corrupt stored value")

	// ErrRefreshFailed marks a failed token refresh; the session has been ended.
	ErrRefreshFailed = errors.New("token refresh failed")
	// ErrAutoLoginFailed marks a registration that succeeded server-side
	// but whose follow-up login did not.
	ErrAutoLoginFailed = errors.New("registered, but automatic login failed")
)

// NetworkErrorStatusText is the StatusText of an APIError for a request that got no response.
const NetworkErrorStatusText = "Network Error"

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}

// NewValidationErrors creates a ValidationError from multiple field errors.
func NewValidationErrors(errs []FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}

// APIError is the normalized failure of a backend call.
// Status is 0 when no response was received at all.
type APIError struct {
	Message    string
	Status     int
	StatusText string

	// Cause is the transport error for network failures.
	Cause error
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.StatusText, e.Message)
	}
	return fmt.Sprintf("%d %s: %s", e.Status, e.StatusText, e.Message)
}

// Unwrap exposes the error class so callers can use errors.Is with the sentinels above.
func (e *APIError) Unwrap() []error {
	switch {
	case e.Status == 0:
		if e.Cause != nil {
			return []error{ErrNetwork, e.Cause}
		}
		return []error{ErrNetwork}
	case e.Status == http.StatusUnauthorized:
		return []error{ErrUnauthorized}
	case e.Status == http.StatusForbidden:
		return []error{ErrRequestFailed, ErrForbidden}
	case e.Status == http.StatusNotFound:
		return []error{ErrRequestFailed, ErrNotFound}
	case e.Status == http.StatusConflict:
		return []error{ErrRequestFailed, ErrConflict}
	default:
		return []error{ErrRequestFailed}
	}
}

// IsAuthRejected reports whether the backend rejected the credentials (HTTP 401).
func (e *APIError) IsAuthRejected() bool { return e.Status == http.StatusUnauthorized }

// IsNetwork reports whether the request never reached the server.
func (e *APIError) IsNetwork() bool { return e.Status == 0 }

// NewNetworkError wraps a transport failure.
func NewNetworkError(cause error) *APIError {
	msg := "Network error"
	if cause != nil {
		msg = cause.Error()
	}
	return &APIError{
		Message:    msg,
		Status:     0,
		StatusText: NetworkErrorStatusText,
		Cause:      cause,
	}
}

// Message returns the user-facing message of err: the backend message for an
// APIError, the plain error text otherwise.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
