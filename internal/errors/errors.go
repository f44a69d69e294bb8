// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Standard sentinel errors
var (
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrSessionExpired     = errors.New("session expired")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSymbolNotFound     = errors.New("symbol not found")
	ErrConnectionFailed   = errors.New("connection failed")
	ErrTimeout            = errors.New("operation timed out")
	ErrConfigInvalid      = errors.New("invalid configuration")
	ErrDatabaseError      = errors.New("database error")
	ErrInputValidation    = errors.New("input validation failed")
	ErrUnexpectedResponse = errors.New("unexpected response")
)

// APIError is a non-2xx answer from the API. Message carries the server's
// "message" or "error" field, or the plain-text body when it was not JSON.
type APIError struct {
	Status   int
	Endpoint string
	Message  string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error [%d] %s: %s", e.Status, e.Endpoint, e.Message)
	}
	return fmt.Sprintf("api error [%d] %s: %s", e.Status, e.Endpoint, http.StatusText(e.Status))
}

// Unwrap maps well-known statuses onto sentinels so callers can use Is.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return ErrNotAuthenticated
	case http.StatusNotFound:
		return ErrSymbolNotFound
	}
	return nil
}

// NewAPIError creates a new APIError.
func NewAPIError(status int, endpoint, message string) *APIError {
	return &APIError{
		Status:   status,
		Endpoint: endpoint,
		Message:  message,
	}
}

// ValidationError represents a local validation failure. No request is sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInputValidation
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// TransportError wraps a failure to reach the server at all.
type TransportError struct {
	Method   string
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Endpoint, e.Err)
}

// Unwrap matches ErrConnectionFailed, and ErrTimeout as well when the
// request ran out of time.
func (e *TransportError) Unwrap() []error {
	if isTimeout(e.Err) {
		return []error{ErrConnectionFailed, ErrTimeout, e.Err}
	}
	return []error{ErrConnectionFailed, e.Err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

// NewTransportError creates a new TransportError.
func NewTransportError(method, endpoint string, err error) *TransportError {
	return &TransportError{
		Method:   method,
		Endpoint: endpoint,
		Err:      err,
	}
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// MessageOf returns the server-supplied message carried by err, or "".
func MessageOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
