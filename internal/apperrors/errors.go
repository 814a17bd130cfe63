// Package apperrors defines the error taxonomy shared by every gateway component.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds
var (
	// ErrUnauthorized is returned when the request carries no usable principal
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the principal lacks the required role
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidArgument is returned when required fields are missing or malformed
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrMalformedPayload is returned when a body is not valid structured data
	ErrMalformedPayload = errors.New("malformed payload")

	// ErrNotFound is returned when a lookup or mutation target is absent
	ErrNotFound = errors.New("not found")

	// ErrRateLimited is returned when a caller exceeds its request budget
	ErrRateLimited = errors.New("rate limited")

	// ErrUpstream is returned when a store or provider call fails
	ErrUpstream = errors.New("upstream failure")
)

// Error carries a kind from the taxonomy plus context for logs and responses
type Error struct {
	Op      string // Operation that failed
	Kind    error  // One of the Err* kinds
	Message string // Human-readable message
	Err     error  // Underlying error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		if e.Op != "" {
			return fmt.Sprintf("%s: %v", e.Op, e.Err)
		}
		return e.Err.Error()
	}
	return e.Kind.Error()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is this error's kind
func (e *Error) Is(target error) bool {
	return e.Kind == target
}

// Unauthorized creates an unauthorized error
func Unauthorized(message string) *Error {
	return &Error{Kind: ErrUnauthorized, Message: message}
}

// Forbidden creates a forbidden error
func Forbidden(message string) *Error {
	return &Error{Kind: ErrForbidden, Message: message}
}

// InvalidArgument creates an invalid argument error
func InvalidArgument(message string) *Error {
	return &Error{Kind: ErrInvalidArgument, Message: message}
}

// InvalidArgumentf creates an invalid argument error with a formatted message
func InvalidArgumentf(format string, args ...any) *Error {
	return InvalidArgument(fmt.Sprintf(format, args...))
}

// Malformed creates a malformed payload error
func Malformed(message string, err error) *Error {
	return &Error{Kind: ErrMalformedPayload, Message: message, Err: err}
}

// NotFound creates a "not found" error for an entity
func NotFound(entity, id string) *Error {
	msg := fmt.Sprintf("%s not found", entity)
	if id != "" {
		msg = fmt.Sprintf("%s %s not found", entity, id)
	}
	return &Error{Op: "get", Kind: ErrNotFound, Message: msg}
}

// RateLimited creates a rate limited error
func RateLimited(message string) *Error {
	return &Error{Kind: ErrRateLimited, Message: message}
}

// Upstream wraps a failed store or provider call. Errors that already carry
// a kind pass through unchanged.
func Upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}
	return &Error{Op: op, Kind: ErrUpstream, Err: err}
}

// Wrap attaches a kind to err with a message
func Wrap(kind error, op, message string, err error) *Error {
	return &Error{Op: op, Kind: kind, Message: message, Err: err}
}

// IsNotFound checks if an error is a "not found" error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidArgument checks if an error is an "invalid argument" error
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

// IsForbidden checks if an error is a "forbidden" error
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsUnauthorized checks if an error is an "unauthorized" error
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// StatusCode maps an error to its HTTP status. Errors outside the taxonomy are 500.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrInvalidArgument), errors.Is(err, ErrMalformedPayload):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Title returns the short error label used in response bodies
func Title(err error) string {
	switch StatusCode(err) {
	case http.StatusUnauthorized:
		return "Unauthorized"
	case http.StatusForbidden:
		return "Forbidden"
	case http.StatusBadRequest:
		if errors.Is(err, ErrMalformedPayload) {
			return "Malformed payload"
		}
		return "Invalid argument"
	case http.StatusNotFound:
		return "Not found"
	case http.StatusTooManyRequests:
		return "Too many requests"
	default:
		return "Internal server error"
	}
}
