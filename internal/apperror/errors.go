// Package apperror defines the error taxonomy crossing the HTTP boundary.
// Every error carries an HTTP status code and a client-safe message.
// Raw database or crypto errors must never reach the client; wrap them
// in an apperror type at the flow boundary.
package apperror

import (
	"fmt"
	"net/http"
)

// Error is the single error type returned by services to handlers. It
// carries an HTTP status code, a machine-readable classifier, and a
// message safe to show to the client.
type Error struct {
	// Code is the HTTP status code.
	Code int `json:"-"`

	// Kind is a machine-readable classifier (e.g. "unauthorized").
	Kind string `json:"kind"`

	// Message is safe for the client.
	Message string `json:"message"`

	// Internal holds the underlying cause for server-side logging only.
	Internal error `json:"-"`
}

func (e *Error) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Kind, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap supports errors.Is/As on the underlying cause.
func (e *Error) Unwrap() error { return e.Internal }

// InvalidInput is a 400 for missing or malformed fields. The message is
// field-level and always safe to reveal.
func InvalidInput(message string) *Error {
	return &Error{Code: http.StatusBadRequest, Kind: "invalid_input", Message: message}
}

// Unauthorized is a 401. Callers must use a uniform message for all
// credential and token failures so the response does not reveal which
// check failed.
func Unauthorized(message string) *Error {
	return &Error{Code: http.StatusUnauthorized, Kind: "unauthorized", Message: message}
}

// Forbidden is a 403 for authenticated callers acting on resources they
// do not own.
func Forbidden(message string) *Error {
	return &Error{Code: http.StatusForbidden, Kind: "forbidden", Message: message}
}

// NotFound is a 404. During login, missing users must be reported as
// Unauthorized instead to avoid username enumeration.
func NotFound(message string) *Error {
	return &Error{Code: http.StatusNotFound, Kind: "not_found", Message: message}
}

// Conflict is a 409, e.g. a duplicate username at registration.
func Conflict(message string) *Error {
	return &Error{Code: http.StatusConflict, Kind: "conflict", Message: message}
}

// Internal is a 500. The cause is kept for logging; the client only ever
// sees a generic message.
func Internal(err error) *Error {
	return &Error{
		Code:     http.StatusInternalServerError,
		Kind:     "internal",
		Message:  "internal server error",
		Internal: err,
	}
}

// SafeMessage returns the client-safe message for any error. Unknown
// error types collapse to a generic message.
func SafeMessage(err error) string {
	if e, ok := err.(*Error); ok {
		return e.Message
	}
	return "internal server error"
}

// SafeCode returns the HTTP status for any error, defaulting to 500.
func SafeCode(err error) int {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return http.StatusInternalServerError
}
