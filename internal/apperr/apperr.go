// Package apperr defines the typed error taxonomy shared by the store,
// auth, lifecycle and HTTP layers. Every error carries a stable machine
// code and the HTTP status the boundary maps it to.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Error struct {
	Code     string
	HTTPCode int
	Message  string
	err      error // wrapped cause, not exposed to clients
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.err }

// Is matches on code so sentinel comparisons work across wrapping.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

func sentinel(code string, httpCode int, msg string) *Error {
	return &Error{Code: code, HTTPCode: httpCode, Message: msg}
}

var (
	ErrValidation         = sentinel("VALIDATION", http.StatusBadRequest, "invalid request")
	ErrWeakPassword       = sentinel("WEAK_PASSWORD", http.StatusBadRequest, "password must be at least 8 characters")
	ErrDuplicateEmail     = sentinel("DUPLICATE_EMAIL", http.StatusConflict, "email already registered")
	ErrInvalidCredentials = sentinel("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid email or password")
	ErrInvalidToken       = sentinel("INVALID_TOKEN", http.StatusUnauthorized, "invalid token")
	ErrExpiredToken       = sentinel("EXPIRED_TOKEN", http.StatusUnauthorized, "token expired")
	ErrUnauthenticated    = sentinel("UNAUTHENTICATED", http.StatusUnauthorized, "authentication required")
	ErrForbidden          = sentinel("FORBIDDEN", http.StatusForbidden, "insufficient role")
	ErrNotFound           = sentinel("NOT_FOUND", http.StatusNotFound, "not found")
	ErrConflict           = sentinel("CONFLICT", http.StatusConflict, "slot already booked")
	ErrInvalidTransition  = sentinel("INVALID_TRANSITION", http.StatusConflict, "invalid status transition")
	ErrStoreUnavailable   = sentinel("STORE_UNAVAILABLE", http.StatusServiceUnavailable, "storage unavailable, try again")
)

// Validation returns ErrValidation with a field-level message.
func Validation(msg string) *Error {
	return &Error{Code: ErrValidation.Code, HTTPCode: ErrValidation.HTTPCode, Message: msg}
}

// InvalidTransition reports the disallowed transition including the
// actor's role, per the lifecycle contract.
func InvalidTransition(current, requested, role string) *Error {
	return &Error{
		Code:     ErrInvalidTransition.Code,
		HTTPCode: ErrInvalidTransition.HTTPCode,
		Message:  fmt.Sprintf("cannot transition from %s to %s as %s", current, requested, role),
	}
}

// Wrap attaches a cause to a sentinel, keeping code and status.
func Wrap(sentinel *Error, err error) *Error {
	return &Error{Code: sentinel.Code, HTTPCode: sentinel.HTTPCode, Message: sentinel.Message, err: err}
}

// Status maps any error to an HTTP status. Unrecognized errors are 500.
func Status(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.HTTPCode
	}
	return http.StatusInternalServerError
}

// Code returns the machine code for an error, or INTERNAL.
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return "INTERNAL"
}

// Message returns the client-safe message for an error.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}
