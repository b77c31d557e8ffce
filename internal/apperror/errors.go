// Package apperror provides domain-specific error types for BioNotes.
// These errors carry an HTTP status code and a user-safe message. The Echo
// error handler maps them to appropriate HTTP responses automatically.
//
// NEVER return raw database or infrastructure errors to the client. Always
// wrap them in an apperror type or return a generic internal error.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Authentication error types. The lock screen client branches on these to
// decide which guidance to show, so they are part of the API contract.
const (
	TypeDuplicateUsername   = "duplicate_username"
	TypeUserNotFound        = "user_not_found"
	TypeWrongPassword       = "wrong_password"
	TypePlatformUnavailable = "platform_unavailable"
	TypeCeremonyFailed      = "ceremony_failed"
	TypeStorageFailure      = "storage_failure"
	TypeSessionLocked       = "session_locked"
)

// AppError is the base error type for all domain errors. It carries an
// HTTP status code, a machine-readable error type, and a human-readable
// message safe to show to the client.
type AppError struct {
	// Code is the HTTP status code (e.g., 404, 400, 500).
	Code int `json:"-"`

	// Type is a machine-readable error classifier (e.g., "wrong_password").
	Type string `json:"type"`

	// Message is a human-readable description safe for the client.
	Message string `json:"message"`

	// Internal holds the underlying error for logging. Never exposed to client.
	Internal error `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Internal
}

// IsType reports whether err is an *AppError with the given Type.
func IsType(err error, errType string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == errType
}

// --- Constructors for common error types ---

// NewNotFound creates a 404 Not Found error.
func NewNotFound(message string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Type:    "not_found",
		Message: message,
	}
}

// NewBadRequest creates a 400 Bad Request error.
func NewBadRequest(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Type:    "bad_request",
		Message: message,
	}
}

// NewUnauthorized creates a 401 Unauthorized error.
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:    http.StatusUnauthorized,
		Type:    "unauthorized",
		Message: message,
	}
}

// NewForbidden creates a 403 Forbidden error.
func NewForbidden(message string) *AppError {
	return &AppError{
		Code:    http.StatusForbidden,
		Type:    "forbidden",
		Message: message,
	}
}

// NewConflict creates a 409 Conflict error.
func NewConflict(message string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Type:    "conflict",
		Message: message,
	}
}

// NewValidation creates a 422 Unprocessable Entity error for validation failures.
func NewValidation(message string) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Type:    "validation_error",
		Message: message,
	}
}

// NewInternal creates a 500 Internal Server Error. The real error is stored
// in Internal for logging but the client only sees a generic message.
func NewInternal(err error) *AppError {
	return &AppError{
		Code:     http.StatusInternalServerError,
		Type:     "internal_error",
		Message:  "An unexpected error occurred. Please try again.",
		Internal: err,
	}
}

// --- Constructors for the authentication taxonomy ---

// NewDuplicateUsername creates the registration conflict error.
func NewDuplicateUsername(username string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Type:    TypeDuplicateUsername,
		Message: fmt.Sprintf("username %q is already taken", username),
	}
}

// NewUserNotFound creates the unknown-user login error.
func NewUserNotFound() *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Type:    TypeUserNotFound,
		Message: "user not found",
	}
}

// NewWrongPassword creates the bad-password login error.
func NewWrongPassword() *AppError {
	return &AppError{
		Code:    http.StatusUnauthorized,
		Type:    TypeWrongPassword,
		Message: "incorrect password",
	}
}

// NewPlatformUnavailable creates the error returned when a biometric ceremony
// is requested but the platform authenticator is not available.
func NewPlatformUnavailable() *AppError {
	return &AppError{
		Code:    http.StatusServiceUnavailable,
		Type:    TypePlatformUnavailable,
		Message: "biometric authentication is not available on this device",
	}
}

// NewCeremonyFailed creates an error for a failed create/verify ceremony.
// The reason is human-readable and safe to show on the lock screen.
func NewCeremonyFailed(reason string) *AppError {
	if reason == "" {
		reason = "authentication failed"
	}
	return &AppError{
		Code:    http.StatusUnauthorized,
		Type:    TypeCeremonyFailed,
		Message: reason,
	}
}

// NewStorageFailure wraps a key-value store write/read failure. Storage
// problems (e.g. quota, connectivity) must propagate, never be swallowed.
func NewStorageFailure(err error) *AppError {
	return &AppError{
		Code:     http.StatusInternalServerError,
		Type:     TypeStorageFailure,
		Message:  "failed to persist authentication state. Please try again.",
		Internal: err,
	}
}

// NewSessionLocked creates a 423 Locked error for requests that require an
// unlocked session.
func NewSessionLocked() *AppError {
	return &AppError{
		Code:    http.StatusLocked,
		Type:    TypeSessionLocked,
		Message: "The session is locked. Unlock to continue.",
	}
}

// SafeMessage returns the client-safe error message from an error. If the
// error is an AppError, returns its Message field (which is safe to expose).
// For any other error type, returns a generic message to prevent leaking
// internal details like table names, query structure, or stack traces.
func SafeMessage(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Message
	}
	return "an unexpected error occurred"
}

// SafeCode returns the HTTP status code from an AppError, or 500 for
// any other error type.
func SafeCode(err error) int {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return http.StatusInternalServerError
}
