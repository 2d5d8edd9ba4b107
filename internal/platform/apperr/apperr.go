// Copyright (c) 2026 Comiket Bot. All rights reserved.

/*
Package apperr defines the centralized error handling framework for the bot.

It provides a rich error type that bridges the gap between low-level
Domain/Storage errors and the short messages the bot shows in chat.

Architecture:

  - AppError: A struct containing a machine-readable Code and a user-friendly Message.
  - Taxonomy: validation, not-found, conflict, integrity, upstream, internal.
  - Rendering: the front end shows Message only; Cause stays in the logs.

Every error that leaves the service layer should be wrapped as an [AppError]
to ensure consistent chat replies.
*/
package apperr

import (
	"errors"
)

// Error codes carried by [AppError.Code].
const (
	CodeNotFound   = "NOT_FOUND"
	CodeConflict   = "CONFLICT"
	CodeValidation = "VALIDATION_ERROR"
	CodeIntegrity  = "INTEGRITY_ERROR"
	CodeUpstream   = "UPSTREAM_ERROR"
	CodeInternal   = "INTERNAL_ERROR"
)

// AppError is the canonical error type for the bot.
//
// It carries a machine-readable code, a client-safe message, and an optional
// slice of field-level validation errors.
//
// # Security
//
// The Cause field is for server-side logging only and is never rendered into
// chat, to avoid leaking internal implementation details (e.g., SQL queries).
type AppError struct {
	// Code is a machine-readable error identifier (e.g. "NOT_FOUND", "CONFLICT").
	Code string `json:"code"`
	// Message is a human-readable description safe to show to the user.
	Message string `json:"error"`
	// Cause is the underlying error, used for server-side logging only.
	Cause error `json:"-"`
	// Details holds per-field validation errors for VALIDATION_ERROR responses.
	Details []FieldError `json:"details,omitempty"`
}

// FieldError represents a single field-level validation failure.
type FieldError struct {
	// Field is the input field name that failed validation.
	Field string `json:"field"`
	// Message is the human-readable description of the failure.
	Message string `json:"message"`
}

// Error implements the error interface. It returns the client-safe message.
func (e *AppError) Error() string { return e.Message }

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

// # Expected Errors

// NotFound creates an [AppError] for a named resource that does not exist.
//
// Example:
//
//	apperr.NotFound("Doujin") // Returns "Doujin not found"
func NotFound(resource string) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: resource + " not found",
	}
}

// Conflict creates an [AppError] for duplicate or unique-constraint violations.
func Conflict(msg string) *AppError {
	return &AppError{
		Code:    CodeConflict,
		Message: msg,
	}
}

// ValidationError creates an [AppError] with optional per-field details.
func ValidationError(msg string, details ...FieldError) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: msg,
		Details: details,
	}
}

// # Fatal Errors

// Integrity creates an [AppError] signaling that the stored reservation data
// contradicts itself (a dangling reference, or an update that matched no
// row where one was expected).
//
// These are never retried or swallowed: the two-sided invariant has already
// been broken and continuing silently would compound the corruption.
func Integrity(msg string, cause error) *AppError {
	return &AppError{
		Code:    CodeIntegrity,
		Message: msg,
		Cause:   cause,
	}
}

// Upstream creates an [AppError] for a failure in an external collaborator
// (the shop page, the currency API).
func Upstream(msg string, cause error) *AppError {
	return &AppError{
		Code:    CodeUpstream,
		Message: msg,
		Cause:   cause,
	}
}

// Internal creates an [AppError] wrapping an unexpected server-side error.
// The cause is stored for logging but is never shown to the user.
func Internal(cause error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "An unexpected error occurred",
		Cause:   cause,
	}
}

// # Helpers

// IsAppError reports whether err (or any error in its chain) is an [*AppError].
func IsAppError(err error) bool {
	var ae *AppError
	return errors.As(err, &ae)
}

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// HasCode reports whether err is an [*AppError] carrying the given code.
func HasCode(err error, code string) bool {
	ae := As(err)
	return ae != nil && ae.Code == code
}

// UserMessage returns the chat-safe text for err. Unknown error types
// collapse into the generic internal message.
func UserMessage(err error) string {
	if ae := As(err); ae != nil {
		return ae.Message
	}
	return Internal(err).Message
}
