// Package errors provides structured error types for inkpanel.
//
// Every failure in the render pipeline belongs to one of a small number of
// categories, and the category decides where the failure is recovered:
//
//   - TRANSPORT: network failures and timeouts. Recovered by source adapters
//     through the value cache.
//   - SCHEMA: a transport-successful response with an unexpected shape.
//     Recovered exactly like TRANSPORT.
//   - CACHE_MISS: no cached fallback exists. Surfaces as an unavailable field.
//   - RENDER: a single draw command failed. Recovered by the compositor,
//     which skips the command.
//   - FATAL: anything that escapes the above. Only FATAL errors reach the
//     orchestrator, which turns them into the error panel.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeSchema, "missing field %q", "c")
//	if errors.Is(err, errors.ErrCodeSchema) {
//	    // fall back to the cache
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeTransport, origErr, "fetch %s", url)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Source errors, recovered by adapters
	ErrCodeTransport Code = "TRANSPORT"
	ErrCodeSchema    Code = "SCHEMA"
	ErrCodeCacheMiss Code = "CACHE_MISS"

	// Drawing errors, recovered by the compositor
	ErrCodeRender Code = "RENDER"

	// Unrecoverable errors, handled by the orchestrator
	ErrCodeFatal Code = "FATAL"
	ErrCodeBusy  Code = "BUSY"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// Recoverable reports whether err is one of the categories that source
// adapters recover from locally (TRANSPORT or SCHEMA).
func Recoverable(err error) bool {
	switch GetCode(err) {
	case ErrCodeTransport, ErrCodeSchema:
		return true
	}
	return false
}

// Fatal wraps err as a FATAL error unless it already carries a code.
func Fatal(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	if GetCode(err) == ErrCodeFatal {
		return err
	}
	return Wrap(ErrCodeFatal, err, format, args...)
}
