package errs

import (
	"errors"
	"fmt"
)

// Error is the structured error type for docsift.
// It carries enough context for callers to distinguish "no results"
// from "retrieval broke" and to decide whether a retry makes sense.
type Error struct {
	// Code is the unique error code (e.g., "ERR_301_EMBEDDER_UNAVAILABLE").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, Index, External, ...).
	Category Category

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a new Error with the given code and message.
// The category is derived from the code.
func New(code string, message string, cause error) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates an Error from an existing error.
// The wrapped error's message becomes the Error message.
func Wrap(code string, err error) *Error {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration error.
// Configuration errors fail fast; docsift never silently clamps bad values.
func ConfigError(message string) *Error {
	return New(ErrCodeConfigInvalid, message, nil)
}

// ValidationError creates an input validation error.
func ValidationError(message string) *Error {
	return New(ErrCodeInvalidInput, message, nil)
}

// External creates an external service error for a failed call to the
// embedding provider or vector store. Service and operation are recorded
// so the caller can decide on retry; the core itself never retries.
func External(code string, service, op string, cause error) *Error {
	e := New(code, fmt.Sprintf("%s: %s failed", service, op), cause)
	return e.WithDetail("service", service).WithDetail("operation", op)
}

// IsExternal reports whether err (or anything it wraps) is an external
// service error.
func IsExternal(err error) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Category == CategoryExternal
	}
	return false
}

// GetCode extracts the error code from an Error.
// Returns empty string if err is not an Error.
func GetCode(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
