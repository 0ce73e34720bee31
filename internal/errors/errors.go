// Package errors provides standardized domain errors with codes for the AnonVerse client core.
//
// Usage:
//
//	// In services - return typed errors
//	if viewer == nil {
//	    return errors.Forbidden("sign in to like poems")
//	}
//
//	// In callers - check with errors.Is
//	if errors.Is(err, errors.ErrUniqueViolation) {
//	    // already liked, treat as success
//	}
package errors

import (
	"errors"
	"fmt"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the client core.
const (
	// Auth errors.
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeUnconfirmedAccount Code = "UNCONFIRMED_ACCOUNT"
	CodeDeliveryError      Code = "DELIVERY_ERROR"

	// Data errors.
	CodeFetchError      Code = "FETCH_ERROR"
	CodeUniqueViolation Code = "UNIQUE_VIOLATION"
	CodeValidation      Code = "VALIDATION"
	CodeNotFound        Code = "NOT_FOUND"
	CodeAlreadyExists   Code = "ALREADY_EXISTS"

	// Policy errors.
	CodeForbidden        Code = "FORBIDDEN"
	CodeInvalidOperation Code = "INVALID_OPERATION"

	CodeInternal Code = "INTERNAL"
)

// IsAuth reports whether the code belongs to the authentication family.
func (c Code) IsAuth() bool {
	switch c {
	case CodeInvalidCredentials, CodeUnconfirmedAccount, CodeDeliveryError:
		return true
	default:
		return false
	}
}

// IsPolicy reports whether the code belongs to the policy family.
// Policy errors are prevented proactively by the capability gate and are
// treated as silent no-ops when they slip through a tier-change race.
func (c Code) IsPolicy() bool {
	return c == CodeForbidden || c == CodeInvalidOperation
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error  // unexported, for wrapping
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// WithDetails returns a new error with additional details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		cause:   e.cause,
	}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		cause:   err,
	}
}

// Sentinel errors for use with errors.Is().
var (
	ErrInvalidCredentials = &Error{Code: CodeInvalidCredentials, Message: "invalid credentials"}
	ErrUnconfirmedAccount = &Error{Code: CodeUnconfirmedAccount, Message: "account not confirmed"}
	ErrDeliveryError      = &Error{Code: CodeDeliveryError, Message: "delivery failed"}
	ErrFetchError         = &Error{Code: CodeFetchError, Message: "fetch failed"}
	ErrUniqueViolation    = &Error{Code: CodeUniqueViolation, Message: "unique violation"}
	ErrValidation         = &Error{Code: CodeValidation, Message: "validation error"}
	ErrNotFound           = &Error{Code: CodeNotFound, Message: "not found"}
	ErrAlreadyExists      = &Error{Code: CodeAlreadyExists, Message: "already exists"}
	ErrForbidden          = &Error{Code: CodeForbidden, Message: "forbidden"}
	ErrInvalidOperation   = &Error{Code: CodeInvalidOperation, Message: "invalid operation"}
	ErrInternal           = &Error{Code: CodeInternal, Message: "internal error"}
)

// Constructor functions for creating errors with custom messages.

// InvalidCredentials creates an invalid credentials error.
func InvalidCredentials(msg string) *Error {
	return &Error{Code: CodeInvalidCredentials, Message: msg}
}

// UnconfirmedAccount creates an unconfirmed account error.
func UnconfirmedAccount(msg string) *Error {
	return &Error{Code: CodeUnconfirmedAccount, Message: msg}
}

// Delivery creates a delivery error.
func Delivery(msg string) *Error {
	return &Error{Code: CodeDeliveryError, Message: msg}
}

// Fetch creates a fetch error.
func Fetch(msg string) *Error {
	return &Error{Code: CodeFetchError, Message: msg}
}

// Fetchf creates a fetch error with formatted message.
func Fetchf(format string, args ...any) *Error {
	return &Error{Code: CodeFetchError, Message: fmt.Sprintf(format, args...)}
}

// UniqueViolation creates a unique violation error.
func UniqueViolation(msg string) *Error {
	return &Error{Code: CodeUniqueViolation, Message: msg}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// AlreadyExists creates an already exists error.
func AlreadyExists(msg string) *Error {
	return &Error{Code: CodeAlreadyExists, Message: msg}
}

// Forbidden creates a forbidden error.
func Forbidden(msg string) *Error {
	return &Error{Code: CodeForbidden, Message: msg}
}

// Forbiddenf creates a forbidden error with formatted message.
func Forbiddenf(format string, args ...any) *Error {
	return &Error{Code: CodeForbidden, Message: fmt.Sprintf(format, args...)}
}

// InvalidOperation creates an invalid operation error.
func InvalidOperation(msg string) *Error {
	return &Error{Code: CodeInvalidOperation, Message: msg}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}
