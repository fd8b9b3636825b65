package domain

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a domain error for transport-layer mapping.
type ErrorCode string

const (
	CodeNotFound     ErrorCode = "NOT_FOUND"
	CodeValidation   ErrorCode = "VALIDATION"
	CodeInvalidState ErrorCode = "INVALID_STATE"
	CodeConflict     ErrorCode = "CONFLICT"
	CodeForbidden    ErrorCode = "FORBIDDEN"
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"
	CodeInternal     ErrorCode = "INTERNAL"
)

// Error is the closed error type returned by domain and application code.
type Error struct {
	Code    ErrorCode
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// NewNotFoundError creates an error for a missing resource.
func NewNotFoundError(resource, id string) *Error {
	return &Error{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// NewValidationError creates an error for invalid input, carrying the reason.
func NewValidationError(reason string) *Error {
	return &Error{
		Code:    CodeValidation,
		Message: reason,
	}
}

// NewInvalidStateError creates an error for an illegal state transition,
// carrying the attempted from/to states.
func NewInvalidStateError(from, to string) *Error {
	return &Error{
		Code:    CodeInvalidState,
		Message: fmt.Sprintf("invalid state transition from %s to %s", from, to),
	}
}

// NewConflictError creates an error for a scheduling or concurrency conflict.
func NewConflictError(message string) *Error {
	return &Error{
		Code:    CodeConflict,
		Message: message,
	}
}

// NewForbiddenError creates an error for an action the caller may not perform.
func NewForbiddenError(message string) *Error {
	return &Error{
		Code:    CodeForbidden,
		Message: message,
	}
}

// NewUnauthorizedError creates an error for a missing or invalid identity.
func NewUnauthorizedError(message string) *Error {
	return &Error{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

// CodeOf extracts the ErrorCode from err, or CodeInternal for foreign errors.
func CodeOf(err error) ErrorCode {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// IsNotFound reports whether err is a NOT_FOUND domain error.
func IsNotFound(err error) bool { return CodeOf(err) == CodeNotFound }

// IsValidation reports whether err is a VALIDATION domain error.
func IsValidation(err error) bool { return CodeOf(err) == CodeValidation }

// IsInvalidState reports whether err is an INVALID_STATE domain error.
func IsInvalidState(err error) bool { return CodeOf(err) == CodeInvalidState }

// IsConflict reports whether err is a CONFLICT domain error.
func IsConflict(err error) bool { return CodeOf(err) == CodeConflict }
