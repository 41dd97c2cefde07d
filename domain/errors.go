package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound        ErrorCode = "NOT_FOUND"
	ErrCodeInvalid         ErrorCode = "INVALID"
	ErrCodeConflict        ErrorCode = "CONFLICT"
	ErrCodeForbidden       ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized    ErrorCode = "UNAUTHORIZED"
	ErrCodeTooManyRequests ErrorCode = "TOO_MANY_REQUESTS"
	ErrCodeUnavailable     ErrorCode = "UNAVAILABLE"
	ErrCodeInternal        ErrorCode = "INTERNAL"
)

// Error represents a domain-level error. Details carries structured payload
// for the caller, e.g. the per-field violations of a ValidationError.
type Error struct {
	Code    ErrorCode
	Message string
	Details interface{}
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithDetails returns a copy of the error carrying the given details.
func (e *Error) WithDetails(details interface{}) *Error {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Details = details
	return &clone
}

// FieldError points at one violated rule of an input payload.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// NewValidationError builds an INVALID error listing every violated rule.
func NewValidationError(fields []FieldError) *Error {
	return &Error{
		Code:    ErrCodeInvalid,
		Message: "validation failed",
		Details: fields,
	}
}

// FieldErrors extracts the per-field violations from a validation error.
func FieldErrors(err error) []FieldError {
	var dErr *Error
	if !errors.As(err, &dErr) {
		return nil
	}
	fields, _ := dErr.Details.([]FieldError)
	return fields
}

// Common domain errors.
var (
	ErrUserNotFound    = NewError(ErrCodeNotFound, "user not found")
	ErrBuyerNotFound   = NewError(ErrCodeNotFound, "buyer not found")
	ErrReportNotFound  = NewError(ErrCodeNotFound, "import report not found")
	ErrSessionNotFound = NewError(ErrCodeNotFound, "session not found")
	ErrUnauthorized    = NewError(ErrCodeUnauthorized, "unauthorized")
	ErrInvalidPayload  = NewError(ErrCodeInvalid, "invalid payload")

	ErrStaleBuyer      = NewError(ErrCodeConflict, "Record has been modified by another user. Please refresh and try again.")
	ErrEditForbidden   = NewError(ErrCodeForbidden, "You can only edit your own buyers")
	ErrDeleteForbidden = NewError(ErrCodeForbidden, "You can only delete your own buyers")
	ErrRateLimited     = NewError(ErrCodeTooManyRequests, "too many requests, slow down")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}

// ErrorDetails returns the details attached to a domain error, if any.
func ErrorDetails(err error) interface{} {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Details
	}
	return nil
}
