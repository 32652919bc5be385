package errors

import (
	"net/http"

	"arcana/internal/errors"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() string   // Detailed error information (optional)
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   string
}

// NewBaseError creates a new base error
func NewBaseError(httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	return e.message
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// WithDetails returns a copy of the error carrying detailed information
func (e *BaseError) WithDetails(details string) *BaseError {
	return &BaseError{
		httpCode:  e.httpCode,
		errorCode: e.errorCode,
		message:   e.message,
		details:   details,
	}
}

// Core taxonomy. Every error leaving a usecase wraps one of these so the
// delivery layer can map it to a transport status without string matching.
var (
	ErrValidation = NewBaseError(
		http.StatusBadRequest,
		"VALIDATION_ERROR",
		"invalid input",
		"",
	)

	ErrUnauthorized = NewBaseError(
		http.StatusUnauthorized,
		"UNAUTHORIZED",
		"authentication required or credentials invalid",
		"",
	)

	ErrForbidden = NewBaseError(
		http.StatusForbidden,
		"FORBIDDEN",
		"access denied",
		"",
	)

	ErrNotFound = NewBaseError(
		http.StatusNotFound,
		"NOT_FOUND",
		"resource not found",
		"",
	)

	ErrConflict = NewBaseError(
		http.StatusConflict,
		"CONFLICT",
		"resource already exists",
		"",
	)

	ErrTooManyRequests = NewBaseError(
		http.StatusTooManyRequests,
		"TOO_MANY_REQUESTS",
		"rate limit exceeded",
		"",
	)

	ErrInternal = NewBaseError(
		http.StatusInternalServerError,
		"INTERNAL_ERROR",
		"internal server error",
		"",
	)
)

// OAuth token endpoint errors. Codes follow RFC 6749 naming so the token
// handler can emit them verbatim as the "error" field.
var (
	ErrInvalidClient = NewBaseError(
		http.StatusUnauthorized,
		"invalid_client",
		"client authentication failed",
		"",
	)

	ErrInvalidScope = NewBaseError(
		http.StatusBadRequest,
		"invalid_scope",
		"requested scope is invalid or not authorized",
		"",
	)

	ErrInvalidGrant = NewBaseError(
		http.StatusBadRequest,
		"invalid_grant",
		"grant is invalid or expired",
		"",
	)

	ErrInvalidRequest = NewBaseError(
		http.StatusBadRequest,
		"invalid_request",
		"request is missing a required parameter",
		"",
	)

	ErrUnsupportedGrantType = NewBaseError(
		http.StatusBadRequest,
		"unsupported_grant_type",
		"grant type is not supported",
		"",
	)
)
