// Package errors defines the service error taxonomy shared by handlers and
// middleware. Every error carries a stable code, an HTTP status and optional
// structured details.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies an error category in API responses.
type Code string

const (
	CodeInvalidInput      Code = "invalid_input"
	CodeUnauthorized      Code = "unauthorized"
	CodeInvalidToken      Code = "invalid_token"
	CodeForbidden         Code = "forbidden"
	CodeNotFound          Code = "not_found"
	CodeConflict          Code = "conflict"
	CodeRateLimited       Code = "rate_limited"
	CodeInternal          Code = "internal_error"
	CodeDependencyFailure Code = "dependency_failure"
)

// ServiceError is the canonical error type returned by the API layer.
type ServiceError struct {
	Code       Code
	Message    string
	HTTPStatus int
	Details    map[string]interface{}
	cause      error
}

func (e *ServiceError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *ServiceError) Unwrap() error { return e.cause }

// WithDetails attaches a key/value pair and returns the error for chaining.
func (e *ServiceError) WithDetails(key string, value interface{}) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func newError(code Code, status int, message string, cause error) *ServiceError {
	return &ServiceError{Code: code, Message: message, HTTPStatus: status, cause: cause}
}

// InvalidInput reports a validation failure.
func InvalidInput(message string) *ServiceError {
	return newError(CodeInvalidInput, http.StatusBadRequest, message, nil)
}

// Unauthorized reports a missing or failed authentication.
func Unauthorized(message string) *ServiceError {
	if message == "" {
		message = "Authentication required"
	}
	return newError(CodeUnauthorized, http.StatusUnauthorized, message, nil)
}

// InvalidToken reports a token that failed validation.
func InvalidToken(cause error) *ServiceError {
	return newError(CodeInvalidToken, http.StatusUnauthorized, "Invalid or expired token", cause)
}

// Forbidden reports an authenticated caller lacking permission.
func Forbidden(message string) *ServiceError {
	if message == "" {
		message = "Operation not permitted"
	}
	return newError(CodeForbidden, http.StatusForbidden, message, nil)
}

// NotFound reports a missing resource.
func NotFound(resource string) *ServiceError {
	return newError(CodeNotFound, http.StatusNotFound, resource+" not found", nil)
}

// Conflict reports a state conflict such as a uniqueness violation.
func Conflict(message string) *ServiceError {
	return newError(CodeConflict, http.StatusConflict, message, nil)
}

// RateLimitExceeded reports that the caller exceeded the request budget.
func RateLimitExceeded(limit int, window string) *ServiceError {
	e := newError(CodeRateLimited, http.StatusTooManyRequests, "Rate limit exceeded", nil)
	return e.WithDetails("limit", limit).WithDetails("window", window)
}

// Internal wraps an unexpected failure.
func Internal(message string, cause error) *ServiceError {
	if message == "" {
		message = "Internal server error"
	}
	return newError(CodeInternal, http.StatusInternalServerError, message, cause)
}

// Dependency reports a failure in an external dependency (database, cache,
// blob storage).
func Dependency(name string, cause error) *ServiceError {
	e := newError(CodeDependencyFailure, http.StatusServiceUnavailable, "Dependency unavailable", cause)
	return e.WithDetails("dependency", name)
}

// GetServiceError extracts a ServiceError from an error chain, or nil.
func GetServiceError(err error) *ServiceError {
	var se *ServiceError
	if errors.As(err, &se) {
		return se
	}
	return nil
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	se := GetServiceError(err)
	return se != nil && se.Code == code
}
