package common

import (
	"net/http"
)

// AppError carries a machine-readable code and an HTTP status alongside the
// underlying cause.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// Internal wraps an unexpected failure without leaking its detail to clients.
func Internal(message string, err error) *AppError {
	return NewAppError("INTERNAL", message, http.StatusInternalServerError, err)
}
