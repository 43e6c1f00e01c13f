package errors

import (
	"fmt"
	"net/http"
)

// Error codes used across the API and the realtime gateway.
const (
	CodeUnauthenticated    = "UNAUTHENTICATED"
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeNotFound           = "NOT_FOUND"
	CodePersistenceFailure = "PERSISTENCE_FAILURE"
	CodeRateLimited        = "RATE_LIMIT_EXCEEDED"
)

// AppError represents an application error with HTTP status code and error code
type AppError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// NewError creates a new application error
func NewError(statusCode int, code string, message string) *AppError {
	return &AppError{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
	}
}

// NewUnauthenticatedError creates a 401 error
func NewUnauthenticatedError(message string) *AppError {
	return NewError(http.StatusUnauthorized, CodeUnauthenticated, message)
}

// NewInvalidRequestError creates a 400 error
func NewInvalidRequestError(message string) *AppError {
	return NewError(http.StatusBadRequest, CodeInvalidRequest, message)
}

// NewNotFoundError creates a 404 error
func NewNotFoundError(message string) *AppError {
	return NewError(http.StatusNotFound, CodeNotFound, message)
}

// NewPersistenceError creates a 500 error
func NewPersistenceError(message string) *AppError {
	return NewError(http.StatusInternalServerError, CodePersistenceFailure, message)
}

// NewRateLimitedError creates a 429 error
func NewRateLimitedError(message string) *AppError {
	return NewError(http.StatusTooManyRequests, CodeRateLimited, message)
}

// Is checks if the target error is of type AppError with the same code
func Is(err error, target *AppError) bool {
	appErr, ok := err.(*AppError)
	if !ok {
		return false
	}
	return appErr.Code == target.Code
}
