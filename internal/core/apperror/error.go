// Package apperror provides structured error handling following RFC 7807 Problem Details.
// All business errors must use AppError for consistent API responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes following domain-driven design
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"
	CodeTimeout  = "TIMEOUT_ERROR"

	// Validation errors (400)
	CodeValidation   = "VALIDATION_ERROR"
	CodeInvalidInput = "INVALID_INPUT"

	// Filter compiler errors
	CodeInvalidModel         = "INVALID_MODEL"
	CodeInvalidConfiguration = "INVALID_CONFIGURATION"
	CodeRelationError        = "RELATION_ERROR"
	CodeUnknownOperator      = "UNKNOWN_OPERATOR"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"
)

// AppError is the standard error type for the platform.
// It implements error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field errors, quantities, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions for common errors ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewInvalidModel is returned when filters are applied to a model that does not
// implement the filter contract. It is a programming error, hence 500.
func NewInvalidModel(model string) *AppError {
	return &AppError{
		Code:       CodeInvalidModel,
		Message:    fmt.Sprintf("Model [%s] must implement filterable contract to use smart filter.", model),
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"model": model},
	}
}

// NewInvalidConfiguration reports an unrecognized configuration key.
func NewInvalidConfiguration(key string) *AppError {
	return &AppError{
		Code:       CodeInvalidConfiguration,
		Message:    fmt.Sprintf("Invalid configuration key [%s] in smart-filter config.", key),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"key": key},
	}
}

// NewRelationError reports a relation that cannot be filtered.
func NewRelationError(relation, message string) *AppError {
	return &AppError{
		Code:       CodeRelationError,
		Message:    fmt.Sprintf("Error filtering relation [%s]: %s", relation, message),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"relation": relation},
	}
}

// NewUnknownOperator is returned in strict mode for operators outside the dispatch table.
func NewUnknownOperator(field, operator string) *AppError {
	return &AppError{
		Code:       CodeUnknownOperator,
		Message:    fmt.Sprintf("Unknown filter operator [%s]", operator),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"field": field, "operator": operator},
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == CodeNotFound
	}
	return false
}

// IsInvalidModel checks if error is CodeInvalidModel
func IsInvalidModel(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == CodeInvalidModel
	}
	return false
}

// HasCode checks if error carries the given code
func HasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}
