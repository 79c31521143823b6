package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents an eventrank error code.
type ErrorCode string

const (
	ErrInvalidRequest     ErrorCode = "INVALID_REQUEST"     // 400
	ErrNotFound           ErrorCode = "NOT_FOUND"           // 404
	ErrUpstreamFetch      ErrorCode = "UPSTREAM_FETCH"      // 500 (feed / classification transport)
	ErrParse              ErrorCode = "PARSE_ERROR"         // 500
	ErrConfig             ErrorCode = "CONFIG_ERROR"        // 500
	ErrRankingUnavailable ErrorCode = "RANKING_UNAVAILABLE" // non-fatal, degraded response
	ErrInternal           ErrorCode = "INTERNAL"            // 500
)

// AppError represents a structured error with code, status, and details.
type AppError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause, if any.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *AppError {
	return &AppError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing resource.
func NewNotFound(identifier string) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewUpstreamFetch creates an error for a failed call to an upstream
// service (network error or non-success status). status is the upstream
// HTTP status, or 0 when no response was received.
func NewUpstreamFetch(service string, status int, err error) *AppError {
	msg := fmt.Sprintf("%s request failed", service)
	if status != 0 {
		msg = fmt.Sprintf("%s returned %d", service, status)
	} else if err != nil {
		msg = fmt.Sprintf("%s request failed: %v", service, err)
	}
	return &AppError{
		Code:    ErrUpstreamFetch,
		Status:  500,
		Message: msg,
		Details: map[string]any{"service": service, "upstream_status": status},
		Err:     err,
	}
}

// NewParse creates an error for a response body that is not the expected shape.
func NewParse(what string, err error) *AppError {
	msg := fmt.Sprintf("unexpected %s format", what)
	if err != nil {
		msg = fmt.Sprintf("unexpected %s format: %v", what, err)
	}
	return &AppError{
		Code:    ErrParse,
		Status:  500,
		Message: msg,
		Details: map[string]any{"what": what},
		Err:     err,
	}
}

// NewConfig creates an error for a missing or invalid configuration value.
func NewConfig(setting string) *AppError {
	return &AppError{
		Code:    ErrConfig,
		Status:  500,
		Message: fmt.Sprintf("%s is not configured", setting),
		Details: map[string]any{"setting": setting},
	}
}

// NewRankingUnavailable wraps a ranking collaborator failure. Callers are
// expected to degrade rather than surface this to API consumers.
func NewRankingUnavailable(err error) *AppError {
	msg := "ranking service unavailable"
	if err != nil {
		msg = fmt.Sprintf("ranking service unavailable: %v", err)
	}
	return &AppError{
		Code:    ErrRankingUnavailable,
		Status:  503,
		Message: msg,
		Err:     err,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *AppError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &AppError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		Err:     err,
	}
}

// Is checks if err (or anything it wraps) is an AppError with the given code.
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// As returns the AppError in err's chain, if any.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
