package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode defines the error code type
type ErrorCode int

// System error codes
const (
	// Common error codes (1000-1999)
	ErrBadRequest         ErrorCode = 1000
	ErrUnauthorized       ErrorCode = 1001
	ErrForbidden          ErrorCode = 1002
	ErrNotFound           ErrorCode = 1003
	ErrMethodNotAllowed   ErrorCode = 1004
	ErrConflict           ErrorCode = 1005
	ErrTooManyRequests    ErrorCode = 1006
	ErrInternalServer     ErrorCode = 1007
	ErrServiceUnavailable ErrorCode = 1008
	ErrTimeout            ErrorCode = 1009
	ErrValidation         ErrorCode = 1010

	// Ingestion related error codes (3000-3099)
	ErrWikiSourceUnavailable ErrorCode = 3000
	ErrPagePermanentFailure  ErrorCode = 3001
	ErrEmbedderUnavailable   ErrorCode = 3002
	ErrBreakerOpen           ErrorCode = 3003

	// Retrieval related error codes (3100-3199)
	ErrStoreUnavailable    ErrorCode = 3100
	ErrStoreStaleConnection ErrorCode = 3101

	// Quality related error codes (3200-3299)
	ErrQualityRecomputeFailed ErrorCode = 3200

	// Lifecycle related error codes (3300-3399)
	ErrArchivalFailed ErrorCode = 3300
	ErrConflictLLMCheckFailed ErrorCode = 3301

	// Escalation related error codes (3400-3499)
	ErrOwnerLookupFailed ErrorCode = 3400

	// Orchestrator related error codes (3500-3599)
	ErrGenerationFailed ErrorCode = 3500
	ErrNoResults        ErrorCode = 3501

	// Add more error codes here
)

// AppError defines the application error structure
type AppError struct {
	Code     ErrorCode `json:"code"`
	Message  string    `json:"message"`
	Details  any       `json:"details,omitempty"`
	HTTPCode int       `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	return fmt.Sprintf("error code: %d, error message: %s", e.Code, e.Message)
}

// WithDetails adds error details
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// NewBadRequestError creates a bad request error
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:     ErrBadRequest,
		Message:  message,
		HTTPCode: http.StatusBadRequest,
	}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:     ErrUnauthorized,
		Message:  message,
		HTTPCode: http.StatusUnauthorized,
	}
}

// NewForbiddenError creates a forbidden error
func NewForbiddenError(message string) *AppError {
	return &AppError{
		Code:     ErrForbidden,
		Message:  message,
		HTTPCode: http.StatusForbidden,
	}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Code:     ErrNotFound,
		Message:  message,
		HTTPCode: http.StatusNotFound,
	}
}

// NewConflictError creates a conflict error
func NewConflictError(message string) *AppError {
	return &AppError{
		Code:     ErrConflict,
		Message:  message,
		HTTPCode: http.StatusConflict,
	}
}

// NewInternalServerError creates an internal server error
func NewInternalServerError(message string) *AppError {
	if message == "" {
		message = "internal server error"
	}
	return &AppError{
		Code:     ErrInternalServer,
		Message:  message,
		HTTPCode: http.StatusInternalServerError,
	}
}

// NewValidationError creates a validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Code:     ErrValidation,
		Message:  message,
		HTTPCode: http.StatusBadRequest,
	}
}

// NewStoreUnavailableError creates the user-visible "knowledge base
// temporarily unavailable" error (spec §7).
func NewStoreUnavailableError(message string) *AppError {
	if message == "" {
		message = "Knowledge base is temporarily unavailable."
	}
	return &AppError{
		Code:     ErrStoreUnavailable,
		Message:  message,
		HTTPCode: http.StatusServiceUnavailable,
	}
}

// NewGenerationFailedError creates the user-visible LLM-failure apology
// (spec §7 "Generation failure").
func NewGenerationFailedError(foundCount int) *AppError {
	return &AppError{
		Code: ErrGenerationFailed,
		Message: fmt.Sprintf(
			"I found %d relevant documents but couldn't generate an answer right now. Please try again later.",
			foundCount,
		),
		HTTPCode: http.StatusOK,
	}
}

// IsAppError checks if the error is an AppError type
func IsAppError(err error) (*AppError, bool) {
	appErr, ok := err.(*AppError)
	return appErr, ok
}
