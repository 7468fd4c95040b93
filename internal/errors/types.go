package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorType defines the category of the error
type ErrorType string

const (
	ErrorTypeValidation              ErrorType = "VALIDATION_ERROR"
	ErrorTypeProviderResponseInvalid ErrorType = "PROVIDER_RESPONSE_INVALID"
	ErrorTypeProviderUnreachable     ErrorType = "PROVIDER_UNREACHABLE"
	ErrorTypeEntitlementDenied       ErrorType = "ENTITLEMENT_DENIED"
	ErrorTypeStoreUnavailable        ErrorType = "STORE_UNAVAILABLE"
	ErrorTypeUnauthorized            ErrorType = "UNAUTHORIZED"
	ErrorTypeNotFound                ErrorType = "NOT_FOUND_ERROR"
	ErrorTypeInternal                ErrorType = "INTERNAL_ERROR"
)

// AppError represents a structured error for the application
type AppError struct {
	Type          ErrorType `json:"type"`
	Message       string    `json:"message"`
	StatusCode    int       `json:"statusCode"`
	ErrorCode     string    `json:"errorCode"`
	IsOperational bool      `json:"isOperational"`
	Recovery      string    `json:"recoverySuggestion,omitempty"`
	Err           error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the underlying cause to errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Code returns the application-specific error code
func (e *AppError) Code() string {
	return e.ErrorCode
}

// RecoverySuggestion returns the suggestion on how to recover from the error
func (e *AppError) RecoverySuggestion() string {
	return e.Recovery
}

// IsRecoverable reports whether the orchestrator may degrade to a static
// default instead of failing the request.
func (e *AppError) IsRecoverable() bool {
	switch e.Type {
	case ErrorTypeProviderResponseInvalid, ErrorTypeProviderUnreachable:
		return true
	default:
		return false
	}
}

// IsRetryable determines if the operation that caused the error should be retried
func (e *AppError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeProviderUnreachable, ErrorTypeStoreUnavailable:
		return true
	case ErrorTypeProviderResponseInvalid:
		return e.StatusCode >= 500
	default:
		return false
	}
}

// As returns the first *AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType reports whether err carries an AppError of the given type.
func IsType(err error, t ErrorType) bool {
	appErr, ok := As(err)
	return ok && appErr.Type == t
}

// NewValidationError creates a new validation error (400)
func NewValidationError(message string, errorCode string, suggestion string) *AppError {
	return &AppError{
		Type:          ErrorTypeValidation,
		Message:       message,
		StatusCode:    http.StatusBadRequest,
		ErrorCode:     errorCode,
		IsOperational: true,
		Recovery:      suggestion,
	}
}

// NewNotFoundError creates a new not found error (404)
func NewNotFoundError(message string, errorCode string, suggestion string) *AppError {
	return &AppError{
		Type:          ErrorTypeNotFound,
		Message:       message,
		StatusCode:    http.StatusNotFound,
		ErrorCode:     errorCode,
		IsOperational: true,
		Recovery:      suggestion,
	}
}

// NewUnauthorizedError creates a new unauthorized error (401)
func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Type:          ErrorTypeUnauthorized,
		Message:       message,
		StatusCode:    http.StatusUnauthorized,
		ErrorCode:     "UNAUTHORIZED",
		IsOperational: true,
		Recovery:      "Sign in again and retry with a valid bearer token.",
	}
}

// NewEntitlementError creates a new entitlement error (403). The required
// plan is included in the recovery suggestion.
func NewEntitlementError(message string, errorCode string, requiredPlan string) *AppError {
	return &AppError{
		Type:          ErrorTypeEntitlementDenied,
		Message:       message,
		StatusCode:    http.StatusForbidden,
		ErrorCode:     errorCode,
		IsOperational: true,
		Recovery:      fmt.Sprintf("Upgrade to the %s plan to use this feature.", requiredPlan),
	}
}

// NewProviderResponseError creates an error for a provider that answered
// with something that could not be parsed into the expected shape (502).
func NewProviderResponseError(message string, errorCode string, err error) *AppError {
	return &AppError{
		Type:          ErrorTypeProviderResponseInvalid,
		Message:       message,
		StatusCode:    http.StatusBadGateway,
		ErrorCode:     errorCode,
		IsOperational: true,
		Recovery:      "The provider returned an unexpected response; another provider will be tried.",
		Err:           err,
	}
}

// NewProviderUnreachableError creates an error for a provider that could
// not be reached or answered with a failure status (503).
func NewProviderUnreachableError(message string, errorCode string, err error) *AppError {
	return &AppError{
		Type:          ErrorTypeProviderUnreachable,
		Message:       message,
		StatusCode:    http.StatusServiceUnavailable,
		ErrorCode:     errorCode,
		IsOperational: true,
		Recovery:      "Wait for the service to be available and try again.",
		Err:           err,
	}
}

// NewStoreError creates a document store error (500)
func NewStoreError(message string, errorCode string, err error) *AppError {
	return &AppError{
		Type:          ErrorTypeStoreUnavailable,
		Message:       message,
		StatusCode:    http.StatusInternalServerError,
		ErrorCode:     errorCode,
		IsOperational: true,
		Recovery:      "Try again later.",
		Err:           err,
	}
}

// NewInternalError creates a new internal error (500)
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Type:          ErrorTypeInternal,
		Message:       message,
		StatusCode:    http.StatusInternalServerError,
		ErrorCode:     "INTERNAL_ERROR",
		IsOperational: false,
		Err:           err,
	}
}
