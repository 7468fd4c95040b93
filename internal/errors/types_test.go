package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	err := &AppError{
		Message: "something went wrong",
	}
	if err.Error() != "something went wrong" {
		t.Errorf("expected 'something went wrong', got %v", err.Error())
	}

	wrappedErr := errors.New("underlying error")
	errWithWrap := &AppError{
		Message: "failed operation",
		Err:     wrappedErr,
	}
	expected := "failed operation: underlying error"
	if errWithWrap.Error() != expected {
		t.Errorf("expected %q, got %q", expected, errWithWrap.Error())
	}
}

func TestAppError_Code(t *testing.T) {
	err := &AppError{
		ErrorCode: "ERR_CODE_123",
	}
	if err.Code() != "ERR_CODE_123" {
		t.Errorf("expected ERR_CODE_123, got %v", err.Code())
	}
}

func TestAppError_IsRecoverable(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want bool
	}{
		{"invalid provider response", NewProviderResponseError("bad json", "X", nil), true},
		{"unreachable provider", NewProviderUnreachableError("down", "X", nil), true},
		{"entitlement", NewEntitlementError("nope", "X", "premium"), false},
		{"store", NewStoreError("db down", "X", nil), false},
		{"validation", NewValidationError("bad", "X", ""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.IsRecoverable(); got != tt.want {
				t.Errorf("AppError.IsRecoverable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppError_IsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want bool
	}{
		{
			name: "unreachable provider is retryable",
			err: &AppError{
				Type:       ErrorTypeProviderUnreachable,
				StatusCode: http.StatusServiceUnavailable,
			},
			want: true,
		},
		{
			name: "validation error is not retryable",
			err: &AppError{
				Type:       ErrorTypeValidation,
				StatusCode: http.StatusBadRequest,
			},
			want: false,
		},
		{
			name: "502 invalid provider response is retryable",
			err: &AppError{
				Type:       ErrorTypeProviderResponseInvalid,
				StatusCode: http.StatusBadGateway,
			},
			want: true,
		},
		{
			name: "404 not found is not retryable",
			err: &AppError{
				Type:       ErrorTypeNotFound,
				StatusCode: http.StatusNotFound,
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.IsRetryable(); got != tt.want {
				t.Errorf("AppError.IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("invalid input", "VALIDATION_FAILED", "Check your fields")
	if err.Type != ErrorTypeValidation {
		t.Errorf("expected TypeValidation, got %v", err.Type)
	}
	if err.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err.StatusCode)
	}
	if err.RecoverySuggestion() != "Check your fields" {
		t.Errorf("expected 'Check your fields', got %v", err.RecoverySuggestion())
	}
}

func TestNewEntitlementError(t *testing.T) {
	err := NewEntitlementError("nail art requires premium", "NAIL_ART_REQUIRES_PREMIUM", "premium")
	if err.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403, got %v", err.StatusCode)
	}
	if err.RecoverySuggestion() != "Upgrade to the premium plan to use this feature." {
		t.Errorf("unexpected suggestion %q", err.RecoverySuggestion())
	}
}

func TestNewStoreError(t *testing.T) {
	underlying := errors.New("connection refused")
	err := NewStoreError("could not load session", "SESSION_LOAD_FAILED", underlying)
	if err.Type != ErrorTypeStoreUnavailable {
		t.Errorf("expected TypeStoreUnavailable, got %v", err.Type)
	}
	if err.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected 500, got %v", err.StatusCode)
	}
	if !errors.Is(err, underlying) {
		t.Error("underlying error not correctly wrapped")
	}
}

func TestAsAndIsType(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", NewNotFoundError("session not found", "SESSION_NOT_FOUND", ""))

	appErr, ok := As(wrapped)
	if !ok {
		t.Fatal("expected AppError in chain")
	}
	if appErr.Code() != "SESSION_NOT_FOUND" {
		t.Errorf("expected SESSION_NOT_FOUND, got %s", appErr.Code())
	}
	if !IsType(wrapped, ErrorTypeNotFound) {
		t.Error("expected IsType to match NOT_FOUND_ERROR")
	}
	if IsType(errors.New("plain"), ErrorTypeNotFound) {
		t.Error("plain error must not match")
	}
}
