package sentry

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sentrygo "github.com/getsentry/sentry-go"
	apperrors "github.com/glamlens/stylist/internal/errors"
)

func TestHTTPMiddleware_RecoversPanic(t *testing.T) {
	handler := HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/api/user/profile", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"success":false`) {
		t.Errorf("expected JSON error body, got %q", rr.Body.String())
	}
}

func TestHTTPMiddleware_KeepsWrittenStatus(t *testing.T) {
	handler := HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		panic("late")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

	if rr.Code != http.StatusAccepted {
		t.Errorf("expected status %d, got %d", http.StatusAccepted, rr.Code)
	}
}

func TestInit_EmptyDSN(t *testing.T) {
	if err := Init("", "test", "svc", "1.0.0"); err != nil {
		t.Errorf("expected nil error for empty DSN, got %v", err)
	}
}

func TestDropClientErrors(t *testing.T) {
	event := &sentrygo.Event{Message: "x"}

	validation := apperrors.NewValidationError("bad", "BAD", "")
	if got := dropClientErrors(event, &sentrygo.EventHint{OriginalException: validation}); got != nil {
		t.Error("expected validation errors to be dropped")
	}

	store := apperrors.NewStoreError("down", "STORE_UNAVAILABLE", nil)
	if got := dropClientErrors(event, &sentrygo.EventHint{OriginalException: store}); got != event {
		t.Error("expected store errors to be reported")
	}

	if got := dropClientErrors(event, nil); got != event {
		t.Error("expected events without a hint to be reported")
	}
}
