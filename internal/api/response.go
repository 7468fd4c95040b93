package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	apperrors "github.com/glamlens/stylist/internal/errors"
	"github.com/glamlens/stylist/internal/logger"
)

// Envelope wraps every JSON response.
type Envelope struct {
	Success   bool         `json:"success"`
	Data      any          `json:"data"`
	Message   string       `json:"message,omitempty"`
	Errors    []ErrorEntry `json:"errors,omitempty"`
	Timestamp string       `json:"timestamp"`
}

type ErrorEntry struct {
	Type       string `json:"type"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Suggestion string `json:"recoverySuggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, env Envelope) {
	env.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func respondOK(w http.ResponseWriter, data any, message string) {
	writeJSON(w, http.StatusOK, Envelope{Success: true, Data: data, Message: message})
}

// respondError maps err onto the envelope. Anything that is not an
// AppError is reported as an internal error without its details.
func respondError(w http.ResponseWriter, r *http.Request, message string, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.NewInternalError(message, err)
	}

	attrs := []any{
		"method", r.Method,
		"path", r.URL.Path,
		"status", appErr.StatusCode,
		"code", appErr.Code(),
		"error", err,
		logger.WithTraceContext(r.Context()),
	}
	if appErr.StatusCode >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), message, attrs...)
	} else {
		slog.InfoContext(r.Context(), message, attrs...)
	}

	entry := ErrorEntry{
		Type:       string(appErr.Type),
		Code:       appErr.Code(),
		Message:    appErr.Message,
		Suggestion: appErr.RecoverySuggestion(),
	}
	if appErr.Type == apperrors.ErrorTypeInternal {
		entry.Message = message
	}

	writeJSON(w, appErr.StatusCode, Envelope{
		Success: false,
		Message: message,
		Errors:  []ErrorEntry{entry},
	})
}

func badRequest(w http.ResponseWriter, r *http.Request, message, code string) {
	respondError(w, r, message, apperrors.NewValidationError(message, code, ""))
}

// maxJSONBodyBytes caps request bodies that carry no image.
const maxJSONBodyBytes = 64 << 10

// decodeBody decodes an optional JSON body of at most maxJSONBodyBytes. An
// empty body leaves dst as is.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	return decodeBodyLimit(w, r, dst, maxJSONBodyBytes)
}

func decodeBodyLimit(w http.ResponseWriter, r *http.Request, dst any, limit int64) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperrors.NewValidationError("Request body is too large", "BODY_TOO_LARGE",
				"Send a smaller request body; resize large photos before uploading.")
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperrors.NewValidationError("Invalid request body", "INVALID_BODY", "Send a JSON object.")
	}
	return nil
}
