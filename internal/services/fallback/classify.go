package fallback

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/glamlens/stylist/internal/errors"
	"github.com/sashabaranov/go-openai"
)

// Failure reasons recorded on fallback metrics and reports.
const (
	ReasonRateLimit       = "rate_limit"
	ReasonCreditExhausted = "credit_exhausted"
	ReasonServerError     = "server_error"
	ReasonClientError     = "client_error"
	ReasonTimeout         = "timeout"
	ReasonCancelled       = "cancelled"
	ReasonInvalidResponse = "invalid_response"
	ReasonUnknown         = "unknown"
)

// ProviderError represents a classified error from an AI provider
type ProviderError struct {
	Type     string
	Message  string
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ClassifyError analyzes an error and returns a ProviderError with classification.
// Typed vendor errors are checked before falling back to message matching.
func ClassifyError(err error, provider string) *ProviderError {
	if err == nil {
		return nil
	}

	classified := func(t string) *ProviderError {
		return &ProviderError{Type: t, Message: err.Error(), Provider: provider, Err: err}
	}

	if stderrors.Is(err, context.DeadlineExceeded) {
		return classified(ReasonTimeout)
	}
	if stderrors.Is(err, context.Canceled) {
		return classified(ReasonCancelled)
	}

	var apiErr *openai.APIError
	if stderrors.As(err, &apiErr) {
		return classified(classifyStatus(apiErr.HTTPStatusCode))
	}
	var reqErr *openai.RequestError
	if stderrors.As(err, &reqErr) {
		return classified(classifyStatus(reqErr.HTTPStatusCode))
	}
	var anthropicErr *anthropic.Error
	if stderrors.As(err, &anthropicErr) {
		return classified(classifyStatus(anthropicErr.StatusCode))
	}

	if appErr, ok := errors.As(err); ok {
		if appErr.Type == errors.ErrorTypeProviderResponseInvalid {
			return classified(ReasonInvalidResponse)
		}
		// A wrapped status text is more specific than the AppError's own code.
		if t := classifyMessage(err.Error()); t != ReasonUnknown {
			return classified(t)
		}
		if appErr.StatusCode >= 400 {
			return classified(classifyStatus(appErr.StatusCode))
		}
	}

	return classified(classifyMessage(err.Error()))
}

func classifyStatus(status int) string {
	switch {
	case status == 429:
		return ReasonRateLimit
	case status == 402:
		return ReasonCreditExhausted
	case status >= 500:
		return ReasonServerError
	case status >= 400:
		return ReasonClientError
	default:
		return ReasonUnknown
	}
}

func classifyMessage(msg string) string {
	switch {
	case containsAny(msg, "status 429", "HTTP 429", "rate limit", "too many requests"):
		return ReasonRateLimit
	case containsAny(msg, "status 402", "HTTP 402", "insufficient credit", "credit exhausted", "billing", "quota"):
		return ReasonCreditExhausted
	case containsAny(msg, "timeout", "deadline exceeded"):
		return ReasonTimeout
	case containsAny(msg, "context canceled"):
		return ReasonCancelled
	case containsAny(msg, "status 5", "HTTP 5", "server error", "internal error", "overloaded"):
		return ReasonServerError
	case containsAny(msg, "status 4", "HTTP 4", "bad request", "unauthorized", "forbidden"):
		return ReasonClientError
	default:
		return ReasonUnknown
	}
}

// containsAny checks if s contains any of the substrings (case-insensitive)
func containsAny(s string, substrs ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range substrs {
		if strings.Contains(lower, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}
