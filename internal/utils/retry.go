package utils

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"time"

	apperrors "github.com/glamlens/stylist/internal/errors"
)

// RetryConfig controls WithRetry. It is used for dialing backing stores at
// startup; provider calls on the request path are never retried.
type RetryConfig struct {
	Name            string
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffFactor   float64
	Timeout         time.Duration
	RetryableErrors []string
}

type RetryableFunc[T any] func(ctx context.Context) (T, error)

// ConnectRetryConfig suits waiting for Redis, Mongo or Postgres to accept
// connections while containers start.
func ConnectRetryConfig(name string) RetryConfig {
	return RetryConfig{
		Name:          name,
		MaxAttempts:   5,
		InitialDelay:  500 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
		Timeout:       10 * time.Second,
		RetryableErrors: []string{
			"timeout",
			"connection reset",
			"connection refused",
			"no such host",
			"server selection",
			"i/o timeout",
			"eof",
			"the database system is starting up",
		},
	}
}

// IsRetryableError reports whether err matches one of patterns or is an
// AppError flagged as retryable.
func IsRetryableError(err error, patterns []string) bool {
	if err == nil {
		return false
	}
	if appErr, ok := apperrors.As(err); ok && appErr.IsRetryable() {
		return true
	}
	errMsg := strings.ToLower(err.Error())
	for _, pattern := range patterns {
		if strings.Contains(errMsg, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}

// WithRetry runs operation until it succeeds, returns a non-retryable
// error or runs out of attempts. Each attempt gets its own timeout.
func WithRetry[T any](ctx context.Context, operation RetryableFunc[T], config RetryConfig) (T, error) {
	var lastErr error
	var zero T

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, config.Timeout)
		result, err := operation(attemptCtx)
		cancel()

		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == config.MaxAttempts || !IsRetryableError(err, config.RetryableErrors) {
			break
		}

		delay := time.Duration(float64(config.InitialDelay) * math.Pow(config.BackoffFactor, float64(attempt-1)))
		if delay > config.MaxDelay {
			delay = config.MaxDelay
		}
		if jitterRange := int64(delay) / 10; jitterRange > 0 {
			delay += time.Duration(rand.Int63n(jitterRange))
		}

		slog.Warn("Retrying after error",
			"operation", config.Name,
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}

	return zero, lastErr
}
