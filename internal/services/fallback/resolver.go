package fallback

import (
	"context"
	"log/slog"

	"github.com/glamlens/stylist/internal/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Named is implemented by every provider adapter.
type Named interface {
	Name() string
}

// Failure records one candidate that did not produce a result.
type Failure struct {
	Provider string `json:"provider"`
	Reason   string `json:"reason"`
	Message  string `json:"message"`
}

// Report summarises one resolution.
type Report struct {
	Capability  string    `json:"capability"`
	Provider    string    `json:"provider,omitempty"`
	UsedDefault bool      `json:"usedDefault"`
	Failures    []Failure `json:"failures,omitempty"`
}

// Attempts is the number of candidates that were invoked.
func (r Report) Attempts() int {
	n := len(r.Failures)
	if !r.UsedDefault && r.Provider != "" {
		n++
	}
	return n
}

// Resolve invokes candidates in order and returns the first success. Each
// candidate is attempted exactly once with no backoff. When every candidate
// fails, or there are none, the static default from fallback is returned and
// the report lists every failure with its classified reason.
func Resolve[P Named, T any](
	ctx context.Context,
	capability string,
	candidates []P,
	call func(context.Context, P) (T, error),
	fallback func() T,
) (T, Report) {
	report := Report{Capability: capability}

	for i, p := range candidates {
		result, err := call(ctx, p)
		if err == nil {
			report.Provider = p.Name()
			if len(report.Failures) > 0 {
				slog.InfoContext(ctx, "Fallback provider succeeded",
					"capability", capability,
					"provider", p.Name(),
					"failed_attempts", len(report.Failures))
			}
			return result, report
		}

		providerErr := ClassifyError(err, p.Name())
		report.Failures = append(report.Failures, Failure{
			Provider: p.Name(),
			Reason:   providerErr.Type,
			Message:  providerErr.Message,
		})

		next := "default"
		if i+1 < len(candidates) {
			next = candidates[i+1].Name()
		}

		slog.WarnContext(ctx, "Provider failed, falling back",
			"capability", capability,
			"provider", p.Name(),
			"next", next,
			"error_type", providerErr.Type,
			"error", err.Error())

		metrics.ProviderFallbackTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("capability", capability),
			attribute.String("from_provider", p.Name()),
			attribute.String("to_provider", next),
			attribute.String("reason", providerErr.Type),
		))
	}

	report.UsedDefault = true
	metrics.DefaultResultTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("capability", capability),
	))
	slog.ErrorContext(ctx, "All providers failed, returning static default",
		"capability", capability,
		"candidates", len(candidates))

	return fallback(), report
}
