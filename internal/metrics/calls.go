package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// RecordExternalCall records the count and latency of one AI vendor round trip.
func RecordExternalCall(ctx context.Context, provider, capability string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("capability", capability),
		attribute.String("status", status),
	)
	AIGenerationDuration.Record(ctx, duration, attrs)
	ExternalAPIDuration.Record(ctx, duration, attrs)
	ExternalAPICallsTotal.Add(ctx, 1, attrs)
}
