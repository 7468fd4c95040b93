package metrics

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

var (
	meter = otel.Meter("glamlens/business")

	// Pipeline metrics
	AnalysisRequestsTotal       metric.Int64Counter
	RecommendationRequestsTotal metric.Int64Counter
	PipelineDuration            metric.Float64Histogram

	// Cache metrics
	CacheLookupsTotal metric.Int64Counter

	// External API metrics
	ExternalAPICallsTotal metric.Int64Counter
	ExternalAPIDuration   metric.Float64Histogram

	// AI metrics
	AIGenerationDuration metric.Float64Histogram

	// Provider fallback metrics
	ProviderFallbackTotal metric.Int64Counter
	DefaultResultTotal    metric.Int64Counter

	// Entitlement metrics
	EntitlementDeniedTotal metric.Int64Counter
)

// The instruments start as no-ops so packages and tests work without Init.
func init() {
	m := noop.NewMeterProvider().Meter("glamlens/business")
	AnalysisRequestsTotal, _ = m.Int64Counter("noop")
	RecommendationRequestsTotal, _ = m.Int64Counter("noop")
	PipelineDuration, _ = m.Float64Histogram("noop")
	CacheLookupsTotal, _ = m.Int64Counter("noop")
	ExternalAPICallsTotal, _ = m.Int64Counter("noop")
	ExternalAPIDuration, _ = m.Float64Histogram("noop")
	AIGenerationDuration, _ = m.Float64Histogram("noop")
	ProviderFallbackTotal, _ = m.Int64Counter("noop")
	DefaultResultTotal, _ = m.Int64Counter("noop")
	EntitlementDeniedTotal, _ = m.Int64Counter("noop")
}

func Init() error {
	var err error

	AnalysisRequestsTotal, err = meter.Int64Counter(
		"analysis.requests.total",
		metric.WithDescription("Total number of outfit analysis requests"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	RecommendationRequestsTotal, err = meter.Int64Counter(
		"recommendation.requests.total",
		metric.WithDescription("Total number of recommendation requests, including category regenerations"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	PipelineDuration, err = meter.Float64Histogram(
		"pipeline.duration",
		metric.WithDescription("Duration of a cached-or-provider pipeline run"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.1, 0.5, 1, 2, 5, 10, 30, 60),
	)
	if err != nil {
		return err
	}

	CacheLookupsTotal, err = meter.Int64Counter(
		"cache.lookups.total",
		metric.WithDescription("Total number of cache lookups by result"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	// External API metrics
	ExternalAPICallsTotal, err = meter.Int64Counter(
		"external.api.calls.total",
		metric.WithDescription("Total number of external API calls"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	ExternalAPIDuration, err = meter.Float64Histogram(
		"external.api.duration",
		metric.WithDescription("Duration of external API calls"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2, 5, 10, 30),
	)
	if err != nil {
		return err
	}

	// AI metrics
	AIGenerationDuration, err = meter.Float64Histogram(
		"ai.generation.duration",
		metric.WithDescription("Duration of AI analysis, recommendation and image generation"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2, 5, 10, 30, 60),
	)
	if err != nil {
		return err
	}

	// Provider fallback metrics
	ProviderFallbackTotal, err = meter.Int64Counter(
		"provider.fallback.total",
		metric.WithDescription("Total number of provider fallback events"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	DefaultResultTotal, err = meter.Int64Counter(
		"provider.default.total",
		metric.WithDescription("Total number of requests answered with the static default after every provider failed"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	EntitlementDeniedTotal, err = meter.Int64Counter(
		"entitlement.denied.total",
		metric.WithDescription("Total number of requests denied for insufficient subscription tier"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	return nil
}
