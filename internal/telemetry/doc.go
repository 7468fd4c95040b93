// Package telemetry provides OpenTelemetry initialization and helpers
// for the stylist API and worker.
//
// Traces, metrics and logs are exported over OTLP/HTTP to any compatible
// collector, including Grafana Cloud and a local collector.
package telemetry
