// Package observability provides structured logging, metrics, and tracing
// for the donation engine.
//
// This package implements:
//   - Structured logging with request-scoped fields (zap-based)
//   - OpenTelemetry metric instruments for HTTP, matching and lifecycle events
//   - OTLP trace and metric export with graceful degradation
//
// Metrics methods are safe to call on a nil *Metrics so tests can omit them.
package observability
