package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// InstrumentationName identifies this service's meters and tracers
const InstrumentationName = "github.com/foodloop/donation-engine"

// Outcome labels for transition and insight metrics
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds all custom metrics for the service
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal metric.Int64Counter
	HTTPDurationMs    metric.Float64Histogram

	// Donation metrics
	DonationTransitions metric.Int64Counter
	CapacityRejections  metric.Int64Counter

	// Matching metrics
	MatchQueries metric.Int64Counter
	MatchResults metric.Int64Histogram

	// Insight metrics
	InsightRequests metric.Int64Counter
}

// InitMetrics initializes all custom metrics on the global meter provider
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter(InstrumentationName)

	httpRequestsTotal, err := meter.Int64Counter(
		"http_server_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	httpDurationMs, err := meter.Float64Histogram(
		"http_server_duration_milliseconds",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	donationTransitions, err := meter.Int64Counter(
		"donation_transitions_total",
		metric.WithDescription("Donation lifecycle transitions by outcome"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, err
	}

	capacityRejections, err := meter.Int64Counter(
		"donation_capacity_rejections_total",
		metric.WithDescription("Donations rejected because the organization lacked capacity"),
		metric.WithUnit("{rejection}"),
	)
	if err != nil {
		return nil, err
	}

	matchQueries, err := meter.Int64Counter(
		"match_queries_total",
		metric.WithDescription("Total number of organization match queries"),
		metric.WithUnit("{query}"),
	)
	if err != nil {
		return nil, err
	}

	matchResults, err := meter.Int64Histogram(
		"match_results",
		metric.WithDescription("Number of organizations returned per match query"),
		metric.WithUnit("{organization}"),
	)
	if err != nil {
		return nil, err
	}

	insightRequests, err := meter.Int64Counter(
		"insight_requests_total",
		metric.WithDescription("Total number of AI insight generations"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		HTTPRequestsTotal:   httpRequestsTotal,
		HTTPDurationMs:      httpDurationMs,
		DonationTransitions: donationTransitions,
		CapacityRejections:  capacityRejections,
		MatchQueries:        matchQueries,
		MatchResults:        matchResults,
		InsightRequests:     insightRequests,
	}, nil
}

// RecordHTTPRequest records an HTTP request metric
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, route string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("http_method", method),
		attribute.String("http_route", route),
		attribute.Int("http_status_code", statusCode),
	)

	m.HTTPRequestsTotal.Add(ctx, 1, attrs)
	m.HTTPDurationMs.Record(ctx, float64(duration.Microseconds())/1000, attrs)
}

// RecordTransition records a donation lifecycle transition attempt
func (m *Metrics) RecordTransition(ctx context.Context, transition, outcome string) {
	if m == nil {
		return
	}
	m.DonationTransitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("transition", transition),
		attribute.String("outcome", outcome),
	))
}

// RecordCapacityRejection records a donation refused for lack of capacity
func (m *Metrics) RecordCapacityRejection(ctx context.Context, stage string) {
	if m == nil {
		return
	}
	m.CapacityRejections.Add(ctx, 1, metric.WithAttributes(
		attribute.String("stage", stage),
	))
}

// RecordMatchQuery records a match query and the number of organizations it returned
func (m *Metrics) RecordMatchQuery(ctx context.Context, results int) {
	if m == nil {
		return
	}
	m.MatchQueries.Add(ctx, 1)
	m.MatchResults.Record(ctx, int64(results))
}

// RecordInsightRequest records an insight generation against a provider
func (m *Metrics) RecordInsightRequest(ctx context.Context, provider, outcome string) {
	if m == nil {
		return
	}
	m.InsightRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("outcome", outcome),
	))
}
