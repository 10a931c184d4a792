package observe

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Outcome classifies a cache lookup.
type Outcome string

const (
	// OutcomeHit means a stored value was replayed.
	OutcomeHit Outcome = "hit"
	// OutcomeMiss means the handler ran and its response was captured.
	OutcomeMiss Outcome = "miss"
	// OutcomeBypass means caching was skipped for the request.
	OutcomeBypass Outcome = "bypass"
	// OutcomeError means the store lookup failed.
	OutcomeError Outcome = "error"
)

// Metrics records cache and request metrics for routes.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation/deadlines and return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordLookup records a cache decision and the time spent reaching it.
	RecordLookup(ctx context.Context, meta RouteMeta, outcome Outcome, duration time.Duration)

	// RecordStore records a store write and its error status.
	RecordStore(ctx context.Context, meta RouteMeta, err error)

	// RecordRequest records a served HTTP request.
	RecordRequest(ctx context.Context, meta RouteMeta, status int, duration time.Duration)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	lookupCount    metric.Int64Counter
	lookupHist     metric.Float64Histogram
	storeCount     metric.Int64Counter
	storeErrors    metric.Int64Counter
	requestCount   metric.Int64Counter
	requestLatency metric.Float64Histogram
}

// NewMetrics creates a Metrics instance with instruments from meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	return newMetrics(meter)
}

func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	lookupCount, err := meter.Int64Counter(
		"cache.lookup.total",
		metric.WithDescription("Total number of cache decisions by outcome"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	lookupHist, err := meter.Float64Histogram(
		"cache.lookup.duration_ms",
		metric.WithDescription("Cache lookup duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	storeCount, err := meter.Int64Counter(
		"cache.store.total",
		metric.WithDescription("Total number of cache store writes"),
		metric.WithUnit("{write}"),
	)
	if err != nil {
		return nil, err
	}

	storeErrors, err := meter.Int64Counter(
		"cache.store.errors",
		metric.WithDescription("Total number of failed cache store writes"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	requestCount, err := meter.Int64Counter(
		"http.server.request.total",
		metric.WithDescription("Total number of served HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	requestLatency, err := meter.Float64Histogram(
		"http.server.request.duration_ms",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		lookupCount:    lookupCount,
		lookupHist:     lookupHist,
		storeCount:     storeCount,
		storeErrors:    storeErrors,
		requestCount:   requestCount,
		requestLatency: requestLatency,
	}, nil
}

// RecordLookup records a cache decision for a route.
func (m *metricsImpl) RecordLookup(ctx context.Context, meta RouteMeta, outcome Outcome, duration time.Duration) {
	attrs := append(meta.attributes(), attribute.String("cache.outcome", string(outcome)))
	opt := metric.WithAttributes(attrs...)

	m.lookupCount.Add(ctx, 1, opt)

	// bypasses never reach the store
	if outcome != OutcomeBypass {
		m.lookupHist.Record(ctx, float64(duration.Microseconds())/1000, opt)
	}
}

// RecordStore records a store write for a route.
func (m *metricsImpl) RecordStore(ctx context.Context, meta RouteMeta, err error) {
	opt := metric.WithAttributes(meta.attributes()...)

	m.storeCount.Add(ctx, 1, opt)
	if err != nil {
		m.storeErrors.Add(ctx, 1, opt)
	}
}

// RecordRequest records a served request for a route.
func (m *metricsImpl) RecordRequest(ctx context.Context, meta RouteMeta, status int, duration time.Duration) {
	attrs := append(meta.attributes(), attribute.String("http.status_code", strconv.Itoa(status)))
	opt := metric.WithAttributes(attrs...)

	m.requestCount.Add(ctx, 1, opt)
	m.requestLatency.Record(ctx, float64(duration.Microseconds())/1000, opt)
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

// NopMetrics returns a Metrics that records nothing.
func NopMetrics() Metrics { return noopMetrics{} }

func (noopMetrics) RecordLookup(context.Context, RouteMeta, Outcome, time.Duration) {}
func (noopMetrics) RecordStore(context.Context, RouteMeta, error)                   {}
func (noopMetrics) RecordRequest(context.Context, RouteMeta, int, time.Duration)    {}
