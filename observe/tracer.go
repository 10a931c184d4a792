package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Span operation names.
const (
	OpCacheLookup = "cache.lookup"
	OpCacheStore  = "cache.store"
	OpHTTPRequest = "http.request"
)

// RouteMeta describes a registered route for telemetry purposes.
type RouteMeta struct {
	Method  string // HTTP method the route was registered for
	Path    string // declared route pattern
	Variant string // cache variant name, empty for uncached routes
}

// SpanName returns the deterministic span name for op on this route.
// Format: <op> <METHOD> <path>
func (m RouteMeta) SpanName(op string) string {
	return op + " " + m.RouteID()
}

// RouteID returns "<METHOD> <path>".
func (m RouteMeta) RouteID() string {
	if m.Method == "" {
		return m.Path
	}
	return m.Method + " " + m.Path
}

func (m RouteMeta) attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("route.method", m.Method),
		attribute.String("route.path", m.Path),
	}
	if m.Variant != "" {
		attrs = append(attrs, attribute.String("cache.variant", m.Variant))
	}
	return attrs
}

// Tracer wraps OpenTelemetry tracing with route-specific span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a span named after op and the route.
	StartSpan(ctx context.Context, op string, meta RouteMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

// tracerImpl is the concrete implementation of Tracer.
type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer creates a Tracer wrapping the given OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a new span with route metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, op string, meta RouteMeta) (context.Context, trace.Span) {
	attrs := append(meta.attributes(), attribute.Bool("cache.error", false))

	kind := trace.SpanKindInternal
	if op == OpHTTPRequest {
		kind = trace.SpanKindServer
	}

	return t.tracer.Start(ctx, meta.SpanName(op),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(kind),
	)
}

// EndSpan ends the span and records the error status if present.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("cache.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// noopTracer is a tracer that does nothing.
type noopTracer struct {
	noop trace.Tracer
}

// NopTracer returns a tracer that records nothing.
func NopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, op string, meta RouteMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName(op))
}

func (t *noopTracer) EndSpan(span trace.Span, _ error) {
	span.End()
}
