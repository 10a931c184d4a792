package observe

import (
	"fmt"
	"net/http"
	"time"
)

// Middleware wraps HTTP handlers with observability (tracing, metrics, logging).
//
// Contract:
//   - Concurrency: Handler() returns a handler safe for concurrent use.
//   - Context: the request context carries the request span downstream.
//   - Ownership: request and response bodies are passed through unmodified.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a new Middleware with the given observability components.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// Handler wraps next with a request span, request metrics and a completion log.
func (m *Middleware) Handler(meta RouteMeta) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := m.tracer.StartSpan(r.Context(), OpHTTPRequest, meta)

			sw := &statusWriter{ResponseWriter: w}
			start := time.Now()

			next.ServeHTTP(sw, r.WithContext(ctx))

			duration := time.Since(start)
			status := sw.Status()

			var err error
			if status >= http.StatusInternalServerError {
				err = fmt.Errorf("http status %d", status)
			}
			m.tracer.EndSpan(span, err)

			m.metrics.RecordRequest(ctx, meta, status, duration)

			fields := []Field{
				{Key: "status", Value: status},
				{Key: "duration_ms", Value: float64(duration.Microseconds()) / 1000},
				{Key: "x_cache", Value: w.Header().Get("X-Cache")},
			}
			routeLogger := m.logger.WithRoute(meta)
			if err != nil {
				routeLogger.Error(ctx, "request failed", fields...)
			} else {
				routeLogger.Debug(ctx, "request completed", fields...)
			}
		})
	}
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	in, err := NewInstruments(obs)
	if err != nil {
		return nil, err
	}
	return NewMiddleware(in.Tracer, in.Metrics, in.Logger), nil
}

// statusWriter records the response status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 && code >= http.StatusOK {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// Status returns the recorded status, defaulting to 200.
func (w *statusWriter) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Flush forwards to the underlying writer when it supports flushing.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
