package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/jonwraymond/routecache/observe"
	"github.com/jonwraymond/routecache/resilience"
)

// Engine holds everything the cache middleware needs: the store and the
// collaborators used to key, encode, guard and observe store access. Build it
// once at startup with New and share it between routes.
type Engine struct {
	store   Store
	keyer   Keyer
	codec   Codec
	policy  Policy
	exec    *resilience.Executor
	logger  observe.Logger
	tracer  observe.Tracer
	metrics observe.Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithKeyer replaces the DefaultKeyer.
func WithKeyer(k Keyer) Option {
	return func(e *Engine) { e.keyer = k }
}

// WithCodec replaces the SniffCodec.
func WithCodec(c Codec) Option {
	return func(e *Engine) { e.codec = c }
}

// WithPolicy replaces DefaultPolicy.
func WithPolicy(p Policy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithExecutor guards store calls with exec. A nil executor calls the store
// directly.
func WithExecutor(exec *resilience.Executor) Option {
	return func(e *Engine) { e.exec = exec }
}

// WithLogger sets the logger.
func WithLogger(l observe.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithTracer sets the tracer used for store spans.
func WithTracer(t observe.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// WithMetrics sets the lookup and store instruments.
func WithMetrics(m observe.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithInstruments sets the logger, tracer and metrics together. Nil members
// are ignored.
func WithInstruments(in observe.Instruments) Option {
	return func(e *Engine) {
		if in.Logger != nil {
			e.logger = in.Logger
		}
		if in.Tracer != nil {
			e.tracer = in.Tracer
		}
		if in.Metrics != nil {
			e.metrics = in.Metrics
		}
	}
}

// DefaultExecutor bounds each store call to 250ms, caps concurrent store
// calls, and stops calling the store for 10s after 5 consecutive failures.
func DefaultExecutor() *resilience.Executor {
	return resilience.NewExecutor(
		resilience.WithBulkhead(resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: 256})),
		resilience.WithCircuitBreaker(resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			MaxFailures:  5,
			ResetTimeout: 10 * time.Second,
		})),
		resilience.WithTimeout(250*time.Millisecond),
	)
}

// New creates an Engine for store. store may be nil, in which case every
// route built from the engine is a pass-through.
func New(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		codec:   SniffCodec{},
		policy:  DefaultPolicy(),
		exec:    DefaultExecutor(),
		logger:  observe.NopLogger(),
		tracer:  observe.NopTracer(),
		metrics: observe.NopMetrics(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.keyer == nil {
		e.keyer = NewDefaultKeyer(nil)
	}
	return e
}

// Ready reports whether the store can currently be used. It is false when the
// store is missing, reports not ready, or its circuit is open.
func (e *Engine) Ready() bool {
	return e.store != nil && e.store.Ready() && e.exec.Available()
}

// Middleware returns the caching middleware for route.
//
// A route without a Spec gets a middleware that returns next unchanged. If the
// store is missing or not ready when Middleware is called, the route is a
// permanent pass-through and a single error is logged.
//
// Otherwise, per request: a stored value is replayed with X-Cache: HIT and
// next is not called; on a miss, next runs with a writer that captures the
// response, and the body is stored after next returns. Store failures are
// logged and never reach the client. A request whose key cannot be derived
// is logged and passed through; a Keyer set with WithKeyer need not log.
//
// Only 2xx responses are stored. A replay always answers 200 and cannot
// restore the original status, so caching an error body would turn it into
// a success.
func (e *Engine) Middleware(route Route) func(http.Handler) http.Handler {
	if route.Spec == nil {
		return func(next http.Handler) http.Handler { return next }
	}

	meta := route.Meta()
	logger := e.logger.WithRoute(meta)

	if e.store == nil || !e.store.Ready() {
		logger.Error(context.Background(), "cache store not ready, route will not be cached")
		return func(next http.Handler) http.Handler { return next }
	}

	ttl := e.policy.TTLFor(route.Spec)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if !e.Ready() {
				e.metrics.RecordLookup(ctx, meta, observe.OutcomeBypass, 0)
				next.ServeHTTP(w, r)
				return
			}

			key, err := e.keyer.Key(route, r)
			if err != nil {
				logKeyFailure(ctx, logger, err)
				e.metrics.RecordLookup(ctx, meta, observe.OutcomeBypass, 0)
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			value, err := e.lookup(ctx, meta, key)
			if err != nil {
				e.metrics.RecordLookup(ctx, meta, observe.OutcomeError, time.Since(start))
				logger.Warn(ctx, "cache lookup failed, serving uncached", observe.Field{Key: "error", Value: err})
				next.ServeHTTP(w, r)
				return
			}

			if value != "" {
				entry, err := e.codec.Decode(value)
				if err == nil {
					e.metrics.RecordLookup(ctx, meta, observe.OutcomeHit, time.Since(start))
					logger.Debug(ctx, "cache hit", observe.Field{Key: "key", Value: key})
					replay(w, entry)
					return
				}
				logger.Warn(ctx, "cached value undecodable, treating as miss", observe.Field{Key: "error", Value: err})
			}
			e.metrics.RecordLookup(ctx, meta, observe.OutcomeMiss, time.Since(start))

			iw := newInterceptWriter(w, e.Ready)
			next.ServeHTTP(iw, r)

			if entry, ok := iw.entry(); ok {
				e.commit(ctx, meta, logger, key, entry, ttl)
			}
		})
	}
}

// lookup reads key through the executor. An attempt abandoned by a timeout
// keeps running in the background, so each attempt publishes its result only
// if it finished inside its own deadline, and only the first one counts.
func (e *Engine) lookup(ctx context.Context, meta observe.RouteMeta, key string) (string, error) {
	ctx, span := e.tracer.StartSpan(ctx, observe.OpCacheLookup, meta)

	var found atomic.Pointer[string]
	err := e.exec.Execute(ctx, func(ctx context.Context) error {
		v, err := e.store.Get(ctx, key)
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		found.CompareAndSwap(nil, &v)
		return nil
	})

	e.tracer.EndSpan(span, err)
	if err != nil {
		return "", err
	}
	if v := found.Load(); v != nil {
		return *v, nil
	}
	return "", nil
}

func (e *Engine) commit(ctx context.Context, meta observe.RouteMeta, logger observe.Logger, key string, entry Entry, ttl time.Duration) {
	value, err := e.codec.Encode(entry)
	if err != nil {
		logger.Warn(ctx, "cache entry not encodable", observe.Field{Key: "error", Value: err})
		return
	}
	if value == "" {
		return
	}

	// the response is already delivered; a client disconnect must not abort the write
	ctx = context.WithoutCancel(ctx)
	ctx, span := e.tracer.StartSpan(ctx, observe.OpCacheStore, meta)
	err = e.exec.Execute(ctx, func(ctx context.Context) error {
		return e.store.Set(ctx, key, value, ttl)
	})
	e.tracer.EndSpan(span, err)
	e.metrics.RecordStore(ctx, meta, err)

	if err != nil {
		logger.Warn(ctx, "cache store failed", observe.Field{Key: "error", Value: err})
		return
	}
	logger.Debug(ctx, "cached response",
		observe.Field{Key: "key", Value: key},
		observe.Field{Key: "kind", Value: entry.Kind.String()},
		observe.Field{Key: "ttl_seconds", Value: ttl.Seconds()},
	)
}

// replay writes a stored entry. Structured bodies are parsed and sent through
// the structured write path; bodies that fail to parse are sent raw.
func replay(w http.ResponseWriter, entry Entry) {
	w.Header().Set(HeaderXCache, "HIT")

	if entry.Kind == KindStructured {
		if v, err := parseJSON(entry.Body); err == nil {
			_ = WriteJSON(w, v)
			return
		}
	}
	_, _ = w.Write(entry.Body)
}

func parseJSON(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("cache: trailing data after json value")
	}
	return v, nil
}
