package health

import (
	"context"
	"errors"

	"github.com/jonwraymond/routecache/resilience"
)

// ReadyReporter is the part of a cache store a StoreChecker inspects.
type ReadyReporter interface {
	Ready() bool
}

// Pinger is implemented by stores that can probe their backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StoreChecker reports the cache store backing the routes.
//
// A store that is down never makes the service unhealthy: cached routes pass
// through to their handlers, so the worst result is StatusDegraded.
type StoreChecker struct {
	name    string
	backend string
	store   ReadyReporter
	breaker *resilience.CircuitBreaker
}

// StoreCheckerOption configures a StoreChecker.
type StoreCheckerOption func(*StoreChecker)

// WithBackend labels the result details with the backend name.
func WithBackend(name string) StoreCheckerOption {
	return func(c *StoreChecker) { c.backend = name }
}

// WithBreaker includes the circuit breaker guarding store calls.
func WithBreaker(cb *resilience.CircuitBreaker) StoreCheckerOption {
	return func(c *StoreChecker) { c.breaker = cb }
}

// NewStoreChecker creates a checker for store. A nil store is reported as
// degraded, since every route then bypasses the cache.
func NewStoreChecker(name string, store ReadyReporter, opts ...StoreCheckerOption) *StoreChecker {
	c := &StoreChecker{name: name, store: store}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name implements Checker.
func (c *StoreChecker) Name() string { return c.name }

// Check implements Checker.
func (c *StoreChecker) Check(ctx context.Context) Result {
	details := map[string]any{}
	if c.backend != "" {
		details["backend"] = c.backend
	}
	if c.breaker != nil {
		m := c.breaker.Metrics()
		details["circuit_state"] = m.State.String()
		details["circuit_failures"] = m.Failures
		details["circuit_rejected"] = m.Rejected
	}

	if c.store == nil {
		return Degraded("no cache store configured", ErrStoreNotReady).WithDetails(details)
	}
	if !c.store.Ready() {
		return Degraded("cache store not ready, routes pass through", ErrStoreNotReady).WithDetails(details)
	}
	if p, ok := c.store.(Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return Degraded("cache store ping failed", errors.Join(ErrStoreNotReady, err)).WithDetails(details)
		}
	}
	if c.breaker != nil && c.breaker.State() == resilience.StateOpen {
		return Degraded("store circuit open, routes pass through", ErrCircuitOpen).WithDetails(details)
	}

	return Healthy("cache store ready").WithDetails(details)
}
