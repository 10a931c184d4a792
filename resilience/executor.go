package resilience

import (
	"context"
	"time"
)

// layer is one resilience pattern that can wrap an operation.
type layer interface {
	Execute(ctx context.Context, op func(context.Context) error) error
}

// Executor runs store operations through a fixed stack of patterns,
// outermost first: bulkhead, circuit breaker, retry, timeout. The timeout
// bounds each attempt, not the call as a whole.
//
// A nil *Executor runs operations directly.
type Executor struct {
	bulkhead *Bulkhead
	breaker  *CircuitBreaker
	retry    *Retry
	timeout  *Timeout
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// NewExecutor returns an Executor with the given patterns installed.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithBulkhead caps concurrent operations.
func WithBulkhead(b *Bulkhead) ExecutorOption {
	return func(e *Executor) { e.bulkhead = b }
}

// WithCircuitBreaker rejects operations while the store keeps failing.
func WithCircuitBreaker(cb *CircuitBreaker) ExecutorOption {
	return func(e *Executor) { e.breaker = cb }
}

// WithRetry retries failed attempts.
func WithRetry(r *Retry) ExecutorOption {
	return func(e *Executor) { e.retry = r }
}

// WithTimeout bounds each attempt to d.
func WithTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) { e.timeout = NewTimeout(d) }
}

// WithTimeoutHandler installs a shared Timeout.
func WithTimeoutHandler(t *Timeout) ExecutorOption {
	return func(e *Executor) { e.timeout = t }
}

// layers returns the installed patterns, outermost first. Unset patterns
// are skipped so that no nil pointer ends up inside the interface.
func (e *Executor) layers() []layer {
	out := make([]layer, 0, 4)
	if e.bulkhead != nil {
		out = append(out, e.bulkhead)
	}
	if e.breaker != nil {
		out = append(out, e.breaker)
	}
	if e.retry != nil {
		out = append(out, e.retry)
	}
	if e.timeout != nil {
		out = append(out, e.timeout)
	}
	return out
}

// Execute runs op through every installed pattern.
func (e *Executor) Execute(ctx context.Context, op func(context.Context) error) error {
	if e == nil {
		return op(ctx)
	}

	run := op
	stack := e.layers()
	for i := len(stack) - 1; i >= 0; i-- {
		l, inner := stack[i], run
		run = func(ctx context.Context) error { return l.Execute(ctx, inner) }
	}
	return run(ctx)
}

// Available is false while the circuit breaker is open.
func (e *Executor) Available() bool {
	if e == nil || e.breaker == nil {
		return true
	}
	return e.breaker.State() != StateOpen
}

// CircuitBreaker returns the installed breaker, or nil.
func (e *Executor) CircuitBreaker() *CircuitBreaker {
	if e == nil {
		return nil
	}
	return e.breaker
}
