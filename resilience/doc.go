// Package resilience guards cache store I/O.
//
// The patterns here bound and isolate store calls so that a slow or failing
// store degrades to pass-through instead of stalling handlers:
//
//   - Timeout bounds each store call.
//   - CircuitBreaker stops calling a store that keeps failing and lets a
//     single probe through after a cool-down.
//   - Bulkhead caps concurrent store calls.
//   - Retry re-attempts an operation with backoff. It runs the initial
//     connection ping and, when ROUTECACHE_STORE_RETRIES is set, store calls
//     on the request path; keep the attempts low there.
//
// Executor composes them:
//
//	exec := resilience.NewExecutor(
//	    resilience.WithBulkhead(resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: 128})),
//	    resilience.WithCircuitBreaker(resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
//	        MaxFailures:  5,
//	        ResetTimeout: 10 * time.Second,
//	    })),
//	    resilience.WithTimeout(250*time.Millisecond),
//	)
//
//	err := exec.Execute(ctx, func(ctx context.Context) error {
//	    return store.Set(ctx, key, value, ttl)
//	})
//
// Executor.Available reports false while the circuit is open; the cache engine
// treats that exactly like a store that is not ready.
package resilience
