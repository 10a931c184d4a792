// Package health reports whether routecached and its cache store can serve.
//
// Checkers are registered on an Aggregator, which runs them concurrently under
// a shared timeout. StoreChecker inspects the cache store and the circuit
// breaker in front of it; a failed store yields StatusDegraded rather than
// StatusUnhealthy because cached routes keep answering from their handlers.
//
//	agg := health.NewAggregator()
//	agg.Register("cache_store", health.NewStoreChecker("cache_store", store,
//	    health.WithBackend("redis"),
//	    health.WithBreaker(exec.CircuitBreaker()),
//	))
//
//	r := chi.NewRouter()
//	health.Mount(r, agg)
//
// Mount serves /healthz (liveness), /readyz (plain text, 503 only when
// unhealthy), /health (JSON detail for every check) and /health/{name}.
package health
