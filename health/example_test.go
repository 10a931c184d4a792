package health_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"

	"github.com/jonwraymond/routecache/cache"
	"github.com/jonwraymond/routecache/health"
	"github.com/jonwraymond/routecache/resilience"
)

func ExampleNewStoreChecker() {
	store := cache.NewMemoryStore()
	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{})

	checker := health.NewStoreChecker("cache_store", store,
		health.WithBackend("memory"),
		health.WithBreaker(breaker),
	)

	r := checker.Check(context.Background())
	fmt.Println(r.Status, r.Details["circuit_state"])

	_ = store.Close()
	r = checker.Check(context.Background())
	fmt.Println(r.Status, r.Message)
	// Output:
	// healthy closed
	// degraded cache store not ready, routes pass through
}

func ExampleMount() {
	agg := health.NewAggregator()
	agg.Register("cache_store", health.NewStoreChecker("cache_store", nil))

	r := chi.NewRouter()
	health.Mount(r, agg)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		fmt.Println(path, rec.Code, rec.Body.String())
	}
	// Output:
	// /healthz 200 OK
	// /readyz 200 DEGRADED
}

func ExampleOverallStatus() {
	results := map[string]health.Result{
		"self":        health.Healthy("ok"),
		"cache_store": health.Degraded("paused", nil),
	}
	fmt.Println(health.OverallStatus(results))
	// Output: degraded
}
