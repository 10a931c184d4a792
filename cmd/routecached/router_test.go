package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/jonwraymond/routecache/cache"
	"github.com/jonwraymond/routecache/config"
	"github.com/jonwraymond/routecache/health"
	"github.com/jonwraymond/routecache/observe"
)

func newTestServer(t *testing.T, store cache.Store) *httptest.Server {
	t.Helper()
	in := observe.NopInstruments()
	engine := cache.New(store, cache.WithInstruments(in))

	agg := health.NewAggregator()
	agg.Register("cache_store", health.NewStoreChecker("cache_store", store))

	mw := observe.NewMiddleware(in.Tracer, in.Metrics, in.Logger)
	srv := httptest.NewServer(newRouter(zerolog.Nop(), engine, mw, defaultRoutes(), agg))
	t.Cleanup(srv.Close)
	return srv
}

func fetch(t *testing.T, srv *httptest.Server, path string, cookies ...*http.Cookie) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, srv.URL+path, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, string(body)
}

func requestID(t *testing.T, body string) string {
	t.Helper()
	var doc document
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		t.Fatalf("decode %q: %v", body, err)
	}
	return doc.RequestID
}

func TestRouter_CachedRouteReplays(t *testing.T) {
	srv := newTestServer(t, cache.NewMemoryStore())

	first, body1 := fetch(t, srv, "/products")
	second, body2 := fetch(t, srv, "/products")

	if first.Header.Get(cache.HeaderXCache) != "" {
		t.Error("first response should not be a hit")
	}
	if second.Header.Get(cache.HeaderXCache) != "HIT" {
		t.Error("second response should be a hit")
	}
	if requestID(t, body1) != requestID(t, body2) {
		t.Error("hit should replay the first request's body")
	}
	if ct := second.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("hit Content-Type = %q", ct)
	}
}

func TestRouter_TextFormatPerURL(t *testing.T) {
	srv := newTestServer(t, cache.NewMemoryStore())

	_, a := fetch(t, srv, "/search?q=a&format=text")
	hit, again := fetch(t, srv, "/search?q=a&format=text")
	_, b := fetch(t, srv, "/search?q=b&format=text")

	if hit.Header.Get(cache.HeaderXCache) != "HIT" || a != again {
		t.Error("same URL should replay")
	}
	if a == b || !strings.HasPrefix(a, "GET /search rendered at") {
		t.Errorf("unexpected bodies %q and %q", a, b)
	}
}

func TestRouter_UncachedRoutes(t *testing.T) {
	srv := newTestServer(t, cache.NewMemoryStore())

	for _, path := range []string{"/time", "/cart"} {
		fetch(t, srv, path)
		resp, _ := fetch(t, srv, path)
		if resp.Header.Get(cache.HeaderXCache) != "" {
			t.Errorf("%s: unexpected hit", path)
		}
	}

	cart := &http.Cookie{Name: "cartId", Value: "c-1"}
	fetch(t, srv, "/cart", cart)
	if resp, _ := fetch(t, srv, "/cart", cart); resp.Header.Get(cache.HeaderXCache) != "HIT" {
		t.Error("/cart with cookie should be cached")
	}
}

func TestRouter_Health(t *testing.T) {
	store := cache.NewMemoryStore()
	srv := newTestServer(t, store)

	if resp, body := fetch(t, srv, "/readyz"); resp.StatusCode != http.StatusOK || body != "OK" {
		t.Errorf("/readyz = %d %q", resp.StatusCode, body)
	}

	_ = store.Close()
	if resp, body := fetch(t, srv, "/readyz"); resp.StatusCode != http.StatusOK || body != "DEGRADED" {
		t.Errorf("/readyz after close = %d %q", resp.StatusCode, body)
	}
	if resp, _ := fetch(t, srv, "/products"); resp.StatusCode != http.StatusOK {
		t.Errorf("/products with closed store = %d, want pass-through", resp.StatusCode)
	}
}

func TestOpenStore_Memory(t *testing.T) {
	cfg := &config.Config{Store: config.Store{Backend: config.BackendMemory}}

	b, err := openStore(context.Background(), cfg, observe.NopLogger())
	if err != nil {
		t.Fatalf("openStore() error = %v", err)
	}
	if b.store == nil || !b.store.Ready() {
		t.Fatal("memory store should be ready")
	}
	if err := b.close(context.Background()); err != nil || b.store.Ready() {
		t.Errorf("close() = %v, ready = %v", err, b.store.Ready())
	}
}

func TestOpenStore_SQLite(t *testing.T) {
	cfg := &config.Config{Store: config.Store{Backend: config.BackendSQLite}, SQLite: config.SQLite{Path: t.TempDir() + "/cache.db"}}

	b, err := openStore(context.Background(), cfg, observe.NopLogger())
	if err != nil {
		t.Fatalf("openStore() error = %v", err)
	}
	defer func() { _ = b.close(context.Background()) }()
	if !b.store.Ready() {
		t.Error("sqlite store should be ready")
	}
}

func TestOpenStore_RedisUnreachable(t *testing.T) {
	cfg := &config.Config{
		Store: config.Store{Backend: config.BackendRedis},
		Redis: config.Redis{URL: "redis://127.0.0.1:1/0", ConnectAttempts: 1},
	}

	b, err := openStore(context.Background(), cfg, observe.NopLogger())
	if err != nil {
		t.Fatalf("openStore() error = %v, want caching disabled instead", err)
	}
	if b.store != nil {
		t.Error("store should be nil when redis is unreachable")
	}
	if err := b.close(context.Background()); err != nil {
		t.Errorf("close() = %v", err)
	}
}
