package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonwraymond/routecache/cache"
)

const sampleRoutes = `
- method: GET
  path: /products
  cache:
    type: always
    expireSeconds: 300
- method: get
  path: /me
  cache:
    type: per-auth-token
- path: /search
  cache:
    type: Per-Request-URL
    expireSeconds: 30
- method: GET
  path: /cart
  cache:
    type: per-custom-cookie
    customCookie: cartId
- method: POST
  path: /orders
`

func TestParseRoutes(t *testing.T) {
	routes, err := ParseRoutes([]byte(sampleRoutes))
	if err != nil {
		t.Fatalf("ParseRoutes() error = %v", err)
	}
	if len(routes) != 5 {
		t.Fatalf("got %d routes, want 5", len(routes))
	}

	tests := []struct {
		i      int
		method string
		path   string
		spec   cache.Spec
	}{
		{0, "GET", "/products", cache.Always{ExpireSeconds: 300}},
		{1, "GET", "/me", cache.PerAuthToken{}},
		{2, "GET", "/search", cache.PerRequestURL{ExpireSeconds: 30}},
		{3, "GET", "/cart", cache.PerCustomCookie{CustomCookie: "cartId"}},
		{4, "POST", "/orders", nil},
	}
	for _, tt := range tests {
		r := routes[tt.i]
		if r.Method != tt.method || r.Path != tt.path || r.Spec != tt.spec {
			t.Errorf("route %d = %+v, want %s %s %+v", tt.i, r, tt.method, tt.path, tt.spec)
		}
	}
}

func TestParseRoutes_Empty(t *testing.T) {
	routes, err := ParseRoutes(nil)
	if err != nil || len(routes) != 0 {
		t.Errorf("ParseRoutes(nil) = %v, %v", routes, err)
	}
}

func TestParseRoutes_Errors(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr error
	}{
		{name: "unknown type", in: "- path: /a\n  cache:\n    type: per-session\n", wantErr: cache.ErrUnknownSpecType},
		{name: "relative path", in: "- path: a\n", wantErr: ErrInvalidRoute},
		{name: "duplicate", in: "- path: /a\n- method: get\n  path: /a\n", wantErr: ErrInvalidRoute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseRoutes([]byte(tt.in)); !errors.Is(err, tt.wantErr) {
				t.Errorf("ParseRoutes() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if _, err := ParseRoutes([]byte("- path: /a\n  ttl: 5\n")); err == nil {
		t.Error("expected unknown field to be rejected")
	}
}

func TestLoadRoutes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.yaml")
	if err := os.WriteFile(path, []byte(sampleRoutes), 0o600); err != nil {
		t.Fatal(err)
	}

	routes, err := LoadRoutes(path)
	if err != nil || len(routes) != 5 {
		t.Fatalf("LoadRoutes() = %d routes, %v", len(routes), err)
	}

	if _, err := LoadRoutes(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadRoutes(missing) error = %v, want ErrNotExist", err)
	}
}
