package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/routecache/cache"
)

var ErrInvalidRoute = errors.New("config: invalid route")

// LoadRoutes reads a YAML list of route declarations from path:
//
//	- method: GET
//	  path: /products
//	  cache:
//	    type: always
//	    expireSeconds: 300
//	- method: GET
//	  path: /cart
//	  cache:
//	    type: per-custom-cookie
//	    customCookie: cartId
func LoadRoutes(path string) ([]cache.Route, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read routes: %w", err)
	}
	return ParseRoutes(b)
}

// ParseRoutes decodes and validates route declarations. Unknown fields,
// duplicate method and path pairs and unknown cache types are rejected.
func ParseRoutes(b []byte) ([]cache.Route, error) {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	var cfgs []cache.RouteConfig
	if err := dec.Decode(&cfgs); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode routes: %w", err)
	}

	routes := make([]cache.Route, 0, len(cfgs))
	seen := make(map[string]int, len(cfgs))
	for i, rc := range cfgs {
		rc.Method = strings.ToUpper(strings.TrimSpace(rc.Method))
		if rc.Method == "" {
			rc.Method = http.MethodGet
		}
		if !strings.HasPrefix(rc.Path, "/") {
			return nil, fmt.Errorf("%w: route %d: path %q must start with /", ErrInvalidRoute, i, rc.Path)
		}

		id := rc.Method + " " + rc.Path
		if prev, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: route %d: %s already declared by route %d", ErrInvalidRoute, i, id, prev)
		}
		seen[id] = i

		r, err := rc.Route()
		if err != nil {
			return nil, fmt.Errorf("%w: route %d (%s): %w", ErrInvalidRoute, i, id, err)
		}
		routes = append(routes, r)
	}
	return routes, nil
}
