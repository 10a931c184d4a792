package cache

import (
	"github.com/jonwraymond/routecache/observe"
)

// Route is the static declaration of an endpoint. Method and Path are only
// used to namespace cache keys; Path is never matched against a request.
// A nil Spec disables caching for the route.
type Route struct {
	Method string
	Path   string
	Spec   Spec
}

// Meta returns the telemetry identity of the route.
func (r Route) Meta() observe.RouteMeta {
	meta := observe.RouteMeta{Method: r.Method, Path: r.Path}
	if r.Spec != nil {
		meta.Variant = r.Spec.Type()
	}
	return meta
}

// RouteConfig is the serialized form of a Route.
type RouteConfig struct {
	Method string      `yaml:"method" json:"method"`
	Path   string      `yaml:"path" json:"path"`
	Cache  *SpecConfig `yaml:"cache,omitempty" json:"cache,omitempty"`
}

// Route converts the configuration into a Route.
func (c RouteConfig) Route() (Route, error) {
	r := Route{Method: c.Method, Path: c.Path}
	if c.Cache == nil {
		return r, nil
	}
	spec, err := ParseSpec(*c.Cache)
	if err != nil {
		return Route{}, err
	}
	r.Spec = spec
	return r, nil
}
