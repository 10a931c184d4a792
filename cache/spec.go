package cache

import (
	"fmt"
	"strings"
)

// Variant names as they appear in route configuration.
const (
	TypeAlways          = "always"
	TypePerAuthToken    = "per-auth-token"
	TypePerRequestURL   = "per-request-url"
	TypePerCustomCookie = "per-custom-cookie"
)

// Spec is a route's cache policy. It is a closed set: the only
// implementations are Always, PerAuthToken, PerRequestURL and
// PerCustomCookie.
//
// Code that needs to branch on the variant implements SpecVisitor rather than
// using a type switch, so that a new variant fails to compile everywhere it
// is not yet handled.
type Spec interface {
	// Type returns the configuration name of the variant.
	Type() string

	// Expiry returns the configured expireSeconds, which may be zero.
	Expiry() int

	// Accept calls the visitor method matching the variant.
	Accept(v SpecVisitor) (string, error)

	isSpec()
}

// SpecVisitor has one method per Spec variant.
type SpecVisitor interface {
	VisitAlways(s Always) (string, error)
	VisitPerAuthToken(s PerAuthToken) (string, error)
	VisitPerRequestURL(s PerRequestURL) (string, error)
	VisitPerCustomCookie(s PerCustomCookie) (string, error)
}

// Always shares one cached response between every caller of the route.
type Always struct {
	ExpireSeconds int
}

// PerAuthToken partitions the cache by the caller's auth token.
type PerAuthToken struct {
	ExpireSeconds int
}

// PerRequestURL partitions the cache by the raw request path and query.
type PerRequestURL struct {
	ExpireSeconds int
}

// PerCustomCookie partitions the cache by the value of a named cookie.
type PerCustomCookie struct {
	ExpireSeconds int
	CustomCookie  string
}

func (Always) Type() string          { return TypeAlways }
func (PerAuthToken) Type() string    { return TypePerAuthToken }
func (PerRequestURL) Type() string   { return TypePerRequestURL }
func (PerCustomCookie) Type() string { return TypePerCustomCookie }

func (s Always) Expiry() int          { return s.ExpireSeconds }
func (s PerAuthToken) Expiry() int    { return s.ExpireSeconds }
func (s PerRequestURL) Expiry() int   { return s.ExpireSeconds }
func (s PerCustomCookie) Expiry() int { return s.ExpireSeconds }

func (s Always) Accept(v SpecVisitor) (string, error)          { return v.VisitAlways(s) }
func (s PerAuthToken) Accept(v SpecVisitor) (string, error)    { return v.VisitPerAuthToken(s) }
func (s PerRequestURL) Accept(v SpecVisitor) (string, error)   { return v.VisitPerRequestURL(s) }
func (s PerCustomCookie) Accept(v SpecVisitor) (string, error) { return v.VisitPerCustomCookie(s) }

func (Always) isSpec()          {}
func (PerAuthToken) isSpec()    {}
func (PerRequestURL) isSpec()   {}
func (PerCustomCookie) isSpec() {}

// SpecConfig is the serialized form of a Spec used in route files.
type SpecConfig struct {
	Type          string `yaml:"type" json:"type"`
	ExpireSeconds int    `yaml:"expireSeconds,omitempty" json:"expireSeconds,omitempty"`
	CustomCookie  string `yaml:"customCookie,omitempty" json:"customCookie,omitempty"`
}

// ParseSpec converts a SpecConfig into a Spec.
//
// A per-custom-cookie spec without a cookie name is accepted here; it is a
// route configuration error that is reported when requests are keyed.
func ParseSpec(c SpecConfig) (Spec, error) {
	switch strings.ToLower(strings.TrimSpace(c.Type)) {
	case TypeAlways:
		return Always{ExpireSeconds: c.ExpireSeconds}, nil
	case TypePerAuthToken:
		return PerAuthToken{ExpireSeconds: c.ExpireSeconds}, nil
	case TypePerRequestURL:
		return PerRequestURL{ExpireSeconds: c.ExpireSeconds}, nil
	case TypePerCustomCookie:
		return PerCustomCookie{ExpireSeconds: c.ExpireSeconds, CustomCookie: c.CustomCookie}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSpecType, c.Type)
	}
}

// SpecConfigOf is the inverse of ParseSpec.
func SpecConfigOf(s Spec) SpecConfig {
	c := SpecConfig{Type: s.Type(), ExpireSeconds: s.Expiry()}
	if pc, ok := s.(PerCustomCookie); ok {
		c.CustomCookie = pc.CustomCookie
	}
	return c
}
