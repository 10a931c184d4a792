package cache

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/jonwraymond/routecache/observe"
)

// AuthCookieNames are checked in order for a per-auth-token route.
var AuthCookieNames = []string{
	"authToken",
	"accessToken",
	"refreshToken",
	"idToken",
	"jwt",
	"token",
	"sessionToken",
	"auth_token",
	"access_token",
	"refresh_token",
	"bearer_token",
}

// AuthHeaderNames are checked in order, case-insensitively, when no auth
// cookie is present.
var AuthHeaderNames = []string{
	"Authorization",
	"X-Auth-Token",
	"X-Access-Token",
	"X-Refresh-Token",
	"X-ID-Token",
	"X-API-key",
	"Token",
	"Auth-Token",
}

// Keyer derives the cache key for a request to a route.
//
// Contract:
//   - Determinism: the same route and request always produce the same key.
//   - Concurrency: implementations must be safe for concurrent use.
//   - Errors: a request that must not be cached yields an error wrapping
//     ErrNotCacheable.
type Keyer interface {
	Key(route Route, r *http.Request) (string, error)
}

// DefaultKeyer builds keys of the form cache:<method>:<suffix>.
//
// The auth token lookup is a partitioning heuristic only. Tokens are never
// validated, so a forged token gets its own partition like any other value.
type DefaultKeyer struct {
	logger observe.Logger
}

// NewDefaultKeyer creates a keyer that reports derivation failures to logger.
// An Engine logs failures of its keyer itself, so a keyer handed to
// WithKeyer should usually get a nil logger.
func NewDefaultKeyer(logger observe.Logger) *DefaultKeyer {
	if logger == nil {
		logger = observe.NopLogger()
	}
	return &DefaultKeyer{logger: logger}
}

// Key implements Keyer.
func (k *DefaultKeyer) Key(route Route, r *http.Request) (string, error) {
	if route.Spec == nil {
		return "", fmt.Errorf("%w: route has no cache spec", ErrNotCacheable)
	}

	suffix, err := route.Spec.Accept(keyVisitor{route: route, r: r})
	if err != nil {
		k.report(r.Context(), route, err)
		return "", fmt.Errorf("%w: %w", ErrNotCacheable, err)
	}

	key := "cache:" + route.Method + ":" + suffix
	if err := ValidateKey(key); err != nil {
		k.report(r.Context(), route, err)
		return "", fmt.Errorf("%w: %w", ErrNotCacheable, err)
	}
	return key, nil
}

func (k *DefaultKeyer) report(ctx context.Context, route Route, err error) {
	logKeyFailure(ctx, k.logger.WithRoute(route.Meta()), err)
}

// logKeyFailure logs a derivation failure. An unset cookie name is a route
// configuration error; everything else is a request that cannot be cached.
func logKeyFailure(ctx context.Context, logger observe.Logger, err error) {
	if errors.Is(err, ErrCustomCookieUnset) {
		logger.Error(ctx, "cache route misconfigured", observe.Field{Key: "error", Value: err})
		return
	}
	logger.Warn(ctx, "cache key derivation failed", observe.Field{Key: "error", Value: err})
}

type keyVisitor struct {
	route Route
	r     *http.Request
}

func (v keyVisitor) VisitAlways(Always) (string, error) {
	return v.route.Path, nil
}

// VisitPerRequestURL keys on the request line's path and query as sent. A
// request line in absolute form ("GET http://host/p") uses its path and
// query only, so it shares the key of the origin form.
func (v keyVisitor) VisitPerRequestURL(PerRequestURL) (string, error) {
	if strings.HasPrefix(v.r.RequestURI, "/") {
		return v.r.RequestURI, nil
	}
	return v.r.URL.RequestURI(), nil
}

func (v keyVisitor) VisitPerAuthToken(PerAuthToken) (string, error) {
	token, ok := AuthToken(v.r)
	if !ok {
		return "", ErrNoAuthToken
	}
	return v.route.Path + ":" + token, nil
}

func (v keyVisitor) VisitPerCustomCookie(s PerCustomCookie) (string, error) {
	if s.CustomCookie == "" {
		return "", ErrCustomCookieUnset
	}
	c, err := v.r.Cookie(s.CustomCookie)
	if err != nil || c.Value == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingCookie, s.CustomCookie)
	}
	return v.route.Path + ":" + c.Value, nil
}

// AuthToken returns the first auth token found on r. Cookies are checked
// before headers, and a present cookie or header wins even when empty.
func AuthToken(r *http.Request) (string, bool) {
	for _, name := range AuthCookieNames {
		if c, err := r.Cookie(name); err == nil {
			return c.Value, true
		}
	}
	for _, name := range AuthHeaderNames {
		if v, ok := headerValue(r.Header, name); ok {
			return v, true
		}
	}
	return "", false
}

// headerValue looks name up case-insensitively, including keys that were set
// on the map directly without canonicalization.
func headerValue(h http.Header, name string) (string, bool) {
	if vs, ok := h[textproto.CanonicalMIMEHeaderKey(name)]; ok && len(vs) > 0 {
		return vs[0], true
	}
	for k, vs := range h {
		if strings.EqualFold(k, name) && len(vs) > 0 {
			return vs[0], true
		}
	}
	return "", false
}

var _ Keyer = (*DefaultKeyer)(nil)
