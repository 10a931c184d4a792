package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 2048

// HeaderXCache is set on responses replayed from the store.
const HeaderXCache = "X-Cache"

// Sentinel errors for cache operations.
var (
	ErrInvalidKey = errors.New("cache: key is invalid")
	ErrKeyTooLong = errors.New("cache: key exceeds max length")

	// ErrNotCacheable is wrapped by every key derivation failure.
	ErrNotCacheable = errors.New("cache: request is not cacheable")

	ErrNoAuthToken       = errors.New("no auth token found in cookies or headers")
	ErrCustomCookieUnset = errors.New("per-custom-cookie route has no customCookie name")
	ErrMissingCookie     = errors.New("custom cookie is absent or empty")

	ErrUnknownSpecType = errors.New("cache: unknown cache spec type")
	ErrStoreClosed     = errors.New("cache: store is closed")
)

// Store is the key-value backend responses are cached in.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - Get returns "" and a nil error on a miss or an expired entry.
//   - Set overwrites any existing value; the last write wins.
//   - Ready is cheap and non-blocking; it is consulted on every request.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Ready() bool
}

// ValidateKey checks if a key is valid for caching.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}
