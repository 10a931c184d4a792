package cache

import "time"

// DefaultExpireSeconds is the TTL of a route that does not set one.
const DefaultExpireSeconds = 60

// Policy turns a route's expiry into the TTL its entries are stored with.
type Policy struct {
	DefaultTTL time.Duration // used for a non-positive expiry
	MaxTTL     time.Duration // upper bound; zero means none
}

// DefaultPolicy stores entries for 60 seconds unless the route says
// otherwise and sets no upper bound.
func DefaultPolicy() Policy {
	return Policy{DefaultTTL: DefaultExpireSeconds * time.Second}
}

// EffectiveTTL resolves a requested TTL. A non-positive request falls back
// to DefaultTTL, then to DefaultExpireSeconds.
func (p Policy) EffectiveTTL(requested time.Duration) time.Duration {
	ttl := requested
	for _, fallback := range []time.Duration{p.DefaultTTL, DefaultExpireSeconds * time.Second} {
		if ttl > 0 {
			break
		}
		ttl = fallback
	}
	if p.MaxTTL > 0 {
		ttl = min(ttl, p.MaxTTL)
	}
	return ttl
}

// TTLFor resolves the TTL for entries stored under s.
func (p Policy) TTLFor(s Spec) time.Duration {
	return p.EffectiveTTL(time.Duration(s.Expiry()) * time.Second)
}
