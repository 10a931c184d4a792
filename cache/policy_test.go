package cache

import (
	"testing"
	"time"
)

func TestPolicy_EffectiveTTL(t *testing.T) {
	tests := []struct {
		name     string
		policy   Policy
		override time.Duration
		want     time.Duration
	}{
		{name: "default policy, no override", policy: DefaultPolicy(), override: 0, want: 60 * time.Second},
		{name: "negative override", policy: DefaultPolicy(), override: -time.Second, want: 60 * time.Second},
		{name: "override", policy: DefaultPolicy(), override: 5 * time.Second, want: 5 * time.Second},
		{name: "zero policy", policy: Policy{}, override: 0, want: 60 * time.Second},
		{name: "custom default", policy: Policy{DefaultTTL: time.Minute * 5}, override: 0, want: 5 * time.Minute},
		{name: "clamped", policy: Policy{DefaultTTL: time.Minute, MaxTTL: 30 * time.Second}, override: time.Hour, want: 30 * time.Second},
		{name: "default clamped", policy: Policy{DefaultTTL: time.Minute, MaxTTL: 30 * time.Second}, override: 0, want: 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.EffectiveTTL(tt.override); got != tt.want {
				t.Errorf("EffectiveTTL(%v) = %v, want %v", tt.override, got, tt.want)
			}
		})
	}
}

func TestPolicy_TTLFor(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		spec Spec
		want time.Duration
	}{
		{Always{}, 60 * time.Second},
		{PerAuthToken{ExpireSeconds: 0}, 60 * time.Second},
		{PerRequestURL{ExpireSeconds: -3}, 60 * time.Second},
		{PerCustomCookie{ExpireSeconds: 15, CustomCookie: "cartId"}, 15 * time.Second},
	}
	for _, tt := range tests {
		if got := p.TTLFor(tt.spec); got != tt.want {
			t.Errorf("TTLFor(%#v) = %v, want %v", tt.spec, got, tt.want)
		}
	}
}
