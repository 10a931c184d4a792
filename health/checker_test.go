package health

import (
	"context"
	"errors"
	"testing"
)

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusHealthy, "healthy"},
		{StatusDegraded, "degraded"},
		{StatusUnhealthy, "unhealthy"},
		{Status(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestResultConstructors(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name    string
		result  Result
		status  Status
		wantErr error
	}{
		{"healthy", Healthy("ok"), StatusHealthy, nil},
		{"degraded", Degraded("slow", boom), StatusDegraded, boom},
		{"unhealthy", Unhealthy("down", boom), StatusUnhealthy, boom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.result.Status != tt.status || tt.result.Error != tt.wantErr {
				t.Errorf("result = %+v", tt.result)
			}
			if tt.result.Timestamp.IsZero() {
				t.Error("Timestamp should be set")
			}
		})
	}

	r := Healthy("ok").WithDetails(map[string]any{"backend": "redis"})
	if r.Details["backend"] != "redis" {
		t.Errorf("Details = %v", r.Details)
	}
}

func TestCheckerFunc(t *testing.T) {
	var called bool
	c := NewCheckerFunc("cache_store", func(context.Context) Result {
		called = true
		return Degraded("paused", nil)
	})

	if c.Name() != "cache_store" {
		t.Errorf("Name() = %q", c.Name())
	}
	if r := c.Check(context.Background()); !called || r.Status != StatusDegraded {
		t.Errorf("Check() = %+v, called = %v", r, called)
	}
}
