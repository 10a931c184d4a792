package resilience

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestSentinelErrors(t *testing.T) {
	errs := []error{ErrCircuitOpen, ErrMaxRetriesExceeded, ErrBulkheadFull, ErrTimeout}
	for i, a := range errs {
		for j, b := range errs {
			if i != j && errors.Is(a, b) {
				t.Errorf("%v should not match %v", a, b)
			}
		}
	}
}

func TestIsContextCancel(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{context.Canceled, true},
		{fmt.Errorf("get: %w", context.Canceled), true},
		{context.DeadlineExceeded, false},
		{errStore, false},
		{nil, false},
	}
	for _, tt := range tests {
		if got := isContextCancel(tt.err); got != tt.want {
			t.Errorf("isContextCancel(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
