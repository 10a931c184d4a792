package resilience

import (
	"context"
	"errors"
)

var (
	// ErrCircuitOpen rejects calls while the breaker is open or its
	// half-open probes are used up.
	ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

	// ErrMaxRetriesExceeded wraps the last attempt's error.
	ErrMaxRetriesExceeded = errors.New("resilience: max retries exceeded")

	ErrBulkheadFull = errors.New("resilience: bulkhead at capacity")
	ErrTimeout      = errors.New("resilience: operation timed out")
)

// isContextCancel reports whether the caller gave up. Cancellations are not
// store failures and do not count against the breaker or trigger retries.
func isContextCancel(err error) bool {
	return errors.Is(err, context.Canceled)
}
