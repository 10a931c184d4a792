package resilience

import (
	"context"
	"errors"
	"time"
)

// DefaultTimeout is used when a non-positive duration is configured.
const DefaultTimeout = time.Second

// Timeout bounds how long a single operation may run.
//
// The operation runs on its own goroutine so that callers are released at the
// deadline even when the operation ignores its context; it keeps running in
// the background until it returns.
type Timeout struct {
	d time.Duration
}

// NewTimeout creates a timeout of d, or DefaultTimeout when d <= 0.
func NewTimeout(d time.Duration) *Timeout {
	if d <= 0 {
		d = DefaultTimeout
	}
	return &Timeout{d: d}
}

// Duration returns the configured limit.
func (t *Timeout) Duration() time.Duration {
	return t.d
}

// Execute runs op with a deadline. It returns ErrTimeout when the deadline
// passes first and ctx.Err() when the caller cancels.
func (t *Timeout) Execute(ctx context.Context, op func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- op(ctx)
	}()

	select {
	case err := <-done:
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrTimeout
		}
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrTimeout
		}
		return ctx.Err()
	}
}

// ExecuteWithTimeout is a convenience function to run an operation with timeout.
func ExecuteWithTimeout(ctx context.Context, d time.Duration, op func(context.Context) error) error {
	return NewTimeout(d).Execute(ctx, op)
}
