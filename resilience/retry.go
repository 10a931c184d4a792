package resilience

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// BackoffStrategy selects how the wait grows between attempts.
type BackoffStrategy int

const (
	BackoffExponential BackoffStrategy = iota // InitialDelay * Multiplier^(n-1)
	BackoffConstant                           // InitialDelay every time
)

// RetryConfig configures a Retry. Zero values take the defaults noted.
type RetryConfig struct {
	MaxAttempts  int           // total attempts including the first; default 3
	InitialDelay time.Duration // default 100ms
	MaxDelay     time.Duration // default 5s
	Multiplier   float64       // default 2
	Strategy     BackoffStrategy

	// Jitter adds up to a quarter of the delay at random.
	Jitter bool

	// RetryIf reports whether err is worth another attempt. By default
	// everything is, except an open circuit and caller cancellation.
	RetryIf func(err error) bool

	// OnRetry runs before each wait.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// Retry re-runs a failed operation with backoff.
type Retry struct {
	config RetryConfig
}

func NewRetry(config RetryConfig) *Retry {
	config.MaxAttempts = cmpOr(config.MaxAttempts, 3)
	config.InitialDelay = cmpOr(config.InitialDelay, 100*time.Millisecond)
	config.MaxDelay = cmpOr(config.MaxDelay, 5*time.Second)
	config.Multiplier = cmpOr(config.Multiplier, 2.0)
	if config.RetryIf == nil {
		config.RetryIf = retryable
	}
	return &Retry{config: config}
}

// cmpOr returns def when v is not positive.
func cmpOr[T int | float64 | time.Duration](v, def T) T {
	if v <= 0 {
		return def
	}
	return v
}

func retryable(err error) bool {
	return !errors.Is(err, ErrCircuitOpen) && !isContextCancel(err)
}

// Execute calls op until it succeeds or RetryIf rejects its error. It also
// stops when the attempts run out, returning the last error wrapped in
// ErrMaxRetriesExceeded, or when ctx ends during a wait.
func (r *Retry) Execute(ctx context.Context, op func(context.Context) error) error {
	attempt := 1
	for {
		err := op(ctx)
		switch {
		case err == nil:
			return nil
		case !r.config.RetryIf(err):
			return err
		case attempt >= r.config.MaxAttempts:
			return fmt.Errorf("%w after %d attempts: %w", ErrMaxRetriesExceeded, attempt, err)
		}

		wait := r.delay(attempt)
		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, err, wait)
		}
		if err := sleep(ctx, wait); err != nil {
			return err
		}
		attempt++
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (r *Retry) delay(attempt int) time.Duration {
	d := r.config.InitialDelay
	if r.config.Strategy == BackoffExponential {
		d = time.Duration(float64(d) * math.Pow(r.config.Multiplier, float64(attempt-1)))
	}
	// overflow shows up as a non-positive duration
	if d <= 0 || d > r.config.MaxDelay {
		d = r.config.MaxDelay
	}
	if r.config.Jitter && d >= 4 {
		// #nosec G404 -- timing jitter, not security sensitive
		d += time.Duration(rand.Int64N(int64(d / 4)))
	}
	return d
}

// Config returns the effective configuration.
func (r *Retry) Config() RetryConfig { return r.config }
