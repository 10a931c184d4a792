package resilience

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestExecutor_Nil(t *testing.T) {
	var e *Executor

	called := false
	err := e.Execute(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	if err != nil || !called {
		t.Errorf("nil executor: err = %v, called = %v", err, called)
	}
	if !e.Available() {
		t.Error("nil executor should be available")
	}
	if e.CircuitBreaker() != nil {
		t.Error("nil executor has no circuit breaker")
	}
}

func TestExecutor_NoPatterns(t *testing.T) {
	e := NewExecutor()

	if err := e.Execute(context.Background(), fail); !errors.Is(err, errStore) {
		t.Errorf("err = %v, want errStore", err)
	}
	if !e.Available() {
		t.Error("executor without breaker should be available")
	}
}

func TestExecutor_Timeout(t *testing.T) {
	e := NewExecutor(WithTimeout(10 * time.Millisecond))

	err := e.Execute(context.Background(), func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("err = %v, want ErrTimeout", err)
	}
}

func TestExecutor_TimeoutHandler(t *testing.T) {
	to := NewTimeout(10 * time.Millisecond)
	e := NewExecutor(WithTimeoutHandler(to))

	if e.timeout != to {
		t.Error("expected shared timeout to be installed")
	}
}

func TestExecutor_TimeoutBoundsEachAttempt(t *testing.T) {
	e := NewExecutor(
		WithRetry(NewRetry(RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond})),
		WithTimeout(10*time.Millisecond),
	)

	var attempts atomic.Int32
	err := e.Execute(context.Background(), func(ctx context.Context) error {
		if attempts.Add(1) < 3 {
			<-ctx.Done()
			return ctx.Err()
		}
		return nil
	})
	if err != nil {
		t.Errorf("err = %v, want nil", err)
	}
	if got := attempts.Load(); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestExecutor_AbandonedAttemptReturnsLate(t *testing.T) {
	e := NewExecutor(
		WithRetry(NewRetry(RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond})),
		WithTimeout(10*time.Millisecond),
	)

	var attempts atomic.Int32
	var late atomic.Bool
	abandoned := make(chan struct{})
	err := e.Execute(context.Background(), func(ctx context.Context) error {
		if attempts.Add(1) == 1 {
			defer close(abandoned)
			// ignores ctx, like a store client without deadline support
			time.Sleep(50 * time.Millisecond)
			late.Store(ctx.Err() != nil)
			return nil
		}
		return nil
	})
	if err != nil {
		t.Fatalf("err = %v, want nil from the second attempt", err)
	}

	select {
	case <-abandoned:
		t.Fatal("Execute waited for the abandoned attempt")
	default:
	}

	<-abandoned
	if !late.Load() {
		t.Error("abandoned attempt should see its context done when it returns")
	}
	if got := attempts.Load(); got != 2 {
		t.Errorf("attempts = %d, want 2", got)
	}
}

func TestExecutor_CircuitMakesUnavailable(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 2, ResetTimeout: time.Minute})
	e := NewExecutor(WithCircuitBreaker(cb))

	for i := 0; i < 2; i++ {
		_ = e.Execute(context.Background(), fail)
	}

	if e.Available() {
		t.Error("executor should be unavailable while the circuit is open")
	}
	if err := e.Execute(context.Background(), succeed); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("err = %v, want ErrCircuitOpen", err)
	}
	if e.CircuitBreaker() != cb {
		t.Error("CircuitBreaker() should return the configured breaker")
	}
}

func TestExecutor_BulkheadOutsideCircuit(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 1})
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 1})
	e := NewExecutor(WithBulkhead(b), WithCircuitBreaker(cb))

	free := hold(t, b, 1)
	defer free()

	if err := e.Execute(context.Background(), succeed); !errors.Is(err, ErrBulkheadFull) {
		t.Fatalf("err = %v, want ErrBulkheadFull", err)
	}
	// a bulkhead rejection never reaches the breaker
	if cb.State() != StateClosed {
		t.Errorf("state = %v, want closed", cb.State())
	}
}
