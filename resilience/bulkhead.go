package resilience

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// BulkheadConfig configures a Bulkhead.
type BulkheadConfig struct {
	MaxConcurrent int // default 64

	// MaxWait is how long Execute waits for a slot. Zero rejects at once.
	MaxWait time.Duration
}

// Bulkhead caps the number of store calls in flight.
type Bulkhead struct {
	sem      *semaphore.Weighted
	capacity int
	maxWait  time.Duration

	inFlight atomic.Int64
	rejected atomic.Int64
}

func NewBulkhead(config BulkheadConfig) *Bulkhead {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 64
	}
	return &Bulkhead{
		sem:      semaphore.NewWeighted(int64(config.MaxConcurrent)),
		capacity: config.MaxConcurrent,
		maxWait:  config.MaxWait,
	}
}

// Execute runs op once a slot is free. It returns ErrBulkheadFull if none
// frees up within MaxWait, or ctx's error if ctx ends first.
func (b *Bulkhead) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := b.acquire(ctx); err != nil {
		return err
	}
	b.inFlight.Add(1)
	defer func() {
		b.inFlight.Add(-1)
		b.sem.Release(1)
	}()

	return op(ctx)
}

func (b *Bulkhead) acquire(ctx context.Context) error {
	if b.sem.TryAcquire(1) {
		return nil
	}
	if b.maxWait <= 0 {
		b.rejected.Add(1)
		return ErrBulkheadFull
	}

	waitCtx, cancel := context.WithTimeout(ctx, b.maxWait)
	defer cancel()
	if err := b.sem.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b.rejected.Add(1)
		return ErrBulkheadFull
	}
	return nil
}

// BulkheadMetrics is a snapshot of a Bulkhead.
type BulkheadMetrics struct {
	InFlight int
	Capacity int
	Rejected int64
}

func (b *Bulkhead) Metrics() BulkheadMetrics {
	return BulkheadMetrics{
		InFlight: int(b.inFlight.Load()),
		Capacity: b.capacity,
		Rejected: b.rejected.Load(),
	}
}
