package core

// import_limiter.go serializes imports against one store.
//
// Replacing public feeds while another import is inserting would interleave
// two partial datasets, so the limiter admits a single import at a time.
// Callers that cannot get the slot within maxWait fail with
// ErrImportInProgress. WaitForDrain lets shutdown wait for the running
// import to finish.

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// DefaultLockWait is how long to wait for the import slot before rejecting.
const DefaultLockWait = 30 * time.Second

// ImportLimiter is a weighted semaphore of size one with a bounded wait.
type ImportLimiter struct {
	sem     *semaphore.Weighted
	maxWait time.Duration
	active  atomic.Int32
}

// NewImportLimiter returns a limiter that waits at most maxWait for the slot.
func NewImportLimiter(maxWait time.Duration) *ImportLimiter {
	if maxWait <= 0 {
		maxWait = DefaultLockWait
	}
	return &ImportLimiter{
		sem:     semaphore.NewWeighted(1),
		maxWait: maxWait,
	}
}

// Acquire takes the import slot. It returns ErrImportInProgress when the
// wait expires, or ctx.Err() when ctx ends first.
// The caller MUST call Release() when the import completes (use defer).
func (l *ImportLimiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	if err := l.sem.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrImportInProgress
	}
	l.active.Add(1)
	return nil
}

// TryAcquire takes the slot without blocking.
func (l *ImportLimiter) TryAcquire() bool {
	if !l.sem.TryAcquire(1) {
		return false
	}
	l.active.Add(1)
	return true
}

// Release frees the slot taken by Acquire or TryAcquire.
func (l *ImportLimiter) Release() {
	l.active.Add(-1)
	l.sem.Release(1)
}

// Busy reports whether an import holds the slot.
func (l *ImportLimiter) Busy() bool {
	return l.active.Load() > 0
}

// WaitForDrain blocks until no import is running or ctx is done.
func (l *ImportLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if !l.Busy() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
