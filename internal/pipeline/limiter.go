package pipeline

// limiter.go admits runs into the shared staging area.
//
// The staging directory is single-tenant, so serve mode admits at most one
// run at a time. A trigger that arrives while a run is active fails fast
// with ErrBusy rather than queueing. WaitForDrain supports graceful
// shutdown by blocking until the active run completes.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrBusy is returned when all run slots are occupied.
var ErrBusy = errors.New("run already in progress")

// DefaultMaxConcurrentRuns is the default limit for parallel runs.
const DefaultMaxConcurrentRuns = 1

// RunLimiter controls concurrent runs using a semaphore pattern.
type RunLimiter struct {
	semaphore chan struct{}

	mu     sync.RWMutex
	active int
}

// NewRunLimiter creates a limiter that allows at most maxConcurrent runs.
func NewRunLimiter(maxConcurrent int) *RunLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentRuns
	}
	return &RunLimiter{
		semaphore: make(chan struct{}, maxConcurrent),
	}
}

// TryAcquire takes a run slot without blocking. It returns ErrBusy when
// none is free. The caller MUST call Release when the run completes.
func (l *RunLimiter) TryAcquire() error {
	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil
	default:
		return ErrBusy
	}
}

// Release releases a previously acquired slot.
// Must be called exactly once for each successful TryAcquire.
func (l *RunLimiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()

	<-l.semaphore
}

// ActiveCount returns the number of currently active runs.
func (l *RunLimiter) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// WaitForDrain blocks until all active runs complete or ctx is cancelled.
func (l *RunLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunLimiterStatus is a snapshot of the limiter's state.
type RunLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state for monitoring.
func (l *RunLimiter) Status() RunLimiterStatus {
	l.mu.RLock()
	active := l.active
	l.mu.RUnlock()

	return RunLimiterStatus{
		Active:        active,
		Available:     cap(l.semaphore) - len(l.semaphore),
		MaxConcurrent: cap(l.semaphore),
	}
}
