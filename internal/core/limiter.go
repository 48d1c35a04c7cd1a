package core

// limiter.go bounds how many parse and summary jobs run at once.
//
// A job that cannot get a slot within maxWait fails with ErrTooManyJobs.
// WaitForDrain blocks until every active job has released its slot, which
// lets shutdown finish in-flight work first.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManyJobs is returned when all job slots are occupied and the wait
// timeout expires. Clients should retry after a short delay.
var ErrTooManyJobs = errors.New("too many concurrent jobs, please try again later")

// DefaultMaxConcurrentJobs is the default limit for parallel jobs.
const DefaultMaxConcurrentJobs = 5

// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
const DefaultMaxWaitTime = 30 * time.Second

// Limiter is a counting semaphore over job slots.
type Limiter struct {
	slots   chan struct{}
	maxWait time.Duration

	mu     sync.Mutex
	active int
	idle   *sync.Cond
}

// NewLimiter creates a limiter that allows at most maxConcurrent jobs.
// Non-positive arguments fall back to the package defaults.
func NewLimiter(maxConcurrent int, maxWait time.Duration) *Limiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentJobs
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	l := &Limiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
	l.idle = sync.NewCond(&l.mu)
	return l
}

// Acquire waits for a free slot. It returns ctx.Err() if ctx ends first and
// ErrTooManyJobs if maxWait elapses. Callers must Release after success.
// A ctx that has already ended never takes a slot, even when one is free.
func (l *Limiter) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.inc()
		return nil
	case <-timer.C:
		return ErrTooManyJobs
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryAcquire takes a slot without blocking and reports whether it did.
func (l *Limiter) TryAcquire() bool {
	select {
	case l.slots <- struct{}{}:
		l.inc()
		return true
	default:
		return false
	}
}

// Release frees a slot taken by Acquire or TryAcquire.
func (l *Limiter) Release() {
	l.mu.Lock()
	l.active--
	if l.active == 0 {
		l.idle.Broadcast()
	}
	l.mu.Unlock()

	<-l.slots
}

func (l *Limiter) inc() {
	l.mu.Lock()
	l.active++
	l.mu.Unlock()
}

// ActiveCount returns the number of running jobs.
func (l *Limiter) ActiveCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// MaxConcurrent returns the slot count.
func (l *Limiter) MaxConcurrent() int {
	return cap(l.slots)
}

// Available returns the number of free slots.
func (l *Limiter) Available() int {
	return cap(l.slots) - len(l.slots)
}

// WaitForDrain blocks until no jobs are active or ctx ends.
func (l *Limiter) WaitForDrain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		l.mu.Lock()
		for l.active > 0 && ctx.Err() == nil {
			l.idle.Wait()
		}
		l.mu.Unlock()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		// Wake the waiter so it observes ctx and exits.
		l.mu.Lock()
		l.idle.Broadcast()
		l.mu.Unlock()
		<-done
		return ctx.Err()
	}
}

// LimiterStatus is a snapshot of limiter state.
type LimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state for monitoring.
func (l *Limiter) Status() LimiterStatus {
	return LimiterStatus{
		Active:        l.ActiveCount(),
		Available:     l.Available(),
		MaxConcurrent: cap(l.slots),
	}
}
