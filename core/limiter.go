package core

import (
	"fmt"
	"sync"
)

// InvocationLimiter enforces a maximum number of agent invocations per run.
// It backstops the per-pattern bounds (max_iterations, max_handoffs) so a
// misconfigured composite cannot spin up unbounded model calls.
type InvocationLimiter struct {
	max   int
	count int
	mu    sync.Mutex
}

// NewInvocationLimiter creates a limiter with a max number of invocations.
// If max == 0, unlimited invocations are allowed.
func NewInvocationLimiter(max int) *InvocationLimiter {
	return &InvocationLimiter{max: max}
}

// Increment increases the counter and returns an error if the limit is exceeded.
func (l *InvocationLimiter) Increment() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.count++
	if l.max > 0 && l.count > l.max {
		return fmt.Errorf("exceeded max agent invocations: %d", l.max)
	}

	return nil
}

// Count returns the current number of invocations made.
func (l *InvocationLimiter) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.count
}

// Remaining returns how many invocations are left before hitting the limit.
func (l *InvocationLimiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.max == 0 {
		return -1 // unlimited
	}

	return l.max - l.count
}
