package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter is an in-process sliding-window Limiter.
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string][]time.Time
	now     func() time.Time
}

var _ Limiter = (*MemoryLimiter)(nil)

// NewMemoryLimiter returns an empty in-memory limiter.
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		buckets: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Check enforces a sliding-window limit for the provided key.
func (m *MemoryLimiter) Check(_ context.Context, key string, rule Rule) (Result, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	requests := keepRecent(m.buckets[key], now.Add(-rule.Window))

	if len(requests) >= rule.Limit {
		m.buckets[key] = requests
		retryAfter := rule.Window
		if len(requests) > 0 {
			retryAfter = requests[0].Add(rule.Window).Sub(now)
		}
		return Result{Allowed: false, RetryAfter: retryAfter}, nil
	}

	requests = append(requests, now)
	m.buckets[key] = requests

	return Result{Allowed: true, Remaining: rule.Limit - len(requests)}, nil
}

// Cleanup removes keys without requests newer than maxAge and reports how many were dropped.
func (m *MemoryLimiter) Cleanup(maxAge time.Duration) int {
	cutoff := m.now().Add(-maxAge)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, requests := range m.buckets {
		if len(requests) == 0 || requests[len(requests)-1].Before(cutoff) {
			delete(m.buckets, key)
			removed++
		}
	}
	return removed
}

func keepRecent(reqs []time.Time, windowStart time.Time) []time.Time {
	first := 0
	for first < len(reqs) && !reqs[first].After(windowStart) {
		first++
	}

	if first == 0 {
		return reqs
	}

	n := copy(reqs, reqs[first:])
	return reqs[:n]
}
