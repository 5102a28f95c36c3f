// Package ratelimit throttles updates per user with a sliding window.
package ratelimit

import (
	"context"
	"errors"
	"time"
)

// Result captures the outcome of a rate-limit evaluation.
type Result struct {
	Allowed   bool
	Remaining int
	// RetryAfter is how long until the oldest counted request leaves the window.
	RetryAfter time.Duration
}

// Limiter counts requests per key within a sliding window.
type Limiter interface {
	Check(ctx context.Context, key string, rule Rule) (Result, error)
}

// ErrLimitExceeded indicates the rate limit has been reached for the key.
var ErrLimitExceeded = errors.New("rate limit exceeded")
