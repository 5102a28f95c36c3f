package ratelimit

import (
	"fmt"
	"time"

	"github.com/Proton-105/shop-bot/pkg/config"
)

// Rule allows Limit requests per Window.
type Rule struct {
	Limit  int
	Window time.Duration
}

// Policy is the parsed per-user rate limit configuration.
type Policy struct {
	perUser   Rule
	whitelist map[int64]struct{}
}

// NewPolicy validates cfg and builds a Policy.
func NewPolicy(cfg config.RateLimitConfig) (*Policy, error) {
	window, err := time.ParseDuration(cfg.PerUser.Window)
	if err != nil {
		return nil, fmt.Errorf("rate limit window %q: %w", cfg.PerUser.Window, err)
	}
	if window <= 0 {
		return nil, fmt.Errorf("rate limit window must be positive, got %s", window)
	}

	whitelist := make(map[int64]struct{}, len(cfg.Whitelist))
	for _, id := range cfg.Whitelist {
		whitelist[id] = struct{}{}
	}

	return &Policy{
		perUser:   Rule{Limit: cfg.PerUser.Limit, Window: window},
		whitelist: whitelist,
	}, nil
}

// IsWhitelisted returns true if the user bypasses rate limits.
func (p *Policy) IsWhitelisted(userID int64) bool {
	_, ok := p.whitelist[userID]
	return ok
}

// PerUser returns the per-user rule.
func (p *Policy) PerUser() Rule {
	return p.perUser
}

// UserKey is the limiter key of a user.
func UserKey(userID int64) string {
	return fmt.Sprintf("user:%d", userID)
}
