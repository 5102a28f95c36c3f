package ratelimit

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	rateLimitChecksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ratelimit_checks_total",
		Help: "Total number of rate limit checks by backend and result.",
	}, []string{"backend", "result"})

	rateLimitBackendErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ratelimit_backend_errors_total",
		Help: "Total number of primary backend errors that triggered the in-memory fallback.",
	})
)

func init() {
	prometheus.MustRegister(rateLimitChecksTotal, rateLimitBackendErrorsTotal)
}

// FallbackLimiter checks the shared primary limiter and falls back to a stricter local
// limiter while the primary is failing.
type FallbackLimiter struct {
	primary  Limiter
	fallback Limiter
	log      *slog.Logger
}

var _ Limiter = (*FallbackLimiter)(nil)

// NewFallbackLimiter combines a primary and a fallback limiter.
func NewFallbackLimiter(primary, fallback Limiter, log *slog.Logger) *FallbackLimiter {
	if log == nil {
		log = slog.Default()
	}

	return &FallbackLimiter{
		primary:  primary,
		fallback: fallback,
		log:      log,
	}
}

// Check evaluates the rule on the primary backend; on error the fallback applies half the limit.
func (f *FallbackLimiter) Check(ctx context.Context, key string, rule Rule) (Result, error) {
	result, err := f.primary.Check(ctx, key, rule)
	if err == nil {
		rateLimitChecksTotal.WithLabelValues("primary", resultLabel(result.Allowed)).Inc()
		return result, nil
	}

	rateLimitBackendErrorsTotal.Inc()
	f.log.WarnContext(ctx, "primary limiter failed, using in-memory fallback", slog.String("key", key), slog.Any("error", err))

	strict := rule
	strict.Limit = max(rule.Limit/2, 1)

	result, err = f.fallback.Check(ctx, key, strict)
	if err != nil {
		return Result{}, err
	}

	rateLimitChecksTotal.WithLabelValues("fallback", resultLabel(result.Allowed)).Inc()
	return result, nil
}

func resultLabel(allowed bool) string {
	if allowed {
		return "allowed"
	}
	return "rejected"
}
