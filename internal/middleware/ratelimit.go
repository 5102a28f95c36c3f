package middleware

import (
	"log/slog"
	"math"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/shop-bot/internal/bot/handlers"
	apperrors "github.com/Proton-105/shop-bot/internal/errors"
	"github.com/Proton-105/shop-bot/internal/ratelimit"
)

// RateLimitMiddleware enforces the per-user rate limit on incoming updates.
type RateLimitMiddleware struct {
	limiter ratelimit.Limiter
	policy  *ratelimit.Policy
	report  func(c telebot.Context, err *apperrors.AppError)
	log     *slog.Logger
}

// NewRateLimitMiddleware constructs a rate-limit middleware. report receives every rejection.
func NewRateLimitMiddleware(
	limiter ratelimit.Limiter,
	policy *ratelimit.Policy,
	report func(c telebot.Context, err *apperrors.AppError),
	log *slog.Logger,
) *RateLimitMiddleware {
	if log == nil {
		log = slog.Default()
	}

	return &RateLimitMiddleware{
		limiter: limiter,
		policy:  policy,
		report:  report,
		log:     log,
	}
}

// Handle rejects updates above the limit with a rate limit error. Limiter failures let the update through.
func (m *RateLimitMiddleware) Handle(next handlers.Handler) handlers.Handler {
	if next == nil {
		return nil
	}

	return func(c telebot.Context) error {
		if m == nil || m.limiter == nil || m.policy == nil {
			return next(c)
		}

		userID := handlers.UserID(c)
		if userID == 0 || m.policy.IsWhitelisted(userID) {
			return next(c)
		}

		ctx := handlers.Context(c)
		result, err := m.limiter.Check(ctx, ratelimit.UserKey(userID), m.policy.PerUser())
		if err != nil {
			m.log.WarnContext(ctx, "rate limiter error", slog.Int64("user_id", userID), slog.Any("error", err))
			return next(c)
		}

		if result.Allowed {
			return next(c)
		}

		appErr := apperrors.NewRateLimitError(int(math.Ceil(result.RetryAfter.Seconds())))
		if m.report != nil {
			m.report(c, appErr)
		}
		return appErr
	}
}
