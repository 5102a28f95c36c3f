package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "shop:ratelimit:"

// RedisLimiter implements Limiter with a sorted set per key shared by all bot replicas.
type RedisLimiter struct {
	client *redis.Client
	log    *slog.Logger
	now    func() time.Time
}

var _ Limiter = (*RedisLimiter)(nil)

// NewRedisLimiter creates a Redis-backed Limiter.
func NewRedisLimiter(client *redis.Client, log *slog.Logger) *RedisLimiter {
	if log == nil {
		log = slog.Default()
	}

	return &RedisLimiter{
		client: client,
		log:    log,
		now:    time.Now,
	}
}

// Check records the request and reports whether it fits in the window. Rejected requests
// are not counted.
func (l *RedisLimiter) Check(ctx context.Context, key string, rule Rule) (Result, error) {
	if l.client == nil {
		return Result{}, errors.New("redis client is not configured for rate limiting")
	}

	now := l.now()
	if rule.Limit <= 0 {
		return Result{Allowed: false, RetryAfter: rule.Window}, nil
	}

	redisKey := redisKeyPrefix + key
	member := uuid.NewString()
	cutoff := strconv.FormatInt(now.Add(-rule.Window).UnixMicro(), 10)

	pipe := l.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "-inf", cutoff)
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now.UnixMicro()), Member: member})
	countCmd := pipe.ZCard(ctx, redisKey)
	oldestCmd := pipe.ZRangeWithScores(ctx, redisKey, 0, 0)
	pipe.Expire(ctx, redisKey, rule.Window*2)

	if _, err := pipe.Exec(ctx); err != nil {
		l.log.Error("rate limiter pipeline failed", slog.String("key", key), slog.Any("error", err))
		return Result{}, fmt.Errorf("rate limit pipeline: %w", err)
	}

	count := int(countCmd.Val())
	if count <= rule.Limit {
		return Result{Allowed: true, Remaining: rule.Limit - count}, nil
	}

	if err := l.client.ZRem(ctx, redisKey, member).Err(); err != nil {
		l.log.Warn("failed to drop rejected request", slog.String("key", key), slog.Any("error", err))
	}

	retryAfter := rule.Window
	if oldest := oldestCmd.Val(); len(oldest) > 0 {
		oldestAt := time.UnixMicro(int64(oldest[0].Score))
		retryAfter = oldestAt.Add(rule.Window).Sub(now)
	}

	return Result{Allowed: false, RetryAfter: retryAfter}, nil
}
