package idempotency

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"

	keyPrefix = "shop:idempotency:"
)

// Store keeps the processing status of update keys.
type Store interface {
	// Acquire marks key as processing unless a record exists; it reports whether it did.
	Acquire(ctx context.Context, key string, lockTTL time.Duration) (bool, error)
	// Status returns the recorded status of key or "" when none.
	Status(ctx context.Context, key string) (string, error)
	// Complete marks key as processed for ttl.
	Complete(ctx context.Context, key string, ttl time.Duration) error
	// Release forgets key so that a redelivery is processed again.
	Release(ctx context.Context, key string) error
}

// RedisStore keeps records as plain string keys with expiry.
type RedisStore struct {
	client *redis.Client
	log    *slog.Logger
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a Redis-backed Store.
func NewRedisStore(client *redis.Client, log *slog.Logger) *RedisStore {
	if log == nil {
		log = slog.Default()
	}

	return &RedisStore{
		client: client,
		log:    log,
	}
}

func (s *RedisStore) Acquire(ctx context.Context, key string, lockTTL time.Duration) (bool, error) {
	acquired, err := s.client.SetNX(ctx, recordKey(key), StatusProcessing, lockTTL).Result()
	if err != nil {
		s.log.Error("failed to acquire idempotency key", slog.String("key", key), slog.Any("error", err))
		return false, fmt.Errorf("acquire idempotency key: %w", err)
	}

	return acquired, nil
}

func (s *RedisStore) Status(ctx context.Context, key string) (string, error) {
	status, err := s.client.Get(ctx, recordKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		s.log.Error("failed to fetch idempotency record", slog.String("key", key), slog.Any("error", err))
		return "", fmt.Errorf("get idempotency record: %w", err)
	}

	return status, nil
}

func (s *RedisStore) Complete(ctx context.Context, key string, ttl time.Duration) error {
	if err := s.client.Set(ctx, recordKey(key), StatusCompleted, ttl).Err(); err != nil {
		s.log.Error("failed to store idempotency record", slog.String("key", key), slog.Any("error", err))
		return fmt.Errorf("complete idempotency key: %w", err)
	}

	return nil
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, recordKey(key)).Err(); err != nil {
		s.log.Error("failed to release idempotency key", slog.String("key", key), slog.Any("error", err))
		return fmt.Errorf("release idempotency key: %w", err)
	}

	return nil
}

func recordKey(key string) string {
	return keyPrefix + key
}
