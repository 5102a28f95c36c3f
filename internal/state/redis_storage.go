package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

const (
	userStateKeyPattern   = "shop:state:%d"
	userProductKeyPattern = "shop:product:%d"
	userStateScanPattern  = "shop:state:*"
	stateScanBatchCount   = 100
)

// RedisStorage persists user sessions in Redis without expiry.
type RedisStorage struct {
	client *redis.Client
	log    *slog.Logger
}

var _ Storage = (*RedisStorage)(nil)

// NewRedisStorage initializes a Redis-backed Storage implementation.
func NewRedisStorage(client *redis.Client, log *slog.Logger) *RedisStorage {
	if log == nil {
		log = slog.Default()
	}

	return &RedisStorage{
		client: client,
		log:    log,
	}
}

// GetState returns the stored user state or ErrStateNotFound when absent.
func (s *RedisStorage) GetState(ctx context.Context, userID int64) (State, error) {
	value, err := s.client.Get(ctx, fmt.Sprintf(userStateKeyPattern, userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrStateNotFound
		}

		s.log.Error("failed to get state from redis", "user_id", userID, "error", err)
		return "", fmt.Errorf("get state: %w", err)
	}

	return State(value), nil
}

// SetState saves the state value as-is.
func (s *RedisStorage) SetState(ctx context.Context, userID int64, st State) error {
	if err := s.client.Set(ctx, fmt.Sprintf(userStateKeyPattern, userID), string(st), 0).Err(); err != nil {
		s.log.Error("failed to save state in redis", "user_id", userID, "error", err)
		return fmt.Errorf("set state: %w", err)
	}

	return nil
}

// GetSelectedProduct returns the remembered product id or "" when none is stored.
func (s *RedisStorage) GetSelectedProduct(ctx context.Context, userID int64) (string, error) {
	value, err := s.client.Get(ctx, fmt.Sprintf(userProductKeyPattern, userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}

		s.log.Error("failed to get selected product from redis", "user_id", userID, "error", err)
		return "", fmt.Errorf("get selected product: %w", err)
	}

	return value, nil
}

// SetSelectedProduct stores the product id, deleting the key for "".
func (s *RedisStorage) SetSelectedProduct(ctx context.Context, userID int64, productID string) error {
	key := fmt.Sprintf(userProductKeyPattern, userID)

	var err error
	if productID == "" {
		err = s.client.Del(ctx, key).Err()
	} else {
		err = s.client.Set(ctx, key, productID, 0).Err()
	}
	if err != nil {
		s.log.Error("failed to save selected product in redis", "user_id", userID, "error", err)
		return fmt.Errorf("set selected product: %w", err)
	}

	return nil
}

// CountByState scans every stored session and groups them by state value.
func (s *RedisStorage) CountByState(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int)

	var cursor uint64
	for {
		keys, nextCursor, err := s.client.Scan(ctx, cursor, userStateScanPattern, stateScanBatchCount).Result()
		if err != nil {
			s.log.Error("failed to scan user states", "error", err)
			return nil, fmt.Errorf("scan states: %w", err)
		}

		if len(keys) > 0 {
			values, err := s.client.MGet(ctx, keys...).Result()
			if err != nil {
				s.log.Error("failed to fetch user states", "error", err)
				return nil, fmt.Errorf("fetch states: %w", err)
			}

			for _, value := range values {
				if raw, ok := value.(string); ok {
					counts[raw]++
				}
			}
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return counts, nil
}
