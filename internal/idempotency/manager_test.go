package idempotency

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return client, mr
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestManager_SkipsDuplicates(t *testing.T) {
	client, mr := setupTestRedis(t)
	m := NewManager(NewRedisStore(client, testLogger()), time.Hour, testLogger())
	ctx := context.Background()

	calls := 0
	op := func(context.Context) error {
		calls++
		return nil
	}

	require.NoError(t, m.Execute(ctx, "update:1", op))
	err := m.Execute(ctx, "update:1", op)
	require.ErrorIs(t, err, ErrDuplicate)
	assert.Equal(t, 1, calls)

	value, err := mr.Get(keyPrefix + "update:1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, value)
	assert.Equal(t, time.Hour, mr.TTL(keyPrefix+"update:1"))

	mr.FastForward(2 * time.Hour)
	require.NoError(t, m.Execute(ctx, "update:1", op))
	assert.Equal(t, 2, calls)
}

func TestManager_FailureAllowsRetry(t *testing.T) {
	client, mr := setupTestRedis(t)
	m := NewManager(NewRedisStore(client, testLogger()), time.Hour, testLogger())
	ctx := context.Background()

	boom := errors.New("boom")
	err := m.Execute(ctx, "update:2", func(context.Context) error { return boom })
	require.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists(keyPrefix+"update:2"))

	require.NoError(t, m.Execute(ctx, "update:2", func(context.Context) error { return nil }))
}

func TestManager_InProgressIsDuplicate(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewRedisStore(client, testLogger())
	m := NewManager(store, time.Hour, testLogger())
	ctx := context.Background()

	acquired, err := store.Acquire(ctx, "update:3", time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	err = m.Execute(ctx, "update:3", func(context.Context) error {
		t.Fatal("operation must not run")
		return nil
	})
	require.ErrorIs(t, err, ErrDuplicate)
	assert.Contains(t, err.Error(), StatusProcessing)
}

func TestCleaner_RemovesKeysWithoutExpiry(t *testing.T) {
	client, mr := setupTestRedis(t)
	require.NoError(t, mr.Set(keyPrefix+"stale", StatusCompleted))
	require.NoError(t, mr.Set(keyPrefix+"fresh", StatusCompleted))
	mr.SetTTL(keyPrefix+"fresh", time.Hour)
	require.NoError(t, mr.Set("shop:state:1", "HANDLE_MENU"))

	c := NewCleaner(client, testLogger(), time.Minute, 24*time.Hour)
	assert.Equal(t, 1, c.cleanup(context.Background()))

	assert.False(t, mr.Exists(keyPrefix+"stale"))
	assert.True(t, mr.Exists(keyPrefix+"fresh"))
	assert.True(t, mr.Exists("shop:state:1"))
}

func TestGenerateKey(t *testing.T) {
	a := CallbackKey("123")
	assert.Len(t, a, len("callback:")+32)
	assert.True(t, strings.HasPrefix(a, "callback:"))
	assert.Equal(t, a, GenerateKey("callback", "123"))
	assert.NotEqual(t, a, GenerateKey("message", "123"))

	assert.Equal(t, MessageKey(1, 10), MessageKey(1, 10))
	assert.NotEqual(t, MessageKey(1, 10), MessageKey(2, 10))
}
