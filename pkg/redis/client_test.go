package redis

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/shop-bot/pkg/config"
)

func TestNew_ConnectsAndCountsCommands(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := New(context.Background(), config.RedisConfig{Addr: mr.Addr(), PoolSize: 2})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.HealthCheck(context.Background()))

	before := testutil.ToFloat64(redisRequestsTotal.WithLabelValues("get"))
	misses := testutil.ToFloat64(redisErrorsTotal.WithLabelValues("get"))

	_, err = client.Get(context.Background(), "missing").Result()
	require.Error(t, err)

	assert.Equal(t, before+1, testutil.ToFloat64(redisRequestsTotal.WithLabelValues("get")))
	assert.Equal(t, misses, testutil.ToFloat64(redisErrorsTotal.WithLabelValues("get")))
}

func TestNew_FailsWhenUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := New(context.Background(), config.RedisConfig{Addr: addr, MaxRetries: -1})
	require.Error(t, err)
}

func TestHealthCheck_NilClient(t *testing.T) {
	var c *Client
	assert.Error(t, c.HealthCheck(context.Background()))
}
