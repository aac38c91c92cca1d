//go:build integration

package hibp

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func TestRedisCache(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = testcontainers.TerminateContainer(container)
	})

	url, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)

	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())

	cache := NewRedisCache(client, time.Minute)

	_, ok, err := cache.Get(ctx, "21BD1")
	require.NoError(t, err)
	require.False(t, ok)

	body := []byte("0018A45C4D1DEF81644B54AB7F969B88D65:3\r\n")
	require.NoError(t, cache.Set(ctx, "21BD1", body))

	got, ok, err := cache.Get(ctx, "21BD1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, body, got)

	ttl, err := client.TTL(ctx, "hibp:range:21BD1").Result()
	require.NoError(t, err)
	require.Greater(t, ttl, time.Duration(0))
}
