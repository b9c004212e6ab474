package redis_test

import (
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"example.com/storefront/internal/infra/persistence/redis"
	"example.com/storefront/internal/infra/persistence/storagetest"
)

func TestSessionStorage(t *testing.T) {
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := t.Context()

	ctr, err := tcredis.Run(ctx, "redis:7.4-alpine")
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	uri, err := ctr.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := goredis.ParseURL(uri)
	require.NoError(t, err)

	client := goredis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	storage := redis.NewSessionStorage(client, time.Hour)
	storagetest.Run(t, storage)

	require.NoError(t, storage.Set(ctx, "ttl-check", "userEmail", "a@example.com"))
	ttl, err := client.TTL(ctx, "session:ttl-check").Result()
	require.NoError(t, err)
	require.Greater(t, ttl, time.Duration(0))
}
