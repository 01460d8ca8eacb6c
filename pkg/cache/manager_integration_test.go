//go:build integration

package cache

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedisContainer starts a Redis container and returns a client.
func setupRedisContainer(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "start redis container")

	endpoint, err := redisContainer.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	require.NoError(t, client.Ping(ctx).Err())

	t.Cleanup(func() {
		client.Close()
		redisContainer.Terminate(ctx)
	})

	return client
}

func TestManager_Integration_ExpiresInRedis(t *testing.T) {
	client := setupRedisContainer(t)
	manager := NewManager(client)
	ctx := context.Background()

	key := Key{Endpoint: "/ingest/providers"}
	header := http.Header{"Expires": []string{time.Now().Add(2 * time.Second).Format(http.TimeFormat)}}
	entry := NewEntry(http.StatusOK, header, []byte(`[{"provider-id":"PROV"}]`), time.Minute, time.Now())

	require.NoError(t, manager.Store(ctx, key, entry))

	ttl, err := client.TTL(ctx, key.String()).Result()
	require.NoError(t, err)
	assert.LessOrEqual(t, ttl, 3*time.Second)

	_, err = manager.Lookup(ctx, key)
	require.NoError(t, err)

	time.Sleep(3 * time.Second)

	_, err = manager.Lookup(ctx, key)
	assert.ErrorIs(t, err, ErrCacheMiss)
}
