//go:build integration

package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kouden/backend/internal/domain/kouden"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func newRedisContainerClient(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start Redis container")
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestRedisSummaryCache(t *testing.T) {
	client := newRedisContainerClient(t)
	ctx := context.Background()
	c := NewRedisSummaryCache(client, WithSummaryTTL(time.Minute))
	key := kouden.LedgerCacheKey(uuid.New())

	_, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, key, sampleSummaries()))
	got, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, got, 1)

	ttl, err := client.TTL(ctx, summaryKeyPrefix+key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, c.Delete(ctx, key))
	_, ok, err = c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisViewInvalidator_RoundTrip(t *testing.T) {
	client := newRedisContainerClient(t)
	inv := NewRedisViewInvalidator(client, WithInvalidatorChannel("test:invalidation"))

	received := make(chan string, 1)
	go func() {
		_ = inv.Subscribe(context.Background(), func(key string) {
			select {
			case received <- key:
			default:
			}
		})
	}()

	key := kouden.LedgerCacheKey(uuid.New())
	// Publish until the subscriber is attached
	require.Eventually(t, func() bool {
		inv.Invalidate(context.Background(), key)
		select {
		case got := <-received:
			return got == key
		case <-time.After(200 * time.Millisecond):
			return false
		}
	}, 10*time.Second, 50*time.Millisecond)

	require.NoError(t, inv.Close())
}
