//go:build integration

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/leetgroups/groupboard/internal/domain/leaderboard"
)

func startRedis(t *testing.T) *Cache {
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
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Addr = endpoint
	cache, err := NewCache(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

func TestStatsCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	sc := NewStatsCache(startRedis(t), time.Minute)

	_, err := sc.Get(ctx, "alice")
	assert.ErrorIs(t, err, ErrCacheMiss)

	p := &leaderboard.Profile{
		Handle:      "alice",
		DisplayName: "Alice",
		Counts: leaderboard.AcceptedCounts{
			Total:  leaderboard.IntPtr(6),
			Easy:   leaderboard.IntPtr(3),
			Medium: leaderboard.IntPtr(2),
			Hard:   leaderboard.IntPtr(1),
		},
	}
	require.NoError(t, sc.Set(ctx, "alice", p))

	got, err := sc.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, p, got)

	require.NoError(t, sc.Invalidate(ctx, "alice"))
	_, err = sc.Get(ctx, "alice")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestStatsCache_Expires(t *testing.T) {
	ctx := context.Background()
	sc := NewStatsCache(startRedis(t), 50*time.Millisecond)

	require.NoError(t, sc.Set(ctx, "bob", &leaderboard.Profile{Handle: "bob"}))
	assert.Eventually(t, func() bool {
		_, err := sc.Get(ctx, "bob")
		return err == ErrCacheMiss
	}, 2*time.Second, 20*time.Millisecond)
}
