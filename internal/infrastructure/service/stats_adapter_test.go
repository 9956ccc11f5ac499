package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leetgroups/groupboard/internal/domain/leaderboard"
	"github.com/leetgroups/groupboard/internal/domain/shared"
	"github.com/leetgroups/groupboard/internal/infrastructure/persistence/redis"
)

type countingUpstream struct {
	mu    sync.Mutex
	calls map[shared.Handle]int
	about string
	err   error
}

func (u *countingUpstream) FetchProfile(_ context.Context, h shared.Handle) (*leaderboard.Profile, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.calls == nil {
		u.calls = map[shared.Handle]int{}
	}
	u.calls[h]++
	if u.err != nil {
		return nil, u.err
	}
	return &leaderboard.Profile{Handle: h, AboutMe: u.about, Counts: leaderboard.AcceptedCounts{Total: leaderboard.IntPtr(7)}}, nil
}

type mapCache struct {
	items   map[shared.Handle]*leaderboard.Profile
	readErr error
}

func (c *mapCache) Get(_ context.Context, h shared.Handle) (*leaderboard.Profile, error) {
	if c.readErr != nil {
		return nil, c.readErr
	}
	p, ok := c.items[h]
	if !ok {
		return nil, redis.ErrCacheMiss
	}
	return p, nil
}

func (c *mapCache) Set(_ context.Context, h shared.Handle, p *leaderboard.Profile) error {
	c.items[h] = p
	return nil
}

func TestStatsAdapter_ReadThrough(t *testing.T) {
	up := &countingUpstream{}
	cache := &mapCache{items: map[shared.Handle]*leaderboard.Profile{}}
	a := NewStatsAdapter(up, cache, nil)

	for range 3 {
		p, err := a.FetchStats(context.Background(), "alice")
		require.NoError(t, err)
		assert.Equal(t, 7, *p.Counts.Total)
	}
	assert.Equal(t, 1, up.calls["alice"])
	assert.Contains(t, cache.items, shared.Handle("alice"))
}

func TestStatsAdapter_ProfileBypassesCache(t *testing.T) {
	up := &countingUpstream{about: "fresh"}
	cache := &mapCache{items: map[shared.Handle]*leaderboard.Profile{
		"alice": {Handle: "alice", AboutMe: "stale"},
	}}
	a := NewStatsAdapter(up, cache, nil)

	p, err := a.FetchProfile(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "fresh", p.AboutMe)
	assert.Equal(t, 1, up.calls["alice"])
	assert.Equal(t, "stale", cache.items["alice"].AboutMe)
}

func TestStatsAdapter_ErrorsNotCached(t *testing.T) {
	up := &countingUpstream{err: shared.ErrHandleNotFound}
	cache := &mapCache{items: map[shared.Handle]*leaderboard.Profile{}}
	a := NewStatsAdapter(up, cache, nil)

	_, err := a.FetchStats(context.Background(), "ghost")
	assert.ErrorIs(t, err, shared.ErrHandleNotFound)
	assert.Empty(t, cache.items)
}

func TestStatsAdapter_CacheFailureFallsThrough(t *testing.T) {
	up := &countingUpstream{}
	cache := &mapCache{items: map[shared.Handle]*leaderboard.Profile{}, readErr: errors.New("connection reset")}
	a := NewStatsAdapter(up, cache, nil)

	p, err := a.FetchStats(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, shared.Handle("alice"), p.Handle)
}

func TestStatsAdapter_NilCache(t *testing.T) {
	up := &countingUpstream{}
	a := NewStatsAdapter(up, nil, nil)

	for range 2 {
		_, err := a.FetchStats(context.Background(), "alice")
		require.NoError(t, err)
	}
	assert.Equal(t, 2, up.calls["alice"])
}
