package redis

import (
	"context"
	"time"

	"github.com/leetgroups/groupboard/internal/domain/leaderboard"
	"github.com/leetgroups/groupboard/internal/domain/shared"
)

// PrefixStats namespaces cached statistics.
const PrefixStats = "stats:"

// TTLStats is the default lifetime of a cached profile.
const TTLStats = 5 * time.Minute

// StatsCache caches statistics provider profiles by handle.
type StatsCache struct {
	cache *Cache
	ttl   time.Duration
}

// NewStatsCache creates a stats cache. A non-positive ttl falls back to TTLStats.
func NewStatsCache(cache *Cache, ttl time.Duration) *StatsCache {
	if ttl <= 0 {
		ttl = TTLStats
	}
	return &StatsCache{cache: cache, ttl: ttl}
}

func statsKey(h shared.Handle) string {
	return PrefixStats + shared.NormalizeKey(h.String())
}

// Get returns the cached profile, or ErrCacheMiss.
func (s *StatsCache) Get(ctx context.Context, h shared.Handle) (*leaderboard.Profile, error) {
	var p leaderboard.Profile
	if err := s.cache.Get(ctx, statsKey(h), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Set stores p for the configured TTL.
func (s *StatsCache) Set(ctx context.Context, h shared.Handle, p *leaderboard.Profile) error {
	return s.cache.Set(ctx, statsKey(h), p, s.ttl)
}

// Invalidate drops the cached profile for h.
func (s *StatsCache) Invalidate(ctx context.Context, h shared.Handle) error {
	return s.cache.Delete(ctx, statsKey(h))
}
