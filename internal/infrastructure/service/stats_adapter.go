package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/leetgroups/groupboard/internal/domain/leaderboard"
	"github.com/leetgroups/groupboard/internal/domain/shared"
	"github.com/leetgroups/groupboard/internal/infrastructure/persistence/redis"
)

// ProfileCache is the subset of redis.StatsCache the adapter needs.
type ProfileCache interface {
	Get(ctx context.Context, h shared.Handle) (*leaderboard.Profile, error)
	Set(ctx context.Context, h shared.Handle, p *leaderboard.Profile) error
}

var _ ProfileCache = (*redis.StatsCache)(nil)

// StatsAdapter puts a read-through cache in front of the statistics provider.
// Leaderboard lookups go through the cache; proof lookups always hit upstream.
type StatsAdapter struct {
	upstream leaderboard.ProfileReader
	cache    ProfileCache
	logger   *slog.Logger
}

var (
	_ leaderboard.StatsProvider = (*StatsAdapter)(nil)
	_ leaderboard.ProfileReader = (*StatsAdapter)(nil)
)

// NewStatsAdapter creates the adapter. cache may be nil.
func NewStatsAdapter(upstream leaderboard.ProfileReader, cache ProfileCache, logger *slog.Logger) *StatsAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsAdapter{
		upstream: upstream,
		cache:    cache,
		logger:   logger.With("component", "stats_adapter"),
	}
}

// FetchStats serves from the cache when it can and fills it on a miss.
// Failed lookups are not cached.
func (a *StatsAdapter) FetchStats(ctx context.Context, handle shared.Handle) (*leaderboard.Profile, error) {
	if a.cache == nil {
		return a.upstream.FetchProfile(ctx, handle)
	}

	p, err := a.cache.Get(ctx, handle)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, redis.ErrCacheMiss) {
		a.logger.Warn("stats cache read failed", "handle", handle, "error", err)
	}

	p, err = a.upstream.FetchProfile(ctx, handle)
	if err != nil {
		return nil, err
	}

	if err := a.cache.Set(ctx, handle, p); err != nil {
		a.logger.Warn("stats cache write failed", "handle", handle, "error", err)
	}
	return p, nil
}

// FetchProfile bypasses the cache.
func (a *StatsAdapter) FetchProfile(ctx context.Context, handle shared.Handle) (*leaderboard.Profile, error) {
	return a.upstream.FetchProfile(ctx, handle)
}
