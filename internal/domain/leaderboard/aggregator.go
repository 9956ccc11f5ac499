package leaderboard

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leetgroups/groupboard/internal/domain/shared"
)

// Lookup outcomes reported to the Observer.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeFailed   = "failed"
)

// Observer receives aggregation measurements.
type Observer interface {
	LookupFinished(outcome string, elapsed time.Duration)
	AggregationFinished(members int, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) LookupFinished(string, time.Duration)   {}
func (nopObserver) AggregationFinished(int, time.Duration) {}

// AggregatorConfig configures an Aggregator.
type AggregatorConfig struct {
	// MaxConcurrency bounds in-flight lookups. Zero or less means one lookup
	// per member with no bound.
	MaxConcurrency int

	// Logger for structured logging
	Logger *slog.Logger

	// Observer receives per-lookup and per-batch measurements. Optional.
	Observer Observer
}

// Aggregator fans out one statistics lookup per member and ranks the results.
type Aggregator struct {
	provider StatsProvider
	config   AggregatorConfig
	logger   *slog.Logger
	observer Observer
}

// NewAggregator creates an aggregator over provider.
func NewAggregator(provider StatsProvider, config AggregatorConfig) *Aggregator {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	observer := config.Observer
	if observer == nil {
		observer = nopObserver{}
	}
	return &Aggregator{
		provider: provider,
		config:   config,
		logger:   logger.With("component", "aggregator"),
		observer: observer,
	}
}

// Aggregate looks up every member concurrently and returns the ranked
// snapshots. A failed lookup becomes a snapshot with FetchError set; the batch
// itself never fails. The result order does not depend on completion order.
//
// Cancelling ctx makes pending lookups fail, which shows up as failed
// snapshots rather than as an error.
func (a *Aggregator) Aggregate(ctx context.Context, members []shared.Handle) []Snapshot {
	start := time.Now()
	snapshots := make([]Snapshot, len(members))

	// Plain errgroup.Group: no derived context, so one failure never cancels
	// its siblings.
	var g errgroup.Group
	if a.config.MaxConcurrency > 0 {
		g.SetLimit(a.config.MaxConcurrency)
	}

	for i, h := range members {
		g.Go(func() error {
			snapshots[i] = a.lookup(ctx, h)
			return nil
		})
	}
	_ = g.Wait()

	Rank(snapshots)

	elapsed := time.Since(start)
	a.observer.AggregationFinished(len(members), elapsed)
	a.logger.Debug("aggregation finished",
		"members", len(members),
		"latency_ms", elapsed.Milliseconds(),
	)
	return snapshots
}

func (a *Aggregator) lookup(ctx context.Context, h shared.Handle) (snap Snapshot) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("stats lookup panicked", "handle", h.String(), "panic", r)
			snap = FailedSnapshot(h, errors.New("panic during lookup"))
			a.observer.LookupFinished(OutcomeFailed, time.Since(start))
		}
	}()

	p, err := a.provider.FetchStats(ctx, h)
	if err == nil && p == nil {
		err = shared.ErrHandleNotFound
	}
	if err != nil {
		outcome := OutcomeFailed
		if errors.Is(err, shared.ErrUpstreamNotFound) {
			outcome = OutcomeNotFound
		}
		a.observer.LookupFinished(outcome, time.Since(start))
		a.logger.Warn("stats lookup failed",
			"handle", h.String(),
			"outcome", outcome,
			"error", err,
		)
		return FailedSnapshot(h, err)
	}

	a.observer.LookupFinished(OutcomeOK, time.Since(start))
	// Members are listed under the handle they joined with.
	cp := *p
	cp.Handle = h
	return NewSnapshot(&cp)
}
