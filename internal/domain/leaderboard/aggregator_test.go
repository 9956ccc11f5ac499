package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leetgroups/groupboard/internal/domain/shared"
)

type fakeProvider struct {
	profiles map[shared.Handle]*Profile
	errs     map[shared.Handle]error
	delays   map[shared.Handle]time.Duration

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	mu          sync.Mutex
	calls       []shared.Handle
}

func (f *fakeProvider) FetchStats(ctx context.Context, h shared.Handle) (*Profile, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		cur := f.maxInFlight.Load()
		if n <= cur || f.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, h)
	f.mu.Unlock()

	if d := f.delays[h]; d > 0 {
		time.Sleep(d)
	}
	if err := f.errs[h]; err != nil {
		return nil, err
	}
	p, ok := f.profiles[h]
	if !ok {
		return nil, shared.ErrHandleNotFound
	}
	return p, nil
}

func fullProfile(h string, easy, medium, hard int) *Profile {
	return &Profile{
		Handle:      shared.Handle(h),
		DisplayName: h,
		Counts: AcceptedCounts{
			Total:  IntPtr(easy + medium + hard),
			Easy:   IntPtr(easy),
			Medium: IntPtr(medium),
			Hard:   IntPtr(hard),
		},
	}
}

func totalOnly(h string, total int) *Profile {
	return &Profile{Handle: shared.Handle(h), Counts: AcceptedCounts{Total: IntPtr(total)}}
}

func handlesOf(snaps []Snapshot) []shared.Handle {
	out := make([]shared.Handle, len(snaps))
	for i, s := range snaps {
		out[i] = s.Handle
	}
	return out
}

func TestScore(t *testing.T) {
	assert.Equal(t, 0, Score(0, 0, 0))
	assert.Equal(t, 3+2*2+3*1, Score(3, 2, 1))
}

func TestAggregate_ZeroMembers(t *testing.T) {
	a := NewAggregator(&fakeProvider{}, AggregatorConfig{})

	got := a.Aggregate(context.Background(), nil)
	assert.Empty(t, got)
}

func TestAggregate_AllFailKeepsInputOrder(t *testing.T) {
	p := &fakeProvider{errs: map[shared.Handle]error{
		"a": shared.ErrStatsUnavailable,
		"c": errors.New("boom"),
	}}
	a := NewAggregator(p, AggregatorConfig{})

	got := a.Aggregate(context.Background(), []shared.Handle{"a", "b", "c"})

	require.Len(t, got, 3)
	assert.Equal(t, []shared.Handle{"a", "b", "c"}, handlesOf(got))
	assert.Equal(t, FetchErrorFailed, got[0].FetchError)
	assert.Equal(t, FetchErrorNotFound, got[1].FetchError)
	assert.Equal(t, FetchErrorFailed, got[2].FetchError)
	for _, s := range got {
		assert.Nil(t, s.Score)
		assert.Nil(t, s.TotalSolved)
	}
}

func TestAggregate_MixedTiers(t *testing.T) {
	p := &fakeProvider{
		profiles: map[shared.Handle]*Profile{
			"low":     fullProfile("low", 1, 0, 0),
			"high":    fullProfile("high", 0, 0, 10),
			"tie-few": fullProfile("tie-few", 0, 0, 2),
			"tie-lot": fullProfile("tie-lot", 6, 0, 0),
			"partial": totalOnly("partial", 500),
			"small":   totalOnly("small", 5),
		},
		errs: map[shared.Handle]error{"broken": shared.ErrStatsUnavailable},
	}
	a := NewAggregator(p, AggregatorConfig{MaxConcurrency: 2})

	members := []shared.Handle{"broken", "small", "low", "ghost", "tie-few", "partial", "high", "tie-lot"}
	got := a.Aggregate(context.Background(), members)

	// tie-lot and tie-few share a score of 6; the larger total wins.
	assert.Equal(t, []shared.Handle{
		"high", "tie-lot", "tie-few", "low",
		"partial", "small",
		"broken", "ghost",
	}, handlesOf(got))
	assert.Equal(t, 30, *got[0].Score)
	assert.Nil(t, got[4].Score)
	assert.Equal(t, 500, *got[4].TotalSolved)
}

func TestAggregate_OrderIndependentOfCompletion(t *testing.T) {
	p := &fakeProvider{
		profiles: map[shared.Handle]*Profile{
			"a": fullProfile("a", 1, 1, 1),
			"b": fullProfile("b", 1, 1, 1),
			"c": fullProfile("c", 1, 1, 1),
		},
		delays: map[shared.Handle]time.Duration{"a": 30 * time.Millisecond, "b": 10 * time.Millisecond},
	}
	a := NewAggregator(p, AggregatorConfig{})

	got := a.Aggregate(context.Background(), []shared.Handle{"a", "b", "c"})
	assert.Equal(t, []shared.Handle{"a", "b", "c"}, handlesOf(got))
}

func TestAggregate_RespectsConcurrencyLimit(t *testing.T) {
	profiles := map[shared.Handle]*Profile{}
	delays := map[shared.Handle]time.Duration{}
	var members []shared.Handle
	for i := range 12 {
		h := shared.Handle(fmt.Sprintf("user%d", i))
		profiles[h] = fullProfile(h.String(), i, 0, 0)
		delays[h] = 5 * time.Millisecond
		members = append(members, h)
	}
	p := &fakeProvider{profiles: profiles, delays: delays}
	a := NewAggregator(p, AggregatorConfig{MaxConcurrency: 3})

	got := a.Aggregate(context.Background(), members)

	assert.Len(t, got, 12)
	assert.LessOrEqual(t, p.maxInFlight.Load(), int32(3))
	assert.Len(t, p.calls, 12)
}

func TestAggregate_UsesMemberHandle(t *testing.T) {
	p := &fakeProvider{profiles: map[shared.Handle]*Profile{
		"Alice": {Handle: "alice", Counts: AcceptedCounts{Total: IntPtr(1)}},
	}}
	a := NewAggregator(p, AggregatorConfig{})

	got := a.Aggregate(context.Background(), []shared.Handle{"Alice"})
	require.Len(t, got, 1)
	assert.Equal(t, shared.Handle("Alice"), got[0].Handle)
	assert.Equal(t, "Alice", got[0].DisplayName)
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
	batches  []int
}

func (r *recordingObserver) LookupFinished(outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func (r *recordingObserver) AggregationFinished(members int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, members)
}

func TestAggregate_ReportsOutcomes(t *testing.T) {
	obs := &recordingObserver{}
	p := &fakeProvider{
		profiles: map[shared.Handle]*Profile{"ok": fullProfile("ok", 1, 0, 0)},
		errs:     map[shared.Handle]error{"down": shared.ErrStatsUnavailable},
	}
	a := NewAggregator(p, AggregatorConfig{Observer: obs})

	a.Aggregate(context.Background(), []shared.Handle{"ok", "down", "missing"})

	assert.ElementsMatch(t, []string{OutcomeOK, OutcomeFailed, OutcomeNotFound}, obs.outcomes)
	assert.Equal(t, []int{3}, obs.batches)
}
