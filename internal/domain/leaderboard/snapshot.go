package leaderboard

import (
	"errors"
	"slices"

	"github.com/leetgroups/groupboard/internal/domain/shared"
)

// Fetch error messages recorded on failed snapshots.
const (
	FetchErrorNotFound = "user not found"
	FetchErrorFailed   = "failed to fetch user data"
)

// Snapshot is the computed statistics of one member for one aggregation call.
// It is never persisted.
type Snapshot struct {
	Handle      shared.Handle `json:"username"`
	DisplayName string        `json:"name,omitempty"`
	AvatarURL   string        `json:"avatar,omitempty"`
	TotalSolved *int          `json:"questionsSolved"`
	Easy        *int          `json:"easy,omitempty"`
	Medium      *int          `json:"medium,omitempty"`
	Hard        *int          `json:"hard,omitempty"`
	Score       *int          `json:"points,omitempty"`
	FetchError  string        `json:"error,omitempty"`
}

// Score weighs accepted problems by difficulty.
func Score(easy, medium, hard int) int {
	return easy + 2*medium + 3*hard
}

// NewSnapshot builds the snapshot for a successfully fetched profile. The score
// is only set when every difficulty bucket is known.
func NewSnapshot(p *Profile) Snapshot {
	s := Snapshot{
		Handle:      p.Handle,
		DisplayName: p.DisplayName,
		AvatarURL:   p.AvatarURL,
		TotalSolved: p.Counts.Total,
	}
	if s.DisplayName == "" {
		s.DisplayName = p.Handle.String()
	}
	if p.Counts.Complete() {
		s.Easy = p.Counts.Easy
		s.Medium = p.Counts.Medium
		s.Hard = p.Counts.Hard
		s.Score = IntPtr(Score(*s.Easy, *s.Medium, *s.Hard))
	}
	return s
}

// FailedSnapshot builds the snapshot for a member whose lookup failed.
func FailedSnapshot(h shared.Handle, err error) Snapshot {
	msg := FetchErrorFailed
	if errors.Is(err, shared.ErrUpstreamNotFound) {
		msg = FetchErrorNotFound
	}
	return Snapshot{Handle: h, FetchError: msg}
}

// tier orders snapshots: scored first, then unscored with a known total, then
// the rest.
func (s Snapshot) tier() int {
	switch {
	case s.Score != nil:
		return 0
	case s.TotalSolved != nil:
		return 1
	default:
		return 2
	}
}

func derefOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// compareSnapshots returns a negative number when a ranks before b.
func compareSnapshots(a, b Snapshot) int {
	if ta, tb := a.tier(), b.tier(); ta != tb {
		return ta - tb
	}
	switch a.tier() {
	case 0:
		if *a.Score != *b.Score {
			return *b.Score - *a.Score
		}
		return derefOrZero(b.TotalSolved) - derefOrZero(a.TotalSolved)
	case 1:
		return *b.TotalSolved - *a.TotalSolved
	}
	return 0
}

// Rank sorts snapshots in place into leaderboard order. The sort is stable, so
// ties keep their input order and ranking an already ranked slice is a no-op.
func Rank(snapshots []Snapshot) {
	slices.SortStableFunc(snapshots, compareSnapshots)
}
