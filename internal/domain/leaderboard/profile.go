// Package leaderboard turns a group's member list into a ranked set of
// per-member statistics snapshots.
package leaderboard

import (
	"context"

	"github.com/leetgroups/groupboard/internal/domain/shared"
)

// AcceptedCounts holds accepted-submission counts as reported upstream.
// A nil field means the upstream response did not carry that bucket.
type AcceptedCounts struct {
	Total  *int `json:"total,omitempty"`
	Easy   *int `json:"easy,omitempty"`
	Medium *int `json:"medium,omitempty"`
	Hard   *int `json:"hard,omitempty"`
}

// Complete reports whether all four buckets are present.
func (c AcceptedCounts) Complete() bool {
	return c.Total != nil && c.Easy != nil && c.Medium != nil && c.Hard != nil
}

// Profile is the public profile of a handle on the statistics provider.
type Profile struct {
	Handle      shared.Handle  `json:"handle"`
	DisplayName string         `json:"display_name"`
	AvatarURL   string         `json:"avatar_url"`
	AboutMe     string         `json:"about_me"`
	Counts      AcceptedCounts `json:"counts"`
}

// StatsProvider looks up statistics for one handle. Implementations may serve
// from a cache.
//
// Returns an error matching shared.ErrUpstreamNotFound when the handle does not
// exist, and shared.ErrUpstreamUnavailable on transport failure.
type StatsProvider interface {
	FetchStats(ctx context.Context, handle shared.Handle) (*Profile, error)
}

// ProfileReader reads a profile bypassing any cache. Used wherever the about-me
// text serves as proof, since a stale copy would defeat the check.
type ProfileReader interface {
	FetchProfile(ctx context.Context, handle shared.Handle) (*Profile, error)
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }
