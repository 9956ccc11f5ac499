package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/leetgroups/groupboard/internal/domain/account"
	"github.com/leetgroups/groupboard/internal/domain/group"
	"github.com/leetgroups/groupboard/internal/domain/leaderboard"
	"github.com/leetgroups/groupboard/internal/domain/member"
	"github.com/leetgroups/groupboard/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE QUERY
// The dashboard view of a linked account: memberships, owned groups with their
// current settings, and live solve counts.
// ══════════════════════════════════════════════════════════════════════════════

// ProfileQuery asks for the profile behind a token.
type ProfileQuery struct {
	Token string
}

// OwnedGroup pairs an owned group name with its document. Group is nil when the
// document is missing or could not be read.
type OwnedGroup struct {
	Name  shared.GroupName
	Group *group.Group
}

// ProfileResult is the dashboard view of one account.
type ProfileResult struct {
	Username  shared.Handle
	AvatarURL string
	Groups    []shared.GroupName
	Owned     []OwnedGroup
	Counts    leaderboard.AcceptedCounts
}

// ProfileHandler handles the ProfileQuery.
type ProfileHandler struct {
	accounts account.Repository
	users    member.Repository
	groups   group.Repository
	stats    leaderboard.StatsProvider
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(
	accounts account.Repository,
	users member.Repository,
	groups group.Repository,
	stats leaderboard.StatsProvider,
) *ProfileHandler {
	return &ProfileHandler{
		accounts: accounts,
		users:    users,
		groups:   groups,
		stats:    stats,
	}
}

// Handle executes the query. A linked account without a user record gets an
// empty one.
func (h *ProfileHandler) Handle(ctx context.Context, q ProfileQuery) (*ProfileResult, error) {
	token, err := shared.NewAccountToken(q.Token)
	if err != nil {
		return nil, err
	}

	acc, err := h.accounts.Get(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}

	rec, err := h.users.Get(ctx, acc.Username)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("profile: load user record: %w", err)
		}
		rec = member.NewUserRecord(acc.Username)
		if err := h.users.Save(ctx, rec); err != nil {
			return nil, fmt.Errorf("profile: create user record: %w", err)
		}
	}

	stats, err := h.stats.FetchStats(ctx, acc.Username)
	if err != nil {
		return nil, fmt.Errorf("profile: fetch stats: %w", err)
	}

	owned := make([]OwnedGroup, 0, len(rec.Owned))
	for _, name := range rec.Owned {
		og := OwnedGroup{Name: name}
		if g, err := h.groups.Get(ctx, name); err == nil {
			og.Group = g
		}
		owned = append(owned, og)
	}

	return &ProfileResult{
		Username:  acc.Username,
		AvatarURL: acc.AvatarURL,
		Groups:    rec.Groups,
		Owned:     owned,
		Counts:    stats.Counts,
	}, nil
}
