// Package query contains read operations following CQRS pattern.
// Queries never modify state, with one exception: Profile creates an empty user
// record for a linked account that has none yet.
package query

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leetgroups/groupboard/internal/domain/group"
	"github.com/leetgroups/groupboard/internal/domain/identity"
	"github.com/leetgroups/groupboard/internal/domain/leaderboard"
	"github.com/leetgroups/groupboard/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// FETCH LEADERBOARD QUERY
// Resolves the caller, applies the access gate, then aggregates live statistics
// for every member.
// ══════════════════════════════════════════════════════════════════════════════

// FetchLeaderboardQuery contains the parameters of a leaderboard request.
type FetchLeaderboardQuery struct {
	GroupName string

	// Token is an account token, an anonymous-marked handle, or "none".
	Token string

	// Code is the secret the caller supplies; may be empty.
	Code string
}

// LeaderboardResult is the ranked leaderboard of a group.
type LeaderboardResult struct {
	GroupName    shared.GroupName
	TotalMembers int
	Members      []leaderboard.Snapshot

	// PromptToJoin is set when the caller knows the secret but is not a member.
	PromptToJoin bool

	// GroupSecret is only filled in for members.
	GroupSecret string
}

// FetchLeaderboardHandler handles the FetchLeaderboardQuery.
type FetchLeaderboardHandler struct {
	groups     group.Repository
	resolver   *identity.Resolver
	aggregator *leaderboard.Aggregator
	logger     *slog.Logger
}

// NewFetchLeaderboardHandler creates a new FetchLeaderboardHandler.
func NewFetchLeaderboardHandler(
	groups group.Repository,
	resolver *identity.Resolver,
	aggregator *leaderboard.Aggregator,
	logger *slog.Logger,
) *FetchLeaderboardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FetchLeaderboardHandler{
		groups:     groups,
		resolver:   resolver,
		aggregator: aggregator,
		logger:     logger.With("query", "fetch_leaderboard"),
	}
}

// Handle executes the query. A refused view returns an error matching
// shared.ErrPrivateGroup whose message names the reason.
func (h *FetchLeaderboardHandler) Handle(ctx context.Context, q FetchLeaderboardQuery) (*LeaderboardResult, error) {
	name, err := shared.NewGroupName(q.GroupName)
	if err != nil {
		return nil, err
	}

	g, err := h.groups.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("fetch_leaderboard: %w", err)
	}

	id, err := h.resolver.Resolve(ctx, q.Token)
	if err != nil {
		return nil, fmt.Errorf("fetch_leaderboard: %w", err)
	}

	decision := group.AuthorizeView(g, id, q.Code)
	if !decision.Granted {
		h.logger.Debug("view denied",
			"group", g.Name.String(),
			"identity", id.Kind.String(),
			"reason", string(decision.Reason),
		)
		return nil, deniedError(decision.Reason)
	}

	members := h.aggregator.Aggregate(ctx, g.Members)

	result := &LeaderboardResult{
		GroupName:    g.Name,
		TotalMembers: len(g.Members),
		Members:      members,
		PromptToJoin: decision.PromptToJoin,
	}
	if decision.RevealSecret {
		result.GroupSecret = g.Secret
	}
	return result, nil
}

func deniedError(reason group.DenyReason) error {
	msg := "group is private"
	switch reason {
	case group.ReasonNoLinkedAccount:
		msg = "group is private: no linked account"
	case group.ReasonNotMember:
		msg = "group is private: not a member"
	}
	return shared.NewDomainError("group", "View", shared.ErrPrivateGroup, msg)
}
