package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/leetgroups/groupboard/internal/application/ledger"
	"github.com/leetgroups/groupboard/internal/domain/account"
	"github.com/leetgroups/groupboard/internal/domain/group"
	"github.com/leetgroups/groupboard/internal/domain/identity"
	"github.com/leetgroups/groupboard/internal/domain/leaderboard"
	"github.com/leetgroups/groupboard/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// JOIN GROUP COMMANDS
// A linked join identifies the caller by account token. An anonymous join names
// a raw handle (the anonymous marker is optional) and never creates an account.
// ══════════════════════════════════════════════════════════════════════════════

// JoinGroupCommand joins the caller's linked handle to a group.
type JoinGroupCommand struct {
	Token     string
	GroupName string
	Code      string
}

// JoinAnonymousCommand joins a raw handle to a group.
type JoinAnonymousCommand struct {
	Handle    string
	GroupName string
	Code      string
}

// JoinGroupResult reports who joined what.
type JoinGroupResult struct {
	GroupName shared.GroupName
	Handle    shared.Handle
}

// JoinGroupHandler handles both join commands.
type JoinGroupHandler struct {
	accounts account.Repository
	groups   group.Repository
	profiles leaderboard.ProfileReader
	resolver *identity.Resolver
	ledger   *ledger.Ledger
	policy   group.JoinPolicy
}

// NewJoinGroupHandler creates a new JoinGroupHandler.
func NewJoinGroupHandler(
	accounts account.Repository,
	groups group.Repository,
	profiles leaderboard.ProfileReader,
	resolver *identity.Resolver,
	l *ledger.Ledger,
	policy group.JoinPolicy,
) *JoinGroupHandler {
	return &JoinGroupHandler{
		accounts: accounts,
		groups:   groups,
		profiles: profiles,
		resolver: resolver,
		ledger:   l,
		policy:   policy,
	}
}

// HandleLinked executes a linked join.
func (h *JoinGroupHandler) HandleLinked(ctx context.Context, cmd JoinGroupCommand) (*JoinGroupResult, error) {
	token, err := shared.NewAccountToken(cmd.Token)
	if err != nil {
		return nil, err
	}
	name, err := shared.NewGroupName(cmd.GroupName)
	if err != nil {
		return nil, err
	}

	acc, err := h.accounts.Get(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("join_group: %w", err)
	}
	return h.join(ctx, name, acc.Username, cmd.Code, false)
}

// HandleAnonymous executes an anonymous join.
func (h *JoinGroupHandler) HandleAnonymous(ctx context.Context, cmd JoinAnonymousCommand) (*JoinGroupResult, error) {
	handle, err := shared.NewHandle(h.resolver.StripMarker(cmd.Handle))
	if err != nil {
		return nil, err
	}
	name, err := shared.NewGroupName(cmd.GroupName)
	if err != nil {
		return nil, err
	}
	return h.join(ctx, name, handle, cmd.Code, true)
}

func (h *JoinGroupHandler) join(ctx context.Context, name shared.GroupName, handle shared.Handle, code string, anonymous bool) (*JoinGroupResult, error) {
	g, err := h.loadGroup(ctx, name)
	if err != nil {
		return nil, err
	}

	req := group.JoinRequest{Candidate: handle, Code: code, Anonymous: anonymous}

	// First pass settles every check that needs no upstream call.
	err = group.AuthorizeJoin(g, req, h.policy)
	if err != nil && !errors.Is(err, shared.ErrProofMissing) {
		return nil, err
	}
	if err != nil {
		profile, err := h.profiles.FetchProfile(ctx, handle)
		if err != nil {
			return nil, fmt.Errorf("join_group: fetch proof: %w", err)
		}
		req.ProofText = profile.AboutMe
		if err := group.AuthorizeJoin(g, req, h.policy); err != nil {
			return nil, err
		}
	}

	if err := h.ledger.JoinGroup(ctx, g, handle); err != nil {
		return nil, fmt.Errorf("join_group: %w", err)
	}
	return &JoinGroupResult{GroupName: g.Name, Handle: handle}, nil
}

// loadGroup maps a missing group to a nil group so that AuthorizeJoin reports
// it in its own priority order.
func (h *JoinGroupHandler) loadGroup(ctx context.Context, name shared.GroupName) (*group.Group, error) {
	g, err := h.groups.Get(ctx, name)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("join_group: load group: %w", err)
	}
	return g, nil
}
