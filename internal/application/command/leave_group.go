package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/leetgroups/groupboard/internal/application/ledger"
	"github.com/leetgroups/groupboard/internal/domain/group"
	"github.com/leetgroups/groupboard/internal/domain/identity"
	"github.com/leetgroups/groupboard/internal/domain/member"
	"github.com/leetgroups/groupboard/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEAVE GROUP COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// LeaveGroupCommand removes the caller from a group.
type LeaveGroupCommand struct {
	// Token is an account token, or an anonymous-marked handle.
	Token     string
	GroupName string
}

// LeaveGroupResult reports who left what.
type LeaveGroupResult struct {
	GroupName shared.GroupName
	Handle    shared.Handle
}

// LeaveGroupHandler handles the LeaveGroupCommand.
type LeaveGroupHandler struct {
	groups   group.Repository
	users    member.Repository
	resolver *identity.Resolver
	ledger   *ledger.Ledger
}

// NewLeaveGroupHandler creates a new LeaveGroupHandler.
func NewLeaveGroupHandler(
	groups group.Repository,
	users member.Repository,
	resolver *identity.Resolver,
	l *ledger.Ledger,
) *LeaveGroupHandler {
	return &LeaveGroupHandler{
		groups:   groups,
		users:    users,
		resolver: resolver,
		ledger:   l,
	}
}

// Handle executes the leave group command. Owners are refused even when they
// are also listed as ordinary members.
func (h *LeaveGroupHandler) Handle(ctx context.Context, cmd LeaveGroupCommand) (*LeaveGroupResult, error) {
	name, err := shared.NewGroupName(cmd.GroupName)
	if err != nil {
		return nil, err
	}

	id, err := h.resolver.Resolve(ctx, cmd.Token)
	if err != nil {
		return nil, fmt.Errorf("leave_group: %w", err)
	}
	if id.IsNone() {
		return nil, shared.ErrAccountNotLinked
	}

	g, err := h.groups.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("leave_group: %w", err)
	}

	owns := false
	rec, err := h.users.Get(ctx, id.Handle)
	switch {
	case err == nil:
		owns = rec.Owns(g.Name)
	case !errors.Is(err, shared.ErrNotFound):
		return nil, fmt.Errorf("leave_group: load user record: %w", err)
	}

	if err := group.AuthorizeLeave(g, id.Handle, owns); err != nil {
		return nil, err
	}
	if err := h.ledger.LeaveGroup(ctx, g, id.Handle); err != nil {
		return nil, fmt.Errorf("leave_group: %w", err)
	}
	return &LeaveGroupResult{GroupName: g.Name, Handle: id.Handle}, nil
}
