package command

import (
	"context"
	"fmt"

	"github.com/leetgroups/groupboard/internal/application/ledger"
	"github.com/leetgroups/groupboard/internal/domain/account"
	"github.com/leetgroups/groupboard/internal/domain/group"
	"github.com/leetgroups/groupboard/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DELETE GROUP COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// DeleteGroupCommand deletes a group on behalf of its owner.
type DeleteGroupCommand struct {
	Token     string
	GroupName string
}

// DeleteGroupResult carries the cascade report, also on partial failure.
type DeleteGroupResult struct {
	GroupName shared.GroupName
	Owner     shared.Handle
	Report    ledger.CascadeReport
}

// DeleteGroupHandler handles the DeleteGroupCommand.
type DeleteGroupHandler struct {
	accounts account.Repository
	groups   group.Repository
	ledger   *ledger.Ledger
}

// NewDeleteGroupHandler creates a new DeleteGroupHandler.
func NewDeleteGroupHandler(accounts account.Repository, groups group.Repository, l *ledger.Ledger) *DeleteGroupHandler {
	return &DeleteGroupHandler{accounts: accounts, groups: groups, ledger: l}
}

// Handle executes the delete group command. When a cascade step fails the
// result is still returned, together with the first error.
func (h *DeleteGroupHandler) Handle(ctx context.Context, cmd DeleteGroupCommand) (*DeleteGroupResult, error) {
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
		return nil, fmt.Errorf("delete_group: %w", err)
	}
	g, err := h.groups.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("delete_group: %w", err)
	}

	report, err := h.ledger.DeleteGroup(ctx, g, acc.Username)
	result := &DeleteGroupResult{GroupName: g.Name, Owner: acc.Username, Report: report}
	if err != nil {
		return result, fmt.Errorf("delete_group: %w", err)
	}
	return result, nil
}
