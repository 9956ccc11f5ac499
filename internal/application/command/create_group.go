package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leetgroups/groupboard/internal/application/ledger"
	"github.com/leetgroups/groupboard/internal/domain/account"
	"github.com/leetgroups/groupboard/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE GROUP COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// ContentModerator screens a group name and secret before creation.
// Check returns shared.ErrContentRejected for inappropriate content and an
// upstream-unavailable error when no verdict could be obtained.
type ContentModerator interface {
	Check(ctx context.Context, name, secret string) error
}

// CreateGroupCommand contains the data to create a group.
type CreateGroupCommand struct {
	Name    string
	Secret  string
	Privacy bool

	// Token identifies the creator. Only linked accounts may own groups.
	Token string
}

// Validate validates the command.
func (c CreateGroupCommand) Validate() error {
	if shared.NormalizeKey(c.Name) == "" {
		return shared.NewDomainError("group", "Create", shared.ErrInvalidInput, "group name is required")
	}
	if c.Secret == "" {
		return shared.NewDomainError("group", "Create", shared.ErrInvalidInput, "group secret is required")
	}
	if shared.NormalizeKey(c.Token) == "" {
		return shared.NewDomainError("group", "Create", shared.ErrInvalidInput, "token is required")
	}
	return nil
}

// CreateGroupResult contains the created group.
type CreateGroupResult struct {
	GroupName shared.GroupName
	Owner     shared.Handle
}

// CreateGroupHandler handles the CreateGroupCommand.
type CreateGroupHandler struct {
	accounts  account.Repository
	ledger    *ledger.Ledger
	moderator ContentModerator
	logger    *slog.Logger
}

// NewCreateGroupHandler creates a new CreateGroupHandler.
func NewCreateGroupHandler(
	accounts account.Repository,
	l *ledger.Ledger,
	moderator ContentModerator,
	logger *slog.Logger,
) *CreateGroupHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CreateGroupHandler{
		accounts:  accounts,
		ledger:    l,
		moderator: moderator,
		logger:    logger.With("command", "create_group"),
	}
}

// Handle executes the create group command. Moderation runs first and fails
// closed.
func (h *CreateGroupHandler) Handle(ctx context.Context, cmd CreateGroupCommand) (*CreateGroupResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	name, err := shared.NewGroupName(cmd.Name)
	if err != nil {
		return nil, err
	}

	if err := h.moderator.Check(ctx, name.String(), cmd.Secret); err != nil {
		return nil, fmt.Errorf("create_group: moderation: %w", err)
	}

	acc, err := h.accounts.Get(ctx, shared.AccountToken(shared.NormalizeKey(cmd.Token)))
	if err != nil {
		return nil, fmt.Errorf("create_group: %w", err)
	}

	g, err := h.ledger.CreateGroup(ctx, name, cmd.Secret, cmd.Privacy, acc.Username)
	if err != nil {
		return nil, fmt.Errorf("create_group: %w", err)
	}

	return &CreateGroupResult{GroupName: g.Name, Owner: acc.Username}, nil
}
