package command

import (
	"context"
	"fmt"

	"github.com/leetgroups/groupboard/internal/domain/group"
	"github.com/leetgroups/groupboard/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CHANGE PRIVACY / CHANGE SECRET COMMANDS
// ══════════════════════════════════════════════════════════════════════════════

// ChangePrivacyCommand sets a group's privacy flag.
type ChangePrivacyCommand struct {
	GroupName string
	Privacy   bool
}

// ChangeSecretCommand replaces a group's secret.
type ChangeSecretCommand struct {
	GroupName string
	NewSecret string
}

// UpdateGroupHandler handles both settings commands.
type UpdateGroupHandler struct {
	groups group.Repository
}

// NewUpdateGroupHandler creates a new UpdateGroupHandler.
func NewUpdateGroupHandler(groups group.Repository) *UpdateGroupHandler {
	return &UpdateGroupHandler{groups: groups}
}

// ChangePrivacy executes the change privacy command.
func (h *UpdateGroupHandler) ChangePrivacy(ctx context.Context, cmd ChangePrivacyCommand) error {
	name, err := shared.NewGroupName(cmd.GroupName)
	if err != nil {
		return err
	}
	if _, err := h.groups.Get(ctx, name); err != nil {
		return fmt.Errorf("change_privacy: %w", err)
	}
	if err := h.groups.UpdatePrivacy(ctx, name, cmd.Privacy); err != nil {
		return fmt.Errorf("change_privacy: %w", err)
	}
	return nil
}

// ChangeSecret executes the change secret command. A group without a current
// secret cannot be given one this way.
func (h *UpdateGroupHandler) ChangeSecret(ctx context.Context, cmd ChangeSecretCommand) error {
	name, err := shared.NewGroupName(cmd.GroupName)
	if err != nil {
		return err
	}
	if cmd.NewSecret == "" {
		return shared.NewDomainError("group", "ChangeSecret", shared.ErrInvalidInput, "new secret is required")
	}

	g, err := h.groups.Get(ctx, name)
	if err != nil {
		return fmt.Errorf("change_secret: %w", err)
	}
	if g.Secret == "" {
		return shared.NewDomainError("group", "ChangeSecret", shared.ErrInvalidInput, "group secret is not set")
	}

	if err := h.groups.UpdateSecret(ctx, name, cmd.NewSecret); err != nil {
		return fmt.Errorf("change_secret: %w", err)
	}
	return nil
}
