// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leetgroups/groupboard/internal/domain/account"
	"github.com/leetgroups/groupboard/internal/domain/identity"
	"github.com/leetgroups/groupboard/internal/domain/leaderboard"
	"github.com/leetgroups/groupboard/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTER ACCOUNT COMMAND
// Binds a caller token to a handle. The caller proves control of the handle by
// putting the token into the handle's public about-me text first.
// ══════════════════════════════════════════════════════════════════════════════

// RegisterAccountCommand contains the data to link an account.
type RegisterAccountCommand struct {
	// Token is the caller's opaque token.
	Token string

	// Handle is the profile handle to bind.
	Handle string
}

// RegisterAccountResult contains the stored binding.
type RegisterAccountResult struct {
	Username  shared.Handle
	AvatarURL string
}

// RegisterAccountHandler handles the RegisterAccountCommand.
type RegisterAccountHandler struct {
	accounts account.Repository
	profiles leaderboard.ProfileReader
	marker   string
	logger   *slog.Logger
}

// NewRegisterAccountHandler creates a new RegisterAccountHandler. marker is the
// anonymous marker; tokens carrying it are refused.
func NewRegisterAccountHandler(
	accounts account.Repository,
	profiles leaderboard.ProfileReader,
	marker string,
	logger *slog.Logger,
) *RegisterAccountHandler {
	if marker == "" {
		marker = identity.DefaultAnonymousMarker
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RegisterAccountHandler{
		accounts: accounts,
		profiles: profiles,
		marker:   marker,
		logger:   logger.With("command", "register_account"),
	}
}

// Handle executes the register account command.
func (h *RegisterAccountHandler) Handle(ctx context.Context, cmd RegisterAccountCommand) (*RegisterAccountResult, error) {
	token, err := shared.NewAccountToken(cmd.Token)
	if err != nil {
		return nil, err
	}
	handle, err := shared.NewHandle(cmd.Handle)
	if err != nil {
		return nil, err
	}
	if token.String() == identity.NoneToken || strings.HasPrefix(token.String(), h.marker) {
		return nil, shared.NewDomainError("account", "Register", shared.ErrInvalidInput, "token is reserved")
	}

	_, err = h.accounts.Get(ctx, token)
	switch {
	case err == nil:
		return nil, shared.ErrAccountAlreadyLinked
	case !errors.Is(err, shared.ErrNotFound):
		return nil, fmt.Errorf("register_account: load account: %w", err)
	}

	profile, err := h.profiles.FetchProfile(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("register_account: fetch profile: %w", err)
	}
	if !strings.Contains(profile.AboutMe, token.String()) {
		return nil, shared.ErrTokenNotInProfile
	}

	acc := &account.Account{
		Token:     token,
		Username:  handle,
		AvatarURL: profile.AvatarURL,
	}
	if err := h.accounts.Create(ctx, acc); err != nil {
		return nil, fmt.Errorf("register_account: %w", err)
	}

	h.logger.Info("account linked", "handle", handle.String())
	return &RegisterAccountResult{Username: acc.Username, AvatarURL: acc.AvatarURL}, nil
}
