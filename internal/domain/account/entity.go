// Package account models the link between an opaque caller token and an
// external profile handle.
package account

import (
	"context"

	"github.com/leetgroups/groupboard/internal/domain/shared"
)

// Account binds a caller token to exactly one handle. The binding is made once
// at registration and never changes afterwards.
type Account struct {
	Token     shared.AccountToken
	Username  shared.Handle
	AvatarURL string
}

// Repository defines persistence for accounts.
type Repository interface {
	// Get returns the account bound to token.
	// Returns shared.ErrAccountNotLinked when no account exists.
	Get(ctx context.Context, token shared.AccountToken) (*Account, error)

	// Create stores a new account.
	// Returns shared.ErrAccountAlreadyLinked when the token is already bound.
	Create(ctx context.Context, acc *Account) error
}
