package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/leetgroups/groupboard/internal/domain/account"
	"github.com/leetgroups/groupboard/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACCOUNT STATUS QUERY
// ══════════════════════════════════════════════════════════════════════════════

// AccountStatusQuery asks whether a token is linked.
type AccountStatusQuery struct {
	Token string
}

// AccountStatusResult reports whether the token is linked.
type AccountStatusResult struct {
	Found bool
}

// AccountStatusHandler handles the AccountStatusQuery.
type AccountStatusHandler struct {
	accounts account.Repository
}

// NewAccountStatusHandler creates a new AccountStatusHandler.
func NewAccountStatusHandler(accounts account.Repository) *AccountStatusHandler {
	return &AccountStatusHandler{accounts: accounts}
}

// Handle executes the query.
func (h *AccountStatusHandler) Handle(ctx context.Context, q AccountStatusQuery) (*AccountStatusResult, error) {
	token, err := shared.NewAccountToken(q.Token)
	if err != nil {
		return nil, err
	}

	_, err = h.accounts.Get(ctx, token)
	switch {
	case err == nil:
		return &AccountStatusResult{Found: true}, nil
	case errors.Is(err, shared.ErrNotFound):
		return &AccountStatusResult{Found: false}, nil
	default:
		return nil, fmt.Errorf("account_status: %w", err)
	}
}
