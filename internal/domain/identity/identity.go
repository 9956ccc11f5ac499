// Package identity resolves caller-supplied tokens into the handle the caller
// acts as.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/leetgroups/groupboard/internal/domain/account"
	"github.com/leetgroups/groupboard/internal/domain/shared"
)

// NoneToken is the sentinel a client sends when it has no token at all.
const NoneToken = "none"

// DefaultAnonymousMarker prefixes tokens that carry a raw handle instead of an
// account token.
const DefaultAnonymousMarker = "anon-"

// Kind distinguishes the three identity outcomes.
type Kind int

const (
	KindNone Kind = iota
	KindLinked
	KindAnonymous
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindLinked:
		return "linked"
	case KindAnonymous:
		return "anonymous"
	default:
		return "none"
	}
}

// Identity is the resolved caller. Handle is empty for KindNone.
type Identity struct {
	Kind   Kind
	Handle shared.Handle
}

// None is the identity of a caller without a usable token.
func None() Identity { return Identity{Kind: KindNone} }

// Linked is the identity of a caller whose token is bound to an account.
func Linked(h shared.Handle) Identity { return Identity{Kind: KindLinked, Handle: h} }

// Anonymous is the identity of a caller presenting a marker-prefixed handle.
func Anonymous(h shared.Handle) Identity { return Identity{Kind: KindAnonymous, Handle: h} }

// IsNone reports whether no handle could be resolved.
func (i Identity) IsNone() bool { return i.Kind == KindNone }

// IsAnonymous reports whether the caller presented a raw handle.
func (i Identity) IsAnonymous() bool { return i.Kind == KindAnonymous }

// IsLinked reports whether the caller's token resolved to an account.
func (i Identity) IsLinked() bool { return i.Kind == KindLinked }

// AccountLookup is the subset of account.Repository the resolver needs.
type AccountLookup interface {
	Get(ctx context.Context, token shared.AccountToken) (*account.Account, error)
}

// Resolver maps tokens to identities.
type Resolver struct {
	accounts AccountLookup
	marker   string
}

// NewResolver creates a resolver. An empty marker falls back to
// DefaultAnonymousMarker.
func NewResolver(accounts AccountLookup, marker string) *Resolver {
	if marker == "" {
		marker = DefaultAnonymousMarker
	}
	return &Resolver{accounts: accounts, marker: marker}
}

// Marker returns the anonymous marker in use.
func (r *Resolver) Marker() string {
	return r.marker
}

// StripMarker removes the anonymous marker from raw when present.
func (r *Resolver) StripMarker(raw string) string {
	return strings.TrimPrefix(shared.NormalizeKey(raw), r.marker)
}

// Resolve maps token to an identity. A missing account is a valid outcome and
// yields None; only store failures are returned as errors.
func (r *Resolver) Resolve(ctx context.Context, token string) (Identity, error) {
	token = shared.NormalizeKey(token)
	if token == "" || token == NoneToken {
		return None(), nil
	}

	if strings.HasPrefix(token, r.marker) {
		h, err := shared.NewHandle(strings.TrimPrefix(token, r.marker))
		if err != nil {
			return None(), nil
		}
		return Anonymous(h), nil
	}

	acc, err := r.accounts.Get(ctx, shared.AccountToken(token))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return None(), nil
		}
		return None(), fmt.Errorf("resolve identity: %w", err)
	}
	return Linked(acc.Username), nil
}
