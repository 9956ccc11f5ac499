// Package group contains the Group entity and the access rules that decide who
// may view, join, leave and own a group.
package group

import (
	"context"
	"slices"

	"github.com/leetgroups/groupboard/internal/domain/shared"
)

// Group is a named leaderboard gated by a shared secret.
type Group struct {
	Name    shared.GroupName
	Secret  string
	Privacy bool

	// Members is ordered by join time. Uniqueness is maintained by the ledger,
	// not by storage.
	Members []shared.Handle
}

// HasMember reports whether h is in the member list.
func (g *Group) HasMember(h shared.Handle) bool {
	return slices.Contains(g.Members, h)
}

// AddMember appends h unless already present. It returns false on a no-op.
func (g *Group) AddMember(h shared.Handle) bool {
	if g.HasMember(h) {
		return false
	}
	g.Members = append(g.Members, h)
	return true
}

// RemoveMember removes every occurrence of h. It returns false when h was absent.
func (g *Group) RemoveMember(h shared.Handle) bool {
	before := len(g.Members)
	g.Members = slices.DeleteFunc(g.Members, func(x shared.Handle) bool { return x == h })
	return len(g.Members) != before
}

// SecretMatches reports whether code equals the group secret.
func (g *Group) SecretMatches(code string) bool {
	return g.Secret != "" && code == g.Secret
}

// Repository defines persistence for groups.
type Repository interface {
	// Get returns the group. Returns shared.ErrGroupNotFound when absent.
	Get(ctx context.Context, name shared.GroupName) (*Group, error)

	// Exists reports whether a group with this name is stored.
	Exists(ctx context.Context, name shared.GroupName) (bool, error)

	// Create overwrites the whole group document.
	Create(ctx context.Context, g *Group) error

	// UpdateMembers replaces only the member list (last writer wins).
	UpdateMembers(ctx context.Context, name shared.GroupName, members []shared.Handle) error

	// UpdatePrivacy replaces only the privacy flag.
	UpdatePrivacy(ctx context.Context, name shared.GroupName, privacy bool) error

	// UpdateSecret replaces only the secret.
	UpdateSecret(ctx context.Context, name shared.GroupName, secret string) error

	// Delete removes the group document.
	Delete(ctx context.Context, name shared.GroupName) error
}
