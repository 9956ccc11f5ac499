// Package ledger keeps both sides of the membership relation in step: a group's
// member list and each member's user record.
//
// Every operation is a sequence of independent document writes. There is no
// transaction and no lock: two concurrent joins on the same group both read the
// same member list and the later write wins. Delete continues past failures and
// reports which steps completed, without rolling anything back.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leetgroups/groupboard/internal/domain/group"
	"github.com/leetgroups/groupboard/internal/domain/member"
	"github.com/leetgroups/groupboard/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// CascadeObserver is notified about failed cascade steps.
type CascadeObserver interface {
	CascadeStepFailed(step string)
}

type nopObserver struct{}

func (nopObserver) CascadeStepFailed(string) {}

// Config configures a Ledger.
type Config struct {
	Logger   *slog.Logger
	Observer CascadeObserver
}

// Ledger sequences the multi-document writes of create, join, leave and delete.
type Ledger struct {
	groups   group.Repository
	users    member.Repository
	logger   *slog.Logger
	observer CascadeObserver
}

// New creates a ledger.
func New(groups group.Repository, users member.Repository, cfg Config) *Ledger {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	observer := cfg.Observer
	if observer == nil {
		observer = nopObserver{}
	}
	return &Ledger{
		groups:   groups,
		users:    users,
		logger:   logger.With("component", "ledger"),
		observer: observer,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CREATE / JOIN / LEAVE
// ══════════════════════════════════════════════════════════════════════════════

// CreateGroup stores a new group with creator as its only member and records
// the group as joined and owned on the creator's user record.
func (l *Ledger) CreateGroup(ctx context.Context, name shared.GroupName, secret string, privacy bool, creator shared.Handle) (*group.Group, error) {
	exists, err := l.groups.Exists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("check group: %w", err)
	}
	if exists {
		return nil, shared.ErrGroupNameTaken
	}

	g := &group.Group{
		Name:    name,
		Secret:  secret,
		Privacy: privacy,
		Members: []shared.Handle{creator},
	}
	if err := l.groups.Create(ctx, g); err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}

	rec, err := l.loadOrNew(ctx, creator)
	if err != nil {
		return nil, err
	}
	rec.JoinGroup(name)
	rec.AddOwned(name)
	if err := l.users.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("save creator record: %w", err)
	}

	l.logger.Info("group created", "group", name.String(), "owner", creator.String())
	return g, nil
}

// JoinGroup appends handle to the group's members and the group to the
// handle's record. Both writes are skipped when the value is already present.
func (l *Ledger) JoinGroup(ctx context.Context, g *group.Group, handle shared.Handle) error {
	if g.AddMember(handle) {
		if err := l.groups.UpdateMembers(ctx, g.Name, g.Members); err != nil {
			return fmt.Errorf("update members: %w", err)
		}
	}

	rec, err := l.loadOrNew(ctx, handle)
	if err != nil {
		return err
	}
	if rec.JoinGroup(g.Name) {
		if err := l.users.Save(ctx, rec); err != nil {
			return fmt.Errorf("save member record: %w", err)
		}
	}

	l.logger.Info("member joined", "group", g.Name.String(), "handle", handle.String())
	return nil
}

// LeaveGroup removes handle from the group's members and the group from the
// handle's record. Callers run group.AuthorizeLeave first.
func (l *Ledger) LeaveGroup(ctx context.Context, g *group.Group, handle shared.Handle) error {
	if g.RemoveMember(handle) {
		if err := l.groups.UpdateMembers(ctx, g.Name, g.Members); err != nil {
			return fmt.Errorf("update members: %w", err)
		}
	}

	rec, err := l.users.Get(ctx, handle)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("load member record: %w", err)
	}
	if rec.LeaveGroup(g.Name) {
		if err := l.users.Save(ctx, rec); err != nil {
			return fmt.Errorf("save member record: %w", err)
		}
	}

	l.logger.Info("member left", "group", g.Name.String(), "handle", handle.String())
	return nil
}

func (l *Ledger) loadOrNew(ctx context.Context, handle shared.Handle) (*member.UserRecord, error) {
	rec, err := l.users.Get(ctx, handle)
	if err == nil {
		return rec, nil
	}
	if errors.Is(err, shared.ErrNotFound) {
		return member.NewUserRecord(handle), nil
	}
	return nil, fmt.Errorf("load user record: %w", err)
}
