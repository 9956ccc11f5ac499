// Package member contains the per-handle record of group memberships and
// ownerships. It is one side of the bidirectional membership relation; the
// other side is the group's member list.
package member

import (
	"context"
	"slices"

	"github.com/leetgroups/groupboard/internal/domain/shared"
)

// UserRecord lists the groups a handle belongs to and the groups it created.
// Both lists behave as sets: inserts are de-duplicated.
type UserRecord struct {
	Handle shared.Handle
	Groups []shared.GroupName
	Owned  []shared.GroupName
}

// NewUserRecord returns an empty record for handle.
func NewUserRecord(handle shared.Handle) *UserRecord {
	return &UserRecord{
		Handle: handle,
		Groups: []shared.GroupName{},
		Owned:  []shared.GroupName{},
	}
}

// InGroup reports whether the record lists g as a joined group.
func (r *UserRecord) InGroup(g shared.GroupName) bool {
	return slices.Contains(r.Groups, g)
}

// Owns reports whether the record lists g as an owned group.
func (r *UserRecord) Owns(g shared.GroupName) bool {
	return slices.Contains(r.Owned, g)
}

// JoinGroup adds g to Groups. It returns false when g was already present.
func (r *UserRecord) JoinGroup(g shared.GroupName) bool {
	if r.InGroup(g) {
		return false
	}
	r.Groups = append(r.Groups, g)
	return true
}

// LeaveGroup removes g from Groups. It returns false when g was absent.
func (r *UserRecord) LeaveGroup(g shared.GroupName) bool {
	before := len(r.Groups)
	r.Groups = slices.DeleteFunc(r.Groups, func(x shared.GroupName) bool { return x == g })
	return len(r.Groups) != before
}

// AddOwned adds g to Owned. It returns false when g was already present.
func (r *UserRecord) AddOwned(g shared.GroupName) bool {
	if r.Owns(g) {
		return false
	}
	r.Owned = append(r.Owned, g)
	return true
}

// RemoveOwned removes g from Owned. It returns false when g was absent.
func (r *UserRecord) RemoveOwned(g shared.GroupName) bool {
	before := len(r.Owned)
	r.Owned = slices.DeleteFunc(r.Owned, func(x shared.GroupName) bool { return x == g })
	return len(r.Owned) != before
}

// Repository defines persistence for user records.
type Repository interface {
	// Get returns the record for handle.
	// Returns shared.ErrUserRecordNotFound when the handle has no record yet.
	Get(ctx context.Context, handle shared.Handle) (*UserRecord, error)

	// Save writes both lists of the record, creating it when absent.
	Save(ctx context.Context, rec *UserRecord) error
}
