package documents

import (
	"context"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/leetgroups/groupboard/internal/domain/account"
	"github.com/leetgroups/groupboard/internal/domain/group"
	"github.com/leetgroups/groupboard/internal/domain/member"
	"github.com/leetgroups/groupboard/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GROUPS
// ══════════════════════════════════════════════════════════════════════════════

// GroupRepository implements group.Repository.
type GroupRepository struct {
	store Store
}

// NewGroupRepository creates a group repository over store.
func NewGroupRepository(store Store) *GroupRepository {
	return &GroupRepository{store: store}
}

var _ group.Repository = (*GroupRepository)(nil)

func (r *GroupRepository) Get(ctx context.Context, name shared.GroupName) (*group.Group, error) {
	doc, err := r.store.Get(ctx, CollectionGroups, Key(name.String()))
	if err != nil {
		if IsNotFound(err) {
			return nil, shared.ErrGroupNotFound
		}
		return nil, fmt.Errorf("get group %q: %w", name, err)
	}
	return &group.Group{
		Name:    name,
		Secret:  doc.String(FieldSecret),
		Privacy: doc.Bool(FieldPrivacy),
		Members: shared.Handles(doc.StringList(FieldMembers)),
	}, nil
}

func (r *GroupRepository) Exists(ctx context.Context, name shared.GroupName) (bool, error) {
	_, err := r.store.Get(ctx, CollectionGroups, Key(name.String()))
	if err == nil {
		return true, nil
	}
	if IsNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("check group %q: %w", name, err)
}

func (r *GroupRepository) Create(ctx context.Context, g *group.Group) error {
	doc := Document{
		FieldSecret:  g.Secret,
		FieldPrivacy: g.Privacy,
		FieldMembers: toStrings(g.Members),
	}
	return r.store.Set(ctx, CollectionGroups, Key(g.Name.String()), doc)
}

func (r *GroupRepository) UpdateMembers(ctx context.Context, name shared.GroupName, members []shared.Handle) error {
	return r.update(ctx, name, Document{FieldMembers: toStrings(members)})
}

func (r *GroupRepository) UpdatePrivacy(ctx context.Context, name shared.GroupName, privacy bool) error {
	return r.update(ctx, name, Document{FieldPrivacy: privacy})
}

func (r *GroupRepository) UpdateSecret(ctx context.Context, name shared.GroupName, secret string) error {
	return r.update(ctx, name, Document{FieldSecret: secret})
}

func (r *GroupRepository) Delete(ctx context.Context, name shared.GroupName) error {
	return r.store.Delete(ctx, CollectionGroups, Key(name.String()))
}

func (r *GroupRepository) update(ctx context.Context, name shared.GroupName, fields Document) error {
	err := r.store.Update(ctx, CollectionGroups, Key(name.String()), fields)
	if IsNotFound(err) {
		return shared.ErrGroupNotFound
	}
	return err
}

// ══════════════════════════════════════════════════════════════════════════════
// ACCOUNTS
// ══════════════════════════════════════════════════════════════════════════════

// AccountRepository implements account.Repository. Documents are keyed by a
// BLAKE2b digest of the token, so the raw token is never stored.
type AccountRepository struct {
	store Store
}

// NewAccountRepository creates an account repository over store.
func NewAccountRepository(store Store) *AccountRepository {
	return &AccountRepository{store: store}
}

var _ account.Repository = (*AccountRepository)(nil)

// TokenKey returns the document key for token.
func TokenKey(token shared.AccountToken) string {
	sum := blake2b.Sum256([]byte(Key(token.String())))
	return hex.EncodeToString(sum[:])
}

func (r *AccountRepository) Get(ctx context.Context, token shared.AccountToken) (*account.Account, error) {
	doc, err := r.store.Get(ctx, CollectionAccounts, TokenKey(token))
	if err != nil {
		if IsNotFound(err) {
			return nil, shared.ErrAccountNotLinked
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &account.Account{
		Token:     token,
		Username:  shared.Handle(Key(doc.String(FieldUsername))),
		AvatarURL: doc.String(FieldUserAvatar),
	}, nil
}

func (r *AccountRepository) Create(ctx context.Context, acc *account.Account) error {
	key := TokenKey(acc.Token)
	_, err := r.store.Get(ctx, CollectionAccounts, key)
	if err == nil {
		return shared.ErrAccountAlreadyLinked
	}
	if !IsNotFound(err) {
		return fmt.Errorf("check account: %w", err)
	}
	return r.store.Set(ctx, CollectionAccounts, key, Document{
		FieldUsername:   acc.Username.String(),
		FieldUserAvatar: acc.AvatarURL,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// USER RECORDS
// ══════════════════════════════════════════════════════════════════════════════

// UserRepository implements member.Repository.
type UserRepository struct {
	store Store
}

// NewUserRepository creates a user record repository over store.
func NewUserRepository(store Store) *UserRepository {
	return &UserRepository{store: store}
}

var _ member.Repository = (*UserRepository)(nil)

func (r *UserRepository) Get(ctx context.Context, handle shared.Handle) (*member.UserRecord, error) {
	doc, err := r.store.Get(ctx, CollectionUsers, Key(handle.String()))
	if err != nil {
		if IsNotFound(err) {
			return nil, shared.ErrUserRecordNotFound
		}
		return nil, fmt.Errorf("get user record %q: %w", handle, err)
	}
	return &member.UserRecord{
		Handle: handle,
		Groups: shared.GroupNames(doc.StringList(FieldGroups)),
		Owned:  shared.GroupNames(doc.StringList(FieldOwned)),
	}, nil
}

func (r *UserRepository) Save(ctx context.Context, rec *member.UserRecord) error {
	return r.store.Set(ctx, CollectionUsers, Key(rec.Handle.String()), Document{
		FieldGroups: toStrings(rec.Groups),
		FieldOwned:  toStrings(rec.Owned),
	})
}
