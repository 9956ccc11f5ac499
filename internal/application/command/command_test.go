package command_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leetgroups/groupboard/internal/application/command"
	"github.com/leetgroups/groupboard/internal/application/ledger"
	"github.com/leetgroups/groupboard/internal/domain/account"
	"github.com/leetgroups/groupboard/internal/domain/group"
	"github.com/leetgroups/groupboard/internal/domain/identity"
	"github.com/leetgroups/groupboard/internal/domain/leaderboard"
	"github.com/leetgroups/groupboard/internal/domain/shared"
	"github.com/leetgroups/groupboard/internal/infrastructure/persistence/badger"
	"github.com/leetgroups/groupboard/internal/infrastructure/persistence/documents"
)

// fakeProfiles serves about-me texts from a map. Unknown handles are not found.
type fakeProfiles struct {
	mu    sync.Mutex
	about map[shared.Handle]string
	calls int
}

func (f *fakeProfiles) FetchProfile(_ context.Context, h shared.Handle) (*leaderboard.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	about, ok := f.about[h]
	if !ok {
		return nil, shared.ErrHandleNotFound
	}
	return &leaderboard.Profile{Handle: h, AboutMe: about, AvatarURL: "https://img/" + h.String()}, nil
}

func (f *fakeProfiles) setAbout(h shared.Handle, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.about[h] = text
}

type fakeModerator struct {
	err   error
	calls int
}

func (m *fakeModerator) Check(context.Context, string, string) error {
	m.calls++
	return m.err
}

type env struct {
	accounts  *documents.AccountRepository
	groups    *documents.GroupRepository
	users     *documents.UserRepository
	profiles  *fakeProfiles
	moderator *fakeModerator
	resolver  *identity.Resolver
	ledger    *ledger.Ledger
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store, err := badger.Open(badger.InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	e := &env{
		accounts:  documents.NewAccountRepository(store),
		groups:    documents.NewGroupRepository(store),
		users:     documents.NewUserRepository(store),
		profiles:  &fakeProfiles{about: map[shared.Handle]string{}},
		moderator: &fakeModerator{},
	}
	e.resolver = identity.NewResolver(e.accounts, "")
	e.ledger = ledger.New(e.groups, e.users, ledger.Config{})
	return e
}

func (e *env) link(t *testing.T, token string, h shared.Handle) {
	t.Helper()
	require.NoError(t, e.accounts.Create(context.Background(), &account.Account{
		Token:    shared.AccountToken(token),
		Username: h,
	}))
}

func (e *env) createGroup(t *testing.T, name, secret string, privacy bool, token string) {
	t.Helper()
	_, err := command.NewCreateGroupHandler(e.accounts, e.ledger, e.moderator, nil).Handle(context.Background(),
		command.CreateGroupCommand{Name: name, Secret: secret, Privacy: privacy, Token: token})
	require.NoError(t, err)
}

func (e *env) joinHandler(policy group.JoinPolicy) *command.JoinGroupHandler {
	return command.NewJoinGroupHandler(e.accounts, e.groups, e.profiles, e.resolver, e.ledger, policy)
}

// assertMembership checks both sides of the membership relation.
func (e *env) assertMembership(t *testing.T, name shared.GroupName, h shared.Handle, want bool) {
	t.Helper()
	ctx := context.Background()

	g, err := e.groups.Get(ctx, name)
	inMembers := err == nil && g.HasMember(h)

	inGroups := false
	if rec, err := e.users.Get(ctx, h); err == nil {
		inGroups = rec.InGroup(name)
	}

	assert.Equal(t, want, inMembers, "members side for %s", h)
	assert.Equal(t, want, inGroups, "user record side for %s", h)
}
