package query_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leetgroups/groupboard/internal/application/command"
	"github.com/leetgroups/groupboard/internal/application/ledger"
	"github.com/leetgroups/groupboard/internal/application/query"
	"github.com/leetgroups/groupboard/internal/domain/account"
	"github.com/leetgroups/groupboard/internal/domain/group"
	"github.com/leetgroups/groupboard/internal/domain/identity"
	"github.com/leetgroups/groupboard/internal/domain/leaderboard"
	"github.com/leetgroups/groupboard/internal/domain/shared"
	"github.com/leetgroups/groupboard/internal/infrastructure/persistence/badger"
	"github.com/leetgroups/groupboard/internal/infrastructure/persistence/documents"
)

// upstream is a fixed statistics provider. Handles without an entry are not
// found upstream.
type upstream map[shared.Handle]*leaderboard.Profile

func (u upstream) FetchStats(ctx context.Context, h shared.Handle) (*leaderboard.Profile, error) {
	return u.FetchProfile(ctx, h)
}

func (u upstream) FetchProfile(_ context.Context, h shared.Handle) (*leaderboard.Profile, error) {
	p, ok := u[h]
	if !ok {
		return nil, shared.ErrHandleNotFound
	}
	cp := *p
	return &cp, nil
}

func full(h shared.Handle, about string, easy, medium, hard int) *leaderboard.Profile {
	return &leaderboard.Profile{
		Handle:  h,
		AboutMe: about,
		Counts: leaderboard.AcceptedCounts{
			Total:  leaderboard.IntPtr(easy + medium + hard),
			Easy:   leaderboard.IntPtr(easy),
			Medium: leaderboard.IntPtr(medium),
			Hard:   leaderboard.IntPtr(hard),
		},
	}
}

type allow struct{}

func (allow) Check(context.Context, string, string) error { return nil }

type env struct {
	accounts *documents.AccountRepository
	groups   *documents.GroupRepository
	users    *documents.UserRepository
	stats    upstream
	create   *command.CreateGroupHandler
	join     *command.JoinGroupHandler
	fetch    *query.FetchLeaderboardHandler
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store, err := badger.Open(badger.InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	e := &env{
		accounts: documents.NewAccountRepository(store),
		groups:   documents.NewGroupRepository(store),
		users:    documents.NewUserRepository(store),
		stats:    upstream{},
	}
	resolver := identity.NewResolver(e.accounts, "")
	l := ledger.New(e.groups, e.users, ledger.Config{})
	agg := leaderboard.NewAggregator(e.stats, leaderboard.AggregatorConfig{MaxConcurrency: 4})

	e.create = command.NewCreateGroupHandler(e.accounts, l, allow{}, nil)
	e.join = command.NewJoinGroupHandler(e.accounts, e.groups, e.stats, resolver, l, group.DefaultJoinPolicy())
	e.fetch = query.NewFetchLeaderboardHandler(e.groups, resolver, agg, nil)
	return e
}

func (e *env) link(t *testing.T, token string, h shared.Handle) {
	t.Helper()
	require.NoError(t, e.accounts.Create(context.Background(), &account.Account{Token: shared.AccountToken(token), Username: h}))
}

func TestFetchLeaderboard_CreateRoundTrip(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.link(t, "tok-alice", "alice")
	e.stats["alice"] = full("alice", "", 10, 5, 1)

	_, err := e.create.Handle(ctx, command.CreateGroupCommand{Name: "solo", Secret: "s3", Token: "tok-alice"})
	require.NoError(t, err)

	res, err := e.fetch.Handle(ctx, query.FetchLeaderboardQuery{GroupName: "solo", Token: "tok-alice"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalMembers)
	require.Len(t, res.Members, 1)
	assert.Equal(t, shared.Handle("alice"), res.Members[0].Handle)
	assert.Equal(t, 16, *res.Members[0].TotalSolved)
	assert.Equal(t, 23, *res.Members[0].Score)
	assert.Equal(t, "s3", res.GroupSecret)
	assert.False(t, res.PromptToJoin)
}

func TestFetchLeaderboard_AlgoClub(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.link(t, "tok-alice", "alice")
	e.link(t, "tok-bob", "bob")
	e.stats["alice"] = full("alice", "", 1, 1, 1)
	e.stats["bob"] = full("bob", "joining xyz9", 20, 10, 2)

	_, err := e.create.Handle(ctx, command.CreateGroupCommand{Name: "algo-club", Secret: "xyz9", Privacy: true, Token: "tok-alice"})
	require.NoError(t, err)

	// Bob knows the code but is not a member yet.
	res, err := e.fetch.Handle(ctx, query.FetchLeaderboardQuery{GroupName: "algo-club", Token: "tok-bob", Code: "xyz9"})
	require.NoError(t, err)
	assert.True(t, res.PromptToJoin)
	assert.Empty(t, res.GroupSecret)
	require.Len(t, res.Members, 1)
	assert.Equal(t, shared.Handle("alice"), res.Members[0].Handle)

	// Without the code he is refused.
	_, err = e.fetch.Handle(ctx, query.FetchLeaderboardQuery{GroupName: "algo-club", Token: "tok-bob"})
	assert.ErrorIs(t, err, shared.ErrPrivateGroup)
	assert.Contains(t, err.Error(), "not a member")

	_, err = e.join.HandleLinked(ctx, command.JoinGroupCommand{Token: "tok-bob", GroupName: "algo-club", Code: "xyz9"})
	require.NoError(t, err)

	res, err = e.fetch.Handle(ctx, query.FetchLeaderboardQuery{GroupName: "algo-club", Token: "tok-bob"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalMembers)
	assert.Equal(t, "xyz9", res.GroupSecret)
	assert.False(t, res.PromptToJoin)
	require.Len(t, res.Members, 2)
	assert.Equal(t, shared.Handle("bob"), res.Members[0].Handle, "higher score ranks first")
	assert.Equal(t, shared.Handle("alice"), res.Members[1].Handle)
}

func TestFetchLeaderboard_Access(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.link(t, "tok-alice", "alice")
	e.stats["alice"] = full("alice", "", 1, 0, 0)
	e.stats["carol"] = full("carol", "xyz9", 0, 0, 0)

	_, err := e.create.Handle(ctx, command.CreateGroupCommand{Name: "private", Secret: "xyz9", Privacy: true, Token: "tok-alice"})
	require.NoError(t, err)
	_, err = e.create.Handle(ctx, command.CreateGroupCommand{Name: "public", Secret: "pub", Token: "tok-alice"})
	require.NoError(t, err)

	_, err = e.fetch.Handle(ctx, query.FetchLeaderboardQuery{GroupName: "private", Token: "none"})
	assert.ErrorIs(t, err, shared.ErrPrivateGroup)
	assert.Contains(t, err.Error(), "no linked account")

	res, err := e.fetch.Handle(ctx, query.FetchLeaderboardQuery{GroupName: "public", Token: "none"})
	require.NoError(t, err)
	assert.Empty(t, res.GroupSecret)

	_, err = e.join.HandleAnonymous(ctx, command.JoinAnonymousCommand{Handle: "anon-carol", GroupName: "private", Code: "xyz9"})
	require.NoError(t, err)

	res, err = e.fetch.Handle(ctx, query.FetchLeaderboardQuery{GroupName: "private", Token: "anon-carol"})
	require.NoError(t, err)
	assert.Equal(t, "xyz9", res.GroupSecret)

	_, err = e.fetch.Handle(ctx, query.FetchLeaderboardQuery{GroupName: "missing", Token: "none"})
	assert.ErrorIs(t, err, shared.ErrGroupNotFound)
}

func TestFetchLeaderboard_MemberFailuresDoNotFailBatch(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.link(t, "tok-alice", "alice")
	e.stats["alice"] = full("alice", "", 3, 0, 0)

	_, err := e.create.Handle(ctx, command.CreateGroupCommand{Name: "g", Secret: "s", Token: "tok-alice"})
	require.NoError(t, err)
	require.NoError(t, e.groups.UpdateMembers(ctx, "g", []shared.Handle{"ghost", "alice"}))

	res, err := e.fetch.Handle(ctx, query.FetchLeaderboardQuery{GroupName: "g", Token: "none"})
	require.NoError(t, err)
	require.Len(t, res.Members, 2)
	assert.Equal(t, shared.Handle("alice"), res.Members[0].Handle)
	assert.Equal(t, leaderboard.FetchErrorNotFound, res.Members[1].FetchError)
	assert.Nil(t, res.Members[1].TotalSolved)
}

func TestAccountStatus(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.link(t, "tok-alice", "alice")
	h := query.NewAccountStatusHandler(e.accounts)

	res, err := h.Handle(ctx, query.AccountStatusQuery{Token: "tok-alice"})
	require.NoError(t, err)
	assert.True(t, res.Found)

	res, err = h.Handle(ctx, query.AccountStatusQuery{Token: "tok-other"})
	require.NoError(t, err)
	assert.False(t, res.Found)

	_, err = h.Handle(ctx, query.AccountStatusQuery{})
	assert.True(t, shared.IsValidation(err))
}

func TestProfile(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.link(t, "tok-alice", "alice")
	e.stats["alice"] = full("alice", "", 4, 2, 1)
	h := query.NewProfileHandler(e.accounts, e.users, e.groups, e.stats)

	// No user record yet: an empty one is created.
	res, err := h.Handle(ctx, query.ProfileQuery{Token: "tok-alice"})
	require.NoError(t, err)
	assert.Empty(t, res.Groups)
	assert.Empty(t, res.Owned)
	_, err = e.users.Get(ctx, "alice")
	require.NoError(t, err)

	_, err = e.create.Handle(ctx, command.CreateGroupCommand{Name: "algo-club", Secret: "xyz9", Privacy: true, Token: "tok-alice"})
	require.NoError(t, err)

	// An owned name whose document is gone comes back without group data.
	rec, err := e.users.Get(ctx, "alice")
	require.NoError(t, err)
	rec.AddOwned("vanished")
	require.NoError(t, e.users.Save(ctx, rec))

	res, err = h.Handle(ctx, query.ProfileQuery{Token: "tok-alice"})
	require.NoError(t, err)
	assert.Equal(t, shared.Handle("alice"), res.Username)
	assert.Equal(t, []shared.GroupName{"algo-club"}, res.Groups)
	require.Len(t, res.Owned, 2)
	assert.Equal(t, shared.GroupName("algo-club"), res.Owned[0].Name)
	require.NotNil(t, res.Owned[0].Group)
	assert.Equal(t, "xyz9", res.Owned[0].Group.Secret)
	assert.Nil(t, res.Owned[1].Group)
	assert.Equal(t, 7, *res.Counts.Total)

	_, err = h.Handle(ctx, query.ProfileQuery{Token: "tok-unknown"})
	assert.ErrorIs(t, err, shared.ErrAccountNotLinked)
}
