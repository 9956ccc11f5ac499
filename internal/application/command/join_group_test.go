package command_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leetgroups/groupboard/internal/application/command"
	"github.com/leetgroups/groupboard/internal/domain/group"
	"github.com/leetgroups/groupboard/internal/domain/shared"
)

func TestJoinLinked(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.link(t, "tok-alice", "alice")
	e.link(t, "tok-bob", "bob")
	e.createGroup(t, "algo-club", "xyz9", true, "tok-alice")
	h := e.joinHandler(group.DefaultJoinPolicy())

	join := func(token, code string) error {
		_, err := h.HandleLinked(ctx, command.JoinGroupCommand{Token: token, GroupName: "algo-club", Code: code})
		return err
	}

	assert.ErrorIs(t, join("tok-nobody", "xyz9"), shared.ErrAccountNotLinked)
	assert.ErrorIs(t, join("tok-bob", "wrong"), shared.ErrSecretMismatch)
	assert.Zero(t, e.profiles.calls, "mismatch is decided before any profile fetch")

	e.profiles.setAbout("bob", "nothing here")
	assert.ErrorIs(t, join("tok-bob", "xyz9"), shared.ErrProofMissing)
	e.assertMembership(t, "algo-club", "bob", false)

	e.profiles.setAbout("bob", "my code: xyz9")
	require.NoError(t, join("tok-bob", "xyz9"))
	e.assertMembership(t, "algo-club", "bob", true)

	g, err := e.groups.Get(ctx, "algo-club")
	require.NoError(t, err)
	assert.Equal(t, []shared.Handle{"alice", "bob"}, g.Members)

	err = join("tok-bob", "xyz9")
	assert.ErrorIs(t, err, shared.ErrAlreadyMember)
	assert.True(t, shared.IsConflict(err))
}

func TestJoin_GroupNotFound(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.link(t, "tok-bob", "bob")
	h := e.joinHandler(group.DefaultJoinPolicy())

	_, err := h.HandleLinked(ctx, command.JoinGroupCommand{Token: "tok-bob", GroupName: "missing", Code: "x"})
	assert.ErrorIs(t, err, shared.ErrGroupNotFound)

	_, err = h.HandleAnonymous(ctx, command.JoinAnonymousCommand{Handle: "carol", GroupName: "missing", Code: "x"})
	assert.ErrorIs(t, err, shared.ErrGroupNotFound)
}

func TestJoinAnonymous(t *testing.T) {
	ctx := context.Background()

	t.Run("proof required by default", func(t *testing.T) {
		e := newEnv(t)
		e.link(t, "tok-alice", "alice")
		e.createGroup(t, "algo-club", "xyz9", true, "tok-alice")
		h := e.joinHandler(group.DefaultJoinPolicy())

		e.profiles.setAbout("carol", "")
		_, err := h.HandleAnonymous(ctx, command.JoinAnonymousCommand{Handle: "anon-carol", GroupName: "algo-club", Code: "xyz9"})
		assert.ErrorIs(t, err, shared.ErrProofMissing)

		e.profiles.setAbout("carol", "xyz9")
		res, err := h.HandleAnonymous(ctx, command.JoinAnonymousCommand{Handle: "anon-carol", GroupName: "algo-club", Code: "xyz9"})
		require.NoError(t, err)
		assert.Equal(t, shared.Handle("carol"), res.Handle, "stored without the marker")
		e.assertMembership(t, "algo-club", "carol", true)
	})

	t.Run("marker optional", func(t *testing.T) {
		e := newEnv(t)
		e.link(t, "tok-alice", "alice")
		e.createGroup(t, "algo-club", "xyz9", false, "tok-alice")
		e.profiles.setAbout("dave", "xyz9")
		h := e.joinHandler(group.DefaultJoinPolicy())

		res, err := h.HandleAnonymous(ctx, command.JoinAnonymousCommand{Handle: "dave", GroupName: "algo-club", Code: "xyz9"})
		require.NoError(t, err)
		assert.Equal(t, shared.Handle("dave"), res.Handle)
	})

	t.Run("proof skipped when policy allows", func(t *testing.T) {
		e := newEnv(t)
		e.link(t, "tok-alice", "alice")
		e.createGroup(t, "algo-club", "xyz9", true, "tok-alice")
		h := e.joinHandler(group.JoinPolicy{RequireAnonymousProof: false})

		_, err := h.HandleAnonymous(ctx, command.JoinAnonymousCommand{Handle: "anon-erin", GroupName: "algo-club", Code: "xyz9"})
		require.NoError(t, err)
		assert.Zero(t, e.profiles.calls)
		e.assertMembership(t, "algo-club", "erin", true)
	})

	t.Run("unknown handle", func(t *testing.T) {
		e := newEnv(t)
		e.link(t, "tok-alice", "alice")
		e.createGroup(t, "algo-club", "xyz9", true, "tok-alice")
		h := e.joinHandler(group.DefaultJoinPolicy())

		_, err := h.HandleAnonymous(ctx, command.JoinAnonymousCommand{Handle: "ghost", GroupName: "algo-club", Code: "xyz9"})
		assert.True(t, shared.IsUpstreamNotFound(err))
	})

	t.Run("empty handle", func(t *testing.T) {
		e := newEnv(t)
		h := e.joinHandler(group.DefaultJoinPolicy())

		_, err := h.HandleAnonymous(ctx, command.JoinAnonymousCommand{Handle: "anon-", GroupName: "algo-club", Code: "xyz9"})
		assert.True(t, shared.IsValidation(err))
	})
}
