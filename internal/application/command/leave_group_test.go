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

func TestLeaveGroup(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.link(t, "tok-alice", "alice")
	e.link(t, "tok-bob", "bob")
	e.createGroup(t, "algo-club", "xyz9", true, "tok-alice")
	e.profiles.setAbout("bob", "xyz9")
	e.profiles.setAbout("carol", "xyz9")

	join := e.joinHandler(group.DefaultJoinPolicy())
	_, err := join.HandleLinked(ctx, command.JoinGroupCommand{Token: "tok-bob", GroupName: "algo-club", Code: "xyz9"})
	require.NoError(t, err)
	_, err = join.HandleAnonymous(ctx, command.JoinAnonymousCommand{Handle: "carol", GroupName: "algo-club", Code: "xyz9"})
	require.NoError(t, err)

	h := command.NewLeaveGroupHandler(e.groups, e.users, e.resolver, e.ledger)
	leave := func(token string) error {
		_, err := h.Handle(ctx, command.LeaveGroupCommand{Token: token, GroupName: "algo-club"})
		return err
	}

	err = leave("tok-alice")
	assert.ErrorIs(t, err, shared.ErrOwnerCannotLeave)
	assert.True(t, shared.IsForbidden(err))
	e.assertMembership(t, "algo-club", "alice", true)

	require.NoError(t, leave("tok-bob"))
	e.assertMembership(t, "algo-club", "bob", false)
	assert.ErrorIs(t, leave("tok-bob"), shared.ErrNotMember)

	require.NoError(t, leave("anon-carol"))
	e.assertMembership(t, "algo-club", "carol", false)

	assert.ErrorIs(t, leave("none"), shared.ErrAccountNotLinked)
	assert.ErrorIs(t, leave("tok-unknown"), shared.ErrAccountNotLinked)

	_, err = h.Handle(ctx, command.LeaveGroupCommand{Token: "tok-bob", GroupName: "missing"})
	assert.ErrorIs(t, err, shared.ErrGroupNotFound)
}
