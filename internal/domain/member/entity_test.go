package member

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leetgroups/groupboard/internal/domain/shared"
)

func TestUserRecord_SetSemantics(t *testing.T) {
	rec := NewUserRecord("alice")

	assert.True(t, rec.JoinGroup("algo-club"))
	assert.False(t, rec.JoinGroup("algo-club"))
	assert.True(t, rec.AddOwned("algo-club"))
	assert.False(t, rec.AddOwned("algo-club"))

	assert.Equal(t, []shared.GroupName{"algo-club"}, rec.Groups)
	assert.Equal(t, []shared.GroupName{"algo-club"}, rec.Owned)

	assert.True(t, rec.LeaveGroup("algo-club"))
	assert.False(t, rec.LeaveGroup("algo-club"))
	assert.True(t, rec.RemoveOwned("algo-club"))
	assert.False(t, rec.Owns("algo-club"))
	assert.Empty(t, rec.Groups)
}
