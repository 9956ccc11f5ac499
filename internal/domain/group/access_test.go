package group

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leetgroups/groupboard/internal/domain/identity"
	"github.com/leetgroups/groupboard/internal/domain/shared"
)

func newAlgoClub(privacy bool) *Group {
	return &Group{
		Name:    "algo-club",
		Secret:  "xyz9",
		Privacy: privacy,
		Members: []shared.Handle{"alice"},
	}
}

func TestAuthorizeView_PublicAlwaysGranted(t *testing.T) {
	g := newAlgoClub(false)

	ids := []identity.Identity{
		identity.None(),
		identity.Linked("alice"),
		identity.Linked("mallory"),
		identity.Anonymous("bob"),
	}
	for _, id := range ids {
		for _, code := range []string{"", "wrong", "xyz9"} {
			d := AuthorizeView(g, id, code)
			assert.True(t, d.Granted, "identity=%v code=%q", id, code)
			assert.Equal(t, ReasonNone, d.Reason)
		}
	}
}

func TestAuthorizeView_Private(t *testing.T) {
	tests := []struct {
		name         string
		id           identity.Identity
		code         string
		granted      bool
		reason       DenyReason
		promptToJoin bool
		revealSecret bool
	}{
		{"member without code", identity.Linked("alice"), "", true, ReasonNone, false, true},
		{"member with code", identity.Linked("alice"), "xyz9", true, ReasonNone, false, true},
		{"non-member with code", identity.Linked("bob"), "xyz9", true, ReasonNone, true, false},
		{"non-member wrong code", identity.Linked("bob"), "nope", false, ReasonNotMember, false, false},
		{"no identity wrong code", identity.None(), "nope", false, ReasonNoLinkedAccount, false, false},
		{"no identity correct code", identity.None(), "xyz9", true, ReasonNone, true, false},
		{"anonymous member", identity.Anonymous("alice"), "", true, ReasonNone, false, true},
		{"anonymous non-member with code", identity.Anonymous("carol"), "xyz9", true, ReasonNone, true, false},
		{"anonymous non-member no code", identity.Anonymous("carol"), "", false, ReasonNotMember, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := AuthorizeView(newAlgoClub(true), tt.id, tt.code)
			assert.Equal(t, tt.granted, d.Granted)
			assert.Equal(t, tt.reason, d.Reason)
			assert.Equal(t, tt.promptToJoin, d.PromptToJoin)
			assert.Equal(t, tt.revealSecret, d.RevealSecret)
		})
	}
}

func TestAuthorizeJoin_Priority(t *testing.T) {
	policy := DefaultJoinPolicy()

	assert.ErrorIs(t, AuthorizeJoin(nil, JoinRequest{Candidate: "bob"}, policy), shared.ErrGroupNotFound)

	g := newAlgoClub(true)
	// Wrong code wins over already-member.
	assert.ErrorIs(t, AuthorizeJoin(g, JoinRequest{Candidate: "alice", Code: "bad"}, policy), shared.ErrSecretMismatch)
	// Already-member wins over missing proof.
	assert.ErrorIs(t, AuthorizeJoin(g, JoinRequest{Candidate: "alice", Code: "xyz9"}, policy), shared.ErrAlreadyMember)
	assert.ErrorIs(t, AuthorizeJoin(g, JoinRequest{Candidate: "bob", Code: "xyz9", ProofText: "hi"}, policy), shared.ErrProofMissing)
	assert.NoError(t, AuthorizeJoin(g, JoinRequest{Candidate: "bob", Code: "xyz9", ProofText: "my code: xyz9"}, policy))
}

func TestAuthorizeJoin_AnonymousProofPolicy(t *testing.T) {
	g := newAlgoClub(true)
	req := JoinRequest{Candidate: "carol", Code: "xyz9", Anonymous: true}

	assert.ErrorIs(t, AuthorizeJoin(g, req, JoinPolicy{RequireAnonymousProof: true}), shared.ErrProofMissing)
	assert.NoError(t, AuthorizeJoin(g, req, JoinPolicy{RequireAnonymousProof: false}))

	// Linked joins always need proof.
	req.Anonymous = false
	assert.ErrorIs(t, AuthorizeJoin(g, req, JoinPolicy{RequireAnonymousProof: false}), shared.ErrProofMissing)
}

func TestAuthorizeLeave(t *testing.T) {
	g := newAlgoClub(false)

	assert.ErrorIs(t, AuthorizeLeave(nil, "alice", false), shared.ErrGroupNotFound)
	// The owner is listed as a member too and is still refused.
	assert.ErrorIs(t, AuthorizeLeave(g, "alice", true), shared.ErrOwnerCannotLeave)
	assert.ErrorIs(t, AuthorizeLeave(g, "bob", false), shared.ErrNotMember)

	g.AddMember("bob")
	assert.NoError(t, AuthorizeLeave(g, "bob", false))
}

func TestGroup_MemberListIsASet(t *testing.T) {
	g := newAlgoClub(false)
	assert.False(t, g.AddMember("alice"))
	assert.True(t, g.AddMember("bob"))
	assert.Equal(t, []shared.Handle{"alice", "bob"}, g.Members)
	assert.True(t, g.RemoveMember("alice"))
	assert.False(t, g.RemoveMember("alice"))
	assert.Equal(t, []shared.Handle{"bob"}, g.Members)
}
