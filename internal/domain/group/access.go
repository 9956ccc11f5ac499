package group

import (
	"strings"

	"github.com/leetgroups/groupboard/internal/domain/identity"
	"github.com/leetgroups/groupboard/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VIEW
// ══════════════════════════════════════════════════════════════════════════════

// DenyReason explains a refused view.
type DenyReason string

const (
	ReasonNone            DenyReason = ""
	ReasonNoLinkedAccount DenyReason = "no_linked_account"
	ReasonNotMember       DenyReason = "not_member"
)

// ViewDecision is the outcome of AuthorizeView.
type ViewDecision struct {
	Granted bool
	Reason  DenyReason

	// IsMember is true when the caller's handle is in the member list.
	IsMember bool

	// PromptToJoin is true when the caller knows the secret but is not a member.
	PromptToJoin bool

	// RevealSecret is true only for confirmed members. A correct code alone
	// never reveals the secret.
	RevealSecret bool
}

// AuthorizeView decides whether id may see the leaderboard of g.
//
// Public groups are always visible. Private groups are visible when the code
// matches the secret, or when the caller (linked or anonymous) is a member.
func AuthorizeView(g *Group, id identity.Identity, code string) ViewDecision {
	isMember := !id.IsNone() && g.HasMember(id.Handle)
	codeOK := g.SecretMatches(code)

	d := ViewDecision{
		IsMember:     isMember,
		PromptToJoin: codeOK && !isMember,
		RevealSecret: isMember,
	}

	switch {
	case !g.Privacy, codeOK, isMember:
		d.Granted = true
	case id.IsNone():
		d.Reason = ReasonNoLinkedAccount
	default:
		d.Reason = ReasonNotMember
	}
	return d
}

// ══════════════════════════════════════════════════════════════════════════════
// JOIN
// ══════════════════════════════════════════════════════════════════════════════

// JoinPolicy controls the proof requirement for joins.
type JoinPolicy struct {
	// RequireAnonymousProof makes anonymous joins prove control of the handle
	// the same way linked joins do.
	RequireAnonymousProof bool
}

// DefaultJoinPolicy requires proof for every join.
func DefaultJoinPolicy() JoinPolicy {
	return JoinPolicy{RequireAnonymousProof: true}
}

// JoinRequest carries everything AuthorizeJoin inspects.
type JoinRequest struct {
	Candidate shared.Handle
	Code      string
	Anonymous bool

	// ProofText is the candidate's public about-me text. Only read when a
	// proof is required.
	ProofText string
}

// NeedsProof reports whether req must carry proof text under policy p.
func (p JoinPolicy) NeedsProof(anonymous bool) bool {
	return !anonymous || p.RequireAnonymousProof
}

// AuthorizeJoin checks, in priority order: group exists, secret matches,
// candidate not yet a member, proof text contains the secret.
//
// Already being a member yields shared.ErrAlreadyMember; callers decide whether
// that is a conflict or a success.
func AuthorizeJoin(g *Group, req JoinRequest, p JoinPolicy) error {
	if g == nil {
		return shared.ErrGroupNotFound
	}
	if !g.SecretMatches(req.Code) {
		return shared.ErrSecretMismatch
	}
	if g.HasMember(req.Candidate) {
		return shared.ErrAlreadyMember
	}
	if p.NeedsProof(req.Anonymous) && !strings.Contains(req.ProofText, g.Secret) {
		return shared.ErrProofMissing
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LEAVE
// ══════════════════════════════════════════════════════════════════════════════

// AuthorizeLeave checks that candidate may leave g. Owners are always refused,
// even when they also appear as ordinary members.
func AuthorizeLeave(g *Group, candidate shared.Handle, ownsGroup bool) error {
	if g == nil {
		return shared.ErrGroupNotFound
	}
	if ownsGroup {
		return shared.ErrOwnerCannotLeave
	}
	if !g.HasMember(candidate) {
		return shared.ErrNotMember
	}
	return nil
}
