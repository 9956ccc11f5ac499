package shared

import (
	"strings"
)

// Handle is the canonical external-profile identifier. It keys user records
// and is the value stored in a group's member list.
type Handle string

// GroupName is the unique, normalized name of a group. Names are folded to
// lower case, so "Algo-Club" and "algo-club" are the same group.
type GroupName string

// AccountToken is the opaque caller-supplied token an account is bound to.
type AccountToken string

// NormalizeKey trims the value and collapses every internal whitespace run to
// a single space. Every identifier crossing a boundary goes through it so that
// cosmetic variations never produce duplicate documents.
func NormalizeKey(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NewHandle normalizes raw into a Handle.
func NewHandle(raw string) (Handle, error) {
	n := NormalizeKey(raw)
	if n == "" {
		return "", NewDomainError("shared", "NewHandle", ErrEmptyValue, "handle is required")
	}
	return Handle(n), nil
}

// NewGroupName normalizes raw into a GroupName: whitespace as NormalizeKey,
// then lower case.
func NewGroupName(raw string) (GroupName, error) {
	n := strings.ToLower(NormalizeKey(raw))
	if n == "" {
		return "", NewDomainError("shared", "NewGroupName", ErrEmptyValue, "group name is required")
	}
	return GroupName(n), nil
}

// NewAccountToken normalizes raw into an AccountToken.
func NewAccountToken(raw string) (AccountToken, error) {
	n := NormalizeKey(raw)
	if n == "" {
		return "", NewDomainError("shared", "NewAccountToken", ErrEmptyValue, "token is required")
	}
	return AccountToken(n), nil
}

func (h Handle) String() string       { return string(h) }
func (g GroupName) String() string    { return string(g) }
func (t AccountToken) String() string { return string(t) }

// Handles converts raw strings into handles, dropping values that normalize to
// empty.
func Handles(raw []string) []Handle {
	out := make([]Handle, 0, len(raw))
	for _, r := range raw {
		if h, err := NewHandle(r); err == nil {
			out = append(out, h)
		}
	}
	return out
}

// GroupNames converts raw strings into group names, dropping empty values.
func GroupNames(raw []string) []GroupName {
	out := make([]GroupName, 0, len(raw))
	for _, r := range raw {
		if g, err := NewGroupName(r); err == nil {
			out = append(out, g)
		}
	}
	return out
}
