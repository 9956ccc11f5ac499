// Package shared contains common domain types, errors and identifiers that are
// used across all domain packages.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound = errors.New("entity not found")
	ErrConflict = errors.New("entity already exists")

	// Validation errors
	ErrInvalidInput = errors.New("invalid input")
	ErrEmptyValue   = errors.New("value cannot be empty")

	// Authorization errors
	ErrForbidden = errors.New("forbidden")

	// External service errors
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrUpstreamNotFound    = errors.New("upstream entity not found")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "group", "account", "ledger"
	Op      string // Operation that failed, e.g., "Join", "Delete"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching. A DomainError matches its own kind and
// anything its wrapped error matches.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Group domain errors
var (
	ErrGroupNotFound    = NewDomainError("group", "Find", ErrNotFound, "group does not exist, or was deleted")
	ErrGroupNameTaken   = NewDomainError("group", "Create", ErrConflict, "the group name is taken")
	ErrSecretMismatch   = NewDomainError("group", "Authorize", ErrForbidden, "invalid group secret")
	ErrAlreadyMember    = NewDomainError("group", "Join", ErrConflict, "user is already a member of this group")
	ErrNotMember        = NewDomainError("group", "Leave", ErrForbidden, "user is not a member of this group")
	ErrProofMissing     = NewDomainError("group", "Join", ErrForbidden, "group secret not found in profile about-me text")
	ErrOwnerCannotLeave = NewDomainError("group", "Leave", ErrForbidden, "cannot leave a group you own; delete it instead")
	ErrNotOwner         = NewDomainError("group", "Delete", ErrForbidden, "only the owner can delete this group")
	ErrPrivateGroup     = NewDomainError("group", "View", ErrForbidden, "group is private")
	ErrContentRejected  = NewDomainError("group", "Create", ErrForbidden, "the group name or secret is not appropriate")
)

// Account domain errors
var (
	ErrAccountNotLinked     = NewDomainError("account", "Find", ErrNotFound, "account not linked; link your profile first")
	ErrAccountAlreadyLinked = NewDomainError("account", "Register", ErrConflict, "account already linked")
	ErrTokenNotInProfile    = NewDomainError("account", "Register", ErrForbidden, "token not found in profile about-me text")
	ErrUserRecordNotFound   = NewDomainError("member", "Find", ErrNotFound, "user record not found")
)

// External service errors
var (
	ErrHandleNotFound        = NewDomainError("stats", "Lookup", ErrUpstreamNotFound, "handle not found upstream")
	ErrStatsUnavailable      = NewDomainError("stats", "Lookup", ErrUpstreamUnavailable, "statistics provider is unavailable")
	ErrModerationUnavailable = NewDomainError("moderation", "Check", ErrUpstreamUnavailable, "moderation service is unavailable")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict checks if the error is a duplicate/conflict error.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsForbidden checks if the error is an authorization failure.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrEmptyValue)
}

// IsUpstreamNotFound reports whether the upstream source said the entity does not exist.
func IsUpstreamNotFound(err error) bool {
	return errors.Is(err, ErrUpstreamNotFound)
}

// IsUpstreamUnavailable reports whether an upstream dependency failed in transport.
func IsUpstreamUnavailable(err error) bool {
	return errors.Is(err, ErrUpstreamUnavailable)
}
