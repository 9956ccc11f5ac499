// Package documents maps the domain entities onto a schemaless document store:
// one collection per entity kind, one JSON document per key.
package documents

import (
	"context"
	"errors"

	"github.com/leetgroups/groupboard/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// STORE PORT
// ══════════════════════════════════════════════════════════════════════════════

// Collection names.
const (
	CollectionGroups   = "groups"
	CollectionAccounts = "accounts"
	CollectionUsers    = "users"
)

// Document field names.
const (
	FieldSecret     = "secret"
	FieldPrivacy    = "privacy"
	FieldMembers    = "members"
	FieldGroups     = "groups"
	FieldOwned      = "owned"
	FieldUsername   = "username"
	FieldUserAvatar = "userAvatar"
)

// ErrDocumentNotFound is returned by Get and Update when the key is absent.
var ErrDocumentNotFound = shared.WrapError("documents", "Get", shared.ErrNotFound, "document not found", nil)

// Document is a JSON-compatible field map.
type Document map[string]any

// Store is a key/value store of documents grouped into collections. Keys are
// normalized by the caller.
type Store interface {
	// Get returns the document or ErrDocumentNotFound.
	Get(ctx context.Context, collection, key string) (Document, error)

	// Set overwrites the whole document.
	Set(ctx context.Context, collection, key string, doc Document) error

	// Update merges fields into an existing document. Returns
	// ErrDocumentNotFound when the document is absent.
	Update(ctx context.Context, collection, key string, fields Document) error

	// Delete removes the document. Deleting an absent key is not an error.
	Delete(ctx context.Context, collection, key string) error

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	Close() error
}

// Key normalizes a raw key.
func Key(raw string) string {
	return shared.NormalizeKey(raw)
}

// IsNotFound reports whether err means the document is absent.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrDocumentNotFound)
}

// ══════════════════════════════════════════════════════════════════════════════
// FIELD DECODING
// ══════════════════════════════════════════════════════════════════════════════

// StringList reads a list of strings from a document field. Both []string and
// the []any produced by JSON decoding are accepted; non-string items are skipped.
func (d Document) StringList(field string) []string {
	switch v := d[field].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return []string{}
	}
}

// String reads a string field, returning "" when absent or mistyped.
func (d Document) String(field string) string {
	s, _ := d[field].(string)
	return s
}

// Bool reads a boolean field, returning false when absent or mistyped.
func (d Document) Bool(field string) bool {
	b, _ := d[field].(bool)
	return b
}

func toStrings[T ~string](in []T) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}
