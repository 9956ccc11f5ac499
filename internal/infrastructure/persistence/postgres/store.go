package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/leetgroups/groupboard/internal/infrastructure/persistence/documents"
)

// ══════════════════════════════════════════════════════════════════════════════
// DOCUMENT STORE
// ══════════════════════════════════════════════════════════════════════════════

// Store is a documents.Store backed by the documents table.
type Store struct {
	conn *Connection
}

var _ documents.Store = (*Store)(nil)

// NewStore creates a document store on conn. Run the migrator first.
func NewStore(conn *Connection) *Store {
	return &Store{conn: conn}
}

// Get returns the document or documents.ErrDocumentNotFound.
func (s *Store) Get(ctx context.Context, collection, key string) (documents.Document, error) {
	const query = `SELECT data FROM documents WHERE collection = $1 AND key = $2`

	var raw []byte
	err := s.conn.QueryRow(ctx, query, collection, documents.Key(key)).Scan(&raw)
	if err != nil {
		if IsNoRows(err) {
			return nil, documents.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("postgres: get %s/%s: %w", collection, key, err)
	}

	doc := documents.Document{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("postgres: decode %s/%s: %w", collection, key, err)
	}
	return doc, nil
}

// Set overwrites the document.
func (s *Store) Set(ctx context.Context, collection, key string, doc documents.Document) error {
	const query = `
		INSERT INTO documents (collection, key, data)
		VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (collection, key) DO UPDATE SET
			data = EXCLUDED.data,
			updated_at = NOW()
	`

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("postgres: encode %s/%s: %w", collection, key, err)
	}
	if _, err := s.conn.Exec(ctx, query, collection, documents.Key(key), string(data)); err != nil {
		return fmt.Errorf("postgres: set %s/%s: %w", collection, key, err)
	}
	return nil
}

// Update merges fields into an existing document with the jsonb || operator.
func (s *Store) Update(ctx context.Context, collection, key string, fields documents.Document) error {
	const query = `
		UPDATE documents
		SET data = data || $3::jsonb, updated_at = NOW()
		WHERE collection = $1 AND key = $2
	`

	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("postgres: encode %s/%s: %w", collection, key, err)
	}
	tag, err := s.conn.Exec(ctx, query, collection, documents.Key(key), string(data))
	if err != nil {
		return fmt.Errorf("postgres: update %s/%s: %w", collection, key, err)
	}
	if tag.RowsAffected() == 0 {
		return documents.ErrDocumentNotFound
	}
	return nil
}

// Delete removes the document.
func (s *Store) Delete(ctx context.Context, collection, key string) error {
	const query = `DELETE FROM documents WHERE collection = $1 AND key = $2`

	if _, err := s.conn.Exec(ctx, query, collection, documents.Key(key)); err != nil {
		return fmt.Errorf("postgres: delete %s/%s: %w", collection, key, err)
	}
	return nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

// Close closes the underlying pool.
func (s *Store) Close() error {
	s.conn.Close()
	return nil
}
