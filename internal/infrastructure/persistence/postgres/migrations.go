package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE DOCUMENTS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- One row per document; collection + key identify it.
CREATE TABLE IF NOT EXISTS documents (
    collection VARCHAR(32) NOT NULL,
    key TEXT NOT NULL,
    data JSONB NOT NULL DEFAULT '{}'::jsonb,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (collection, key),
    CONSTRAINT valid_collection CHECK (collection IN ('groups', 'accounts', 'users')),
    CONSTRAINT data_is_object CHECK (jsonb_typeof(data) = 'object')
);

CREATE INDEX IF NOT EXISTS idx_documents_updated_at ON documents(updated_at DESC);
`

const migration001Down = `
DROP TABLE IF EXISTS documents;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: INDEX GROUP MEMBERS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Supports "which groups list this handle" lookups for consistency audits.
CREATE INDEX IF NOT EXISTS idx_documents_group_members
    ON documents USING GIN ((data -> 'members'))
    WHERE collection = 'groups';
`

const migration002Down = `
DROP INDEX IF EXISTS idx_documents_group_members;
`

func migrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_documents", UpSQL: migration001Up, DownSQL: migration001Down},
		{Version: 2, Name: "index_group_members", UpSQL: migration002Up, DownSQL: migration002Down},
	}
}
