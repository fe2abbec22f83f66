// Package catalog records converted notes and their attachments in SQLite,
// with optional FTS5 full-text search.
package catalog

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS notes (
	path         TEXT PRIMARY KEY,
	title        TEXT NOT NULL DEFAULT '',
	archive      TEXT NOT NULL DEFAULT '',
	checksum     TEXT NOT NULL DEFAULT '',
	tags         TEXT NOT NULL DEFAULT '[]',
	author       TEXT NOT NULL DEFAULT '',
	source_url   TEXT NOT NULL DEFAULT '',
	created      TEXT NOT NULL DEFAULT '',
	updated      TEXT NOT NULL DEFAULT '',
	body         TEXT NOT NULL DEFAULT '',
	converted_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS attachments (
	note_path    TEXT NOT NULL,
	filename     TEXT NOT NULL,
	mime_type    TEXT NOT NULL DEFAULT '',
	path         TEXT NOT NULL DEFAULT '',
	reference_id TEXT NOT NULL DEFAULT '',
	content_hash TEXT NOT NULL DEFAULT '',
	resolved     INTEGER NOT NULL DEFAULT 0,
	error        TEXT NOT NULL DEFAULT '',
	UNIQUE(note_path, filename)
);

CREATE INDEX IF NOT EXISTS idx_attachments_note ON attachments(note_path);
CREATE INDEX IF NOT EXISTS idx_notes_archive ON notes(archive);
`

// DB wraps a sql.DB with catalog operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("catalog: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalog: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalog: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalog: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
