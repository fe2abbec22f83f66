package catalog

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/enexmd/internal/apperr"
	"github.com/starford/enexmd/internal/models"
)

// NoteRow represents a row in the notes table.
type NoteRow struct {
	Path        string    `json:"path"`
	Title       string    `json:"title"`
	Archive     string    `json:"archive"`
	Checksum    string    `json:"checksum"`
	Tags        []string  `json:"tags"`
	Author      string    `json:"author,omitempty"`
	SourceURL   string    `json:"source_url,omitempty"`
	Created     string    `json:"created"`
	Updated     string    `json:"updated,omitempty"`
	ConvertedAt time.Time `json:"converted_at"`
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

const noteColumns = `path, title, archive, checksum, tags, author, source_url, created, updated, converted_at`

// RecordNote upserts a note, its search entry and its attachment list in one transaction.
func (db *DB) RecordNote(n NoteRow, body string, atts []models.WrittenAttachment) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("catalog: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if n.Tags == nil {
		n.Tags = []string{}
	}
	tagsJSON, _ := json.Marshal(n.Tags)
	if n.ConvertedAt.IsZero() {
		n.ConvertedAt = time.Now().UTC()
	}

	_, err = tx.Exec(`
		INSERT INTO notes (path, title, archive, checksum, tags, author, source_url, created, updated, body, converted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title        = excluded.title,
			archive      = excluded.archive,
			checksum     = excluded.checksum,
			tags         = excluded.tags,
			author       = excluded.author,
			source_url   = excluded.source_url,
			created      = excluded.created,
			updated      = excluded.updated,
			body         = excluded.body,
			converted_at = excluded.converted_at
	`, n.Path, n.Title, n.Archive, n.Checksum, string(tagsJSON), n.Author, n.SourceURL, n.Created, n.Updated, body, n.ConvertedAt)
	if err != nil {
		return fmt.Errorf("catalog: upsert note: %w", err)
	}

	if err := ftsUpsert(tx, n.Path, n.Title, body, n.Tags); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM attachments WHERE note_path = ?`, n.Path); err != nil {
		return fmt.Errorf("catalog: clear attachments: %w", err)
	}
	if len(atts) > 0 {
		stmt, err := tx.Prepare(`
			INSERT OR REPLACE INTO attachments
				(note_path, filename, mime_type, path, reference_id, content_hash, resolved, error)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("catalog: prepare attachment insert: %w", err)
		}
		defer stmt.Close()
		for _, a := range atts {
			if _, err := stmt.Exec(n.Path, a.Filename, a.MimeType, a.Path, a.ReferenceID, a.ContentHash, a.Resolved, a.Error); err != nil {
				return fmt.Errorf("catalog: insert attachment: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteNote removes a note, its search entry and its attachments.
func (db *DB) DeleteNote(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("catalog: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	if _, err := tx.Exec(`DELETE FROM attachments WHERE note_path = ?`, path); err != nil {
		return fmt.Errorf("catalog: delete attachments: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM notes WHERE path = ?`, path); err != nil {
		return fmt.Errorf("catalog: delete note: %w", err)
	}
	return tx.Commit()
}

// GetNote returns a single note row or apperr.ErrNotFound.
func (db *DB) GetNote(path string) (*NoteRow, error) {
	row := db.conn.QueryRow(`SELECT `+noteColumns+` FROM notes WHERE path = ?`, path)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: get note: %w", err)
	}
	return n, nil
}

// ListNotes pages through notes ordered by path, optionally filtered by tag.
// The second return value is the total number of matching notes.
func (db *DB) ListNotes(limit, offset int, tag string) ([]NoteRow, int, error) {
	if limit <= 0 {
		limit = 50
	}
	where, args := "", []any{}
	if tag != "" {
		tagJSON, _ := json.Marshal(tag)
		where = ` WHERE tags LIKE ?`
		args = append(args, "%"+string(tagJSON)+"%")
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("catalog: count notes: %w", err)
	}

	rows, err := db.conn.Query(`SELECT `+noteColumns+` FROM notes`+where+` ORDER BY path LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("catalog: list notes: %w", err)
	}
	defer rows.Close()

	var out []NoteRow
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *n)
	}
	return out, total, rows.Err()
}

// Attachments returns the recorded attachments of a note in insertion order.
func (db *DB) Attachments(notePath string) ([]models.WrittenAttachment, error) {
	rows, err := db.conn.Query(`
		SELECT filename, mime_type, path, reference_id, content_hash, resolved, error
		FROM attachments WHERE note_path = ? ORDER BY rowid`, notePath)
	if err != nil {
		return nil, fmt.Errorf("catalog: attachments: %w", err)
	}
	defer rows.Close()

	var out []models.WrittenAttachment
	for rows.Next() {
		var a models.WrittenAttachment
		if err := rows.Scan(&a.Filename, &a.MimeType, &a.Path, &a.ReferenceID, &a.ContentHash, &a.Resolved, &a.Error); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// AllChecksums maps every recorded note path to its checksum.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("catalog: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNote(s scanner) (*NoteRow, error) {
	var n NoteRow
	var tags string
	if err := s.Scan(&n.Path, &n.Title, &n.Archive, &n.Checksum, &tags, &n.Author, &n.SourceURL,
		&n.Created, &n.Updated, &n.ConvertedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &n.Tags); err != nil {
		n.Tags = []string{}
	}
	return &n, nil
}
