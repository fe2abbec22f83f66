// Package noteservice serves converted notes and ad-hoc conversions to the
// HTTP API and the MCP server.
package noteservice

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/starford/enexmd/internal/apperr"
	"github.com/starford/enexmd/internal/catalog"
	"github.com/starford/enexmd/internal/checksum"
	"github.com/starford/enexmd/internal/converter"
	"github.com/starford/enexmd/internal/enex"
	"github.com/starford/enexmd/internal/markdown"
	"github.com/starford/enexmd/internal/models"
	"github.com/starford/enexmd/internal/parser"
	"github.com/starford/enexmd/internal/storage"
)

// NoteDetail is the full representation of a converted note.
type NoteDetail struct {
	Path        string                     `json:"path"`
	Title       string                     `json:"title"`
	Content     string                     `json:"content"`
	Checksum    string                     `json:"checksum"`
	Tags        []string                   `json:"tags"`
	Author      string                     `json:"author,omitempty"`
	SourceURL   string                     `json:"source_url,omitempty"`
	Created     string                     `json:"created,omitempty"`
	Updated     string                     `json:"updated,omitempty"`
	Archive     string                     `json:"archive,omitempty"`
	Frontmatter map[string]any             `json:"frontmatter,omitempty"`
	Attachments []models.WrittenAttachment `json:"attachments"`
	ConvertedAt *time.Time                 `json:"converted_at,omitempty"`
}

// NoteListItem is a lightweight item in a list response.
type NoteListItem struct {
	Path        string    `json:"path"`
	Title       string    `json:"title"`
	Archive     string    `json:"archive"`
	Tags        []string  `json:"tags"`
	ConvertedAt time.Time `json:"converted_at"`
}

// ConvertedNote is one note converted on request, without touching disk.
type ConvertedNote struct {
	Title              string   `json:"title"`
	BaseName           string   `json:"base_name"`
	Tags               []string `json:"tags"`
	Markdown           string   `json:"markdown"`
	SkippedAttachments int      `json:"skipped_attachments"`
}

// Service coordinates the output tree, the catalog and the converter.
type Service struct {
	store storage.Provider
	db    catalog.Catalog
	conv  *converter.Converter
}

// NewService creates a note service. db may be nil when the catalog is disabled.
func NewService(store storage.Provider, db catalog.Catalog, conv *converter.Converter) *Service {
	return &Service{store: store, db: db, conv: conv}
}

// GetNote reads a converted note and enriches it with its catalog record.
func (s *Service) GetNote(_ context.Context, path string) (*NoteDetail, error) {
	if !strings.HasSuffix(path, ".md") {
		return nil, apperr.ErrNotFound
	}
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	res, err := parser.Parse(data)
	if err != nil {
		return nil, err
	}

	detail := &NoteDetail{
		Path:        path,
		Title:       res.Title,
		Content:     string(data),
		Checksum:    checksum.Sum(data),
		Tags:        nonNilSlice(res.Tags),
		Author:      res.Author,
		SourceURL:   res.SourceURL,
		Created:     res.Created,
		Updated:     res.Updated,
		Frontmatter: res.Frontmatter,
		Attachments: []models.WrittenAttachment{},
	}
	if s.db == nil {
		return detail, nil
	}

	row, err := s.db.GetNote(path)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return detail, nil
	case err != nil:
		return nil, err
	}
	detail.Archive = row.Archive
	detail.ConvertedAt = &row.ConvertedAt

	atts, err := s.db.Attachments(path)
	if err != nil {
		return nil, err
	}
	detail.Attachments = nonNilSlice(atts)
	return detail, nil
}

// ListNotes returns paginated catalog entries with an optional tag filter.
func (s *Service) ListNotes(_ context.Context, limit, offset int, tag string) ([]NoteListItem, int, error) {
	if s.db == nil {
		return s.listFromDisk(limit, offset)
	}
	rows, total, err := s.db.ListNotes(limit, offset, tag)
	if err != nil {
		return nil, 0, err
	}
	items := make([]NoteListItem, len(rows))
	for i, r := range rows {
		items[i] = NoteListItem{
			Path:        r.Path,
			Title:       r.Title,
			Archive:     r.Archive,
			Tags:        nonNilSlice(r.Tags),
			ConvertedAt: r.ConvertedAt,
		}
	}
	return items, total, nil
}

// listFromDisk pages through the output tree when no catalog is configured.
func (s *Service) listFromDisk(limit, offset int) ([]NoteListItem, int, error) {
	files, err := s.store.List("")
	if err != nil {
		return nil, 0, err
	}
	if limit <= 0 {
		limit = 50
	}
	total := len(files)
	if offset > total {
		offset = total
	}
	end := min(offset+limit, total)

	items := make([]NoteListItem, 0, end-offset)
	for _, f := range files[offset:end] {
		items = append(items, NoteListItem{
			Path:        f.Path,
			Title:       strings.TrimSuffix(f.Path[strings.LastIndex(f.Path, "/")+1:], ".md"),
			Tags:        []string{},
			ConvertedAt: f.UpdatedAt,
		})
	}
	return items, total, nil
}

// Search delegates full-text search to the catalog.
func (s *Service) Search(_ context.Context, query string, limit int) ([]catalog.SearchResult, error) {
	if s.db == nil {
		return nil, apperr.ErrCatalogDisabled
	}
	res, err := s.db.Search(query, limit)
	return nonNilSlice(res), err
}

// Attachments lists the recorded attachments of a note.
func (s *Service) Attachments(_ context.Context, path string) ([]models.WrittenAttachment, error) {
	if s.db == nil {
		return nil, apperr.ErrCatalogDisabled
	}
	if _, err := s.db.GetNote(path); err != nil {
		return nil, err
	}
	atts, err := s.db.Attachments(path)
	return nonNilSlice(atts), err
}

// Convert renders every note of the archive in r in memory. Attachments
// are not extracted; each note reports how many it skipped.
func (s *Service) Convert(_ context.Context, r io.Reader) ([]ConvertedNote, error) {
	notes, err := enex.Read(r)
	if err != nil {
		return nil, err
	}
	out := make([]ConvertedNote, 0, len(notes))
	for _, raw := range notes {
		note, err := s.conv.RenderText(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, ConvertedNote{
			Title:              note.Title,
			BaseName:           note.BaseName,
			Tags:               nonNilSlice(note.Tags),
			Markdown:           strings.Join(markdown.Lines(note.Meta, note.Body), "\n") + "\n",
			SkippedAttachments: len(raw.Resources),
		})
	}
	return out, nil
}

// ConvertFile converts an archive on the server's file system to disk.
func (s *Service) ConvertFile(ctx context.Context, inputPath string) (converter.Stats, error) {
	return s.conv.ConvertFile(ctx, inputPath)
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
