package catalog

import (
	"log/slog"
	"path"

	"github.com/starford/enexmd/internal/checksum"
	"github.com/starford/enexmd/internal/models"
	"github.com/starford/enexmd/internal/parser"
	"github.com/starford/enexmd/internal/storage"
)

// Sync walks the output tree and brings the catalog up to date:
//   - new or changed notes are parsed and recorded
//   - notes removed from disk are deleted from the catalog
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	files, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(files))
	for _, f := range files {
		disk[f.Path] = struct{}{}

		if checksums[f.Path] == f.Checksum {
			continue
		}

		data, err := store.Read(f.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", f.Path), slog.String("error", err.Error()))
			continue
		}
		if err := RecordFile(db, f.Path, data); err != nil {
			logger.Warn("sync: record failed", slog.String("path", f.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: recorded", slog.String("path", f.Path))
		}
	}

	for p := range checksums {
		if _, ok := disk[p]; ok {
			continue
		}
		if err := db.DeleteNote(p); err != nil {
			logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: removed stale", slog.String("path", p))
		}
	}
	return nil
}

// RecordFile parses an already written note file and records it. Attachment
// entries are rebuilt from the links found in the body.
func RecordFile(db *DB, notePath string, data []byte) error {
	res, err := parser.Parse(data)
	if err != nil {
		return err
	}

	var atts []models.WrittenAttachment
	for _, link := range res.Attachments {
		atts = append(atts, models.WrittenAttachment{
			Filename: path.Base(link),
			Path:     link,
			Resolved: true,
		})
	}

	row := NoteRow{
		Path:      notePath,
		Title:     res.Title,
		Archive:   path.Dir(notePath),
		Checksum:  checksum.Sum(data),
		Tags:      res.Tags,
		Author:    res.Author,
		SourceURL: res.SourceURL,
		Created:   res.Created,
		Updated:   res.Updated,
	}
	return db.RecordNote(row, res.Body, atts)
}
