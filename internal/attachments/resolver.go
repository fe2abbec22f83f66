// Package attachments persists decoded note resources and points the note
// body at the written files.
package attachments

import (
	"log/slog"
	"path"
	"regexp"
	"strings"

	"github.com/starford/enexmd/internal/checksum"
	"github.com/starford/enexmd/internal/models"
	"github.com/starford/enexmd/internal/naming"
	"github.com/starford/enexmd/internal/rewrite"
	"github.com/starford/enexmd/internal/storage"
)

var leftoverRe = regexp.MustCompile(regexp.QuoteMeta(rewrite.PlaceholderPrefix) + `([0-9A-Za-z]+)`)

// Resolver writes attachments through a storage provider.
type Resolver struct {
	store  storage.Provider
	logger *slog.Logger
}

// NewResolver creates a resolver writing into store.
func NewResolver(store storage.Provider, logger *slog.Logger) *Resolver {
	return &Resolver{store: store, logger: logger}
}

// FolderName is the attachments folder for a note base name.
func FolderName(base string) string {
	return base + "_attachments"
}

// Resolve writes every attachment of note into <dir>/<base>_attachments and
// replaces the placeholders keyed by each attachment's reference id with a
// Markdown image link. A failed attachment is logged and its placeholder is
// left in the body; it never fails the note.
func (r *Resolver) Resolve(dir, base string, note models.RenderedNote) (string, []models.WrittenAttachment) {
	body := note.Body
	folder := FolderName(base)
	used := make(map[string]struct{}, len(note.Attachments))
	results := make([]models.WrittenAttachment, 0, len(note.Attachments))

	for _, att := range note.Attachments {
		res := models.WrittenAttachment{
			Filename:    att.DeclaredFilename,
			MimeType:    att.MimeType,
			ReferenceID: att.ReferenceID,
		}

		if att.Err != nil {
			r.fail(note.Title, att, &res, att.Err)
			results = append(results, res)
			continue
		}

		name := uniqueName(att.DeclaredFilename, used)
		rel := path.Join(folder, name)
		if err := r.store.Write(path.Join(dir, rel), att.Bytes); err != nil {
			r.fail(note.Title, att, &res, err)
			results = append(results, res)
			continue
		}
		used[name] = struct{}{}

		res.Filename = name
		res.Path = rel
		res.ContentHash = checksum.MD5(att.Bytes)
		body, res.Resolved = replacePlaceholder(body, att.ReferenceID, imageLink(name, rel))

		r.logger.Debug("attachment written",
			slog.String("note", note.Title),
			slog.String("attachment", name),
			slog.String("content_hash", res.ContentHash),
			slog.Bool("resolved", res.Resolved))
		results = append(results, res)
	}

	for _, m := range leftoverRe.FindAllStringSubmatch(body, -1) {
		r.logger.Warn("unresolved attachment placeholder",
			slog.String("note", note.Title),
			slog.String("reference_id", m[1]))
	}
	return body, results
}

func (r *Resolver) fail(title string, att models.Attachment, res *models.WrittenAttachment, err error) {
	res.Error = err.Error()
	r.logger.Warn("error processing attachment",
		slog.String("note", title),
		slog.String("attachment", att.DeclaredFilename),
		slog.String("error", err.Error()))
}

// imageLink is used for every MIME type; non-image files get the same syntax.
func imageLink(name, rel string) string {
	return "\n![" + name + "](" + strings.ReplaceAll(rel, " ", "%20") + ")"
}

func replacePlaceholder(body, ref, link string) (string, bool) {
	if ref == "" {
		return body, false
	}
	re := regexp.MustCompile(regexp.QuoteMeta(rewrite.Placeholder(ref)) + `\b`)
	if !re.MatchString(body) {
		return body, false
	}
	return re.ReplaceAllLiteralString(body, link), true
}

// uniqueName keeps two attachments of one note from overwriting each other.
func uniqueName(name string, used map[string]struct{}) string {
	if _, taken := used[name]; !taken {
		return name
	}
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for n := 1; ; n++ {
		candidate := naming.WithSuffix(stem, n) + ext
		if _, taken := used[candidate]; !taken {
			return candidate
		}
	}
}
