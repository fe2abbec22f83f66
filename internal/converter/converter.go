// Package converter runs archive notes through the conversion pipeline and
// writes the result either to a stream or to the output tree.
package converter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starford/enexmd/internal/attachments"
	"github.com/starford/enexmd/internal/catalog"
	"github.com/starford/enexmd/internal/checksum"
	"github.com/starford/enexmd/internal/enex"
	"github.com/starford/enexmd/internal/markdown"
	"github.com/starford/enexmd/internal/models"
	"github.com/starford/enexmd/internal/naming"
	"github.com/starford/enexmd/internal/postprocess"
	"github.com/starford/enexmd/internal/render"
	"github.com/starford/enexmd/internal/rewrite"
	"github.com/starford/enexmd/internal/storage"
)

// Stream markers around each note in stdout mode.
const (
	NoteBegin = "--- New Note ---"
	NoteEnd   = "--- End Note ---"
)

// AttachmentsSkippedWarning is printed in stdout mode when a note carries resources.
const AttachmentsSkippedWarning = "WARNING! ATTACHMENTS ARE NOT PROCESSED WITH STDOUT OUTPUT!"

// Stats summarizes one disk conversion.
type Stats struct {
	RunID             string `json:"run_id"`
	Notes             int    `json:"notes"`
	Attachments       int    `json:"attachments"`
	FailedAttachments int    `json:"failed_attachments"`
	OutputDir         string `json:"output_dir"`
}

// Converter holds the pipeline and its collaborators.
type Converter struct {
	renderer  render.Renderer
	diskChain *rewrite.Chain
	textChain *rewrite.Chain
	store     storage.Provider
	registry  *naming.Registry
	resolver  *attachments.Resolver
	catalog   catalog.Catalog
	logger    *slog.Logger
	clock     func() time.Time
	tsFormat  string
	format    markdown.Options
	onNote    func(models.WrittenNote)
}

// Option configures a Converter.
type Option func(*Converter)

// WithRenderer replaces the default renderer.
func WithRenderer(r render.Renderer) Option {
	return func(c *Converter) { c.renderer = r }
}

// WithCatalog records every written note in cat.
func WithCatalog(cat catalog.Catalog) Option {
	return func(c *Converter) { c.catalog = cat }
}

// WithClock sets the source of the run timestamp.
func WithClock(clock func() time.Time) Option {
	return func(c *Converter) { c.clock = clock }
}

// WithTimestampFormat sets the layout of the per-run folder name.
func WithTimestampFormat(layout string) Option {
	return func(c *Converter) { c.tsFormat = layout }
}

// WithFormat sets the note file options.
func WithFormat(opts markdown.Options) Option {
	return func(c *Converter) { c.format = opts }
}

// WithNoteHook is called after each note is written to disk.
func WithNoteHook(fn func(models.WrittenNote)) Option {
	return func(c *Converter) { c.onNote = fn }
}

// New creates a converter. store may be nil when only stream output is used.
func New(store storage.Provider, logger *slog.Logger, opts ...Option) *Converter {
	c := &Converter{
		renderer:  render.New(render.DefaultFlags()),
		diskChain: rewrite.Default(true),
		textChain: rewrite.Default(false),
		store:     store,
		logger:    logger,
		clock:     time.Now,
		tsFormat:  naming.DefaultTimestampFormat,
	}
	for _, o := range opts {
		o(c)
	}
	if store != nil {
		c.registry = naming.NewRegistry(store)
		c.resolver = attachments.NewResolver(store, logger)
	}
	c.logger.Debug("converter ready",
		slog.String("disk_stages", strings.Join(c.diskChain.Names(), ",")),
		slog.String("stream_stages", strings.Join(c.textChain.Names(), ",")),
		slog.Bool("disk_output", store != nil))
	return c
}

// Render converts a note for disk output. The body keeps one placeholder
// per referenced attachment until the attachments are resolved.
func (c *Converter) Render(raw models.RawNote) (models.RenderedNote, error) {
	body, err := c.run(c.diskChain, raw)
	if err != nil {
		return models.RenderedNote{}, err
	}
	return models.RenderedNote{
		Meta:        raw.Meta,
		Body:        body,
		BaseName:    naming.NoteBase(raw.Title),
		Attachments: enex.ExtractAttachments(raw),
	}, nil
}

// RenderText converts a note for stream output. Attachment references are
// dropped and no resource is decoded.
func (c *Converter) RenderText(raw models.RawNote) (models.RenderedNote, error) {
	body, err := c.run(c.textChain, raw)
	if err != nil {
		return models.RenderedNote{}, err
	}
	return models.RenderedNote{
		Meta:     raw.Meta,
		Body:     body,
		BaseName: naming.NoteBase(raw.Title),
	}, nil
}

func (c *Converter) run(chain *rewrite.Chain, raw models.RawNote) (string, error) {
	out, err := c.renderer.Render(chain.Apply(raw.Content))
	if err != nil {
		return "", fmt.Errorf("converter: note %q: %w", raw.Title, err)
	}
	return postprocess.Process(out), nil
}

// ConvertToStdout writes every note to w between the stream markers. It
// never touches the file system.
func (c *Converter) ConvertToStdout(ctx context.Context, notes []models.RawNote, w io.Writer) error {
	if hasResources(notes) {
		c.logger.Warn("attachments are skipped in stdout mode")
		if _, err := fmt.Fprintln(w, AttachmentsSkippedWarning); err != nil {
			return err
		}
	}

	for _, raw := range notes {
		if err := ctx.Err(); err != nil {
			return err
		}
		note, err := c.RenderText(raw)
		if err != nil {
			return err
		}
		var sb strings.Builder
		sb.WriteString(NoteBegin + "\n")
		for _, line := range markdown.Lines(note.Meta, note.Body) {
			sb.WriteString(line + "\n")
		}
		sb.WriteString(NoteEnd + "\n")
		if _, err := io.WriteString(w, sb.String()); err != nil {
			return err
		}
	}
	c.logger.Info(fmt.Sprintf("Processed %d note(s)", len(notes)), slog.Int("notes", len(notes)))
	return nil
}

// ConvertFile reads the archive at inputPath and converts it to disk.
func (c *Converter) ConvertFile(ctx context.Context, inputPath string) (Stats, error) {
	c.logger.Info("Processing input file", slog.String("input", inputPath))
	notes, err := enex.ReadFile(inputPath)
	if err != nil {
		return Stats{}, err
	}
	return c.ConvertToDisk(ctx, inputPath, notes)
}

// ConvertToDisk writes notes into <timestamp>/<input base>/ under the store
// root. Names are resolved one note at a time in document order, so a note
// observes every file written before it.
func (c *Converter) ConvertToDisk(ctx context.Context, inputPath string, notes []models.RawNote) (Stats, error) {
	if c.store == nil {
		return Stats{}, fmt.Errorf("converter: disk output requires a storage provider")
	}

	dir := naming.RunFolder(c.clock(), c.tsFormat, inputPath)
	stats := Stats{RunID: uuid.NewString(), OutputDir: dir}

	for _, raw := range notes {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		rendered, err := c.Render(raw)
		if err != nil {
			return stats, err
		}
		written, err := c.write(dir, rendered)
		if err != nil {
			return stats, err
		}

		stats.Notes++
		for _, f := range written.Files {
			if f.Error != "" {
				stats.FailedAttachments++
			} else {
				stats.Attachments++
			}
		}
		if c.onNote != nil {
			c.onNote(written)
		}
	}

	c.logger.Info(fmt.Sprintf("Processed %d note(s)", stats.Notes),
		slog.String("run_id", stats.RunID),
		slog.Int("notes", stats.Notes),
		slog.Int("attachments", stats.Attachments),
		slog.Int("failed_attachments", stats.FailedAttachments),
		slog.String("output_dir", dir))
	return stats, nil
}

// write claims the note's final name, reserves the note file, persists
// the attachments and then fills in the note.
func (c *Converter) write(dir string, note models.RenderedNote) (models.WrittenNote, error) {
	var written models.WrittenNote
	_, err := c.registry.Claim(dir, note.BaseName, func(final string) error {
		notePath := path.Join(dir, final+".md")
		// The name is reserved before anything lands in its attachments folder.
		if err := c.store.WriteNew(notePath, nil); err != nil {
			return err
		}
		body, files := c.resolver.Resolve(dir, final, note)
		content, err := markdown.Format(note.Meta, body, c.format)
		if err != nil {
			return err
		}
		if err := c.store.Write(notePath, []byte(content)); err != nil {
			return err
		}
		written = models.WrittenNote{
			Meta:     note.Meta,
			Body:     body,
			Path:     notePath,
			Checksum: checksum.Sum([]byte(content)),
			Files:    files,
		}
		return nil
	})
	if err != nil {
		return models.WrittenNote{}, fmt.Errorf("converter: write note %q: %w", note.Title, err)
	}

	c.logger.Debug("note written",
		slog.String("note", note.Title),
		slog.String("path", written.Path),
		slog.Int("attachments", len(written.Files)))

	if c.catalog != nil {
		if err := c.catalog.RecordNote(catalogRow(dir, written), written.Body, written.Files); err != nil {
			c.logger.Warn("catalog record failed",
				slog.String("note", note.Title),
				slog.String("error", err.Error()))
		}
	}
	return written, nil
}

func catalogRow(dir string, n models.WrittenNote) catalog.NoteRow {
	return catalog.NoteRow{
		Path:      n.Path,
		Title:     n.Title,
		Archive:   dir,
		Checksum:  n.Checksum,
		Tags:      n.Tags,
		Author:    n.Author,
		SourceURL: n.SourceURL,
		Created:   n.CreatedDisplay(),
		Updated:   n.UpdatedDisplay(),
	}
}

func hasResources(notes []models.RawNote) bool {
	for _, n := range notes {
		if len(n.Resources) > 0 {
			return true
		}
	}
	return false
}
