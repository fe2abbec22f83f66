package noteservice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/enexmd/internal/apperr"
	"github.com/starford/enexmd/internal/catalog"
	"github.com/starford/enexmd/internal/converter"
	"github.com/starford/enexmd/internal/enex"
	"github.com/starford/enexmd/internal/models"
	"github.com/starford/enexmd/internal/storage"
)

const archive = `<en-export>
<note>
  <title>Trip plan</title>
  <content><![CDATA[<en-note><div>Pack <span style="font-weight: bold;">boots</span></div><div><en-media hash="abc" type="image/png"/></div></en-note>]]></content>
  <created>20200101T000000Z</created>
  <tag>travel</tag>
  <resource><data>aGVsbG8=</data><mime>image/png</mime></resource>
</note>
</en-export>`

func testService(t *testing.T, withCatalog bool) (*Service, *converter.Converter) {
	t.Helper()
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := converter.WithClock(func() time.Time { return time.Date(2020, 5, 1, 12, 0, 0, 0, time.UTC) })

	if !withCatalog {
		conv := converter.New(store, logger, clock)
		return NewService(store, nil, conv), conv
	}
	db, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	conv := converter.New(store, logger, clock, converter.WithCatalog(db))
	return NewService(store, db, conv), conv
}

func TestConvert_InMemory(t *testing.T) {
	svc, _ := testService(t, false)
	notes, err := svc.Convert(context.Background(), strings.NewReader(archive))
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if len(notes) != 1 {
		t.Fatalf("notes = %d", len(notes))
	}
	n := notes[0]
	if n.BaseName != "Trip_plan" || n.SkippedAttachments != 1 {
		t.Errorf("note = %+v", n)
	}
	if !strings.HasPrefix(n.Markdown, "# Trip plan\n") || !strings.Contains(n.Markdown, "Pack **boots**") {
		t.Errorf("markdown = %q", n.Markdown)
	}
	if strings.Contains(n.Markdown, "ATCHMT:") {
		t.Errorf("placeholder in markdown: %q", n.Markdown)
	}
}

func TestConvert_MalformedArchive(t *testing.T) {
	svc, _ := testService(t, false)
	if _, err := svc.Convert(context.Background(), strings.NewReader("<en-export><note>")); err == nil {
		t.Fatal("expected error")
	}
}

func TestGetNote_WithCatalog(t *testing.T) {
	svc, conv := testService(t, true)
	ctx := context.Background()
	notes := mustRead(t)
	stats, err := conv.ConvertToDisk(ctx, "trip.enex", notes)
	if err != nil {
		t.Fatal(err)
	}

	detail, err := svc.GetNote(ctx, stats.OutputDir+"/Trip_plan.md")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if detail.Title != "Trip plan" || detail.Archive != stats.OutputDir || detail.ConvertedAt == nil {
		t.Errorf("detail = %+v", detail)
	}
	if len(detail.Tags) != 1 || detail.Tags[0] != "travel" {
		t.Errorf("tags = %v", detail.Tags)
	}
	if len(detail.Attachments) != 1 {
		t.Errorf("attachments = %+v", detail.Attachments)
	}

	items, total, err := svc.ListNotes(ctx, 10, 0, "travel")
	if err != nil || total != 1 || items[0].Title != "Trip plan" {
		t.Errorf("ListNotes = %+v, %d, %v", items, total, err)
	}
}

func TestGetNote_NotFound(t *testing.T) {
	svc, _ := testService(t, true)
	if _, err := svc.GetNote(context.Background(), "missing.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v", err)
	}
	if _, err := svc.GetNote(context.Background(), "picture.png"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("non-note path: err = %v", err)
	}
}

func TestWithoutCatalog(t *testing.T) {
	svc, conv := testService(t, false)
	ctx := context.Background()
	if _, err := conv.ConvertToDisk(ctx, "trip.enex", mustRead(t)); err != nil {
		t.Fatal(err)
	}

	items, total, err := svc.ListNotes(ctx, 0, 0, "")
	if err != nil || total != 1 || items[0].Title != "Trip_plan" {
		t.Errorf("ListNotes = %+v, %d, %v", items, total, err)
	}
	if _, err := svc.Search(ctx, "boots", 5); !errors.Is(err, apperr.ErrCatalogDisabled) {
		t.Errorf("Search err = %v", err)
	}
}

func mustRead(t *testing.T) []models.RawNote {
	t.Helper()
	notes, err := enex.Read(strings.NewReader(archive))
	if err != nil {
		t.Fatal(err)
	}
	return notes
}
