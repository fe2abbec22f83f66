package enex

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/enexmd/internal/apperr"
	"github.com/starford/enexmd/internal/models"
)

const sampleArchive = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE en-export SYSTEM "http://xml.evernote.com/pub/evernote-export3.dtd">
<en-export export-date="20190202T172208Z" application="Evernote" version="Evernote Mac 7.8">
<note>
  <title>Shopping list</title>
  <content><![CDATA[<?xml version="1.0" encoding="UTF-8"?><en-note><div>Milk</div></en-note>]]></content>
  <created>20190101T101112Z</created>
  <updated>20190202T131415Z</updated>
  <tag>home</tag>
  <tag>errands</tag>
  <note-attributes>
    <author>Jane</author>
    <source-url>https://example.com/list</source-url>
  </note-attributes>
  <resource>
    <data encoding="base64">aGVs
bG8=
</data>
    <mime>image/png</mime>
    <resource-attributes><file-name>pic.png</file-name></resource-attributes>
  </resource>
</note>
<note>
  <title>Bare</title>
  <content><![CDATA[<en-note/>]]></content>
  <created>20200101T000000Z</created>
</note>
</en-export>`

func TestRead_NotesInDocumentOrder(t *testing.T) {
	notes, err := Read(strings.NewReader(sampleArchive))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(notes) != 2 {
		t.Fatalf("len(notes) = %d, want 2", len(notes))
	}
	n := notes[0]
	if n.Title != "Shopping list" {
		t.Errorf("title = %q", n.Title)
	}
	if got := n.CreatedDisplay(); got != "Jan 01 2019 10:11:12 GMT" {
		t.Errorf("created = %q", got)
	}
	if got := n.UpdatedDisplay(); got != "Feb 02 2019 13:14:15 GMT" {
		t.Errorf("updated = %q", got)
	}
	if n.Author != "Jane" || n.SourceURL != "https://example.com/list" {
		t.Errorf("attributes = %q %q", n.Author, n.SourceURL)
	}
	if n.TagsDisplay() != "home, errands" {
		t.Errorf("tags = %q", n.TagsDisplay())
	}
	if !strings.Contains(n.Content, "<div>Milk</div>") {
		t.Errorf("content = %q", n.Content)
	}
	if len(n.Resources) != 1 || n.Resources[0].FileName != "pic.png" || n.Resources[0].Mime != "image/png" {
		t.Errorf("resources = %+v", n.Resources)
	}
}

func TestRead_OptionalFieldsAbsent(t *testing.T) {
	notes, err := Read(strings.NewReader(sampleArchive))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	bare := notes[1]
	if bare.Updated != nil {
		t.Errorf("updated should be nil, got %v", bare.Updated)
	}
	if bare.Author != "" || bare.SourceURL != "" {
		t.Errorf("unexpected attributes: %+v", bare.Meta)
	}
	if len(bare.Tags) != 0 || bare.TagsDisplay() != "" {
		t.Errorf("tags = %v", bare.Tags)
	}
}

func TestRead_MissingCreatedFails(t *testing.T) {
	doc := `<en-export><note><title>x</title><content>c</content></note></en-export>`
	_, err := Read(strings.NewReader(doc))
	if !errors.Is(err, apperr.ErrMissingField) {
		t.Fatalf("err = %v, want ErrMissingField", err)
	}
}

func TestRead_MissingTitleFails(t *testing.T) {
	doc := `<en-export><note><created>20200101T000000Z</created></note></en-export>`
	_, err := Read(strings.NewReader(doc))
	if !errors.Is(err, apperr.ErrMissingField) {
		t.Fatalf("err = %v, want ErrMissingField", err)
	}
}

func TestRead_MalformedXML(t *testing.T) {
	_, err := Read(strings.NewReader(`<en-export><note><title>x</note>`))
	if err == nil {
		t.Fatal("expected parse error")
	}
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.enex"))
	if !errors.Is(err, apperr.ErrInputNotFound) {
		t.Fatalf("err = %v, want ErrInputNotFound", err)
	}
}

func TestParseTime_Fallbacks(t *testing.T) {
	for _, in := range []string{"20190202T172208Z", "2019-02-02T17:22:08Z", "2019-02-02 17:22:08"} {
		got, err := ParseTime(in)
		if err != nil {
			t.Fatalf("ParseTime(%q): %v", in, err)
		}
		if models.FormatDisplayTime(got) != "Feb 02 2019 17:22:08 GMT" {
			t.Errorf("ParseTime(%q) = %v", in, got)
		}
	}
	if _, err := ParseTime("yesterday"); err == nil {
		t.Error("expected error for garbage timestamp")
	}
}
