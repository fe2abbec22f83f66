// Package enex reads note archives exported by Evernote (.enex) into RawNote values.
package enex

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/starford/enexmd/internal/apperr"
	"github.com/starford/enexmd/internal/models"
)

// Timestamp layouts accepted for created/updated. The first one is what the
// export actually writes; the others are tolerated for hand-edited archives.
var timeLayouts = []string{
	"20060102T150405Z",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

type xmlNote struct {
	Title      *string       `xml:"title"`
	Content    string        `xml:"content"`
	Created    *string       `xml:"created"`
	Updated    *string       `xml:"updated"`
	Tags       []string      `xml:"tag"`
	Attributes xmlAttributes `xml:"note-attributes"`
	Resources  []xmlResource `xml:"resource"`
}

type xmlAttributes struct {
	Author    *string `xml:"author"`
	SourceURL *string `xml:"source-url"`
}

type xmlResource struct {
	Data struct {
		Hash  string `xml:"hash,attr"`
		Value string `xml:",chardata"`
	} `xml:"data"`
	Mime       string `xml:"mime"`
	Attributes struct {
		FileName string `xml:"file-name"`
	} `xml:"resource-attributes"`
}

// ReadFile opens path and reads every note in it.
// A missing file yields an error wrapping apperr.ErrInputNotFound.
func ReadFile(path string) ([]models.RawNote, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("enex: %s: %w", path, apperr.ErrInputNotFound)
		}
		return nil, fmt.Errorf("enex: open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// Read decodes all <note> elements from r in document order.
// Malformed XML and notes lacking a title or creation date are fatal.
func Read(r io.Reader) ([]models.RawNote, error) {
	dec := xml.NewDecoder(r)

	var notes []models.RawNote
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("enex: parse: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "note" {
			continue
		}

		var xn xmlNote
		if err := dec.DecodeElement(&xn, &start); err != nil {
			return nil, fmt.Errorf("enex: decode note %d: %w", len(notes)+1, err)
		}
		note, err := toRawNote(xn)
		if err != nil {
			return nil, fmt.Errorf("enex: note %d: %w", len(notes)+1, err)
		}
		notes = append(notes, note)
	}
	return notes, nil
}

func toRawNote(xn xmlNote) (models.RawNote, error) {
	if xn.Title == nil {
		return models.RawNote{}, fmt.Errorf("title: %w", apperr.ErrMissingField)
	}
	if xn.Created == nil {
		return models.RawNote{}, fmt.Errorf("created: %w", apperr.ErrMissingField)
	}
	created, err := ParseTime(*xn.Created)
	if err != nil {
		return models.RawNote{}, fmt.Errorf("created: %w", err)
	}

	meta := models.Meta{
		Title:   *xn.Title,
		Created: created,
		Tags:    make([]string, 0, len(xn.Tags)),
	}
	if xn.Updated != nil {
		updated, err := ParseTime(*xn.Updated)
		if err != nil {
			return models.RawNote{}, fmt.Errorf("updated: %w", err)
		}
		meta.Updated = &updated
	}
	if xn.Attributes.Author != nil {
		meta.Author = *xn.Attributes.Author
	}
	if xn.Attributes.SourceURL != nil {
		meta.SourceURL = *xn.Attributes.SourceURL
	}
	meta.Tags = append(meta.Tags, xn.Tags...)

	note := models.RawNote{Meta: meta, Content: xn.Content}
	for _, res := range xn.Resources {
		note.Resources = append(note.Resources, models.Resource{
			FileName: strings.TrimSpace(res.Attributes.FileName),
			Mime:     strings.TrimSpace(res.Mime),
			Data:     res.Data.Value,
			Hash:     strings.TrimSpace(res.Data.Hash),
		})
	}
	return note, nil
}

// ParseTime parses an archive timestamp. Values are taken to be UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}
