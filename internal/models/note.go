// Package models defines the staged note types that flow through the converter.
//
// A note moves through three stages and each stage is its own type, so a
// field that is not ready yet cannot be read:
//
//	RawNote      parsed from the archive, content still in the source HTML dialect
//	RenderedNote content rewritten, rendered and post-processed to Markdown
//	WrittenNote  attachments resolved and the file persisted under its final name
package models

import (
	"strings"
	"time"
)

// DisplayTimeFormat is the layout used for created/updated timestamps in
// the note metadata block. The literal GMT suffix is appended separately.
const DisplayTimeFormat = "Jan 02 2006 15:04:05"

// Meta is the note metadata shared by every stage.
type Meta struct {
	Title     string     `json:"title"`
	Created   time.Time  `json:"created"`
	Updated   *time.Time `json:"updated,omitempty"`
	Author    string     `json:"author,omitempty"`
	SourceURL string     `json:"source_url,omitempty"`
	Tags      []string   `json:"tags"`
}

// TagsDisplay joins the tags in document order.
func (m Meta) TagsDisplay() string {
	return strings.Join(m.Tags, ", ")
}

// CreatedDisplay formats the creation time for the metadata block.
func (m Meta) CreatedDisplay() string {
	return FormatDisplayTime(m.Created)
}

// UpdatedDisplay formats the update time, or returns "" when absent.
func (m Meta) UpdatedDisplay() string {
	if m.Updated == nil {
		return ""
	}
	return FormatDisplayTime(*m.Updated)
}

// FormatDisplayTime renders t in UTC with a literal GMT suffix.
func FormatDisplayTime(t time.Time) string {
	return t.UTC().Format(DisplayTimeFormat) + " GMT"
}

// Resource is an attachment declaration exactly as found in the archive.
type Resource struct {
	FileName string
	Mime     string
	// Data is the base64 payload, line breaks included.
	Data string
	// Hash is the optional hash attribute carried by the data element.
	Hash string
}

// RawNote is one note as parsed from the archive.
type RawNote struct {
	Meta
	Content   string
	Resources []Resource
}

// Attachment is a decoded resource belonging to one note.
type Attachment struct {
	DeclaredFilename string
	MimeType         string
	Bytes            []byte
	// ReferenceID is the identifier placeholders in the content are keyed by.
	ReferenceID string
	// Err is set when the payload could not be decoded.
	Err error
}

// RenderedNote is a note whose content has been converted to Markdown.
// Attachment placeholders may still be present in Body.
type RenderedNote struct {
	Meta
	Body        string
	BaseName    string
	Attachments []Attachment
}

// WrittenNote is a fully converted note persisted to disk.
type WrittenNote struct {
	Meta
	Body string
	// Path is relative to the run output directory.
	Path     string
	Checksum string
	Files    []WrittenAttachment
}

// WrittenAttachment describes the outcome of persisting one attachment.
type WrittenAttachment struct {
	Filename    string `json:"filename"`
	MimeType    string `json:"mime_type"`
	Path        string `json:"path"`
	ReferenceID string `json:"reference_id"`
	ContentHash string `json:"content_hash"`
	Resolved    bool   `json:"resolved"`
	Error       string `json:"error,omitempty"`
}

// FileInfo is a lightweight description of a Markdown file in the output tree.
type FileInfo struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
