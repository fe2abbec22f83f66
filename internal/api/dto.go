package api

import (
	"errors"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/enexmd/internal/catalog"
	"github.com/starford/enexmd/internal/converter"
	"github.com/starford/enexmd/internal/models"
	"github.com/starford/enexmd/internal/noteservice"
)

const maxPageSize = 500

// NoteDetail is the full note response type (aliased from the domain layer).
type NoteDetail = noteservice.NoteDetail

// NoteListItem is a lightweight item in a list response (aliased from the domain layer).
type NoteListItem = noteservice.NoteListItem

// ConvertedNote is one note of an in-memory conversion.
type ConvertedNote = noteservice.ConvertedNote

// ConvertResponse wraps an in-memory conversion.
type ConvertResponse struct {
	Notes   []ConvertedNote `json:"notes"`
	Warning string          `json:"warning,omitempty"`
}

// ConvertFileRequest asks the server to convert an archive on its own disk.
type ConvertFileRequest struct {
	Path string `json:"path" example:"/data/inbox/export.enex"`
}

// Validate checks the request.
func (r ConvertFileRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Path, validation.Required, validation.By(enexExtension)),
	)
}

func enexExtension(value any) error {
	s, _ := value.(string)
	if !strings.EqualFold(filepath.Ext(s), ".enex") {
		return errors.New("must be an .enex file")
	}
	return nil
}

// ConvertFileResponse reports a disk conversion.
type ConvertFileResponse = converter.Stats

// ListQuery holds the paging parameters of GET /notes.
type ListQuery struct {
	Limit  int
	Offset int
	Tag    string
}

// Validate checks the paging bounds.
func (q ListQuery) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Limit, validation.Min(0), validation.Max(maxPageSize)),
		validation.Field(&q.Offset, validation.Min(0)),
	)
}

// SearchQuery holds the parameters of GET /search.
type SearchQuery struct {
	Q     string
	Limit int
}

// Validate checks the query.
func (q SearchQuery) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Q, validation.Required),
		validation.Field(&q.Limit, validation.Min(0), validation.Max(maxPageSize)),
	)
}

// NoteListResponse wraps paginated note listings.
type NoteListResponse struct {
	Notes []NoteListItem `json:"notes"`
	Total int            `json:"total" example:"42"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []catalog.SearchResult `json:"results"`
}

// AttachmentsResponse lists the attachments of one note.
type AttachmentsResponse struct {
	Note        string                     `json:"note"`
	Attachments []models.WrittenAttachment `json:"attachments"`
}

func queryInt(q url.Values, key string) (int, error) {
	v := q.Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, validation.Errors{key: errors.New("must be an integer")}
	}
	return n, nil
}
