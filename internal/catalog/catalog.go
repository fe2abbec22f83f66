package catalog

import "github.com/starford/enexmd/internal/models"

// Catalog is what the converter, API and MCP server need from the store.
type Catalog interface {
	RecordNote(n NoteRow, body string, atts []models.WrittenAttachment) error
	DeleteNote(path string) error
	GetNote(path string) (*NoteRow, error)
	ListNotes(limit, offset int, tag string) ([]NoteRow, int, error)
	Search(query string, limit int) ([]SearchResult, error)
	Attachments(notePath string) ([]models.WrittenAttachment, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

var _ Catalog = (*DB)(nil)
