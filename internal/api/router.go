package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/enexmd/internal/noteservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// outputRoot is where converted notes and their attachments are served from.
func NewRouter(svc *noteservice.Service, authEnabled bool, token string, sseHandler http.Handler, outputRoot string) chi.Router {
	h := NewHandler(svc)
	fh := NewFileHandler(outputRoot)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Conversion.
	r.Post("/convert", h.Convert)
	r.Post("/convert/file", h.ConvertFile)

	// Converted notes.
	r.Get("/notes", h.ListNotes)
	r.Get("/notes/*", h.GetNote)
	r.Get("/attachments", h.Attachments)
	r.Get("/files/*", fh.ServeFile)

	// Search.
	r.Get("/search", h.Search)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
