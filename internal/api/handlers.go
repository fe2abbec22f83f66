package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/enexmd/internal/apperr"
	"github.com/starford/enexmd/internal/converter"
	"github.com/starford/enexmd/internal/noteservice"
)

const maxArchiveBytes = 64 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

// notePath extracts the note path from the URL (everything after /api/notes/).
// Supports encoded slashes (e.g. 20190202_172208%2Fexport%2FNote.md).
func notePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// Convert handles POST /api/convert. The body is an ENEX archive; the
// notes come back rendered, with attachments skipped.
//
//	@Summary		Convert an archive in memory
//	@Tags			convert
//	@Accept			xml
//	@Produce		json
//	@Success		200	{object}	ConvertResponse
//	@Failure		400	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/convert [post]
func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxArchiveBytes)
	notes, err := h.svc.Convert(r.Context(), r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("archive too large"))
			return
		}
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	resp := ConvertResponse{Notes: notes}
	for _, n := range notes {
		if n.SkippedAttachments > 0 {
			resp.Warning = converter.AttachmentsSkippedWarning
			break
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// ConvertFile handles POST /api/convert/file.
//
//	@Summary		Convert an archive on the server to disk
//	@Tags			convert
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ConvertFileRequest	true	"Archive path"
//	@Success		201		{object}	ConvertFileResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/convert/file [post]
func (h *Handler) ConvertFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req ConvertFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	stats, err := h.svc.ConvertFile(r.Context(), req.Path)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrInputNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("input file does not exist"))
		default:
			slog.Error("convert file failed", slog.String("input", req.Path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
		}
		return
	}
	writeJSON(w, http.StatusCreated, stats)
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List converted notes
//	@Tags			notes
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Param			tag		query		string	false	"Filter by tag"
//	@Success		200		{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := ListQuery{Tag: q.Get("tag")}
	var err error
	if query.Limit, err = queryInt(q, "limit"); err == nil {
		query.Offset, err = queryInt(q, "offset")
	}
	if err == nil {
		err = query.Validate()
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	items, total, err := h.svc.ListNotes(r.Context(), query.Limit, query.Offset, query.Tag)
	if err != nil {
		slog.Error("list notes failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: items, Total: total})
}

// GetNote handles GET /api/notes/*.
//
//	@Summary		Get a converted note by path
//	@Tags			notes
//	@Produce		json
//	@Param			path	path		string	true	"Note path"
//	@Success		200		{object}	NoteDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{path} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	note, err := h.svc.GetNote(r.Context(), path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get note failed", slog.String("path", path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// Attachments handles GET /api/attachments?note=<path>.
//
//	@Summary		List the attachments recorded for a note
//	@Tags			notes
//	@Produce		json
//	@Param			note	query		string	true	"Note path"
//	@Success		200		{object}	AttachmentsResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/attachments [get]
func (h *Handler) Attachments(w http.ResponseWriter, r *http.Request) {
	note := r.URL.Query().Get("note")
	if note == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'note' is required"))
		return
	}
	atts, err := h.svc.Attachments(r.Context(), note)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		case errors.Is(err, apperr.ErrCatalogDisabled):
			writeJSON(w, http.StatusServiceUnavailable, errorBody(err.Error()))
		default:
			slog.Error("attachments failed", slog.String("note", note), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, AttachmentsResponse{Note: note, Attachments: atts})
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across converted notes
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := SearchQuery{Q: q.Get("q")}
	limit, err := queryInt(q, "limit")
	query.Limit = limit
	if err == nil {
		err = query.Validate()
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	results, err := h.svc.Search(r.Context(), query.Q, query.Limit)
	if err != nil {
		if errors.Is(err, apperr.ErrCatalogDisabled) {
			writeJSON(w, http.StatusServiceUnavailable, errorBody(err.Error()))
			return
		}
		slog.Error("search failed", slog.String("query", query.Q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}
