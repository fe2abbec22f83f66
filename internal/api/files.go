package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
)

// FileHandler serves converted notes and attachment files from the output tree.
type FileHandler struct {
	root string
}

// NewFileHandler creates a handler rooted at the output directory.
func NewFileHandler(root string) *FileHandler {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}
	return &FileHandler{root: abs}
}

// safePath resolves rel under the root, rejecting traversal and hidden
// temp files.
func (h *FileHandler) safePath(rel string) (string, bool) {
	if rel == "" {
		return "", false
	}
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) || strings.HasPrefix(filepath.Base(cleaned), ".") {
		return "", false
	}
	abs := filepath.Join(h.root, cleaned)
	if !strings.HasPrefix(abs, h.root+string(os.PathSeparator)) {
		return "", false
	}
	return abs, true
}

// ServeFile handles GET /api/files/*.
func (h *FileHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	abs, ok := h.safePath(chi.URLParam(r, "*"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid path"))
		return
	}
	info, err := os.Stat(abs)
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, abs)
}
