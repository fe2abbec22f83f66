// Package naming derives filesystem-safe names and resolves collisions
// between notes that map to the same name.
package naming

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode"
)

// Fallback bases used when sanitizing leaves nothing.
const (
	untitledNote    = "untitled"
	untitledArchive = "archive"
)

// DefaultTimestampFormat names the per-run output folder, e.g. 20190202_172208.
const DefaultTimestampFormat = "20060102_150405"

// Sanitize replaces spaces with underscores and drops every character that
// is not a letter, digit or underscore.
func Sanitize(name string) string {
	name = strings.ReplaceAll(name, " ", "_")
	return strings.Map(func(r rune) rune {
		if r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r) {
			return r
		}
		return -1
	}, name)
}

// NoteBase returns the sanitized base name for a note title.
func NoteBase(title string) string {
	if s := Sanitize(title); s != "" {
		return s
	}
	return untitledNote
}

// RunFolder returns the output folder for one archive, relative to the
// output root: <timestamp>/<sanitized input base>. The base is the input
// file name up to its first dot.
func RunFolder(now time.Time, format, inputPath string) string {
	if format == "" {
		format = DefaultTimestampFormat
	}
	base := filepath.Base(inputPath)
	if i := strings.Index(base, "."); i >= 0 {
		base = base[:i]
	}
	safe := Sanitize(base)
	if safe == "" {
		safe = untitledArchive
	}
	return path.Join(now.Format(format), safe)
}

// WithSuffix appends _n to base for n > 0.
func WithSuffix(base string, n int) string {
	if n <= 0 {
		return base
	}
	return fmt.Sprintf("%s_%d", base, n)
}

// Checker reports whether a path already exists at the destination.
type Checker interface {
	Exists(path string) (bool, error)
}

// Registry resolves note file names against what is already on disk.
// Nothing is pre-assigned: each call probes the destination, so names are
// handed out in processing order.
type Registry struct {
	mu    sync.Mutex
	check Checker
}

// NewRegistry creates a registry probing check.
func NewRegistry(check Checker) *Registry {
	return &Registry{check: check}
}

// Resolve returns the first of base, base_1, base_2, ... whose .md file does
// not exist in dir.
func (r *Registry) Resolve(dir, base string) (string, error) {
	for n := 0; ; n++ {
		candidate := WithSuffix(base, n)
		exists, err := r.check.Exists(path.Join(dir, candidate+".md"))
		if err != nil {
			return "", fmt.Errorf("naming: probe %s: %w", candidate, err)
		}
		if !exists {
			return candidate, nil
		}
	}
}

// Claim resolves a name and runs write with it while holding the registry
// lock, so concurrent callers never observe the same free name.
func (r *Registry) Claim(dir, base string, write func(final string) error) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	final, err := r.Resolve(dir, base)
	if err != nil {
		return "", err
	}
	if err := write(final); err != nil {
		return "", err
	}
	return final, nil
}
