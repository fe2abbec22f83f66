// Package storage defines the output-tree file-system abstraction.
package storage

import "github.com/starford/enexmd/internal/models"

// Provider is the interface for output file operations. Paths are relative
// to the provider root and use forward slashes.
type Provider interface {
	// Root returns the absolute directory the provider is confined to.
	Root() string
	// Exists reports whether a file or directory is present at path.
	Exists(path string) (bool, error)
	// List returns metadata for every .md file under dir.
	List(dir string) ([]models.FileInfo, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path, creating parent directories.
	Write(path string, content []byte) error
	// WriteNew writes content to path and fails with apperr.ErrAlreadyExists
	// when a file is already present there.
	WriteNew(path string, content []byte) error
	// Move renames oldPath to newPath.
	Move(oldPath, newPath string) error
}
