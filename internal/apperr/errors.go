// Package apperr holds the sentinel errors shared across the converter.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrInputNotFound = errors.New("input file does not exist")
	ErrMissingField  = errors.New("missing required field")
	ErrAlreadyExists = errors.New("already exists")
	ErrDecode        = errors.New("attachment decode failed")

	ErrCatalogDisabled = errors.New("catalog is disabled")
)
