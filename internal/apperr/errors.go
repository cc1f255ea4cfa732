// Package apperr defines sentinel errors shared across packages.
package apperr

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrNotMarkdown    = errors.New("not a markdown file")
	ErrOutsideLibrary = errors.New("path outside library root")
	ErrTabNotFound    = errors.New("tab not found")
	ErrStaleBuild     = errors.New("stale document build")
	ErrNoOpener       = errors.New("no external opener")
	ErrBadFormat      = errors.New("unsupported output format")
)
