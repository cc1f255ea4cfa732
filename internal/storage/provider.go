// Package storage is the file-access capability over the Markdown library.
//
// Paths are absolute file-system paths. Relative paths are taken relative
// to the library root. Every path is checked to stay under the root.
package storage

import "github.com/starford/bergen/internal/models"

// Provider is the interface for library file operations.
type Provider interface {
	// Root returns the absolute library root.
	Root() string
	// Abs resolves path against the root, rejecting paths outside it.
	Abs(path string) (string, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Exists reports whether path names an existing file or directory.
	Exists(path string) bool
	// Stat describes a single file or directory.
	Stat(path string) (models.Entry, error)
	// ListDir lists the direct children of dir, directories first.
	ListDir(dir string) ([]models.Entry, error)
	// ListDocuments returns metadata for every Markdown file under the root.
	ListDocuments() ([]models.DocumentMeta, error)
	// IsMarkdown reports whether path has a Markdown extension.
	IsMarkdown(path string) bool
}
