package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/starford/bergen/internal/apperr"
	"github.com/starford/bergen/internal/models"
)

// DefaultExtensions are the file extensions treated as Markdown.
var DefaultExtensions = []string{".md", ".markdown"}

// FS implements Provider backed by the local file system.
type FS struct {
	root       string // absolute path to library directory
	extensions []string
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist. With no extensions, DefaultExtensions
// are used.
func NewFS(root string, extensions ...string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	exts := make([]string, len(extensions))
	for i, e := range extensions {
		exts[i] = strings.ToLower(e)
	}
	return &FS{root: abs, extensions: exts}, nil
}

// Root returns the absolute library root.
func (f *FS) Root() string { return f.root }

// Abs resolves p against the library root and rejects any result that
// escapes it.
func (f *FS) Abs(p string) (string, error) {
	if p == "" {
		return f.root, nil
	}
	p = filepath.FromSlash(p)
	if !filepath.IsAbs(p) {
		p = filepath.Join(f.root, p)
	}
	abs := filepath.Clean(p)
	if !within(f.root, abs) {
		return "", fmt.Errorf("storage: %s: %w", p, apperr.ErrOutsideLibrary)
	}
	return abs, nil
}

// within reports whether abs is root or below it. root may itself end in a
// separator, as the filesystem root does.
func within(root, abs string) bool {
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Read returns the raw bytes of a library file.
func (f *FS) Read(path string) ([]byte, error) {
	abs, err := f.Abs(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return data, nil
}

// Exists reports whether path exists inside the library.
func (f *FS) Exists(path string) bool {
	abs, err := f.Abs(path)
	if err != nil {
		return false
	}
	_, err = os.Stat(abs)
	return err == nil
}

// Stat describes the file or directory at path.
func (f *FS) Stat(path string) (models.Entry, error) {
	abs, err := f.Abs(path)
	if err != nil {
		return models.Entry{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return models.Entry{}, fmt.Errorf("storage: stat %s: %w", path, err)
	}
	return f.entry(abs, info), nil
}

// ListDir lists the direct children of dir: directories first, then files,
// each group sorted by name. Hidden entries are skipped.
func (f *FS) ListDir(dir string) ([]models.Entry, error) {
	abs, err := f.Abs(dir)
	if err != nil {
		return nil, err
	}
	items, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: list %s: %w", dir, err)
	}
	out := make([]models.Entry, 0, len(items))
	for _, d := range items {
		if strings.HasPrefix(d.Name(), ".") {
			continue
		}
		info, err := d.Info()
		if err != nil {
			continue
		}
		out = append(out, f.entry(filepath.Join(abs, d.Name()), info))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsDir != out[j].IsDir {
			return out[i].IsDir
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// ListDocuments walks the library and returns metadata for every Markdown file.
func (f *FS) ListDocuments() ([]models.DocumentMeta, error) {
	var out []models.DocumentMeta
	err := filepath.WalkDir(f.root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if p != f.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !f.IsMarkdown(p) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		out = append(out, models.DocumentMeta{
			Path:      p,
			Checksum:  Checksum(data),
			UpdatedAt: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: list documents: %w", err)
	}
	return out, nil
}

// IsMarkdown reports whether path ends in one of the configured extensions.
func (f *FS) IsMarkdown(path string) bool {
	return HasExtension(path, f.extensions)
}

func (f *FS) entry(abs string, info os.FileInfo) models.Entry {
	return models.Entry{
		Name:       info.Name(),
		Path:       abs,
		IsDir:      info.IsDir(),
		IsMarkdown: !info.IsDir() && f.IsMarkdown(abs),
		Size:       info.Size(),
		ModifiedAt: info.ModTime(),
	}
}

// HasExtension reports whether path ends in one of exts, ignoring case.
func HasExtension(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// Checksum returns the hex-encoded SHA-256 digest of data.
func Checksum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
