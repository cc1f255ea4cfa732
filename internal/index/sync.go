package index

import (
	"log/slog"
	"strings"
	"time"

	"github.com/starford/bergen/internal/markdown"
	"github.com/starford/bergen/internal/meta"
	"github.com/starford/bergen/internal/models"
	"github.com/starford/bergen/internal/navigation"
	"github.com/starford/bergen/internal/storage"
)

// Indexer parses library files and writes them to the index.
type Indexer struct {
	db       *DB
	store    storage.Provider
	builder  *markdown.Builder
	resolver *navigation.Resolver
	logger   *slog.Logger
}

// NewIndexer creates an Indexer. Links are classified with the same resolver
// rules used for navigation.
func NewIndexer(db *DB, store storage.Provider, builder *markdown.Builder, logger *slog.Logger) *Indexer {
	return &Indexer{
		db:       db,
		store:    store,
		builder:  builder,
		resolver: navigation.NewResolver(store, store.Root()),
		logger:   logger,
	}
}

// DB returns the underlying index.
func (ix *Indexer) DB() *DB { return ix.db }

// Sync walks the library and brings the index up to date:
//   - new or changed files are parsed and upserted
//   - files removed from disk are deleted from the index
func (ix *Indexer) Sync() error {
	metas, err := ix.store.ListDocuments()
	if err != nil {
		return err
	}

	checksums, err := ix.db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := ix.store.Read(m.Path)
		if err != nil {
			ix.logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := ix.IndexFile(m.Path, data); err != nil {
			ix.logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			ix.logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := ix.db.DeleteDocument(p); err != nil {
				ix.logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				ix.logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// IndexFile parses data as the document at path and upserts it.
func (ix *Indexer) IndexFile(path string, data []byte) error {
	res := meta.Parse(path, data, ix.builder)

	headings := make([]HeadingRow, len(res.Headings))
	for i, h := range res.Headings {
		headings[i] = HeadingRow{Path: path, Level: h.Level, Text: h.Text, AnchorID: h.AnchorID}
	}

	links := make([]models.Link, 0, len(res.Links))
	for _, href := range res.Links {
		links = append(links, ix.classify(path, href))
	}

	row := DocumentRow{
		Path:      path,
		Title:     res.Title,
		Checksum:  storage.Checksum(data),
		Tags:      res.Tags,
		UpdatedAt: time.Now().UTC(),
	}
	return ix.db.UpsertDocument(row, res.Body, headings, links)
}

// classify resolves href from source into an index link.
func (ix *Indexer) classify(source, href string) models.Link {
	t := ix.resolver.Resolve(href, source)
	l := models.Link{Source: source, Href: href}
	switch t.Kind {
	case navigation.SameDocumentAnchor:
		l.Kind, l.Target = models.LinkAnchor, source+"#"+t.Anchor
	case navigation.OtherMarkdownFile:
		l.Kind, l.Target = models.LinkDocument, t.Path
	case navigation.ExternalURL:
		l.Kind, l.Target = models.LinkExternal, t.OpenURL()
		if !strings.Contains(href, ":") {
			l.Kind = models.LinkFile
		}
	default:
		l.Kind, l.Target = models.LinkMissing, t.Path
	}
	return l
}
