package index

import "github.com/starford/bergen/internal/models"

// DocumentIndex is the set of index operations the API and MCP layers use.
type DocumentIndex interface {
	UpsertDocument(d DocumentRow, body string, headings []HeadingRow, links []models.Link) error
	DeleteDocument(path string) error
	GetDocument(path string) (*DocumentRow, error)
	GetChecksum(path string) (string, error)
	AllChecksums() (map[string]string, error)
	Headings(path string) ([]HeadingRow, error)
	SearchHeadings(query string, limit int) ([]HeadingRow, error)
	Search(query string, limit int) ([]SearchResult, error)
	Backlinks(target string) ([]models.Link, error)
	OutgoingLinks(source string) ([]models.Link, error)
	Close() error
}

var _ DocumentIndex = (*DB)(nil)
