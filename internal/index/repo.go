package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/bergen/internal/apperr"
	"github.com/starford/bergen/internal/models"
)

// DocumentRow represents a row in the documents table.
type DocumentRow struct {
	Path      string
	Title     string
	Checksum  string
	Tags      []string
	UpdatedAt time.Time
}

// HeadingRow is one heading of an indexed document.
type HeadingRow struct {
	Path     string
	Level    int
	Text     string
	AnchorID string
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path    string
	Title   string
	Snippet string
}

// UpsertDocument replaces a document together with its search entry,
// headings and outgoing links in one transaction.
func (db *DB) UpsertDocument(d DocumentRow, body string, headings []HeadingRow, links []models.Link) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, _ := json.Marshal(tags)

	_, err = tx.Exec(`
		INSERT INTO documents (path, title, checksum, tags, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title      = excluded.title,
			checksum   = excluded.checksum,
			tags       = excluded.tags,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, d.Path, d.Title, d.Checksum, string(tagsJSON), body, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert document: %w", err)
	}

	if err := ftsUpsert(tx, d.Path, d.Title, body, tags); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM headings WHERE path = ?`, d.Path); err != nil {
		return fmt.Errorf("index: clear headings: %w", err)
	}
	if len(headings) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO headings (path, position, level, text, anchor_id) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare heading insert: %w", err)
		}
		defer stmt.Close()
		for i, h := range headings {
			if _, err := stmt.Exec(d.Path, i, h.Level, h.Text, h.AnchorID); err != nil {
				return fmt.Errorf("index: insert heading: %w", err)
			}
		}
	}

	if _, err := tx.Exec(`DELETE FROM links WHERE source = ?`, d.Path); err != nil {
		return fmt.Errorf("index: clear links: %w", err)
	}
	if len(links) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO links (source, href, target, kind) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare link insert: %w", err)
		}
		defer stmt.Close()
		for _, l := range links {
			if _, err := stmt.Exec(d.Path, l.Href, l.Target, string(l.Kind)); err != nil {
				return fmt.Errorf("index: insert link: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteDocument removes a document, its search entry, headings and
// outgoing links.
func (db *DB) DeleteDocument(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM headings WHERE path = ?`, path)
	_, _ = tx.Exec(`DELETE FROM links WHERE source = ?`, path)
	_, _ = tx.Exec(`DELETE FROM documents WHERE path = ?`, path)

	return tx.Commit()
}

// GetDocument returns one indexed document or apperr.ErrNotFound.
func (db *DB) GetDocument(path string) (*DocumentRow, error) {
	var (
		d        DocumentRow
		tagsJSON string
	)
	err := db.conn.QueryRow(`SELECT path, title, checksum, tags, updated_at FROM documents WHERE path = ?`, path).
		Scan(&d.Path, &d.Title, &d.Checksum, &tagsJSON, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: document %s: %w", path, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get document: %w", err)
	}
	_ = json.Unmarshal([]byte(tagsJSON), &d.Tags)
	return &d, nil
}

// GetChecksum returns the stored checksum for a document, or "" if it is not
// indexed.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM documents WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// AllChecksums returns path -> checksum for every indexed document.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// Headings returns a document's headings in source order.
func (db *DB) Headings(path string) ([]HeadingRow, error) {
	return db.queryHeadings(`SELECT path, level, text, anchor_id FROM headings WHERE path = ? ORDER BY position`, path)
}

// SearchHeadings finds headings whose text contains query, case-insensitively.
func (db *DB) SearchHeadings(query string, limit int) ([]HeadingRow, error) {
	if limit <= 0 {
		limit = 20
	}
	return db.queryHeadings(`
		SELECT path, level, text, anchor_id
		FROM headings
		WHERE text LIKE ?
		ORDER BY path, position
		LIMIT ?
	`, "%"+query+"%", limit)
}

func (db *DB) queryHeadings(q string, args ...any) ([]HeadingRow, error) {
	rows, err := db.conn.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("index: headings: %w", err)
	}
	defer rows.Close()

	var out []HeadingRow
	for rows.Next() {
		var h HeadingRow
		if err := rows.Scan(&h.Path, &h.Level, &h.Text, &h.AnchorID); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// Backlinks returns the links from other documents that resolve to target.
func (db *DB) Backlinks(target string) ([]models.Link, error) {
	return db.queryLinks(`
		SELECT source, href, target, kind FROM links
		WHERE target = ? AND kind = ? AND source <> target
		ORDER BY source, href
	`, target, string(models.LinkDocument))
}

// OutgoingLinks returns every link recorded for source.
func (db *DB) OutgoingLinks(source string) ([]models.Link, error) {
	return db.queryLinks(`SELECT source, href, target, kind FROM links WHERE source = ? ORDER BY rowid`, source)
}

func (db *DB) queryLinks(q string, args ...any) ([]models.Link, error) {
	rows, err := db.conn.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("index: links: %w", err)
	}
	defer rows.Close()

	var out []models.Link
	for rows.Next() {
		var (
			l    models.Link
			kind string
		)
		if err := rows.Scan(&l.Source, &l.Href, &l.Target, &kind); err != nil {
			return nil, err
		}
		l.Kind = models.LinkKind(kind)
		out = append(out, l)
	}
	return out, rows.Err()
}
