//go:build sqlite_fts5

package index

import (
	"testing"
	"time"
)

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM documents_fts`).Scan(&count); err != nil {
		t.Fatalf("documents_fts table missing: %v", err)
	}
}

func TestFTS5_SearchWithSnippet(t *testing.T) {
	db := testDB(t)
	row := DocumentRow{
		Path:      "/lib/fts.md",
		Title:     "FTS Document",
		Checksum:  "f1",
		Tags:      []string{"search"},
		UpdatedAt: time.Now(),
	}
	if err := db.UpsertDocument(row, "Bergen provides powerful full-text search capabilities.", nil, nil); err != nil {
		t.Fatalf("UpsertDocument: %v", err)
	}

	results, err := db.Search("powerful", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Path != "/lib/fts.md" {
		t.Errorf("path = %q", results[0].Path)
	}
	if results[0].Snippet == "" {
		t.Error("expected a snippet")
	}
}

func TestFTS5_DeleteRemovesFromSearch(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDocument(DocumentRow{Path: "/lib/gone.md", Checksum: "1", UpdatedAt: time.Now()}, "ephemeral words", nil, nil)
	if err := db.DeleteDocument("/lib/gone.md"); err != nil {
		t.Fatal(err)
	}
	results, err := db.Search("ephemeral", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("results = %+v, want none", results)
	}
}
