// Package models defines the value types shared by storage, index and API.
package models

import "time"

// Entry is one item of a directory listing.
type Entry struct {
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	IsDir      bool      `json:"is_dir"`
	IsMarkdown bool      `json:"is_markdown"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

// DocumentMeta is a lightweight description of a Markdown file in the library.
type DocumentMeta struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LinkKind classifies a link recorded in the index.
type LinkKind string

// Link kinds.
const (
	LinkAnchor   LinkKind = "anchor"
	LinkDocument LinkKind = "document"
	LinkFile     LinkKind = "file"
	LinkExternal LinkKind = "external"
	LinkMissing  LinkKind = "missing"
)

// Link is a directed edge from a document to a resolved target.
type Link struct {
	Source string   `json:"source"`
	Href   string   `json:"href"`
	Target string   `json:"target"`
	Kind   LinkKind `json:"kind"`
}
