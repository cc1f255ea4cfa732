package api

import (
	"github.com/starford/bergen/internal/docservice"
	"github.com/starford/bergen/internal/index"
	"github.com/starford/bergen/internal/models"
)

// OpenTabRequest is the request body for opening a document.
type OpenTabRequest struct {
	Path string `json:"path" example:"guide/intro.md" validate:"required"`
	// NewTab defaults to true; false replaces the active tab.
	NewTab *bool `json:"new_tab,omitempty" example:"true"`
}

// LayoutRequest reports measured heading offsets for one build.
type LayoutRequest struct {
	BuildID string             `json:"build_id" example:"7c9e6679-7425-40de-944b-e07fc1f90ae7" validate:"required"`
	Offsets map[string]float64 `json:"offsets" validate:"required"`
}

// LayoutResponse reports how many anchors were updated.
type LayoutResponse struct {
	Updated int `json:"updated" example:"3" validate:"required"`
}

// LinkRequest carries a raw href from a rendered document.
type LinkRequest struct {
	Href string `json:"href" example:"../setup/install.md#step-2" validate:"required"`
}

// TabView is an open tab (aliased from the domain layer).
type TabView = docservice.TabView

// OutlineItem is one heading of a tab's outline (aliased from the domain layer).
type OutlineItem = docservice.OutlineItem

// LinkTarget is a resolved link (aliased from the domain layer).
type LinkTarget = docservice.LinkTarget

// TabsResponse wraps the open tabs.
type TabsResponse struct {
	Tabs []TabView `json:"tabs" validate:"required"`
}

// TreeResponse wraps a directory listing.
type TreeResponse struct {
	Dir     string         `json:"dir" example:"guide"`
	Entries []models.Entry `json:"entries" validate:"required"`
}

// OutlineResponse wraps a tab outline.
type OutlineResponse struct {
	BuildID  string        `json:"build_id" validate:"required"`
	Headings []OutlineItem `json:"headings" validate:"required"`
}

// SearchResult is a single search hit in the API response.
type SearchResult struct {
	Path    string `json:"path" example:"/library/guide/intro.md" validate:"required"`
	Title   string `json:"title" example:"Guide" validate:"required"`
	Snippet string `json:"snippet" example:"...matched text..." validate:"required"`
}

// HeadingHit is a heading that matched a search.
type HeadingHit struct {
	Path     string `json:"path" validate:"required"`
	Level    int    `json:"level" example:"2" validate:"required"`
	Text     string `json:"text" example:"Step 2" validate:"required"`
	AnchorID string `json:"anchor_id" example:"step-2" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results  []SearchResult `json:"results" validate:"required"`
	Headings []HeadingHit   `json:"headings" validate:"required"`
}

// LinksResponse wraps backlinks or outgoing links.
type LinksResponse struct {
	Path  string        `json:"path" validate:"required"`
	Links []models.Link `json:"links" validate:"required"`
}

func toSearchResults(in []index.SearchResult) []SearchResult {
	out := make([]SearchResult, len(in))
	for i, r := range in {
		out[i] = SearchResult{Path: r.Path, Title: r.Title, Snippet: r.Snippet}
	}
	return out
}

func toHeadingHits(in []index.HeadingRow) []HeadingHit {
	out := make([]HeadingHit, len(in))
	for i, h := range in {
		out[i] = HeadingHit{Path: h.Path, Level: h.Level, Text: h.Text, AnchorID: h.AnchorID}
	}
	return out
}
