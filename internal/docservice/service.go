// Package docservice is the domain layer shared by the REST API, the MCP
// server and the CLI. It ties the library storage, the index, the
// workspace of open tabs and link navigation together.
package docservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/starford/bergen/internal/apperr"
	"github.com/starford/bergen/internal/index"
	"github.com/starford/bergen/internal/markdown"
	"github.com/starford/bergen/internal/models"
	"github.com/starford/bergen/internal/navigation"
	"github.com/starford/bergen/internal/render"
	"github.com/starford/bergen/internal/storage"
	"github.com/starford/bergen/internal/workspace"
)

// Output formats accepted by Render.
const (
	FormatHTML = "html"
	FormatText = "text"
	FormatJSON = "json"
)

// DefaultDiagramWait bounds how long an HTML render waits for diagrams.
const DefaultDiagramWait = 2 * time.Second

// TabView is the client representation of an open tab.
type TabView struct {
	ID       string    `json:"id"`
	Path     string    `json:"path"`
	Name     string    `json:"name"`
	Title    string    `json:"title"`
	BuildID  string    `json:"build_id"`
	Active   bool      `json:"active"`
	OpenedAt time.Time `json:"opened_at"`
}

// OutlineItem is one heading with its current scroll offset.
type OutlineItem struct {
	Level    int     `json:"level"`
	Text     string  `json:"text"`
	AnchorID string  `json:"anchor_id"`
	Offset   float64 `json:"offset"`
}

// LinkTarget is the client representation of a resolved link.
type LinkTarget struct {
	Kind   string `json:"kind"`
	Path   string `json:"path,omitempty"`
	Anchor string `json:"anchor,omitempty"`
	URL    string `json:"url,omitempty"`
	Raw    string `json:"raw"`
}

// Rendered is a document in one output format. Document is set for JSON,
// Body otherwise. Anchors holds the text output's heading lines.
type Rendered struct {
	Format      string               `json:"format"`
	ContentType string               `json:"content_type"`
	Body        string               `json:"body,omitempty"`
	Document    *render.DocumentJSON `json:"document,omitempty"`
	Anchors     map[string]float64   `json:"anchors,omitempty"`
}

// Service coordinates storage, index, workspace and navigation.
type Service struct {
	store   storage.Provider
	db      index.DocumentIndex
	builder *markdown.Builder
	ws      *workspace.Workspace
	nav     *navigation.Navigator
	logger  *slog.Logger

	highlighter render.Highlighter
	diagrams    render.DiagramRenderer
	diagramWait time.Duration
	textWidth   int
}

// Option configures a Service.
type Option func(*Service)

// WithHighlighter sets the code highlighter used for HTML output.
func WithHighlighter(h render.Highlighter) Option {
	return func(s *Service) { s.highlighter = h }
}

// WithDiagramRenderer sets the diagram renderer used for HTML output.
func WithDiagramRenderer(d render.DiagramRenderer) Option {
	return func(s *Service) { s.diagrams = d }
}

// WithDiagramWait bounds how long HTML rendering waits for diagrams.
func WithDiagramWait(d time.Duration) Option {
	return func(s *Service) { s.diagramWait = d }
}

// WithTextWidth sets the wrap column of text output.
func WithTextWidth(n int) Option {
	return func(s *Service) { s.textWidth = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a new document service.
func NewService(store storage.Provider, db index.DocumentIndex, builder *markdown.Builder,
	ws *workspace.Workspace, nav *navigation.Navigator, opts ...Option) *Service {
	s := &Service{
		store:       store,
		db:          db,
		builder:     builder,
		ws:          ws,
		nav:         nav,
		logger:      slog.Default(),
		highlighter: render.Plain{},
		diagrams:    render.Mermaid{},
		diagramWait: DefaultDiagramWait,
		textWidth:   render.DefaultTextWidth,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the library root.
func (s *Service) Root() string { return s.store.Root() }

// Tree lists the direct children of dir, directories first.
func (s *Service) Tree(_ context.Context, dir string) ([]models.Entry, error) {
	items, err := s.store.ListDir(dir)
	if err != nil {
		return nil, mapReadErr(err)
	}
	return nonNilSlice(items), nil
}

// OpenTab opens path in the workspace, focusing its tab when it is already
// open.
func (s *Service) OpenTab(ctx context.Context, path string, preferNewTab bool) (*TabView, error) {
	abs, err := s.markdownPath(path)
	if err != nil {
		return nil, err
	}
	t, err := s.ws.Open(ctx, abs, preferNewTab)
	if err != nil {
		return nil, mapReadErr(err)
	}
	return s.view(t), nil
}

// Tabs lists the open tabs in order.
func (s *Service) Tabs(_ context.Context) []TabView {
	tabs := s.ws.Tabs()
	out := make([]TabView, len(tabs))
	for i, t := range tabs {
		out[i] = *s.view(t)
	}
	return out
}

// Tab returns one open tab.
func (s *Service) Tab(_ context.Context, id string) (*TabView, error) {
	t, err := s.ws.Tab(id)
	if err != nil {
		return nil, err
	}
	return s.view(t), nil
}

// FocusTab makes a tab active.
func (s *Service) FocusTab(_ context.Context, id string) (*TabView, error) {
	t, err := s.ws.Focus(id)
	if err != nil {
		return nil, err
	}
	return s.view(t), nil
}

// CloseTab closes a tab.
func (s *Service) CloseTab(_ context.Context, id string) error {
	return s.ws.Close(id)
}

// RenderTab renders the document shown in a tab.
func (s *Service) RenderTab(ctx context.Context, id, format string) (*Rendered, error) {
	t, err := s.ws.Tab(id)
	if err != nil {
		return nil, err
	}
	return s.Render(ctx, t.Doc, format)
}

// RenderFile builds and renders path without opening a tab.
func (s *Service) RenderFile(ctx context.Context, path, format string) (*Rendered, error) {
	doc, err := s.BuildFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return s.Render(ctx, doc, format)
}

// BuildFile reads and builds path without opening a tab.
func (s *Service) BuildFile(ctx context.Context, path string) (*markdown.Document, error) {
	abs, err := s.markdownPath(path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := s.store.Read(abs)
	if err != nil {
		return nil, mapReadErr(err)
	}
	return s.builder.Build(markdown.SourceDocument{Path: abs, Text: string(data)}), nil
}

// Source returns the raw text of the Markdown file at path.
func (s *Service) Source(_ context.Context, path string) (string, error) {
	abs, err := s.markdownPath(path)
	if err != nil {
		return "", err
	}
	data, err := s.store.Read(abs)
	if err != nil {
		return "", mapReadErr(err)
	}
	return string(data), nil
}

// Render converts doc to format. HTML waits up to the diagram wait for
// diagrams to finish; text output reports heading lines in Anchors without
// touching the document's offsets.
func (s *Service) Render(ctx context.Context, doc *markdown.Document, format string) (*Rendered, error) {
	switch format {
	case FormatHTML, "":
		wctx, cancel := context.WithTimeout(ctx, s.diagramWait)
		defer cancel()
		body := render.RenderHTML(wctx, doc,
			render.WithHighlighter(s.highlighter),
			render.WithDiagramRenderer(s.diagrams),
			render.WithHTMLLogger(s.logger),
		)
		return &Rendered{Format: FormatHTML, ContentType: "text/html; charset=utf-8", Body: body}, nil
	case FormatText:
		body, lines := render.RenderText(doc, s.textWidth)
		return &Rendered{Format: FormatText, ContentType: "text/plain; charset=utf-8", Body: body, Anchors: lines}, nil
	case FormatJSON:
		d := render.RenderJSON(doc)
		return &Rendered{Format: FormatJSON, ContentType: "application/json", Document: &d}, nil
	default:
		return nil, fmt.Errorf("docservice: render %q: %w", format, apperr.ErrBadFormat)
	}
}

// Outline lists the headings of a tab's document with their current offsets.
func (s *Service) Outline(_ context.Context, id string) ([]OutlineItem, error) {
	t, err := s.ws.Tab(id)
	if err != nil {
		return nil, err
	}
	return outline(t.Doc), nil
}

// ApplyLayout records measured heading offsets reported by a client.
func (s *Service) ApplyLayout(_ context.Context, id, buildID string, offsets map[string]float64) (int, error) {
	return s.ws.ApplyLayout(id, buildID, offsets)
}

// ResolveLink classifies href relative to the tab's document without
// acting on it.
func (s *Service) ResolveLink(_ context.Context, id, href string) (*LinkTarget, error) {
	t, err := s.ws.Tab(id)
	if err != nil {
		return nil, err
	}
	return targetView(s.nav.Resolver().Resolve(href, t.Path)), nil
}

// ResolveFrom classifies href relative to the document at path.
func (s *Service) ResolveFrom(_ context.Context, path, href string) (*LinkTarget, error) {
	abs, err := s.store.Abs(path)
	if err != nil {
		return nil, err
	}
	return targetView(s.nav.Resolver().Resolve(href, abs)), nil
}

// ActivateLink resolves href relative to the tab's document and performs
// the navigation. Only reading a target document can fail.
func (s *Service) ActivateLink(ctx context.Context, id, href string) (*LinkTarget, error) {
	t, err := s.ws.Tab(id)
	if err != nil {
		return nil, err
	}
	target, err := s.nav.Follow(ctx, t.Doc, href)
	if err != nil {
		return targetView(target), mapReadErr(err)
	}
	return targetView(target), nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	res, err := s.db.Search(query, limit)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(res), nil
}

// SearchHeadings finds indexed headings whose text contains query.
func (s *Service) SearchHeadings(_ context.Context, query string, limit int) ([]index.HeadingRow, error) {
	res, err := s.db.SearchHeadings(query, limit)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(res), nil
}

// Headings returns the indexed outline of path.
func (s *Service) Headings(_ context.Context, path string) ([]index.HeadingRow, error) {
	abs, err := s.store.Abs(path)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.GetDocument(abs); err != nil {
		return nil, err
	}
	res, err := s.db.Headings(abs)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(res), nil
}

// Backlinks returns the in-library links that point at path.
func (s *Service) Backlinks(_ context.Context, path string) ([]models.Link, error) {
	abs, err := s.store.Abs(path)
	if err != nil {
		return nil, err
	}
	res, err := s.db.Backlinks(abs)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(res), nil
}

// OutgoingLinks returns the classified links found in path.
func (s *Service) OutgoingLinks(_ context.Context, path string) ([]models.Link, error) {
	abs, err := s.store.Abs(path)
	if err != nil {
		return nil, err
	}
	res, err := s.db.OutgoingLinks(abs)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(res), nil
}

// markdownPath resolves path under the library root and checks that it names
// a Markdown file.
func (s *Service) markdownPath(path string) (string, error) {
	abs, err := s.store.Abs(path)
	if err != nil {
		return "", err
	}
	if !s.store.IsMarkdown(abs) {
		return "", fmt.Errorf("docservice: %s: %w", path, apperr.ErrNotMarkdown)
	}
	return abs, nil
}

func (s *Service) view(t workspace.Tab) *TabView {
	active, ok := s.ws.Active()
	return &TabView{
		ID:       t.ID,
		Path:     t.Path,
		Name:     t.Name,
		Title:    t.Doc.Title(),
		BuildID:  t.Doc.BuildID,
		Active:   ok && active.ID == t.ID,
		OpenedAt: t.OpenedAt,
	}
}

func outline(doc *markdown.Document) []OutlineItem {
	entries := doc.Outline()
	out := make([]OutlineItem, len(entries))
	for i, e := range entries {
		off, _ := doc.Anchors.Get(e.AnchorID)
		out[i] = OutlineItem{Level: e.Level, Text: e.Text, AnchorID: e.AnchorID, Offset: off}
	}
	return out
}

func targetView(t navigation.Target) *LinkTarget {
	return &LinkTarget{
		Kind:   t.Kind.String(),
		Path:   t.Path,
		Anchor: t.Anchor,
		URL:    t.URL,
		Raw:    t.Raw,
	}
}

// mapReadErr turns a missing file into apperr.ErrNotFound.
func mapReadErr(err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %w", apperr.ErrNotFound, err)
	}
	return err
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
