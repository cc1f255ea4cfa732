// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes bergen tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/bergen/internal/docservice"
)

const (
	syntaxURI          = "bergen://syntax"
	defaultSearchLimit = 20
)

// Server wraps the MCP server with bergen tools.
type Server struct {
	mcp *server.MCPServer
	svc *docservice.Service
}

// New creates a new MCP server with all bergen tools registered.
func New(svc *docservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"bergen",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("render_document",
		mcp.WithDescription("Render a Markdown document from the library. "+
			"Use format=text for reading, json for the parsed block structure, html for display."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path relative to the library root (e.g. guide/intro.md)")),
		mcp.WithString("format", mcp.Description("Output format: text (default), json or html"),
			mcp.Enum(docservice.FormatText, docservice.FormatJSON, docservice.FormatHTML)),
	), s.renderDocument)

	s.mcp.AddTool(mcp.NewTool("read_document",
		mcp.WithDescription("Read the raw Markdown source of a document."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path relative to the library root")),
	), s.readDocument)

	s.mcp.AddTool(mcp.NewTool("resolve_link",
		mcp.WithDescription("Classify a link href as it would be followed from a document: "+
			"anchor, document, external or not_found."),
		mcp.WithString("from", mcp.Required(), mcp.Description("Path of the document containing the link")),
		mcp.WithString("href", mcp.Required(), mcp.Description("Raw link target, e.g. ../setup/install.md#step-2")),
	), s.resolveLink)

	s.mcp.AddTool(mcp.NewTool("search_documents",
		mcp.WithDescription("Full-text search through document content, titles and headings."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum results (default 20)")),
	), s.searchDocuments)

	s.mcp.AddTool(mcp.NewTool("list_directory",
		mcp.WithDescription("List a library directory: folders first, then files."),
		mcp.WithString("dir", mcp.Description("Directory relative to the library root (empty for the root)")),
	), s.listDirectory)

	s.mcp.AddTool(mcp.NewTool("get_outline",
		mcp.WithDescription("List the headings of a document with their anchor IDs."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path relative to the library root")),
	), s.getOutline)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all documents that link to the specified document."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the document to find backlinks for")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("get_syntax",
		mcp.WithDescription("Returns the Markdown subset bergen renders, including link and anchor rules."),
	), s.getSyntax)

	// Resource: supported syntax.
	s.mcp.AddResource(
		mcp.NewResource(syntaxURI, "Markdown Syntax",
			mcp.WithResourceDescription("The Markdown subset bergen renders."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readSyntaxResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) renderDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	format := docservice.FormatText
	if f, err := req.RequireString("format"); err == nil && f != "" {
		format = f
	}
	out, err := s.svc.RenderFile(ctx, path, format)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if out.Document != nil {
		return jsonResult(out.Document)
	}
	return mcp.NewToolResultText(out.Body), nil
}

func (s *Server) readDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := s.svc.Source(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) resolveLink(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	from, err := req.RequireString("from")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	href, err := req.RequireString("href")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	target, err := s.svc.ResolveFrom(ctx, from, href)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(target)
}

func (s *Server) searchDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := defaultSearchLimit
	if n, err := req.RequireInt("limit"); err == nil && n > 0 {
		limit = n
	}
	results, err := s.svc.Search(ctx, query, limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	headings, err := s.svc.SearchHeadings(ctx, query, limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"results":  results,
		"headings": headings,
	})
}

func (s *Server) listDirectory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir := ""
	if d, err := req.RequireString("dir"); err == nil {
		dir = d
	}
	entries, err := s.svc.Tree(ctx, dir)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e.Name
		if e.IsDir {
			lines[i] += "/"
		}
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) getOutline(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	headings, err := s.svc.Headings(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var b strings.Builder
	for _, h := range headings {
		b.WriteString(strings.Repeat("  ", h.Level-1))
		b.WriteString("- ")
		b.WriteString(h.Text)
		b.WriteString(" (#")
		b.WriteString(h.AnchorID)
		b.WriteString(")\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	links, err := s.svc.Backlinks(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(links) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	sources := make([]string, 0, len(links))
	seen := make(map[string]bool, len(links))
	for _, l := range links {
		if !seen[l.Source] {
			seen[l.Source] = true
			sources = append(sources, l.Source)
		}
	}
	return mcp.NewToolResultText(strings.Join(sources, "\n")), nil
}

func (s *Server) getSyntax(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(MarkdownSyntax), nil
}

func (s *Server) readSyntaxResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      syntaxURI,
			MIMEType: "text/markdown",
			Text:     MarkdownSyntax,
		},
	}, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
