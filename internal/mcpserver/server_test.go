package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/bergen/internal/docservice"
	"github.com/starford/bergen/internal/index"
	"github.com/starford/bergen/internal/markdown"
	"github.com/starford/bergen/internal/navigation"
	"github.com/starford/bergen/internal/testutil"
	"github.com/starford/bergen/internal/workspace"
)

func testServer(t *testing.T) (*Server, string) {
	t.Helper()
	root, store := testutil.TestLibrary(t)
	testutil.WriteFile(t, root, "guide/intro.md", "# Guide\n\nSee [install](../setup/install.md#step-2).\n\n## Usage\nuniquetoken\n")
	testutil.WriteFile(t, root, "setup/install.md", "# Install\n\n## Step 2\nRun it.\n")

	db := testutil.TestDB(t)
	builder := markdown.NewBuilder()
	logger := testutil.QuietLogger()
	if err := index.NewIndexer(db, store, builder, logger).Sync(); err != nil {
		t.Fatal(err)
	}
	ws := workspace.New(store, builder, workspace.WithLogger(logger))
	nav := navigation.New(navigation.NewResolver(store, root), store, builder, ws, navigation.WithLogger(logger))
	svc := docservice.NewService(store, db, builder, ws, nav, docservice.WithLogger(logger))
	return New(svc, "test"), root
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so the handlers are
	// invoked directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "render_document":
		result, err = srv.renderDocument(ctx, req)
	case "read_document":
		result, err = srv.readDocument(ctx, req)
	case "resolve_link":
		result, err = srv.resolveLink(ctx, req)
	case "search_documents":
		result, err = srv.searchDocuments(ctx, req)
	case "list_directory":
		result, err = srv.listDirectory(ctx, req)
	case "get_outline":
		result, err = srv.getOutline(ctx, req)
	case "get_backlinks":
		result, err = srv.getBacklinks(ctx, req)
	case "get_syntax":
		result, err = srv.getSyntax(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestRenderDocument(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "render_document", map[string]interface{}{"path": "guide/intro.md"})
	if r.IsError || !strings.HasPrefix(resultText(r), "Guide\n=====\n") {
		t.Errorf("text render = %q", resultText(r))
	}

	r = callTool(t, srv, "render_document", map[string]interface{}{"path": "guide/intro.md", "format": "json"})
	var doc struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &doc); err != nil || doc.Title != "Guide" {
		t.Errorf("json render = %q (%v)", resultText(r), err)
	}

	r = callTool(t, srv, "render_document", map[string]interface{}{"path": "guide/intro.md", "format": "pdf"})
	if !r.IsError {
		t.Error("expected error for unsupported format")
	}
}

func TestReadDocument(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_document", map[string]interface{}{"path": "setup/install.md"})
	if resultText(r) != "# Install\n\n## Step 2\nRun it.\n" {
		t.Errorf("read = %q", resultText(r))
	}
	r = callTool(t, srv, "read_document", map[string]interface{}{"path": "nope.md"})
	if !r.IsError {
		t.Error("expected error for missing document")
	}
}

func TestResolveLink(t *testing.T) {
	srv, root := testServer(t)
	r := callTool(t, srv, "resolve_link", map[string]interface{}{
		"from": "guide/intro.md",
		"href": "../setup/install.md#step-2",
	})
	var target docservice.LinkTarget
	if err := json.Unmarshal([]byte(resultText(r)), &target); err != nil {
		t.Fatal(err)
	}
	if target.Kind != "document" || target.Path != root+"/setup/install.md" || target.Anchor != "step-2" {
		t.Errorf("target = %+v", target)
	}

	r = callTool(t, srv, "resolve_link", map[string]interface{}{"from": "guide/intro.md"})
	if !r.IsError {
		t.Error("expected error for missing href")
	}
}

func TestSearchDocuments(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "search_documents", map[string]interface{}{"query": "uniquetoken", "limit": 5})
	var resp struct {
		Results []index.SearchResult `json:"results"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 1 {
		t.Errorf("results = %+v", resp.Results)
	}
}

func TestListDirectory(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "list_directory", map[string]interface{}{})
	if resultText(r) != "guide/\nsetup/" {
		t.Errorf("list = %q", resultText(r))
	}
	r = callTool(t, srv, "list_directory", map[string]interface{}{"dir": "setup"})
	if resultText(r) != "install.md" {
		t.Errorf("list setup = %q", resultText(r))
	}
}

func TestGetOutline(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_outline", map[string]interface{}{"path": "setup/install.md"})
	want := "- Install (#install)\n  - Step 2 (#step-2)\n"
	if resultText(r) != want {
		t.Errorf("outline = %q, want %q", resultText(r), want)
	}
}

func TestGetBacklinks(t *testing.T) {
	srv, root := testServer(t)
	r := callTool(t, srv, "get_backlinks", map[string]interface{}{"path": "setup/install.md"})
	if resultText(r) != root+"/guide/intro.md" {
		t.Errorf("backlinks = %q", resultText(r))
	}
	r = callTool(t, srv, "get_backlinks", map[string]interface{}{"path": "guide/intro.md"})
	if resultText(r) != "no backlinks found" {
		t.Errorf("backlinks = %q", resultText(r))
	}
}

func TestGetSyntax(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_syntax", nil)
	if !strings.Contains(resultText(r), "Block rules") {
		t.Errorf("syntax = %q", resultText(r))
	}
}
