package navigation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/starford/bergen/internal/markdown"
)

func (f *fakeFiles) Read(p string) ([]byte, error) {
	s, ok := f.files[p]
	if !ok {
		return nil, os.ErrNotExist
	}
	return []byte(s), nil
}

type scrollCall struct {
	path    string
	buildID string
	anchor  string
	offset  float64
}

type fakeShell struct {
	mu          sync.Mutex
	opened      []string
	newTab      []bool
	external    []string
	externalErr error
	scrolls     []scrollCall
}

func (s *fakeShell) OpenDocument(src markdown.SourceDocument, doc *markdown.Document, preferNewTab bool) *markdown.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opened = append(s.opened, src.Path)
	s.newTab = append(s.newTab, preferNewTab)
	return doc
}

func (s *fakeShell) OpenExternal(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.external = append(s.external, url)
	return s.externalErr
}

func (s *fakeShell) ScrollTo(path, buildID, anchorID string, offset float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scrolls = append(s.scrolls, scrollCall{path, buildID, anchorID, offset})
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestNavigator(files *fakeFiles, shell *fakeShell, opts ...Option) *Navigator {
	opts = append([]Option{WithScrollDelay(0), WithLogger(quietLogger())}, opts...)
	return New(NewResolver(files, ""), files, markdown.NewBuilder(), shell, opts...)
}

func TestActivate_SameDocumentAnchorScrolls(t *testing.T) {
	files := newFakeFiles()
	shell := &fakeShell{}
	nav := newTestNavigator(files, shell)

	cur := markdown.Build("intro\n## Step 2\n", "/docs/a.md")
	want, _ := cur.Anchors.Get("step-2")

	if _, err := nav.Follow(context.Background(), cur, "#step-2"); err != nil {
		t.Fatalf("Follow: %v", err)
	}
	if len(shell.scrolls) != 1 {
		t.Fatalf("scrolls = %+v", shell.scrolls)
	}
	got := shell.scrolls[0]
	if got.path != "/docs/a.md" || got.anchor != "step-2" || got.offset != want || got.buildID != cur.BuildID {
		t.Errorf("scroll = %+v, want offset %v", got, want)
	}
	if len(shell.opened) != 0 {
		t.Errorf("anchor link must not open documents: %v", shell.opened)
	}
}

func TestActivate_UnknownAnchorIsNoop(t *testing.T) {
	shell := &fakeShell{}
	nav := newTestNavigator(newFakeFiles(), shell)
	cur := markdown.Build("# Only\n", "/a.md")
	if _, err := nav.Follow(context.Background(), cur, "#missing"); err != nil {
		t.Fatal(err)
	}
	if len(shell.scrolls) != 0 {
		t.Errorf("scrolls = %+v", shell.scrolls)
	}
}

func TestActivate_OtherDocumentOpensAndScrolls(t *testing.T) {
	files := newFakeFiles()
	files.files["/docs/setup/install.md"] = "# Install\n\npara\n## Step 2\n"
	shell := &fakeShell{}
	nav := newTestNavigator(files, shell)

	cur := markdown.Build("[go](../setup/install.md#step-2)\n", "/docs/guide/intro.md")
	target, err := nav.Follow(context.Background(), cur, "../setup/install.md#step-2")
	if err != nil {
		t.Fatalf("Follow: %v", err)
	}
	if target.Kind != OtherMarkdownFile {
		t.Fatalf("kind = %v", target.Kind)
	}
	if len(shell.opened) != 1 || shell.opened[0] != "/docs/setup/install.md" || !shell.newTab[0] {
		t.Errorf("opened = %v newTab = %v", shell.opened, shell.newTab)
	}
	if len(shell.scrolls) != 1 || shell.scrolls[0].anchor != "step-2" || shell.scrolls[0].path != "/docs/setup/install.md" {
		t.Errorf("scrolls = %+v", shell.scrolls)
	}
}

func TestActivate_PreferNewTabFalse(t *testing.T) {
	files := newFakeFiles("/b.md")
	shell := &fakeShell{}
	nav := newTestNavigator(files, shell, WithPreferNewTab(false))
	cur := markdown.Build("x\n", "/a.md")
	if _, err := nav.Follow(context.Background(), cur, "b.md"); err != nil {
		t.Fatal(err)
	}
	if len(shell.newTab) != 1 || shell.newTab[0] {
		t.Errorf("newTab = %v, want [false]", shell.newTab)
	}
}

func TestActivate_SamePathDoesNotReread(t *testing.T) {
	files := newFakeFiles()
	shell := &fakeShell{}
	nav := newTestNavigator(files, shell)
	cur := markdown.Build("# Top\n## Here\n", "/a.md")
	target := Target{Kind: OtherMarkdownFile, Path: "/a.md", Anchor: "here"}
	if err := nav.Activate(context.Background(), cur, target); err != nil {
		t.Fatal(err)
	}
	if len(shell.opened) != 0 {
		t.Errorf("opened = %v", shell.opened)
	}
	if len(shell.scrolls) != 1 || shell.scrolls[0].anchor != "here" {
		t.Errorf("scrolls = %+v", shell.scrolls)
	}
}

func TestActivate_ReadErrorLeavesShellUntouched(t *testing.T) {
	files := newFakeFiles()
	shell := &fakeShell{}
	nav := newTestNavigator(files, shell)
	cur := markdown.Build("x\n", "/a.md")
	err := nav.Activate(context.Background(), cur, Target{Kind: OtherMarkdownFile, Path: "/gone.md"})
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want ErrNotExist", err)
	}
	if len(shell.opened) != 0 || len(shell.scrolls) != 0 {
		t.Errorf("shell touched: %+v", shell)
	}
}

func TestActivate_CancelledContext(t *testing.T) {
	files := newFakeFiles("/b.md")
	shell := &fakeShell{}
	nav := newTestNavigator(files, shell)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := nav.Activate(ctx, markdown.Build("", "/a.md"), Target{Kind: OtherMarkdownFile, Path: "/b.md"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
}

func TestActivate_ExternalFailureIsSwallowed(t *testing.T) {
	shell := &fakeShell{externalErr: errors.New("no opener")}
	nav := newTestNavigator(newFakeFiles(), shell)
	cur := markdown.Build("", "/a.md")
	if _, err := nav.Follow(context.Background(), cur, "https://example.com/a b"); err != nil {
		t.Fatalf("external failure must not surface: %v", err)
	}
	if len(shell.external) != 1 || shell.external[0] != "https://example.com/a%20b" {
		t.Errorf("external = %v", shell.external)
	}
}

func TestActivate_ExternalFallsBackToRawHref(t *testing.T) {
	shell := &fakeShell{}
	nav := newTestNavigator(newFakeFiles(), shell)
	cur := markdown.Build("", "/a.md")
	if _, err := nav.Follow(context.Background(), cur, "http://[::1"); err != nil {
		t.Fatal(err)
	}
	if len(shell.external) != 1 || shell.external[0] != "http://[::1" {
		t.Errorf("external = %v", shell.external)
	}
}

func TestActivate_NotFoundIsInert(t *testing.T) {
	shell := &fakeShell{}
	nav := newTestNavigator(newFakeFiles(), shell)
	cur := markdown.Build("", "/a.md")
	target, err := nav.Follow(context.Background(), cur, "missing.md")
	if err != nil {
		t.Fatal(err)
	}
	if target.Kind != NotFound {
		t.Errorf("kind = %v", target.Kind)
	}
	if len(shell.opened)+len(shell.external)+len(shell.scrolls) != 0 {
		t.Errorf("shell touched: %+v", shell)
	}
}
