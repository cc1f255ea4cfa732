// Package workspace holds the open tabs and is the shell that link
// navigation drives.
package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/bergen/internal/apperr"
	"github.com/starford/bergen/internal/markdown"
	"github.com/starford/bergen/internal/sse"
)

// Tab is one open document.
type Tab struct {
	ID       string
	Path     string
	Name     string
	Doc      *markdown.Document
	OpenedAt time.Time
}

// Reader reads document bytes.
type Reader interface {
	Read(path string) ([]byte, error)
}

// Notifier receives workspace events.
type Notifier interface {
	Publish(sse.Event)
}

// OpenerFunc opens a URL outside the application.
type OpenerFunc func(url string) error

// Workspace is the ordered set of open tabs and the active tab. It is safe
// for concurrent use.
type Workspace struct {
	files   Reader
	builder *markdown.Builder
	notify  Notifier
	opener  OpenerFunc
	logger  *slog.Logger

	mu     sync.RWMutex
	tabs   []*Tab
	active int
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithNotifier sets where tab and navigation events are published.
func WithNotifier(n Notifier) Option {
	return func(w *Workspace) {
		w.notify = n
	}
}

// WithOpener sets the external URL opener.
func WithOpener(fn OpenerFunc) Option {
	return func(w *Workspace) {
		w.opener = fn
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Workspace) {
		w.logger = l
	}
}

// New creates an empty workspace.
func New(files Reader, builder *markdown.Builder, opts ...Option) *Workspace {
	w := &Workspace{
		files:   files,
		builder: builder,
		logger:  slog.Default(),
		active:  -1,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Open shows the document at path. A tab already showing path is focused
// without rereading it. Otherwise the file is read and built, then opened in
// a new tab when preferNewTab is set or no tab is active, or in place of the
// active tab. A read error leaves the workspace unchanged.
func (w *Workspace) Open(ctx context.Context, path string, preferNewTab bool) (Tab, error) {
	if t, ok := w.focusPath(path); ok {
		return t, nil
	}
	if err := ctx.Err(); err != nil {
		return Tab{}, err
	}
	data, err := w.files.Read(path)
	if err != nil {
		return Tab{}, fmt.Errorf("workspace: open %s: %w", path, err)
	}
	src := markdown.SourceDocument{Path: path, Text: string(data)}
	w.OpenDocument(src, w.builder.Build(src), preferNewTab)

	t, _ := w.focusPath(path)
	return t, nil
}

// OpenDocument shows an already built document. It returns the document
// displayed for src.Path, which is the existing tab's when one was open.
func (w *Workspace) OpenDocument(src markdown.SourceDocument, doc *markdown.Document, preferNewTab bool) *markdown.Document {
	w.mu.Lock()
	if i := w.indexOfPath(src.Path); i >= 0 {
		w.active = i
		t := *w.tabs[i]
		w.mu.Unlock()
		w.publish(sse.TabFocused, tabEvent(t))
		return t.Doc
	}

	tab := &Tab{
		ID:       uuid.NewString(),
		Path:     src.Path,
		Name:     filepath.Base(src.Path),
		Doc:      doc,
		OpenedAt: time.Now().UTC(),
	}
	var replaced *Tab
	if preferNewTab || w.active < 0 {
		w.tabs = append(w.tabs, tab)
		w.active = len(w.tabs) - 1
	} else {
		replaced = w.tabs[w.active]
		w.tabs[w.active] = tab
	}
	t := *tab
	w.mu.Unlock()

	if replaced != nil {
		w.publish(sse.TabClosed, tabEvent(*replaced))
	}
	w.publish(sse.TabOpened, tabEvent(t))
	return doc
}

// Focus makes the tab with id active.
func (w *Workspace) Focus(id string) (Tab, error) {
	w.mu.Lock()
	i := w.indexOfID(id)
	if i < 0 {
		w.mu.Unlock()
		return Tab{}, fmt.Errorf("workspace: focus %s: %w", id, apperr.ErrTabNotFound)
	}
	w.active = i
	t := *w.tabs[i]
	w.mu.Unlock()

	w.publish(sse.TabFocused, tabEvent(t))
	return t, nil
}

// Close removes the tab with id. Closing the active tab activates the one
// before it, or the first tab; closing an earlier tab keeps the same tab
// active.
func (w *Workspace) Close(id string) error {
	w.mu.Lock()
	i := w.indexOfID(id)
	if i < 0 {
		w.mu.Unlock()
		return fmt.Errorf("workspace: close %s: %w", id, apperr.ErrTabNotFound)
	}
	t := *w.tabs[i]
	w.tabs = append(w.tabs[:i], w.tabs[i+1:]...)
	switch {
	case len(w.tabs) == 0:
		w.active = -1
	case i == w.active:
		w.active = max(0, i-1)
	case i < w.active:
		w.active--
	}
	w.mu.Unlock()

	w.publish(sse.TabClosed, tabEvent(t))
	return nil
}

// Tabs returns the open tabs in order.
func (w *Workspace) Tabs() []Tab {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]Tab, len(w.tabs))
	for i, t := range w.tabs {
		out[i] = *t
	}
	return out
}

// Active returns the active tab.
func (w *Workspace) Active() (Tab, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.active < 0 {
		return Tab{}, false
	}
	return *w.tabs[w.active], true
}

// Tab returns the tab with id.
func (w *Workspace) Tab(id string) (Tab, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	i := w.indexOfID(id)
	if i < 0 {
		return Tab{}, fmt.Errorf("workspace: tab %s: %w", id, apperr.ErrTabNotFound)
	}
	return *w.tabs[i], nil
}

// Reload rebuilds every tab showing path from the current file contents.
// Each rebuilt document gets a new build ID, so layout reports for the old
// build are rejected. It returns the number of tabs rebuilt.
func (w *Workspace) Reload(path string) (int, error) {
	w.mu.RLock()
	open := w.indexOfPath(path) >= 0
	w.mu.RUnlock()
	if !open {
		return 0, nil
	}

	data, err := w.files.Read(path)
	if err != nil {
		return 0, fmt.Errorf("workspace: reload %s: %w", path, err)
	}
	doc := w.builder.Build(markdown.SourceDocument{Path: path, Text: string(data)})

	w.mu.Lock()
	var reloaded []Tab
	for _, t := range w.tabs {
		if t.Path == path {
			t.Doc = doc
			reloaded = append(reloaded, *t)
		}
	}
	w.mu.Unlock()

	for _, t := range reloaded {
		w.publish(sse.TabReloaded, tabEvent(t))
	}
	return len(reloaded), nil
}

// ApplyLayout records measured heading offsets for the tab's document.
// Reports for any build other than the one currently displayed fail with
// apperr.ErrStaleBuild and change nothing. Unknown anchor IDs are ignored.
// It returns the number of anchors updated.
func (w *Workspace) ApplyLayout(tabID, buildID string, offsets map[string]float64) (int, error) {
	t, err := w.Tab(tabID)
	if err != nil {
		return 0, err
	}
	if t.Doc.BuildID != buildID {
		w.logger.Debug("workspace: stale layout report",
			slog.String("tab", tabID),
			slog.String("build", buildID),
			slog.String("current", t.Doc.BuildID))
		return 0, fmt.Errorf("workspace: layout for %s: %w", tabID, apperr.ErrStaleBuild)
	}
	n := 0
	for id, off := range offsets {
		if _, ok := t.Doc.Anchors.Get(id); !ok {
			continue
		}
		t.Doc.Anchors.Set(id, off)
		n++
	}
	return n, nil
}

// OpenExternal implements the navigation shell: the URL is published to
// clients and handed to the configured opener.
func (w *Workspace) OpenExternal(url string) error {
	if w.notify == nil && w.opener == nil {
		return fmt.Errorf("workspace: open %s: %w", url, apperr.ErrNoOpener)
	}
	w.publish(sse.NavigateExternal, map[string]string{"url": url})
	if w.opener != nil {
		if err := w.opener(url); err != nil {
			return fmt.Errorf("workspace: open %s: %w", url, err)
		}
	}
	return nil
}

// ScrollTo implements the navigation shell by publishing a scroll event for
// the tab showing path. A scroll computed from a build the tab no longer
// shows is dropped.
func (w *Workspace) ScrollTo(path, buildID, anchorID string, offset float64) {
	w.mu.RLock()
	i := w.indexOfPath(path)
	var tabID, current string
	if i >= 0 {
		tabID, current = w.tabs[i].ID, w.tabs[i].Doc.BuildID
	}
	w.mu.RUnlock()
	if i < 0 {
		return
	}
	if current != buildID {
		w.logger.Debug("workspace: stale scroll dropped",
			slog.String("tab", tabID),
			slog.String("build", buildID),
			slog.String("current", current))
		return
	}
	w.publish(sse.NavigateScroll, map[string]any{
		"tab_id":   tabID,
		"build_id": buildID,
		"path":     path,
		"anchor":   anchorID,
		"offset":   offset,
	})
}

func (w *Workspace) focusPath(path string) (Tab, bool) {
	w.mu.Lock()
	i := w.indexOfPath(path)
	if i < 0 {
		w.mu.Unlock()
		return Tab{}, false
	}
	changed := w.active != i
	w.active = i
	t := *w.tabs[i]
	w.mu.Unlock()

	if changed {
		w.publish(sse.TabFocused, tabEvent(t))
	}
	return t, true
}

func (w *Workspace) indexOfPath(path string) int {
	for i, t := range w.tabs {
		if t.Path == path {
			return i
		}
	}
	return -1
}

func (w *Workspace) indexOfID(id string) int {
	for i, t := range w.tabs {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (w *Workspace) publish(kind string, data any) {
	if w.notify == nil {
		return
	}
	w.notify.Publish(sse.Event{Type: kind, Data: data})
}

func tabEvent(t Tab) map[string]string {
	return map[string]string{
		"tab_id":   t.ID,
		"path":     t.Path,
		"build_id": t.Doc.BuildID,
	}
}
