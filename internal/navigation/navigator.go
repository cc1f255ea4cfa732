package navigation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/bergen/internal/markdown"
)

// DefaultScrollDelay gives freshly focused content time to lay out before an
// anchor scroll.
const DefaultScrollDelay = 150 * time.Millisecond

// Shell is the presentation collaborator that navigation drives.
type Shell interface {
	// OpenDocument shows doc, focusing an existing tab for src.Path if one is
	// open, otherwise opening a new tab (preferNewTab) or replacing the
	// active one. It returns the document now displayed for that path.
	OpenDocument(src markdown.SourceDocument, doc *markdown.Document, preferNewTab bool) *markdown.Document
	// OpenExternal hands url to the platform opener.
	OpenExternal(url string) error
	// ScrollTo scrolls the document at path to offset. offset belongs to
	// build buildID; a shell showing a newer build drops the scroll.
	ScrollTo(path, buildID, anchorID string, offset float64)
}

// Reader reads document bytes.
type Reader interface {
	Read(path string) ([]byte, error)
}

// Navigator activates resolved link targets.
type Navigator struct {
	resolver     *Resolver
	files        Reader
	builder      *markdown.Builder
	shell        Shell
	logger       *slog.Logger
	scrollDelay  time.Duration
	preferNewTab bool
}

// Option configures a Navigator.
type Option func(*Navigator)

// WithScrollDelay sets the delay before scrolling to an anchor in a document
// that was just focused.
func WithScrollDelay(d time.Duration) Option {
	return func(n *Navigator) {
		n.scrollDelay = d
	}
}

// WithPreferNewTab controls whether cross-document links open a new tab.
func WithPreferNewTab(v bool) Option {
	return func(n *Navigator) {
		n.preferNewTab = v
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(n *Navigator) {
		n.logger = l
	}
}

// New creates a Navigator. The shell is injected here rather than looked up
// globally.
func New(resolver *Resolver, files Reader, builder *markdown.Builder, shell Shell, opts ...Option) *Navigator {
	n := &Navigator{
		resolver:     resolver,
		files:        files,
		builder:      builder,
		shell:        shell,
		logger:       slog.Default(),
		scrollDelay:  DefaultScrollDelay,
		preferNewTab: true,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Resolver returns the resolver used by Follow.
func (n *Navigator) Resolver() *Resolver { return n.resolver }

// Follow resolves href against current and activates the result.
func (n *Navigator) Follow(ctx context.Context, current *markdown.Document, href string) (Target, error) {
	t := n.resolver.Resolve(href, current.Path)
	return t, n.Activate(ctx, current, t)
}

// Activate performs the effect of t. Only reading a target document can
// fail; in that case nothing is opened. External open failures are logged.
func (n *Navigator) Activate(ctx context.Context, current *markdown.Document, t Target) error {
	switch t.Kind {
	case SameDocumentAnchor:
		n.scroll(current, t.Anchor)
		return nil

	case OtherMarkdownFile:
		if current != nil && t.Path == current.Path {
			n.scrollLater(current, t.Anchor)
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := n.files.Read(t.Path)
		if err != nil {
			return fmt.Errorf("navigation: open %s: %w", t.Path, err)
		}
		src := markdown.SourceDocument{Path: t.Path, Text: string(data)}
		shown := n.shell.OpenDocument(src, n.builder.Build(src), n.preferNewTab)
		if shown != nil {
			n.scrollLater(shown, t.Anchor)
		}
		return nil

	case ExternalURL:
		u := t.OpenURL()
		if err := n.shell.OpenExternal(u); err != nil {
			n.logger.Warn("navigation: external open failed",
				slog.String("url", u),
				slog.String("error", err.Error()))
		}
		return nil

	default:
		n.logger.Debug("navigation: link target not found",
			slog.String("href", t.Raw),
			slog.String("path", t.Path))
		return nil
	}
}

func (n *Navigator) scroll(doc *markdown.Document, anchor string) {
	if doc == nil || anchor == "" {
		return
	}
	offset, ok := doc.Anchors.Get(anchor)
	if !ok {
		n.logger.Debug("navigation: unknown anchor",
			slog.String("path", doc.Path),
			slog.String("anchor", anchor))
		return
	}
	n.shell.ScrollTo(doc.Path, doc.BuildID, anchor, offset)
}

func (n *Navigator) scrollLater(doc *markdown.Document, anchor string) {
	if anchor == "" {
		return
	}
	if n.scrollDelay <= 0 {
		n.scroll(doc, anchor)
		return
	}
	time.AfterFunc(n.scrollDelay, func() {
		n.scroll(doc, anchor)
	})
}
