// Package navigation resolves link targets against the current document and
// carries out the resulting navigation.
package navigation

import (
	"net/url"
	"path"
	"strings"
)

// TargetKind identifies the variant of a resolved link.
type TargetKind int

// Target kinds.
const (
	// NotFound is an inert link: a relative path that does not exist.
	NotFound TargetKind = iota
	SameDocumentAnchor
	OtherMarkdownFile
	ExternalURL
)

func (k TargetKind) String() string {
	switch k {
	case SameDocumentAnchor:
		return "anchor"
	case OtherMarkdownFile:
		return "document"
	case ExternalURL:
		return "external"
	default:
		return "not_found"
	}
}

// Target is a resolved link.
//
//   - SameDocumentAnchor: Anchor is set.
//   - OtherMarkdownFile: Path is set, Anchor may be.
//   - ExternalURL: URL holds the canonical form, or "" when Raw could not be
//     parsed; Raw is the href that produced it.
//   - NotFound: Path holds the path that was looked for.
type Target struct {
	Kind   TargetKind
	Path   string
	Anchor string
	URL    string
	Raw    string
}

// OpenURL returns the URL to hand to an external opener: the canonical form
// when available, otherwise the raw href.
func (t Target) OpenURL() string {
	if t.URL != "" {
		return t.URL
	}
	return t.Raw
}

// FileChecker is the part of the file-access capability the resolver needs.
type FileChecker interface {
	Exists(path string) bool
	IsMarkdown(path string) bool
}

// Resolver classifies hrefs. It performs no I/O beyond existence checks.
type Resolver struct {
	files FileChecker
	root  string
}

// NewResolver creates a Resolver backed by files. Hrefs beginning with '/'
// resolve under root; an empty root leaves them as absolute paths.
func NewResolver(files FileChecker, root string) *Resolver {
	return &Resolver{files: files, root: root}
}

// Resolve classifies href relative to the document at currentPath.
//
// Rules, in order: "#frag" is a same-document anchor; an href without ':'
// is a path relative to the current document's directory (or to the library
// root when it starts with '/'), which must exist; a Markdown extension makes
// it an in-app document, anything else opens as a file:// URL; file://,
// http:// and https:// hrefs are canonicalised through url.Parse; any other
// scheme passes through unchanged.
func (r *Resolver) Resolve(href, currentPath string) Target {
	if strings.HasPrefix(href, "#") {
		return Target{Kind: SameDocumentAnchor, Anchor: href[1:], Raw: href}
	}

	if !strings.Contains(href, ":") {
		return r.resolveRelative(href, currentPath)
	}

	if hasScheme(href, "file", "http", "https") {
		return Target{Kind: ExternalURL, URL: canonicalURL(href), Raw: href}
	}
	return Target{Kind: ExternalURL, URL: href, Raw: href}
}

func (r *Resolver) resolveRelative(href, currentPath string) Target {
	ref, fragment, _ := strings.Cut(href, "#")

	var resolved string
	switch {
	case ref == "":
		resolved = currentPath
	case strings.HasPrefix(ref, "/"):
		resolved = path.Join("/", r.root, ref)
	default:
		resolved = path.Join(path.Dir(currentPath), ref)
	}

	if !r.files.Exists(resolved) {
		return Target{Kind: NotFound, Path: resolved, Raw: href}
	}
	if r.files.IsMarkdown(resolved) {
		return Target{Kind: OtherMarkdownFile, Path: resolved, Anchor: fragment, Raw: href}
	}
	fileURL := (&url.URL{Scheme: "file", Path: resolved}).String()
	return Target{Kind: ExternalURL, URL: fileURL, Raw: href}
}

func hasScheme(href string, schemes ...string) bool {
	lower := strings.ToLower(href)
	for _, s := range schemes {
		if strings.HasPrefix(lower, s+"://") {
			return true
		}
	}
	return false
}

// canonicalURL round-trips href through the URL parser. It returns "" when
// href does not parse.
func canonicalURL(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return u.String()
}
