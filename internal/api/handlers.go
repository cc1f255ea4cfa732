package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/starford/bergen/internal/docservice"
)

const defaultSearchLimit = 20

// Handler holds API route handlers.
type Handler struct {
	svc          *docservice.Service
	preferNewTab bool
}

// NewHandler creates a new Handler. preferNewTab is the default for
// OpenTabRequest.NewTab.
func NewHandler(svc *docservice.Service, preferNewTab bool) *Handler {
	return &Handler{svc: svc, preferNewTab: preferNewTab}
}

// wildcardPath extracts the library path from the URL (everything matched
// by the trailing wildcard). Supports encoded slashes (e.g. guide%2Fintro.md).
func wildcardPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// Tree handles GET /api/tree.
//
//	@Summary		List a library directory
//	@Tags			library
//	@Produce		json
//	@Param			dir	query		string	false	"Directory relative to the library root"
//	@Success		200	{object}	TreeResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tree [get]
func (h *Handler) Tree(w http.ResponseWriter, r *http.Request) {
	dir := r.URL.Query().Get("dir")
	entries, err := h.svc.Tree(r.Context(), dir)
	if err != nil {
		writeError(w, "list tree", err)
		return
	}
	writeJSON(w, http.StatusOK, TreeResponse{Dir: dir, Entries: entries})
}

// ListTabs handles GET /api/tabs.
//
//	@Summary		List open tabs
//	@Tags			tabs
//	@Produce		json
//	@Success		200	{object}	TabsResponse
//	@Security		BearerAuth
//	@Router			/tabs [get]
func (h *Handler) ListTabs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, TabsResponse{Tabs: h.svc.Tabs(r.Context())})
}

// OpenTab handles POST /api/tabs.
//
//	@Summary		Open a document in a tab
//	@Description	Focuses the existing tab when the document is already open.
//	@Tags			tabs
//	@Accept			json
//	@Produce		json
//	@Param			body	body		OpenTabRequest	true	"Document to open"
//	@Success		200		{object}	TabView
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		415		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tabs [post]
func (h *Handler) OpenTab(w http.ResponseWriter, r *http.Request) {
	var req OpenTabRequest
	if err := readJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	newTab := h.preferNewTab
	if req.NewTab != nil {
		newTab = *req.NewTab
	}
	tab, err := h.svc.OpenTab(r.Context(), req.Path, newTab)
	if err != nil {
		writeError(w, "open tab", err)
		return
	}
	writeJSON(w, http.StatusOK, tab)
}

// GetTab handles GET /api/tabs/{id}.
//
//	@Summary		Get an open tab
//	@Tags			tabs
//	@Produce		json
//	@Param			id	path		string	true	"Tab ID"
//	@Success		200	{object}	TabView
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tabs/{id} [get]
func (h *Handler) GetTab(w http.ResponseWriter, r *http.Request) {
	tab, err := h.svc.Tab(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get tab", err)
		return
	}
	writeJSON(w, http.StatusOK, tab)
}

// FocusTab handles POST /api/tabs/{id}/focus.
//
//	@Summary		Make a tab active
//	@Tags			tabs
//	@Produce		json
//	@Param			id	path		string	true	"Tab ID"
//	@Success		200	{object}	TabView
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tabs/{id}/focus [post]
func (h *Handler) FocusTab(w http.ResponseWriter, r *http.Request) {
	tab, err := h.svc.FocusTab(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "focus tab", err)
		return
	}
	writeJSON(w, http.StatusOK, tab)
}

// CloseTab handles DELETE /api/tabs/{id}.
//
//	@Summary		Close a tab
//	@Tags			tabs
//	@Param			id	path	string	true	"Tab ID"
//	@Success		204	"Tab closed"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tabs/{id} [delete]
func (h *Handler) CloseTab(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.CloseTab(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "close tab", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RenderTab handles GET /api/tabs/{id}/render.
//
//	@Summary		Render the document shown in a tab
//	@Tags			render
//	@Produce		html,plain,json
//	@Param			id		path		string	true	"Tab ID"
//	@Param			format	query		string	false	"Output format"	Enums(html, text, json)
//	@Success		200		{string}	string
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tabs/{id}/render [get]
func (h *Handler) RenderTab(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.RenderTab(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, "render tab", err)
		return
	}
	writeRendered(w, out)
}

// RenderFile handles GET /api/render/*.
//
//	@Summary		Render a library document without opening a tab
//	@Tags			render
//	@Produce		html,plain,json
//	@Param			path	path		string	true	"Document path"
//	@Param			format	query		string	false	"Output format"	Enums(html, text, json)
//	@Success		200		{string}	string
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/render/{path} [get]
func (h *Handler) RenderFile(w http.ResponseWriter, r *http.Request) {
	path := wildcardPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	out, err := h.svc.RenderFile(r.Context(), path, r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, "render file", err)
		return
	}
	writeRendered(w, out)
}

func writeRendered(w http.ResponseWriter, out *docservice.Rendered) {
	if out.Document != nil {
		writeJSON(w, http.StatusOK, out.Document)
		return
	}
	w.Header().Set("Content-Type", out.ContentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(out.Body)); err != nil {
		slog.Error("write render failed", slog.String("error", err.Error()))
	}
}

// Outline handles GET /api/tabs/{id}/outline.
//
//	@Summary		Headings of a tab's document with their current offsets
//	@Tags			tabs
//	@Produce		json
//	@Param			id	path		string	true	"Tab ID"
//	@Success		200	{object}	OutlineResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tabs/{id}/outline [get]
func (h *Handler) Outline(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	tab, err := h.svc.Tab(r.Context(), id)
	if err != nil {
		writeError(w, "outline", err)
		return
	}
	items, err := h.svc.Outline(r.Context(), id)
	if err != nil {
		writeError(w, "outline", err)
		return
	}
	writeJSON(w, http.StatusOK, OutlineResponse{BuildID: tab.BuildID, Headings: items})
}

// Layout handles POST /api/tabs/{id}/layout.
//
//	@Summary		Report measured heading offsets
//	@Description	Reports for a build other than the one currently shown are rejected with 409.
//	@Tags			tabs
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Tab ID"
//	@Param			body	body		LayoutRequest	true	"Measured offsets"
//	@Success		200		{object}	LayoutResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tabs/{id}/layout [post]
func (h *Handler) Layout(w http.ResponseWriter, r *http.Request) {
	var req LayoutRequest
	if err := readJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.BuildID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("build_id is required"))
		return
	}
	n, err := h.svc.ApplyLayout(r.Context(), chi.URLParam(r, "id"), req.BuildID, req.Offsets)
	if err != nil {
		writeError(w, "apply layout", err)
		return
	}
	writeJSON(w, http.StatusOK, LayoutResponse{Updated: n})
}

// ResolveLink handles POST /api/tabs/{id}/links/resolve.
//
//	@Summary		Classify a link without following it
//	@Tags			links
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string		true	"Tab ID"
//	@Param			body	body		LinkRequest	true	"Link"
//	@Success		200		{object}	LinkTarget
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tabs/{id}/links/resolve [post]
func (h *Handler) ResolveLink(w http.ResponseWriter, r *http.Request) {
	var req LinkRequest
	if err := readJSON(w, r, &req); err != nil || req.Href == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("href is required"))
		return
	}
	target, err := h.svc.ResolveLink(r.Context(), chi.URLParam(r, "id"), req.Href)
	if err != nil {
		writeError(w, "resolve link", err)
		return
	}
	writeJSON(w, http.StatusOK, target)
}

// ActivateLink handles POST /api/tabs/{id}/links/activate.
//
//	@Summary		Follow a link
//	@Description	Scrolls, opens a document tab or hands the URL to the external opener.
//	@Description	Unresolvable links are a no-op.
//	@Tags			links
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string		true	"Tab ID"
//	@Param			body	body		LinkRequest	true	"Link"
//	@Success		200		{object}	LinkTarget
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tabs/{id}/links/activate [post]
func (h *Handler) ActivateLink(w http.ResponseWriter, r *http.Request) {
	var req LinkRequest
	if err := readJSON(w, r, &req); err != nil || req.Href == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("href is required"))
		return
	}
	target, err := h.svc.ActivateLink(r.Context(), chi.URLParam(r, "id"), req.Href)
	if err != nil {
		writeError(w, "activate link", err)
		return
	}
	writeJSON(w, http.StatusOK, target)
}

// Search handles GET /api/search.
//
//	@Summary		Search document text and headings
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("q parameter is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	headings, err := h.svc.SearchHeadings(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search headings", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{
		Results:  toSearchResults(results),
		Headings: toHeadingHits(headings),
	})
}

// Backlinks handles GET /api/backlinks.
//
//	@Summary		Documents that link to a document
//	@Tags			links
//	@Produce		json
//	@Param			path	query		string	true	"Document path"
//	@Success		200		{object}	LinksResponse
//	@Security		BearerAuth
//	@Router			/backlinks [get]
func (h *Handler) Backlinks(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path parameter is required"))
		return
	}
	links, err := h.svc.Backlinks(r.Context(), path)
	if err != nil {
		writeError(w, "backlinks", err)
		return
	}
	writeJSON(w, http.StatusOK, LinksResponse{Path: path, Links: links})
}

// OutgoingLinks handles GET /api/links.
//
//	@Summary		Classified links found in a document
//	@Tags			links
//	@Produce		json
//	@Param			path	query		string	true	"Document path"
//	@Success		200		{object}	LinksResponse
//	@Security		BearerAuth
//	@Router			/links [get]
func (h *Handler) OutgoingLinks(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path parameter is required"))
		return
	}
	links, err := h.svc.OutgoingLinks(r.Context(), path)
	if err != nil {
		writeError(w, "outgoing links", err)
		return
	}
	writeJSON(w, http.StatusOK, LinksResponse{Path: path, Links: links})
}
