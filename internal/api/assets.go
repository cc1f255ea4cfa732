package api

import (
	"errors"
	"net/http"
	"os"

	"github.com/starford/bergen/internal/apperr"
	"github.com/starford/bergen/internal/storage"
)

// AssetHandler serves library files that documents link to (images,
// attachments). Markdown files are rendered through the render routes
// instead.
type AssetHandler struct {
	store storage.Provider
}

// NewAssetHandler creates a handler rooted at the library.
func NewAssetHandler(store storage.Provider) *AssetHandler {
	return &AssetHandler{store: store}
}

// ServeFile handles GET /files/*.
//
//	@Summary		Download a library asset
//	@Tags			library
//	@Param			path	path	string	true	"Asset path relative to the library root"
//	@Success		200		{file}	file
//	@Failure		403		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		415		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/files/{path} [get]
func (h *AssetHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	name := wildcardPath(r)
	if name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	abs, err := h.store.Abs(name)
	if err != nil {
		writeError(w, "serve asset", err)
		return
	}
	if h.store.IsMarkdown(abs) {
		writeJSON(w, http.StatusUnsupportedMediaType, errorBody("use the render endpoint for markdown"))
		return
	}
	info, err := h.store.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			err = apperr.ErrNotFound
		}
		writeError(w, "serve asset", err)
		return
	}
	if info.IsDir {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	http.ServeFile(w, r, abs)
}
