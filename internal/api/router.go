package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starford/bergen/internal/docservice"
	"github.com/starford/bergen/internal/storage"
)

// RouterConfig carries the settings NewRouter needs besides the service.
type RouterConfig struct {
	// AuthEnabled controls whether Bearer token auth is enforced.
	AuthEnabled bool
	Token       string
	// PreferNewTab is the default for POST /tabs when new_tab is omitted.
	PreferNewTab bool
	// Events, if non-nil, is mounted at GET /events behind the same token.
	Events http.Handler
}

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(svc *docservice.Service, store storage.Provider, cfg RouterConfig) chi.Router {
	h := NewHandler(svc, cfg.PreferNewTab)
	ah := NewAssetHandler(store)

	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.AuthEnabled, cfg.Token))

		// Library.
		r.Get("/tree", h.Tree)
		r.Get("/files/*", ah.ServeFile)
		r.Get("/render/*", h.RenderFile)

		// Tabs.
		r.Route("/tabs", func(r chi.Router) {
			r.Get("/", h.ListTabs)
			r.Post("/", h.OpenTab)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetTab)
				r.Delete("/", h.CloseTab)
				r.Post("/focus", h.FocusTab)
				r.Get("/render", h.RenderTab)
				r.Get("/outline", h.Outline)
				r.Post("/layout", h.Layout)
				r.Post("/links/resolve", h.ResolveLink)
				r.Post("/links/activate", h.ActivateLink)
			})
		})

		// Index.
		r.Get("/search", h.Search)
		r.Get("/backlinks", h.Backlinks)
		r.Get("/links", h.OutgoingLinks)
	})

	// SSE endpoint; also takes the token as a query parameter.
	if cfg.Events != nil {
		r.With(AuthMiddleware(cfg.AuthEnabled, cfg.Token, AllowQueryToken())).
			Get("/events", cfg.Events.ServeHTTP)
	}

	return r
}
