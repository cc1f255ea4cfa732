// Package api implements the bergen REST API using chi.
package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// AuthOption adjusts AuthMiddleware.
type AuthOption func(*authConfig)

type authConfig struct {
	queryToken bool
}

// AllowQueryToken also accepts the token in the access_token query
// parameter. Browser EventSource clients cannot set headers, so the event
// stream needs it.
func AllowQueryToken() AuthOption {
	return func(c *authConfig) { c.queryToken = true }
}

// AuthMiddleware returns middleware that checks the bearer token when
// enabled. Tokens are compared in constant time.
func AuthMiddleware(enabled bool, token string, opts ...AuthOption) func(http.Handler) http.Handler {
	var cfg authConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	want := []byte(token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled {
				next.ServeHTTP(w, r)
				return
			}
			got, ok := requestToken(r, cfg.queryToken)
			if !ok || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
				w.Header().Set("WWW-Authenticate", `Bearer realm="bergen"`)
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestToken(r *http.Request, query bool) (string, bool) {
	if auth := r.Header.Get("Authorization"); auth != "" {
		return strings.CutPrefix(auth, "Bearer ")
	}
	if query {
		if tok := r.URL.Query().Get("access_token"); tok != "" {
			return tok, true
		}
	}
	return "", false
}
