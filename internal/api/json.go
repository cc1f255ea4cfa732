package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/starford/bergen/internal/apperr"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

// readJSON decodes a bounded request body into v.
func readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

type errResponse struct {
	Error string `json:"error" validate:"required"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// writeError maps domain errors to HTTP statuses. Anything unrecognised is
// logged and reported as an internal error.
func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrTabNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("tab not found"))
	case errors.Is(err, apperr.ErrNotMarkdown):
		writeJSON(w, http.StatusUnsupportedMediaType, errorBody("not a markdown file"))
	case errors.Is(err, apperr.ErrOutsideLibrary):
		writeJSON(w, http.StatusForbidden, errorBody("path outside library"))
	case errors.Is(err, apperr.ErrBadFormat):
		writeJSON(w, http.StatusBadRequest, errorBody("unsupported format"))
	case errors.Is(err, apperr.ErrStaleBuild):
		writeJSON(w, http.StatusConflict, errorBody("stale build"))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}
