// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/bergen/internal/api"
	"github.com/starford/bergen/internal/index"
	"github.com/starford/bergen/internal/mcpserver"
	"github.com/starford/bergen/internal/sse"
	"github.com/starford/bergen/internal/workspace"
)

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := newLogger(app)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("library_root", cfg.Library.Root),
		slog.String("index_path", cfg.Index.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker; the workspace publishes tab and navigation events to it.
	broker := sse.NewBroker(cfg.Events.TreeThrottle)
	defer broker.Close()

	c, err := newComponents(cfg, logger, true, workspace.WithNotifier(broker))
	if err != nil {
		return err
	}
	defer c.close()

	// Run initial sync.
	c.sync(logger)

	apiRouter := api.NewRouter(c.service, c.store, api.RouterConfig{
		AuthEnabled:  cfg.Auth.AuthEnabled(),
		Token:        cfg.Auth.Token,
		PreferNewTab: cfg.Render.PreferNewTab,
		Events:       broker,
	})

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// File watcher: re-index, rebuild open tabs, notify clients.
	g.Go(func() error {
		err := c.indexer.Watch(gCtx, onLibraryChange(c.workspace, broker, logger))
		if err != nil {
			logger.Error("watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

// documentEvents maps watcher change kinds to SSE event types.
var documentEvents = map[string]string{
	index.Created: sse.DocumentCreated,
	index.Updated: sse.DocumentUpdated,
	index.Deleted: sse.DocumentDeleted,
}

// onLibraryChange rebuilds open tabs for a changed file before clients are
// told about the change, so a client refetching on the event sees the new
// build.
func onLibraryChange(ws *workspace.Workspace, broker *sse.Broker, logger *slog.Logger) index.EventCallback {
	return func(kind, path string) {
		if kind != index.Deleted {
			if n, err := ws.Reload(path); err != nil {
				logger.Warn("reload failed", slog.String("path", path), slog.String("error", err.Error()))
			} else if n > 0 {
				logger.Debug("reloaded tabs", slog.String("path", path), slog.Int("tabs", n))
			}
		}
		broker.PublishDocumentEvent(documentEvents[kind], path)
	}
}

// RunMCP serves the MCP tools on stdin/stdout until stdin closes or ctx is
// cancelled. The index is kept up to date by the file watcher meanwhile.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	if app.logOutput == nil {
		app.logOutput = os.Stderr
	}
	logger := newLogger(app)
	slog.SetDefault(logger)

	c, err := newComponents(app.config, logger, true)
	if err != nil {
		return err
	}
	defer c.close()
	c.sync(logger)

	srv := mcpserver.New(c.service, app.version)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := c.indexer.Watch(gCtx, nil); err != nil {
			logger.Warn("watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})
	g.Go(func() error {
		defer cancel()
		return srv.ServeStdio()
	})
	return g.Wait()
}

// Render writes the document at path to w in format without starting a
// server or touching the index.
func Render(ctx context.Context, w io.Writer, path, format string, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	if app.logOutput == nil {
		app.logOutput = os.Stderr
	}
	c, err := newComponents(app.config, newLogger(app), false)
	if err != nil {
		return err
	}
	out, err := c.service.RenderFile(ctx, path, format)
	if err != nil {
		return err
	}
	if out.Document != nil {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out.Document)
	}
	_, err = io.WriteString(w, out.Body)
	return err
}

// Resolve writes how href is classified when followed from the document at
// from.
func Resolve(ctx context.Context, w io.Writer, from, href string, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	if app.logOutput == nil {
		app.logOutput = os.Stderr
	}
	c, err := newComponents(app.config, newLogger(app), false)
	if err != nil {
		return err
	}
	target, err := c.service.ResolveFrom(ctx, from, href)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(target)
}
