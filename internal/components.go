package internal

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/bergen/internal/docservice"
	"github.com/starford/bergen/internal/index"
	"github.com/starford/bergen/internal/markdown"
	"github.com/starford/bergen/internal/navigation"
	"github.com/starford/bergen/internal/render"
	"github.com/starford/bergen/internal/storage"
	"github.com/starford/bergen/internal/workspace"
)

// components are the wired domain services shared by every command.
type components struct {
	store     *storage.FS
	db        *index.DB
	indexer   *index.Indexer
	builder   *markdown.Builder
	workspace *workspace.Workspace
	navigator *navigation.Navigator
	service   *docservice.Service
}

// newComponents wires storage, index, workspace, navigation and the
// document service from cfg. Without withIndex no database is opened and
// index-backed operations must not be used.
func newComponents(cfg *Config, logger *slog.Logger, withIndex bool, wsOpts ...workspace.Option) (*components, error) {
	store, err := storage.NewFS(cfg.Library.Root, cfg.Library.Extensions...)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	c := &components{
		store:   store,
		builder: markdown.NewBuilder(markdown.WithDiagramKeyword(cfg.Render.DiagramKeyword)),
	}

	var docIndex index.DocumentIndex
	if withIndex {
		c.db, err = index.Open(cfg.Index.Path)
		if err != nil {
			return nil, fmt.Errorf("init index: %w", err)
		}
		c.indexer = index.NewIndexer(c.db, store, c.builder, logger)
		docIndex = c.db
	}

	wsOpts = append([]workspace.Option{workspace.WithLogger(logger)}, wsOpts...)
	c.workspace = workspace.New(store, c.builder, wsOpts...)

	c.navigator = navigation.New(
		navigation.NewResolver(store, store.Root()),
		store, c.builder, c.workspace,
		navigation.WithScrollDelay(cfg.Render.ScrollDelay),
		navigation.WithPreferNewTab(cfg.Render.PreferNewTab),
		navigation.WithLogger(logger),
	)

	c.service = docservice.NewService(store, docIndex, c.builder, c.workspace, c.navigator,
		docservice.WithHighlighter(render.NewChroma(cfg.Render.HighlightStyle)),
		docservice.WithDiagramWait(cfg.Render.DiagramWait),
		docservice.WithTextWidth(cfg.Render.TextWidth),
		docservice.WithLogger(logger),
	)
	return c, nil
}

// sync brings the index up to date. Failures are logged, not fatal.
func (c *components) sync(logger *slog.Logger) {
	if c.indexer == nil {
		return
	}
	if err := c.indexer.Sync(); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}
}

func (c *components) close() {
	if c.db != nil {
		_ = c.db.Close()
	}
}

func newLogger(a *application) *slog.Logger {
	out := a.logOutput
	if out == nil {
		out = os.Stdout
	}
	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: a.config.App.LogLevel,
	}))
}

func newApplication(opts []Option) (*application, error) {
	app := &application{version: "dev"}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}
