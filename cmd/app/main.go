package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/bergen/internal"
	"github.com/starford/bergen/internal/docservice"
	pkgconfig "github.com/starford/bergen/pkg/config"
)

var version = "dev"

// loadConfig reads the config file named by --config. A missing file keeps
// the defaults; --root overrides the library root.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if root := cmd.String("root"); root != "" {
		cfg.Library.Root = root
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg), internal.WithVersion(version)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.RunMCP(ctx, internal.WithConfig(cfg), internal.WithVersion(version)); err != nil {
		return fmt.Errorf("mcp server error: %w", err)
	}
	return nil
}

func render(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("render: expected exactly one FILE argument")
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.Render(ctx, os.Stdout, cmd.Args().First(), cmd.String("format"), internal.WithConfig(cfg))
}

func resolve(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("resolve: expected exactly one HREF argument")
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.Resolve(ctx, os.Stdout, cmd.String("from"), cmd.Args().First(), internal.WithConfig(cfg))
}

func main() {
	cmd := &cli.Command{
		Name:    "bergen",
		Usage:   "Markdown library viewer: tabs, rendering, link navigation and live reload",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Library root directory (overrides library.root)",
				Sources: cli.EnvVars("BERGEN_LIBRARY_ROOT"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the HTTP API and live-reload event stream",
				Action: serve,
			},
			{
				Name:      "render",
				Usage:     "Render one document to stdout",
				ArgsUsage: "FILE",
				Action:    render,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format: html, text or json",
						Value:   docservice.FormatText,
					},
				},
			},
			{
				Name:      "resolve",
				Usage:     "Show how a link is classified when followed from a document",
				ArgsUsage: "HREF",
				Action:    resolve,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "from",
						Usage:    "Document containing the link, relative to the library root",
						Required: true,
					},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: serveMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
