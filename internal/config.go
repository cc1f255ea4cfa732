package internal

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/bergen/internal/markdown"
	"github.com/starford/bergen/internal/render"
	"github.com/starford/bergen/internal/storage"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Library LibraryConfig     `yaml:"library"`
	Index   IndexConfig       `yaml:"index"`
	Render  RenderConfig      `yaml:"render"`
	Events  EventsConfig      `yaml:"events"`
	Auth    AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Library.Validate(); err != nil {
		return err
	}
	if err := c.Index.Validate(); err != nil {
		return err
	}
	if err := c.Render.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// LibraryConfig describes the directory of Markdown documents.
type LibraryConfig struct {
	Root       string   `yaml:"root"`
	Extensions []string `yaml:"extensions"`
}

// Validate validates the library configuration.
func (c *LibraryConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
		validation.Field(&c.Extensions, validation.Each(validation.By(isExtension))),
	)
}

func isExtension(v any) error {
	s, _ := v.(string)
	if !strings.HasPrefix(s, ".") || len(s) < 2 {
		return fmt.Errorf("extension %q must start with a dot", s)
	}
	return nil
}

// IndexConfig holds SQLite index configuration.
type IndexConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the index configuration.
func (c *IndexConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// RenderConfig controls document building, rendering and navigation.
type RenderConfig struct {
	DiagramKeyword string        `yaml:"diagram_keyword"`
	HighlightStyle string        `yaml:"highlight_style"`
	TextWidth      int           `yaml:"text_width"`
	ScrollDelay    time.Duration `yaml:"scroll_delay"`
	DiagramWait    time.Duration `yaml:"diagram_wait"`
	PreferNewTab   bool          `yaml:"prefer_new_tab"`
}

// Validate validates the render configuration.
func (c *RenderConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DiagramKeyword, validation.Required),
		validation.Field(&c.TextWidth, validation.Min(20)),
		validation.Field(&c.ScrollDelay, validation.Min(time.Duration(0))),
		validation.Field(&c.DiagramWait, validation.Min(time.Duration(0))),
	)
}

// EventsConfig controls the Server-Sent Events stream.
type EventsConfig struct {
	TreeThrottle time.Duration `yaml:"tree_throttle"`
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Library: LibraryConfig{
			Root:       ".",
			Extensions: append([]string(nil), storage.DefaultExtensions...),
		},
		Index: IndexConfig{
			Path: "./bergen.db",
		},
		Render: RenderConfig{
			DiagramKeyword: markdown.DefaultDiagramKeyword,
			HighlightStyle: render.DefaultHighlightStyle,
			TextWidth:      render.DefaultTextWidth,
			ScrollDelay:    150 * time.Millisecond,
			DiagramWait:    2 * time.Second,
			PreferNewTab:   true,
		},
		Events: EventsConfig{
			TreeThrottle: 2 * time.Second,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
