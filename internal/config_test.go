package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/bergen/pkg/config"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestLibraryConfig_BadExtension(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Library.Extensions = []string{".md", "markdown"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("extension without a dot should fail")
	}
}

func TestRenderConfig_EmptyDiagramKeyword(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Render.DiagramKeyword = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty diagram keyword should fail")
	}
}

func TestLoadYAMLOverDefaults(t *testing.T) {
	t.Setenv("BERGEN_TEST_ROOT", "/srv/docs")
	p := filepath.Join(t.TempDir(), "config.yaml")
	body := "library:\n  root: ${BERGEN_TEST_ROOT}\nrender:\n  scroll_delay: 300ms\n  diagram_keyword: graph\n"
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := config.Load(p, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Library.Root != "/srv/docs" {
		t.Errorf("root = %q", cfg.Library.Root)
	}
	if cfg.Render.ScrollDelay != 300*time.Millisecond || cfg.Render.DiagramKeyword != "graph" {
		t.Errorf("render = %+v", cfg.Render)
	}
	if cfg.App.HTTP.Port != 8080 || len(cfg.Library.Extensions) != 2 {
		t.Errorf("defaults lost: %+v", cfg)
	}
}
