package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolate keeps a developer's own config files and keys out of the test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, names := range legacyEnv {
		for _, name := range names {
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}
	for _, kv := range os.Environ() {
		if name, _, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(name, "BOOKSCAN_") {
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 8888 {
		t.Errorf("port = %d, want 8888", cfg.Server.Port)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("http_timeout = %s, want 30s", cfg.HTTPTimeout)
	}
	if cfg.Vision.Provider != ProviderCloudVision {
		t.Errorf("vision provider = %q", cfg.Vision.Provider)
	}
	if cfg.Catalog.Backend != BackendGoogleBooks || cfg.Catalog.MaxResults != 20 {
		t.Errorf("catalog = %+v", cfg.Catalog)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	isolate(t)
	t.Setenv("TEST_BOOKS_KEY", "books-secret")

	path := filepath.Join(t.TempDir(), "bookscan.yaml")
	content := `
log_level: debug
http_timeout: 5s
server:
  port: 9090
vision:
  provider: ollama
catalog:
  backend: openlibrary
  api_key: ${TEST_BOOKS_KEY}
  max_results: 5
ollama:
  model: llava
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.LogLevel != "debug" || cfg.HTTPTimeout != 5*time.Second || cfg.Server.Port != 9090 {
		t.Errorf("unexpected top level values: %+v", cfg)
	}
	if cfg.Vision.Provider != ProviderOllama || cfg.VisionModel() != "llava" {
		t.Errorf("vision = %+v model %q", cfg.Vision, cfg.VisionModel())
	}
	if cfg.Catalog.Backend != BackendOpenLibrary || cfg.Catalog.MaxResults != 5 {
		t.Errorf("catalog = %+v", cfg.Catalog)
	}
	if cfg.Catalog.APIKey != "books-secret" {
		t.Errorf("catalog api key = %q, want resolved env var", cfg.Catalog.APIKey)
	}
	if cfg.Server.MaxUploadBytes != 10<<20 {
		t.Errorf("max upload bytes should keep its default, got %d", cfg.Server.MaxUploadBytes)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	isolate(t)
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoadEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("BOOKSCAN_SERVER_PORT", "7000")
	t.Setenv("BOOKSCAN_CATALOG_BACKEND", "openlibrary")
	t.Setenv("GOOGLE_API_KEY", "legacy-key")
	t.Setenv("OLLAMA_HOST", "http://gpu-box:11434")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 7000 {
		t.Errorf("port = %d, want 7000", cfg.Server.Port)
	}
	if cfg.Catalog.Backend != BackendOpenLibrary {
		t.Errorf("backend = %q", cfg.Catalog.Backend)
	}
	if cfg.Vision.APIKey != "legacy-key" || cfg.Catalog.APIKey != "legacy-key" {
		t.Errorf("GOOGLE_API_KEY not applied: vision %q catalog %q", cfg.Vision.APIKey, cfg.Catalog.APIKey)
	}
	if cfg.Ollama.URL != "http://gpu-box:11434" {
		t.Errorf("ollama url = %q", cfg.Ollama.URL)
	}
}

func TestPrefixedEnvBeatsLegacy(t *testing.T) {
	isolate(t)
	t.Setenv("GOOGLE_API_KEY", "legacy-key")
	t.Setenv("BOOKSCAN_VISION_API_KEY", "new-key")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Vision.APIKey != "new-key" {
		t.Errorf("vision api key = %q, want new-key", cfg.Vision.APIKey)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"unknown provider", func(c *Config) { c.Vision.Provider = "crystal-ball" }, "vision provider"},
		{"unknown backend", func(c *Config) { c.Catalog.Backend = "library-of-babel" }, "catalog backend"},
		{"zero max results", func(c *Config) { c.Catalog.MaxResults = 0 }, "max_results"},
		{"negative timeout", func(c *Config) { c.HTTPTimeout = -time.Second }, "http_timeout"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"zero upload", func(c *Config) { c.Server.MaxUploadBytes = 0 }, "max_upload_bytes"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "log level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("error %q does not mention %q", err, tt.errMsg)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil {
			t.Errorf("ParseLevel(%q): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestResolveEnvVars(t *testing.T) {
	t.Setenv("BOOKSCAN_TEST_SECRET", "secret123")

	if got := ResolveEnvVars("${BOOKSCAN_TEST_SECRET}"); got != "secret123" {
		t.Errorf("got %q, want secret123", got)
	}
	if got := ResolveEnvVars("${DEFINITELY_NOT_SET_12345}"); got != "" {
		t.Errorf("got %q, want empty", got)
	}
	if got := ResolveEnvVars("literal-value"); got != "literal-value" {
		t.Errorf("got %q, want literal-value", got)
	}
}
