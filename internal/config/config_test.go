package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Backend.BaseURL != "https://explore.wonderlens.app" {
		t.Errorf("unexpected default base URL: %s", cfg.Backend.BaseURL)
	}
	if cfg.Chat.MaxContextRounds != 10 {
		t.Errorf("unexpected default context rounds: %d", cfg.Chat.MaxContextRounds)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestLoadOverlaysYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `backend:
  base_url: http://localhost:9000
  timeout: 5s
chat:
  max_context_rounds: 3
speech:
  language: en
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Backend.BaseURL != "http://localhost:9000" {
		t.Errorf("base URL not overlaid: %s", cfg.Backend.BaseURL)
	}
	if cfg.BackendTimeout() != 5*time.Second {
		t.Errorf("timeout not overlaid: %v", cfg.BackendTimeout())
	}
	if cfg.Chat.MaxContextRounds != 3 {
		t.Errorf("context rounds not overlaid: %d", cfg.Chat.MaxContextRounds)
	}
	// Fields the file omits keep their defaults.
	if cfg.Backend.MaxRetries != 3 {
		t.Errorf("max retries lost its default: %d", cfg.Backend.MaxRetries)
	}
}

func TestEnvOverridesWinLast(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("backend:\n  base_url: http://from-file\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("WONDERLENS_BACKEND_URL", "http://from-env")
	t.Setenv("WONDERLENS_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Backend.BaseURL != "http://from-env" {
		t.Errorf("env must beat file: %s", cfg.Backend.BaseURL)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level not overridden: %s", cfg.Logging.Level)
	}
}

func TestLoggingCategoriesParseAsEnableMap(t *testing.T) {
	// The logging package reads this same section as a per-category
	// enable map; the map form must load here too.
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `logging:
  debug_mode: true
  categories:
    stream: false
    store: true
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !cfg.Logging.DebugMode {
		t.Error("debug_mode not loaded")
	}
	if enabled, ok := cfg.Logging.Categories["stream"]; !ok || enabled {
		t.Errorf("categories map not loaded: %v", cfg.Logging.Categories)
	}
	if enabled := cfg.Logging.Categories["store"]; !enabled {
		t.Errorf("store category should be enabled: %v", cfg.Logging.Categories)
	}
}

func TestBackendTimeoutFallsBackOnGarbage(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend.Timeout = "soon"
	if cfg.BackendTimeout() != 30*time.Second {
		t.Errorf("expected 30s fallback, got %v", cfg.BackendTimeout())
	}
}

func TestValidateRejectsBadLanguage(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Speech.Language = "fr"
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for unsupported language")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Backend.BaseURL = "http://localhost:7777"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Backend.BaseURL != "http://localhost:7777" {
		t.Errorf("round trip lost base URL: %s", loaded.Backend.BaseURL)
	}
}
