package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func resetLogging() {
	CloseAll()
	logsDir = ""
	dataDir = ""
	config = loggingConfig{}
	logLevel = LevelInfo
}

func TestInitializeWithoutConfigIsProductionMode(t *testing.T) {
	defer resetLogging()
	dir := t.TempDir()

	if err := Initialize(dir); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if IsDebugMode() {
		t.Error("expected debug mode off without config")
	}
	// No logs dir should be created in production mode.
	if _, err := os.Stat(filepath.Join(dir, "logs")); !os.IsNotExist(err) {
		t.Error("logs directory should not exist in production mode")
	}
}

func TestDebugModeWritesCategoryFile(t *testing.T) {
	defer resetLogging()
	dir := t.TempDir()
	writeConfig(t, dir, "logging:\n  debug_mode: true\n  level: debug\n")

	if err := Initialize(dir); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if !IsDebugMode() {
		t.Fatal("expected debug mode on")
	}

	Store("store message %d", 42)
	CloseAll()

	entries, err := os.ReadDir(filepath.Join(dir, "logs"))
	if err != nil {
		t.Fatalf("read logs dir: %v", err)
	}
	found := false
	for _, e := range entries {
		if strings.Contains(e.Name(), "store") {
			found = true
			data, _ := os.ReadFile(filepath.Join(dir, "logs", e.Name()))
			if !strings.Contains(string(data), "store message 42") {
				t.Errorf("log file missing message: %s", data)
			}
		}
	}
	if !found {
		t.Error("no store category log file created")
	}
}

func TestCategoryFilter(t *testing.T) {
	defer resetLogging()
	dir := t.TempDir()
	writeConfig(t, dir, "logging:\n  debug_mode: true\n  level: debug\n  categories:\n    stream: false\n")

	if err := Initialize(dir); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	if IsCategoryEnabled(CategoryStream) {
		t.Error("stream category should be disabled")
	}
	if !IsCategoryEnabled(CategoryStore) {
		t.Error("store category should default to enabled")
	}
}
