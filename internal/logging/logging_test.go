package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNew_WritesJSONToFile(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	path := filepath.Join(t.TempDir(), "nested", "songdeck.log")

	logger, err := New(Options{Level: "info", Path: path})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("catalog loaded", zap.Int("songs", 13))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("log lines = %d, want 1: %s", len(lines), data)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if entry["severity"] != "INFO" || entry["message"] != "catalog loaded" {
		t.Fatalf("entry = %v, want INFO catalog loaded", entry)
	}
	if entry["songs"] != float64(13) {
		t.Fatalf("songs = %v, want 13", entry["songs"])
	}
}

func TestResolveLevel_EnvOverridesConfig(t *testing.T) {
	t.Setenv("LOG_LEVEL", "DEBUG")
	level, err := resolveLevel("error")
	if err != nil {
		t.Fatalf("resolveLevel returned error: %v", err)
	}
	if level.Level() != zap.DebugLevel {
		t.Fatalf("level = %v, want debug", level.Level())
	}

	t.Setenv("LOG_LEVEL", "nonsense")
	level, err = resolveLevel("warn")
	if err != nil {
		t.Fatalf("resolveLevel returned error: %v", err)
	}
	if level.Level() != zap.WarnLevel {
		t.Fatalf("level = %v, want warn", level.Level())
	}
}

func TestResolveLevel_DefaultsAndRejects(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	level, err := resolveLevel("  ")
	if err != nil {
		t.Fatalf("resolveLevel returned error: %v", err)
	}
	if level.Level() != zap.InfoLevel {
		t.Fatalf("level = %v, want info", level.Level())
	}
	if _, err := resolveLevel("loud"); err == nil {
		t.Fatalf("resolveLevel returned nil error, want error")
	}
	if _, err := New(Options{Level: "loud"}); err == nil {
		t.Fatalf("New returned nil error, want error")
	}
}
