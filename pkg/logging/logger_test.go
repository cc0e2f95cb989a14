package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"addpoints/pkg/config"
)

func testLogConfig(dir string) *config.LogConfig {
	return &config.LogConfig{
		Server:   config.LogSettings{Path: filepath.Join(dir, "server.log"), Level: "INFO"},
		Requests: config.LogSettings{Path: filepath.Join(dir, "requests.log"), Level: "DEBUG"},
	}
}

func TestInit_CreatesLogFiles(t *testing.T) {
	dir := t.TempDir()
	cfg := testLogConfig(dir)

	cleanup, err := Init(cfg)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer cleanup()

	slog.Info("hello from test", "key", "value")
	RequestLogger.Info("request log line")

	data, err := os.ReadFile(cfg.Server.Path)
	if err != nil {
		t.Fatalf("server log not created: %v", err)
	}
	if !strings.Contains(string(data), "hello from test") {
		t.Errorf("server log missing entry: %s", data)
	}

	data, err = os.ReadFile(cfg.Requests.Path)
	if err != nil {
		t.Fatalf("requests log not created: %v", err)
	}
	if !strings.Contains(string(data), "request log line") {
		t.Errorf("requests log missing entry: %s", data)
	}
}

func TestInit_RotatesExistingLogs(t *testing.T) {
	dir := t.TempDir()
	cfg := testLogConfig(dir)

	if err := os.WriteFile(cfg.Server.Path, []byte("previous run\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cleanup, err := Init(cfg)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer cleanup()

	old, err := os.ReadFile(cfg.Server.Path + ".old")
	if err != nil {
		t.Fatalf("rotated log missing: %v", err)
	}
	if !strings.Contains(string(old), "previous run") {
		t.Errorf("rotated log content = %q", old)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"Warn", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
