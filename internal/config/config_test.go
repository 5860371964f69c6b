package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestFindConfig_Explicit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	os.WriteFile(path, []byte("log_level: debug\n"), 0600)

	got, err := FindConfig(path)
	if err != nil {
		t.Fatalf("FindConfig(%q) error: %v", path, err)
	}
	if got != path {
		t.Errorf("FindConfig(%q) = %q, want %q", path, got, path)
	}
}

func TestFindConfig_ExplicitMissing(t *testing.T) {
	_, err := FindConfig("/nonexistent/config.yaml")
	if err == nil {
		t.Fatal("FindConfig with missing explicit path should error")
	}
}

func TestFindConfig_CWD(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte("log_level: info\n"), 0600)

	orig, _ := os.Getwd()
	os.Chdir(dir)
	defer os.Chdir(orig)

	got, err := FindConfig("")
	if err != nil {
		t.Fatalf("FindConfig(\"\") error: %v", err)
	}
	if got != "config.yaml" {
		t.Errorf("FindConfig(\"\") = %q, want %q", got, "config.yaml")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte(`
endpoint:
  url: https://example.com/mcp
  timeout_sec: 10
journal:
  enabled: true
  path: /tmp/j.db
log_level: trace
`), 0600)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Endpoint.URL != "https://example.com/mcp" {
		t.Errorf("Endpoint.URL = %q", cfg.Endpoint.URL)
	}
	if cfg.Endpoint.TimeoutSec != 10 {
		t.Errorf("Endpoint.TimeoutSec = %d, want 10", cfg.Endpoint.TimeoutSec)
	}
	if !cfg.Journal.Enabled {
		t.Error("Journal.Enabled = false, want true")
	}
	if cfg.Journal.Path != "/tmp/j.db" {
		t.Errorf("Journal.Path = %q", cfg.Journal.Path)
	}
	if cfg.LogLevel != "trace" {
		t.Errorf("LogLevel = %q, want trace", cfg.LogLevel)
	}
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte("log_level: warn\n"), 0600)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Endpoint.URL != DefaultEndpointURL {
		t.Errorf("Endpoint.URL = %q, want default", cfg.Endpoint.URL)
	}
	if cfg.Endpoint.TimeoutSec != DefaultTimeoutSec {
		t.Errorf("Endpoint.TimeoutSec = %d, want %d", cfg.Endpoint.TimeoutSec, DefaultTimeoutSec)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("RELAY_TEST_URL", "https://env.example.com/mcp")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte("endpoint:\n  url: ${RELAY_TEST_URL}\n"), 0600)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Endpoint.URL != "https://env.example.com/mcp" {
		t.Errorf("Endpoint.URL = %q, want env-expanded value", cfg.Endpoint.URL)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"info", slog.LevelInfo, false},
		{"INFO", slog.LevelInfo, false},
		{"trace", LevelTrace, false},
		{"debug", slog.LevelDebug, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{" debug ", slog.LevelDebug, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLogLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestReplaceLogLevelNames(t *testing.T) {
	a := slog.Attr{Key: slog.LevelKey, Value: slog.AnyValue(LevelTrace)}
	got := ReplaceLogLevelNames(nil, a)
	if got.Value.String() != "TRACE" {
		t.Errorf("trace level renders as %q, want TRACE", got.Value.String())
	}

	b := slog.Attr{Key: slog.LevelKey, Value: slog.AnyValue(slog.LevelInfo)}
	got = ReplaceLogLevelNames(nil, b)
	if got.Value.Any() != slog.LevelInfo {
		t.Errorf("info level was altered: %v", got.Value)
	}
}
