package config

import (
	"os"
	"path/filepath"
	"testing"
)

// isolate clears the environment and config search locations so only what a
// test sets is visible to Load.
func isolate(t *testing.T) string {
	t.Helper()
	for _, key := range []string{
		"TOOL", "CAPTURE_LINES", "MAX_HOPS", "PARALLEL", "REFRESH", "GIT_CACHE_TTL",
		"EXCLUDE_SESSIONS", "THEME", "LOG_FILE", "LOG_LEVEL",
	} {
		t.Setenv(envPrefix+key, "")
	}
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "")

	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	return dir
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Tool != "claude" {
		t.Errorf("Tool: got %q, want %q", cfg.Tool, "claude")
	}
	if cfg.CaptureLines != 15 {
		t.Errorf("CaptureLines: got %d, want %d", cfg.CaptureLines, 15)
	}
	if cfg.MaxHops != 64 {
		t.Errorf("MaxHops: got %d, want %d", cfg.MaxHops, 64)
	}
	if cfg.Parallel != 8 {
		t.Errorf("Parallel: got %d, want %d", cfg.Parallel, 8)
	}
	if cfg.Refresh != "5s" {
		t.Errorf("Refresh: got %q, want %q", cfg.Refresh, "5s")
	}
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.ConfigFile != "" {
		t.Errorf("ConfigFile: got %q, want empty", cfg.ConfigFile)
	}
	if cfg.RefreshDuration.Seconds() != 5 {
		t.Errorf("RefreshDuration: got %v, want 5s", cfg.RefreshDuration)
	}
	if cfg.GitCacheTTLDuration.Seconds() != 30 {
		t.Errorf("GitCacheTTLDuration: got %v, want 30s", cfg.GitCacheTTLDuration)
	}
}

func TestMatchesExcludeList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		patterns []string
		want     bool
	}{
		{
			name:     "exact match",
			input:    "my-session",
			patterns: []string{"my-session"},
			want:     true,
		},
		{
			name:     "exact no match",
			input:    "my-session",
			patterns: []string{"other-session"},
			want:     false,
		},
		{
			name:     "prefix glob match",
			input:    "scratch-1234-feature",
			patterns: []string{"scratch-*"},
			want:     true,
		},
		{
			name:     "prefix glob no match",
			input:    "my-session",
			patterns: []string{"scratch-*"},
			want:     false,
		},
		{
			name:     "prefix glob exact prefix",
			input:    "scratch-",
			patterns: []string{"scratch-*"},
			want:     true,
		},
		{
			name:     "empty patterns",
			input:    "anything",
			patterns: []string{},
			want:     false,
		},
		{
			name:     "nil patterns",
			input:    "anything",
			patterns: nil,
			want:     false,
		},
		{
			name:     "multiple patterns first match",
			input:    "scratch-999",
			patterns: []string{"foo", "scratch-*", "bar"},
			want:     true,
		},
		{
			name:     "multiple patterns last match",
			input:    "bar",
			patterns: []string{"foo", "scratch-*", "bar"},
			want:     true,
		},
		{
			name:     "star only matches everything",
			input:    "anything",
			patterns: []string{"*"},
			want:     true,
		},
		{
			name:     "empty name with star",
			input:    "",
			patterns: []string{"*"},
			want:     true,
		},
		{
			name:     "empty name no match",
			input:    "",
			patterns: []string{"foo"},
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchesExcludeList(tt.input, tt.patterns)
			if got != tt.want {
				t.Errorf("MatchesExcludeList(%q, %v) = %v, want %v",
					tt.input, tt.patterns, got, tt.want)
			}
		})
	}
}

func TestParseDurationOrDisable(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMs  int64 // milliseconds, -1 means check error
		wantErr bool
	}{
		{"empty returns fallback", "", 5000, false},
		{"zero disables", "0", 0, false},
		{"off disables", "off", 0, false},
		{"disable disables", "disable", 0, false},
		{"valid duration", "30s", 30000, false},
		{"valid short duration", "500ms", 500, false},
		{"invalid", "not-a-duration", 0, true},
		{"negative", "-5s", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDurationOrDisable(tt.input, 5000*1e6) // 5s fallback in ns
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseDurationOrDisable(%q): error = %v, wantErr = %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got.Milliseconds() != tt.wantMs {
				t.Errorf("parseDurationOrDisable(%q) = %v, want %dms", tt.input, got, tt.wantMs)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := isolate(t)
	content := `tool: claude-dev
capture_lines: 30
max_hops: 16
parallel: 4
refresh: "10s"
git_cache_ttl: "off"
exclude_sessions:
  - "scratch-*"
  - "private"
theme: light
`
	if err := os.WriteFile(filepath.Join(dir, ".claude-panes.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.ConfigFile != ".claude-panes.yaml" {
		t.Errorf("ConfigFile: got %q", cfg.ConfigFile)
	}
	if cfg.Tool != "claude-dev" {
		t.Errorf("Tool: got %q, want %q", cfg.Tool, "claude-dev")
	}
	if cfg.CaptureLines != 30 || cfg.MaxHops != 16 || cfg.Parallel != 4 {
		t.Errorf("numeric settings: got %d %d %d", cfg.CaptureLines, cfg.MaxHops, cfg.Parallel)
	}
	if cfg.RefreshDuration.Seconds() != 10 {
		t.Errorf("RefreshDuration: got %v, want 10s", cfg.RefreshDuration)
	}
	if cfg.GitCacheTTLDuration != 0 {
		t.Errorf("GitCacheTTLDuration: got %v, want disabled", cfg.GitCacheTTLDuration)
	}
	if cfg.Theme != "light" {
		t.Errorf("Theme: got %q", cfg.Theme)
	}
	if len(cfg.ExcludeSessions) != 2 {
		t.Fatalf("ExcludeSessions: got %d entries, want 2", len(cfg.ExcludeSessions))
	}
	if !cfg.Excluded("scratch-42") || !cfg.Excluded("private") || cfg.Excluded("work") {
		t.Errorf("Excluded: unexpected result for %v", cfg.ExcludeSessions)
	}
}

func TestLoadFromHomeConfig(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, ".config", "claude-panes", "config.yaml")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("parallel: 3\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Parallel != 3 {
		t.Errorf("Parallel: got %d, want 3", cfg.Parallel)
	}
	if cfg.ConfigFile != path {
		t.Errorf("ConfigFile: got %q, want %q", cfg.ConfigFile, path)
	}
}

func TestLoad_ExplicitPath(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(path, []byte("max_hops: 8\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.MaxHops != 8 {
		t.Errorf("MaxHops: got %d, want 8", cfg.MaxHops)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	content := `tool: from-file
parallel: 2
exclude_sessions: ["a"]
`
	if err := os.WriteFile(filepath.Join(dir, ".claude-panes.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CLAUDE_PANES_TOOL", "from-env")
	t.Setenv("CLAUDE_PANES_PARALLEL", "12")
	t.Setenv("CLAUDE_PANES_EXCLUDE_SESSIONS", "x, y*,")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4318")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Tool != "from-env" {
		t.Errorf("Tool: got %q, want %q (env should override file)", cfg.Tool, "from-env")
	}
	if cfg.Parallel != 12 {
		t.Errorf("Parallel: got %d, want 12 (env should override file)", cfg.Parallel)
	}
	if len(cfg.ExcludeSessions) != 2 || cfg.ExcludeSessions[1] != "y*" {
		t.Errorf("ExcludeSessions: got %v", cfg.ExcludeSessions)
	}
	if cfg.OTELEndpoint != "http://localhost:4318" {
		t.Errorf("OTELEndpoint: got %q", cfg.OTELEndpoint)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		file string
		env  map[string]string
	}{
		{name: "bad yaml", file: "parallel: [1"},
		{name: "bad refresh", file: "refresh: soon"},
		{name: "bad cache ttl", file: "git_cache_ttl: -1s"},
		{name: "negative capture lines", file: "capture_lines: -3"},
		{name: "negative parallel", file: "parallel: -1"},
		{name: "non-numeric env", env: map[string]string{"CLAUDE_PANES_MAX_HOPS": "many"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			if tt.file != "" {
				if err := os.WriteFile(filepath.Join(dir, ".claude-panes.yaml"), []byte(tt.file), 0644); err != nil {
					t.Fatal(err)
				}
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(""); err == nil {
				t.Error("expected error")
			}
		})
	}
}
