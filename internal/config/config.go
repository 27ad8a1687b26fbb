// Package config loads claude-panes configuration from file and environment.
//
// Precedence (highest to lowest):
//  1. Environment variables (CLAUDE_PANES_*, OTEL_EXPORTER_OTLP_*)
//  2. Config file
//  3. Built-in defaults
//
// Config file search order, unless a path is given explicitly:
//  1. .claude-panes.yaml in current directory
//  2. ~/.config/claude-panes/config.yaml
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all claude-panes configuration.
type Config struct {
	// Discovery
	Tool         string `yaml:"tool"`          // process name to look for
	CaptureLines int    `yaml:"capture_lines"` // trailing non-blank lines captured per pane
	MaxHops      int    `yaml:"max_hops"`      // ancestry walk bound
	Parallel     int    `yaml:"parallel"`      // concurrent captures and git lookups

	// Refresh and cache
	Refresh     string `yaml:"refresh"`       // Go duration string, e.g. "5s"
	GitCacheTTL string `yaml:"git_cache_ttl"` // Go duration string, e.g. "30s"

	// ExcludeSessions lists session names to hide. A trailing "*" matches a prefix.
	ExcludeSessions []string `yaml:"exclude_sessions"`

	// Presentation
	Theme string `yaml:"theme"` // "dark" (default) or "light"

	// Logging
	LogFile  string `yaml:"log_file"`
	LogLevel string `yaml:"log_level"`

	// OTEL
	OTELEndpoint string `yaml:"otel_endpoint"`
	OTELHeaders  string `yaml:"otel_headers"` // Comma-separated key=value pairs

	// Parsed durations (not from YAML, set after loading)
	RefreshDuration     time.Duration `yaml:"-"`
	GitCacheTTLDuration time.Duration `yaml:"-"`

	// ConfigFile is the path to the config file that was loaded (empty if none).
	ConfigFile string `yaml:"-"`
}

// Defaults returns a Config with all default values.
func Defaults() *Config {
	return &Config{
		Tool:         "claude",
		CaptureLines: 15,
		MaxHops:      64,
		Parallel:     8,
		Refresh:      "5s",
		GitCacheTTL:  "30s",
		Theme:        "dark",
		LogLevel:     "info",
	}
}

const (
	fileName = ".claude-panes.yaml"
	appDir   = "claude-panes"
)

var errNoConfigFile = errors.New("no config file found")

// Load reads configuration from file and environment variables. When path is
// non-empty that file must exist; otherwise the search order applies and a
// missing file is not an error. Environment variables always override file
// values.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	found, data, err := findConfigFile(path)
	switch {
	case err == nil:
		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", found, err)
		}
		cfg.ConfigFile = found
		mergeFile(cfg, &fileCfg)
	case path != "" || !errors.Is(err, errNoConfigFile):
		return nil, err
	}

	if err := mergeEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// finish parses durations and validates numeric settings.
func (c *Config) finish() error {
	var err error
	c.RefreshDuration, err = parseDurationOrDisable(c.Refresh, 5*time.Second)
	if err != nil {
		return fmt.Errorf("invalid refresh interval %q: %w", c.Refresh, err)
	}
	c.GitCacheTTLDuration, err = parseDurationOrDisable(c.GitCacheTTL, 30*time.Second)
	if err != nil {
		return fmt.Errorf("invalid git cache TTL %q: %w", c.GitCacheTTL, err)
	}
	if c.Tool == "" {
		return fmt.Errorf("tool must not be empty")
	}
	if c.CaptureLines <= 0 {
		return fmt.Errorf("capture_lines must be positive, got %d", c.CaptureLines)
	}
	if c.MaxHops <= 0 {
		return fmt.Errorf("max_hops must be positive, got %d", c.MaxHops)
	}
	if c.Parallel <= 0 {
		return fmt.Errorf("parallel must be positive, got %d", c.Parallel)
	}
	return nil
}

// findConfigFile returns the path and contents of the config file.
func findConfigFile(explicit string) (string, []byte, error) {
	if explicit != "" {
		data, err := os.ReadFile(explicit)
		if err != nil {
			return "", nil, fmt.Errorf("reading config file: %w", err)
		}
		return explicit, data, nil
	}

	if data, err := os.ReadFile(fileName); err == nil {
		return fileName, data, nil
	}

	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, ".config", appDir, "config.yaml")
		if data, err := os.ReadFile(path); err == nil {
			return path, data, nil
		}
	}

	return "", nil, errNoConfigFile
}

// mergeFile applies non-zero file values onto cfg.
func mergeFile(cfg *Config, file *Config) {
	if file.Tool != "" {
		cfg.Tool = file.Tool
	}
	if file.CaptureLines != 0 {
		cfg.CaptureLines = file.CaptureLines
	}
	if file.MaxHops != 0 {
		cfg.MaxHops = file.MaxHops
	}
	if file.Parallel != 0 {
		cfg.Parallel = file.Parallel
	}
	if file.Refresh != "" {
		cfg.Refresh = file.Refresh
	}
	if file.GitCacheTTL != "" {
		cfg.GitCacheTTL = file.GitCacheTTL
	}
	if len(file.ExcludeSessions) > 0 {
		cfg.ExcludeSessions = file.ExcludeSessions
	}
	if file.Theme != "" {
		cfg.Theme = file.Theme
	}
	if file.LogFile != "" {
		cfg.LogFile = file.LogFile
	}
	if file.LogLevel != "" {
		cfg.LogLevel = file.LogLevel
	}
	if file.OTELEndpoint != "" {
		cfg.OTELEndpoint = file.OTELEndpoint
	}
	if file.OTELHeaders != "" {
		cfg.OTELHeaders = file.OTELHeaders
	}
}

const envPrefix = "CLAUDE_PANES_"

// mergeEnv applies environment variables onto cfg. Env always wins.
func mergeEnv(cfg *Config) error {
	strs := map[string]*string{
		"TOOL":          &cfg.Tool,
		"REFRESH":       &cfg.Refresh,
		"GIT_CACHE_TTL": &cfg.GitCacheTTL,
		"THEME":         &cfg.Theme,
		"LOG_FILE":      &cfg.LogFile,
		"LOG_LEVEL":     &cfg.LogLevel,
	}
	for key, dst := range strs {
		if v := os.Getenv(envPrefix + key); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"CAPTURE_LINES": &cfg.CaptureLines,
		"MAX_HOPS":      &cfg.MaxHops,
		"PARALLEL":      &cfg.Parallel,
	}
	for key, dst := range ints {
		v := os.Getenv(envPrefix + key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s %q: %w", envPrefix, key, v, err)
		}
		*dst = n
	}

	if v := os.Getenv(envPrefix + "EXCLUDE_SESSIONS"); v != "" {
		cfg.ExcludeSessions = splitList(v)
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		cfg.OTELEndpoint = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"); v != "" {
		cfg.OTELHeaders = v
	}
	return nil
}

// splitList splits a comma-separated list, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseDurationOrDisable parses a duration string. "0", "off", "disable" return 0.
// Empty string returns the fallback value.
func parseDurationOrDisable(s string, fallback time.Duration) (time.Duration, error) {
	if s == "" {
		return fallback, nil
	}
	if s == "0" || s == "off" || s == "disable" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration")
	}
	return d, nil
}

// MatchesExcludeList reports whether name matches any pattern. A pattern
// ending in "*" matches by prefix; any other pattern must match exactly.
func MatchesExcludeList(name string, patterns []string) bool {
	for _, p := range patterns {
		if prefix, ok := strings.CutSuffix(p, "*"); ok {
			if strings.HasPrefix(name, prefix) {
				return true
			}
			continue
		}
		if name == p {
			return true
		}
	}
	return false
}

// Excluded reports whether the session should be hidden.
func (c *Config) Excluded(session string) bool {
	return MatchesExcludeList(session, c.ExcludeSessions)
}
