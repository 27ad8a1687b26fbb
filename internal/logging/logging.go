// Package logging builds the JSON slog logger shared by every command.
//
// The watch UI owns the terminal, so it logs to a file. One-shot commands log
// to stderr.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Options configures New.
type Options struct {
	// File is the log file path. Empty means stderr.
	File string
	// Level is debug, info, warn or error. Unrecognized values mean info.
	Level string
	// RunID is attached to every record as run_id when set.
	RunID string
}

// New creates a JSON logger. The returned closer releases the log file and is
// never nil.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	var w io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating log directory: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		w, closer = f, f
	}

	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(opts.Level)}))
	if opts.RunID != "" {
		logger = logger.With("run_id", opts.RunID)
	}
	return logger, closer, nil
}

// ParseLevel converts a level name to slog.Level. Defaults to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// DefaultFile returns the log file used by the watch UI when none is
// configured: $XDG_STATE_HOME/claude-panes/claude-panes.log, falling back to
// ~/.local/state.
func DefaultFile() string {
	dir := os.Getenv("XDG_STATE_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "claude-panes.log")
		}
		dir = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(dir, "claude-panes", "claude-panes.log")
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
