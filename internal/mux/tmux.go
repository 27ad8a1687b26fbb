package mux

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/timvw/claude-panes/internal/model"
)

// fieldSeparator delimits tmux -F fields. The ASCII unit separator cannot
// appear in session names or paths in practice, unlike tabs.
const fieldSeparator = "\x1f"

var listPanesFields = []string{
	"#{session_id}",
	"#{session_name}",
	"#{session_attached}",
	"#{window_id}",
	"#{window_index}",
	"#{window_name}",
	"#{pane_id}",
	"#{pane_index}",
	"#{pane_pid}",
	"#{pane_current_path}",
}

// Tmux implements the Multiplexer interface for tmux.
type Tmux struct {
	// Bin is the tmux binary. Defaults to "tmux" on PATH.
	Bin string
}

// NewTmux creates a new tmux multiplexer.
func NewTmux() *Tmux {
	return &Tmux{Bin: "tmux"}
}

// Name returns "tmux".
func (t *Tmux) Name() string {
	return "tmux"
}

// ListPanes returns all panes of all sessions with one "list-panes -a" call.
// A server with no sessions yields an empty list, not an error.
func (t *Tmux) ListPanes(ctx context.Context) ([]model.PaneFact, error) {
	out, err := t.run(ctx, "list-panes", "-a", "-F", strings.Join(listPanesFields, fieldSeparator))
	if err != nil {
		if isNoServer(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("tmux list-panes: %w", err)
	}
	return parseListPanes(out), nil
}

// CapturePane captures the pane with -p (stdout), -J (join wrapped lines) and
// -e (keep escape sequences), then keeps the last lines non-blank lines.
func (t *Tmux) CapturePane(ctx context.Context, paneID string, lines int) (string, error) {
	out, err := t.run(ctx, "capture-pane", "-t", paneID, "-p", "-J", "-e")
	if err != nil {
		return "", fmt.Errorf("tmux capture-pane -t %s: %w", paneID, err)
	}
	return tailNonBlank(out, lines), nil
}

// SwitchTo switches the current tmux client to the pane.
func (t *Tmux) SwitchTo(ctx context.Context, paneID string) error {
	if _, err := t.run(ctx, "switch-client", "-t", paneID); err != nil {
		return fmt.Errorf("tmux switch-client -t %s: %w", paneID, err)
	}
	return nil
}

// run executes a tmux command and returns its stdout.
func (t *Tmux) run(ctx context.Context, args ...string) (string, error) {
	bin := t.Bin
	if bin == "" {
		bin = "tmux"
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", &commandError{err: err, stderr: strings.TrimSpace(string(exitErr.Stderr))}
		}
		return "", err
	}
	return string(out), nil
}

type commandError struct {
	err    error
	stderr string
}

func (e *commandError) Error() string {
	if e.stderr == "" {
		return e.err.Error()
	}
	return fmt.Sprintf("%v: %s", e.err, e.stderr)
}

func (e *commandError) Unwrap() error { return e.err }

// isNoServer reports whether tmux failed only because nothing is running.
// A socket that exists but cannot be reached (e.g. permission denied) is an
// unreachable server, not an empty one.
func isNoServer(err error) bool {
	var ce *commandError
	if !errors.As(err, &ce) {
		return false
	}
	if strings.Contains(ce.stderr, "error connecting to") {
		return strings.Contains(ce.stderr, "No such file or directory")
	}
	return strings.Contains(ce.stderr, "no server running") ||
		strings.Contains(ce.stderr, "no sessions")
}

// parseListPanes parses list-panes output produced with listPanesFields.
// Lines with the wrong field count or a non-numeric index are skipped.
func parseListPanes(out string) []model.PaneFact {
	var panes []model.PaneFact
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.SplitN(line, fieldSeparator, len(listPanesFields))
		if len(parts) != len(listPanesFields) {
			continue
		}
		window, err := strconv.Atoi(parts[4])
		if err != nil {
			continue
		}
		pane, err := strconv.Atoi(parts[7])
		if err != nil {
			continue
		}
		if !strings.HasPrefix(parts[6], "%") {
			continue
		}
		// pane_pid can be empty for a dead pane.
		pid, _ := strconv.Atoi(parts[8])
		// session_attached is a client count, not a flag.
		attached, _ := strconv.Atoi(parts[2])

		panes = append(panes, model.PaneFact{
			SessionID:  parts[0],
			Session:    parts[1],
			Attached:   attached > 0,
			WindowID:   parts[3],
			Window:     window,
			WindowName: parts[5],
			PaneID:     parts[6],
			Pane:       pane,
			PID:        pid,
			Path:       parts[9],
		})
	}
	return panes
}

// tailNonBlank drops blank lines and returns the last n remaining lines.
// n <= 0 keeps every non-blank line.
func tailNonBlank(content string, n int) string {
	var kept []string
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		kept = append(kept, strings.TrimRight(line, "\r"))
	}
	if n > 0 && len(kept) > n {
		kept = kept[len(kept)-n:]
	}
	return strings.Join(kept, "\n")
}
