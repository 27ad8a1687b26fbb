package tui

import (
	"context"
	"fmt"
	"strings"
)

// RequestKind is a session lifecycle operation the user asked for.
type RequestKind int

const (
	RequestRename RequestKind = iota
	RequestKill
	RequestNewSession
	RequestDeleteWorktree
)

func (k RequestKind) String() string {
	switch k {
	case RequestRename:
		return "rename"
	case RequestKill:
		return "kill"
	case RequestNewSession:
		return "new-session"
	case RequestDeleteWorktree:
		return "delete-worktree"
	default:
		return "unknown"
	}
}

// Request describes a lifecycle operation on a session, pane or worktree.
type Request struct {
	Kind RequestKind
	// Target is the session name for rename and kill.
	Target string
	// Arg is the new session name for rename and new-session.
	Arg string
	// Path is the working directory for new-session, or the worktree to delete.
	Path string
	// RepoPath is the main checkout that owns the worktree being deleted.
	RepoPath string
}

// RequestHandler performs or reports lifecycle requests. The returned text is
// shown in the status line.
type RequestHandler interface {
	Handle(ctx context.Context, req Request) (string, error)
}

// CommandReporter is a RequestHandler that executes nothing. It answers with
// the shell command that would perform the request.
type CommandReporter struct{}

// Handle returns "run: <command>".
func (CommandReporter) Handle(_ context.Context, req Request) (string, error) {
	cmd, err := Command(req)
	if err != nil {
		return "", err
	}
	return "run: " + cmd, nil
}

// Command returns the shell command equivalent to req.
func Command(req Request) (string, error) {
	switch req.Kind {
	case RequestRename:
		if req.Arg == "" {
			return "", fmt.Errorf("rename: empty session name")
		}
		return join("tmux", "rename-session", "-t", req.Target, req.Arg), nil
	case RequestKill:
		return join("tmux", "kill-session", "-t", req.Target), nil
	case RequestNewSession:
		args := []string{"tmux", "new-session", "-d"}
		if req.Arg != "" {
			args = append(args, "-s", req.Arg)
		}
		if req.Path != "" {
			args = append(args, "-c", req.Path)
		}
		return join(args...), nil
	case RequestDeleteWorktree:
		if req.Path == "" {
			return "", fmt.Errorf("delete worktree: no path")
		}
		if req.RepoPath != "" {
			return join("git", "-C", req.RepoPath, "worktree", "remove", req.Path), nil
		}
		return join("git", "worktree", "remove", req.Path), nil
	default:
		return "", fmt.Errorf("unsupported request %v", req.Kind)
	}
}

func join(args ...string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = shellQuote(a)
	}
	return strings.Join(quoted, " ")
}

// shellQuote single-quotes s unless it only holds characters that are safe
// unquoted in POSIX shells.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || strings.ContainsRune("-_./:%@+=,", r)) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
