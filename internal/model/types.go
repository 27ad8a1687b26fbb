// Package model holds the data types shared by the inventory, classification,
// loading and registry packages.
package model

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
)

// PaneFact is one multiplexer pane as reported by a single inventory call.
type PaneFact struct {
	// SessionID is the multiplexer session id (e.g., "$3").
	SessionID string `json:"session_id"`
	// Session is the session name.
	Session string `json:"session"`
	// Attached is true when at least one client is attached to the session.
	Attached bool `json:"attached"`
	// WindowID is the window id (e.g., "@4").
	WindowID string `json:"window_id"`
	// Window is the window index.
	Window int `json:"window"`
	// WindowName is the window name.
	WindowName string `json:"window_name"`
	// PaneID is the globally unique pane id (e.g., "%12").
	PaneID string `json:"pane_id"`
	// Pane is the pane index within its window.
	Pane int `json:"pane"`
	// PID is the pid of the pane's leaf process (usually the shell).
	PID int `json:"pid"`
	// Path is the pane's current working directory.
	Path string `json:"path"`
	// Tail is the captured trailing text. Only filled for candidate panes.
	Tail string `json:"tail,omitempty"`
}

// Target returns the "session:window.pane" form of the pane address.
func (p PaneFact) Target() string {
	return fmt.Sprintf("%s:%d.%d", p.Session, p.Window, p.Pane)
}

// ProcessFact is one process from a system process snapshot.
type ProcessFact struct {
	PID  int `json:"pid"`
	PPID int `json:"ppid"`
	// Command is the basename of argv[0].
	Command string `json:"command"`
	// Args is the full command line.
	Args string `json:"args,omitempty"`
}

// Status is the runtime status of a Claude Code instance, derived from the
// visible content of its pane.
type Status int

const (
	StatusUnknown Status = iota
	StatusIdle
	StatusWorking
	StatusWaitingInput
)

// Symbol returns the single-glyph display symbol for the status.
func (s Status) Symbol() string {
	switch s {
	case StatusIdle:
		return "○"
	case StatusWorking:
		return "●"
	case StatusWaitingInput:
		return "◐"
	default:
		return "?"
	}
}

// Label returns the short display label for the status.
func (s Status) Label() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusWorking:
		return "working"
	case StatusWaitingInput:
		return "input"
	default:
		return "unknown"
	}
}

func (s Status) String() string { return s.Label() }

// MarshalText encodes the status as its label.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.Label()), nil
}

// UnmarshalText decodes a status label. Unrecognized labels decode to StatusUnknown.
func (s *Status) UnmarshalText(b []byte) error {
	switch string(b) {
	case "idle":
		*s = StatusIdle
	case "working":
		*s = StatusWorking
	case "input":
		*s = StatusWaitingInput
	default:
		*s = StatusUnknown
	}
	return nil
}

// GitContext describes the git state of an instance's working directory.
type GitContext struct {
	// Branch is the current branch, or a short commit hash when detached.
	Branch string `json:"branch"`
	// HasStaged is true when the index has changes ready to commit.
	HasStaged bool `json:"has_staged"`
	// HasUnstaged is true when the working tree has uncommitted changes.
	HasUnstaged bool `json:"has_unstaged"`
	// IsWorktree is true when the directory is a linked worktree, not the main checkout.
	IsWorktree bool `json:"is_worktree"`
	// MainRepoPath is the main checkout of a linked worktree. Empty otherwise.
	MainRepoPath string `json:"main_repo_path,omitempty"`
	HasUpstream  bool   `json:"has_upstream"`
	HasRemote    bool   `json:"has_remote"`
	Ahead        int    `json:"ahead"`
	Behind       int    `json:"behind"`
}

// Dirty reports whether there are staged or unstaged changes.
func (g GitContext) Dirty() bool {
	return g.HasStaged || g.HasUnstaged
}

// GitState is the enrichment state of an instance.
type GitState int

const (
	// GitPending means enrichment has not been attempted yet.
	GitPending GitState = iota
	// GitNotRepo means enrichment ran and the path is not a git repository.
	GitNotRepo
	// GitResolved means enrichment ran and produced a GitContext.
	GitResolved
)

func (s GitState) String() string {
	switch s {
	case GitNotRepo:
		return "not_repo"
	case GitResolved:
		return "resolved"
	default:
		return "pending"
	}
}

// GitInfo is the tri-state enrichment result. The zero value is pending.
// Context is only meaningful when State is GitResolved.
type GitInfo struct {
	state GitState
	ctx   GitContext
}

// GitNotRepoInfo returns the "attempted, not a repository" state.
func GitNotRepoInfo() GitInfo {
	return GitInfo{state: GitNotRepo}
}

// GitResolvedInfo returns the "attempted, resolved" state carrying ctx.
func GitResolvedInfo(ctx GitContext) GitInfo {
	return GitInfo{state: GitResolved, ctx: ctx}
}

// State returns the enrichment state.
func (g GitInfo) State() GitState { return g.state }

// Context returns the git context and true only when resolved.
func (g GitInfo) Context() (GitContext, bool) {
	if g.state != GitResolved {
		return GitContext{}, false
	}
	return g.ctx, true
}

type gitInfoJSON struct {
	State   string      `json:"state"`
	Context *GitContext `json:"context,omitempty"`
}

// MarshalJSON encodes the state explicitly so consumers never have to infer
// "pending" from a missing field.
func (g GitInfo) MarshalJSON() ([]byte, error) {
	out := gitInfoJSON{State: g.state.String()}
	if c, ok := g.Context(); ok {
		out.Context = &c
	}
	return json.Marshal(out)
}

// Instance is a Claude Code process attributed to a pane. Identity is PaneID.
type Instance struct {
	PaneID     string `json:"pane_id"`
	SessionID  string `json:"session_id"`
	Session    string `json:"session"`
	Attached   bool   `json:"attached"`
	WindowID   string `json:"window_id"`
	Window     int    `json:"window"`
	WindowName string `json:"window_name"`
	Pane       int    `json:"pane"`
	// Path is the pane's working directory.
	Path string `json:"path"`
	// PID is the matched Claude Code process.
	PID    int     `json:"pid"`
	Status Status  `json:"status"`
	Git    GitInfo `json:"git"`
}

// Target returns the "session:window.pane" form of the instance's pane.
func (i Instance) Target() string {
	return fmt.Sprintf("%s:%d.%d", i.Session, i.Window, i.Pane)
}

// NewInstance builds a pending-enrichment instance from a pane and the
// process matched to it.
func NewInstance(p PaneFact, proc ProcessFact, status Status) Instance {
	return Instance{
		PaneID:     p.PaneID,
		SessionID:  p.SessionID,
		Session:    p.Session,
		Attached:   p.Attached,
		WindowID:   p.WindowID,
		Window:     p.Window,
		WindowName: p.WindowName,
		Pane:       p.Pane,
		Path:       p.Path,
		PID:        proc.PID,
		Status:     status,
	}
}

// CompareInstances orders instances for display: sessions with an attached
// client first, then session name, window index, pane index and pane id.
func CompareInstances(a, b Instance) int {
	if a.Attached != b.Attached {
		if a.Attached {
			return -1
		}
		return 1
	}
	return cmp.Or(
		cmp.Compare(a.Session, b.Session),
		cmp.Compare(a.Window, b.Window),
		cmp.Compare(a.Pane, b.Pane),
		cmp.Compare(a.PaneID, b.PaneID),
	)
}

// SortInstances sorts in place with CompareInstances.
func SortInstances(instances []Instance) {
	slices.SortStableFunc(instances, CompareInstances)
}
