package registry

import "github.com/timvw/claude-panes/internal/model"

// Safety summarizes whether removing an instance's worktree could lose work
// or pull the directory out from under another instance.
type Safety struct {
	// Known is false while git information is pending.
	Known bool
	// IsRepo is false when the path is not inside a git repository.
	IsRepo       bool
	IsWorktree   bool
	MainRepoPath string
	Dirty        bool
	// SharedWith lists other instances' pane ids with the same working directory.
	SharedWith []string
}

// Safe reports whether the worktree can be removed: it is a known linked
// worktree, has no uncommitted changes and no other instance works in it.
func (s Safety) Safe() bool {
	return s.Known && s.IsWorktree && !s.Dirty && len(s.SharedWith) == 0
}

// Reasons lists why Safe is false, for display.
func (s Safety) Reasons() []string {
	var out []string
	switch {
	case !s.Known:
		out = append(out, "git status not loaded yet")
	case !s.IsRepo:
		out = append(out, "not a git repository")
	case !s.IsWorktree:
		out = append(out, "main checkout, not a linked worktree")
	}
	if s.Dirty {
		out = append(out, "uncommitted changes")
	}
	if len(s.SharedWith) > 0 {
		out = append(out, "shared with other instances")
	}
	return out
}

// Safety reports worktree safety for the instance in paneID.
func (r *Registry) Safety(paneID string) (Safety, bool) {
	inst, ok := r.Find(paneID)
	if !ok {
		return Safety{}, false
	}
	var s Safety
	for _, other := range r.instances {
		if other.PaneID != paneID && other.Path == inst.Path {
			s.SharedWith = append(s.SharedWith, other.PaneID)
		}
	}
	if inst.Git.State() == model.GitPending {
		return s, true
	}
	s.Known = true
	if c, ok := inst.Git.Context(); ok {
		s.IsRepo = true
		s.IsWorktree = c.IsWorktree
		s.MainRepoPath = c.MainRepoPath
		s.Dirty = c.Dirty()
	}
	return s, true
}
