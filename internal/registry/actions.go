package registry

import "github.com/timvw/claude-panes/internal/model"

// ActionKind is an entry of the action menu.
type ActionKind int

const (
	ActionSwitch ActionKind = iota
	ActionRename
	ActionKill
	ActionNewSessionHere
	ActionDeleteWorktree
)

// Actions lists the action menu in display order.
var Actions = []ActionKind{
	ActionSwitch,
	ActionRename,
	ActionKill,
	ActionNewSessionHere,
	ActionDeleteWorktree,
}

func (a ActionKind) String() string {
	switch a {
	case ActionSwitch:
		return "switch"
	case ActionRename:
		return "rename"
	case ActionKill:
		return "kill session"
	case ActionNewSessionHere:
		return "new session here"
	case ActionDeleteWorktree:
		return "delete worktree"
	default:
		return "unknown"
	}
}

// event is the transition the action drives from the action menu.
func (a ActionKind) event() Event {
	switch a {
	case ActionRename:
		return EventRename
	case ActionKill, ActionDeleteWorktree:
		return EventConfirm
	case ActionNewSessionHere:
		return EventNewSession
	default:
		return EventSubmit
	}
}

// Available reports whether the action applies to inst. Deleting a worktree
// needs resolved git information that says the path is a linked worktree.
func (a ActionKind) Available(inst model.Instance) bool {
	if a != ActionDeleteWorktree {
		return true
	}
	c, ok := inst.Git.Context()
	return ok && c.IsWorktree
}

// Pending is the action chosen from the menu, with the instance it was
// chosen for.
type Pending struct {
	Kind     ActionKind
	Instance model.Instance
}
