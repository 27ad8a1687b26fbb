package registry

// Mode is the interaction mode of the consumer.
type Mode int

const (
	ModeNormal Mode = iota
	ModeFilter
	ModeActionMenu
	ModeConfirmAction
	ModeNewSession
	ModeRename
	ModeHelp
)

func (m Mode) String() string {
	switch m {
	case ModeFilter:
		return "filter"
	case ModeActionMenu:
		return "actions"
	case ModeConfirmAction:
		return "confirm"
	case ModeNewSession:
		return "new-session"
	case ModeRename:
		return "rename"
	case ModeHelp:
		return "help"
	default:
		return "normal"
	}
}

// pinsSubject reports whether the mode acts on the instance that was selected
// when it was entered, rather than the live selection.
func (m Mode) pinsSubject() bool {
	return m == ModeActionMenu || m == ModeConfirmAction || m == ModeRename
}

// Event is an input that may change the mode.
type Event int

const (
	EventFilter Event = iota
	EventActions
	EventHelp
	EventNewSession
	EventRename
	EventConfirm
	EventSubmit
	EventCancel
)

func (e Event) String() string {
	switch e {
	case EventFilter:
		return "filter"
	case EventActions:
		return "actions"
	case EventHelp:
		return "help"
	case EventNewSession:
		return "new-session"
	case EventRename:
		return "rename"
	case EventConfirm:
		return "confirm"
	case EventSubmit:
		return "submit"
	default:
		return "cancel"
	}
}

// transitions is the complete mode graph. A pair missing from the table is
// not a valid transition.
var transitions = map[Mode]map[Event]Mode{
	ModeNormal: {
		EventFilter:     ModeFilter,
		EventActions:    ModeActionMenu,
		EventHelp:       ModeHelp,
		EventNewSession: ModeNewSession,
		EventRename:     ModeRename,
	},
	ModeFilter: {
		EventSubmit: ModeNormal,
		EventCancel: ModeNormal,
	},
	ModeActionMenu: {
		EventSubmit:     ModeNormal,
		EventRename:     ModeRename,
		EventConfirm:    ModeConfirmAction,
		EventNewSession: ModeNewSession,
		EventCancel:     ModeNormal,
	},
	ModeConfirmAction: {
		EventSubmit: ModeNormal,
		EventCancel: ModeActionMenu,
	},
	ModeNewSession: {
		EventSubmit: ModeNormal,
		EventCancel: ModeNormal,
	},
	ModeRename: {
		EventSubmit: ModeNormal,
		EventCancel: ModeNormal,
	},
	ModeHelp: {
		EventHelp:   ModeNormal,
		EventCancel: ModeNormal,
	},
}

// Next returns the mode reached from m on e, and false if e is not valid in m.
func Next(m Mode, e Event) (Mode, bool) {
	to, ok := transitions[m][e]
	return to, ok
}
