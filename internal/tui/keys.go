package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds every binding of the watch UI.
type keyMap struct {
	Up         key.Binding
	Down       key.Binding
	Jump       key.Binding
	Filter     key.Binding
	Actions    key.Binding
	NewSession key.Binding
	Rename     key.Binding
	Refresh    key.Binding
	Help       key.Binding
	Back       key.Binding
	Confirm    key.Binding
	Deny       key.Binding
	Quit       key.Binding
}

var keys = keyMap{
	Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Jump:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "jump to pane")),
	Filter:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
	Actions:    key.NewBinding(key.WithKeys("a", "tab"), key.WithHelp("a/tab", "actions")),
	NewSession: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new session")),
	Rename:     key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "rename session")),
	Refresh:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
	Back:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Confirm:    key.NewBinding(key.WithKeys("y", "enter"), key.WithHelp("y/enter", "confirm")),
	Deny:       key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n/esc", "cancel")),
	Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// normalHelp is the key list shown in the header and help screen.
func (k keyMap) normalHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Jump, k.Filter, k.Actions, k.NewSession, k.Rename, k.Refresh, k.Help, k.Quit}
}
