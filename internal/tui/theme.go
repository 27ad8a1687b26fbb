package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/timvw/claude-panes/internal/model"
)

// Theme defines all colors used by the watch UI.
type Theme struct {
	Primary         lipgloss.Color // title, cursor
	Secondary       lipgloss.Color // selected row text
	Accent          lipgloss.Color // dialog borders, branch names
	Error           lipgloss.Color // errors, dirty trees
	Warning         lipgloss.Color // waiting for input
	Success         lipgloss.Color // working
	Info            lipgloss.Color // idle
	Text            lipgloss.Color
	TextMuted       lipgloss.Color // hints, paths
	BackgroundPanel lipgloss.Color
	BackgroundElem  lipgloss.Color // selected row background
	Border          lipgloss.Color // separators
}

// DarkTheme returns the default dark theme.
func DarkTheme() Theme {
	return Theme{
		Primary:         lipgloss.Color("#fab283"),
		Secondary:       lipgloss.Color("#5c9cf5"),
		Accent:          lipgloss.Color("#9d7cd8"),
		Error:           lipgloss.Color("#e06c75"),
		Warning:         lipgloss.Color("#f5a742"),
		Success:         lipgloss.Color("#7fd88f"),
		Info:            lipgloss.Color("#56b6c2"),
		Text:            lipgloss.Color("#eeeeee"),
		TextMuted:       lipgloss.Color("#808080"),
		BackgroundPanel: lipgloss.Color("#141414"),
		BackgroundElem:  lipgloss.Color("#1e1e1e"),
		Border:          lipgloss.Color("#484848"),
	}
}

// LightTheme returns a light theme for bright terminal backgrounds.
func LightTheme() Theme {
	return Theme{
		Primary:         lipgloss.Color("#b35c00"),
		Secondary:       lipgloss.Color("#0550ae"),
		Accent:          lipgloss.Color("#6639ba"),
		Error:           lipgloss.Color("#cf222e"),
		Warning:         lipgloss.Color("#bf8700"),
		Success:         lipgloss.Color("#116329"),
		Info:            lipgloss.Color("#0969da"),
		Text:            lipgloss.Color("#1f2328"),
		TextMuted:       lipgloss.Color("#656d76"),
		BackgroundPanel: lipgloss.Color("#ffffff"),
		BackgroundElem:  lipgloss.Color("#f6f8fa"),
		Border:          lipgloss.Color("#d0d7de"),
	}
}

// ThemeByName returns a theme by name. Defaults to dark.
func ThemeByName(name string) Theme {
	switch name {
	case "light":
		return LightTheme()
	default:
		return DarkTheme()
	}
}

// styles holds all lipgloss styles derived from a Theme.
type styles struct {
	title    lipgloss.Style
	header   lipgloss.Style
	selected lipgloss.Style
	err      lipgloss.Style
	dim      lipgloss.Style
	text     lipgloss.Style
	branch   lipgloss.Style
	dirty    lipgloss.Style
	dialog   lipgloss.Style

	working lipgloss.Style
	idle    lipgloss.Style
	input   lipgloss.Style
	unknown lipgloss.Style

	hintKey  lipgloss.Style
	hintDesc lipgloss.Style
}

// newStyles builds all styles from a theme.
func newStyles(t Theme) styles {
	return styles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		header:   lipgloss.NewStyle().Foreground(t.Border),
		selected: lipgloss.NewStyle().Bold(true).Foreground(t.Secondary).Background(t.BackgroundElem),
		err:      lipgloss.NewStyle().Foreground(t.Error),
		dim:      lipgloss.NewStyle().Foreground(t.TextMuted),
		text:     lipgloss.NewStyle().Foreground(t.Text),
		branch:   lipgloss.NewStyle().Foreground(t.Accent),
		dirty:    lipgloss.NewStyle().Foreground(t.Error),
		dialog: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Accent).
			Padding(0, 1),

		working: lipgloss.NewStyle().Foreground(t.Success),
		idle:    lipgloss.NewStyle().Foreground(t.Info),
		input:   lipgloss.NewStyle().Bold(true).Foreground(t.Warning),
		unknown: lipgloss.NewStyle().Foreground(t.TextMuted),

		hintKey:  lipgloss.NewStyle().Foreground(t.Text),
		hintDesc: lipgloss.NewStyle().Foreground(t.TextMuted),
	}
}

// status returns the style for an instance status.
func (s styles) status(st model.Status) lipgloss.Style {
	switch st {
	case model.StatusWorking:
		return s.working
	case model.StatusIdle:
		return s.idle
	case model.StatusWaitingInput:
		return s.input
	default:
		return s.unknown
	}
}
