package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"

	"github.com/timvw/claude-panes/internal/model"
	"github.com/timvw/claude-panes/internal/registry"
)

// Column widths of the instance list. The path column takes the rest.
const (
	targetWidth = 22
	windowWidth = 14
	branchWidth = 26
	minPathCol  = 12
)

func (m *tuiModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	switch m.reg.Mode() {
	case registry.ModeHelp:
		return m.viewHelp()
	case registry.ModeActionMenu:
		return m.viewList(m.viewActionMenu())
	case registry.ModeConfirmAction:
		return m.viewList(m.viewConfirm())
	case registry.ModeRename, registry.ModeNewSession:
		return m.viewList(m.viewTextInput())
	}
	return m.viewList("")
}

// viewList renders the header, the visible rows and the footer. A non-empty
// dialog is drawn below the list.
func (m *tuiModel) viewList(dialog string) string {
	var b strings.Builder

	b.WriteString(m.viewHeader())
	b.WriteString("\n")

	rows := m.reg.Visible()
	loading := m.reg.Loading()
	switch {
	case len(rows) == 0 && loading.Phase == registry.PhaseInitial:
		b.WriteString("  Discovering panes...\n")
	case len(rows) == 0 && m.reg.Filter() != "":
		b.WriteString(m.styles.dim.Render("  No instances match the filter."))
		b.WriteString("\n")
	case len(rows) == 0:
		b.WriteString(m.styles.dim.Render("  No Claude Code instances found."))
		b.WriteString("\n")
	default:
		m.writeRows(&b, rows, m.listHeight(dialog))
	}

	if dialog != "" {
		b.WriteString("\n")
		b.WriteString(dialog)
		b.WriteString("\n")
	}

	b.WriteString(m.viewFooter())
	return b.String()
}

// listHeight is the number of rows that fit between header, dialog and footer.
func (m *tuiModel) listHeight(dialog string) int {
	h := m.height - 4
	if dialog != "" {
		h -= lipgloss.Height(dialog) + 1
	}
	if h < 3 {
		h = 3
	}
	return h
}

func (m *tuiModel) viewHeader() string {
	var b strings.Builder
	b.WriteString(m.styles.title.Render("Claude Panes"))
	b.WriteString("  ")

	c := m.reg.Counts()
	b.WriteString(m.styles.working.Render(fmt.Sprintf("%s %d working", model.StatusWorking.Symbol(), c.Working)))
	b.WriteString("  ")
	b.WriteString(m.styles.input.Render(fmt.Sprintf("%s %d input", model.StatusWaitingInput.Symbol(), c.Input)))
	b.WriteString("  ")
	b.WriteString(m.styles.idle.Render(fmt.Sprintf("%s %d idle", model.StatusIdle.Symbol(), c.Idle)))
	if c.Unknown > 0 {
		b.WriteString("  ")
		b.WriteString(m.styles.unknown.Render(fmt.Sprintf("%s %d unknown", model.StatusUnknown.Symbol(), c.Unknown)))
	}

	if s := loadingText(m.reg.Loading()); s != "" {
		b.WriteString("  ")
		b.WriteString(m.styles.dim.Render(s))
	}
	return b.String()
}

// loadingText describes an in-flight cycle, or "" when idle.
func loadingText(l registry.LoadingState) string {
	switch l.Phase {
	case registry.PhaseInitial:
		return "discovering..."
	case registry.PhasePanesDiscovered, registry.PhaseEnriching:
		if l.Total == 0 {
			return ""
		}
		return fmt.Sprintf("git %d/%d", l.Completed, l.Total)
	default:
		return ""
	}
}

func (m *tuiModel) writeRows(b *strings.Builder, rows []model.Instance, height int) {
	pathWidth := m.width - targetWidth - windowWidth - branchWidth - 8
	if pathWidth < minPathCol {
		pathWidth = minPathCol
	}

	// Scroll window [start, end) that keeps the selection visible.
	cursor := m.reg.Selected()
	start, end := 0, min(height, len(rows))
	if cursor >= end {
		end = cursor + 1
		start = end - height
	}
	if start < 0 {
		start = 0
	}

	home, _ := os.UserHomeDir()
	for i := start; i < end && i < len(rows); i++ {
		inst := rows[i]
		prefix := "  "
		if i == cursor {
			prefix = m.styles.title.Render("▸ ")
		}
		symbol := m.styles.status(inst.Status).Render(inst.Status.Symbol())

		target := padRight(truncate(inst.Target(), targetWidth), targetWidth)
		window := padRight(truncate(inst.WindowName, windowWidth), windowWidth)
		branch := padRight(m.gitCell(inst.Git), branchWidth)
		path := truncate(shortenHome(inst.Path, home), pathWidth)

		if i == cursor {
			target = m.styles.selected.Render(target)
		} else {
			target = m.styles.text.Render(target)
		}

		fmt.Fprintf(b, "%s%s %s %s %s %s\n",
			prefix, symbol, target, m.styles.dim.Render(window), branch, m.styles.dim.Render(path))
	}
	if start > 0 || end < len(rows) {
		b.WriteString(m.styles.dim.Render(fmt.Sprintf("  showing %d-%d of %d", start+1, end, len(rows))))
		b.WriteString("\n")
	}
}

// gitCell renders the branch column: branch name with dirty, worktree and
// ahead/behind marks, or the enrichment state.
func (m *tuiModel) gitCell(g model.GitInfo) string {
	switch g.State() {
	case model.GitPending:
		return m.styles.dim.Render("…")
	case model.GitNotRepo:
		return m.styles.dim.Render("-")
	}
	c, _ := g.Context()
	var marks string
	if c.IsWorktree {
		marks += " ⎇"
	}
	if c.Ahead > 0 {
		marks += fmt.Sprintf(" ↑%d", c.Ahead)
	}
	if c.Behind > 0 {
		marks += fmt.Sprintf(" ↓%d", c.Behind)
	}
	name := truncate(c.Branch, branchWidth-runewidth.StringWidth(marks)-1)
	out := m.styles.branch.Render(name)
	if c.Dirty() {
		out += m.styles.dirty.Render("*")
	}
	return out + m.styles.dim.Render(marks)
}

func (m *tuiModel) viewFooter() string {
	var b strings.Builder

	if m.reg.Mode() == registry.ModeFilter {
		b.WriteString("  " + m.input.View())
		b.WriteString("\n")
	} else if f := m.reg.Filter(); f != "" {
		b.WriteString(m.styles.dim.Render(fmt.Sprintf("  filter: %s  (esc to clear)", f)))
		b.WriteString("\n")
	}

	if err := m.reg.Err(); err != nil {
		b.WriteString(m.styles.err.Render("  " + err.Error()))
		b.WriteString("\n")
	}
	if m.message != "" {
		style := m.styles.dim
		if m.isErr {
			style = m.styles.err
		}
		b.WriteString(style.Render("  " + m.message))
		b.WriteString("\n")
	}

	b.WriteString(m.hints(keys.normalHelp()))
	return b.String()
}

// hints renders "key desc" pairs on one line.
func (m *tuiModel) hints(bindings []key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		h := kb.Help()
		parts = append(parts, m.styles.hintKey.Render(h.Key)+" "+m.styles.hintDesc.Render(h.Desc))
	}
	return "  " + strings.Join(parts, m.styles.hintDesc.Render(" · "))
}

func (m *tuiModel) viewActionMenu() string {
	subject, ok := m.reg.Subject()
	if !ok {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.styles.title.Render("Actions for " + subject.Target()))
	b.WriteString("\n")
	for i, a := range registry.Actions {
		label := fmt.Sprintf("%d. %s", i+1, a)
		switch {
		case !a.Available(subject):
			label = m.styles.dim.Render(label + " (n/a)")
		case i == m.menuCursor:
			label = m.styles.selected.Render(label)
		default:
			label = m.styles.text.Render(label)
		}
		cursor := "  "
		if i == m.menuCursor {
			cursor = "▸ "
		}
		b.WriteString(cursor + label + "\n")
	}
	b.WriteString(m.hints([]key.Binding{keys.Up, keys.Down, keys.Jump, keys.Back}))
	return m.styles.dialog.Render(b.String())
}

func (m *tuiModel) viewConfirm() string {
	p, ok := m.reg.Pending()
	if !ok {
		return ""
	}
	var b strings.Builder
	switch p.Kind {
	case registry.ActionKill:
		b.WriteString(m.styles.title.Render(fmt.Sprintf("Kill session %s?", p.Instance.Session)))
		b.WriteString("\n")
		b.WriteString(m.styles.dim.Render("Every window and pane of the session will close."))
	case registry.ActionDeleteWorktree:
		b.WriteString(m.styles.title.Render("Delete worktree " + p.Instance.Path + "?"))
		b.WriteString("\n")
		safety, _ := m.reg.Safety(p.Instance.PaneID)
		if safety.MainRepoPath != "" {
			b.WriteString(m.styles.dim.Render("main checkout: " + safety.MainRepoPath))
			b.WriteString("\n")
		}
		if safety.Safe() {
			b.WriteString(m.styles.working.Render("clean, not shared with other instances"))
		} else {
			for _, r := range safety.Reasons() {
				b.WriteString(m.styles.err.Render("! " + r))
				b.WriteString("\n")
			}
			b.WriteString(m.styles.dim.Render("deletion will be refused"))
		}
	}
	b.WriteString("\n")
	b.WriteString(m.hints([]key.Binding{keys.Confirm, keys.Deny}))
	return m.styles.dialog.Render(b.String())
}

func (m *tuiModel) viewTextInput() string {
	var b strings.Builder
	if m.reg.Mode() == registry.ModeRename {
		subject, _ := m.reg.Subject()
		b.WriteString(m.styles.title.Render("Rename session " + subject.Session))
	} else {
		title := "New session"
		if p, ok := m.reg.Pending(); ok && p.Instance.Path != "" {
			title += " in " + p.Instance.Path
		}
		b.WriteString(m.styles.title.Render(title))
	}
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.styles.dim.Render("enter=submit  esc=cancel"))
	return m.styles.dialog.Render(b.String())
}

func (m *tuiModel) viewHelp() string {
	var b strings.Builder
	b.WriteString(m.styles.title.Render("Claude Panes - keys"))
	b.WriteString("\n\n")
	for _, kb := range keys.normalHelp() {
		h := kb.Help()
		fmt.Fprintf(&b, "  %s %s\n", m.styles.hintKey.Render(padRight(h.Key, 10)), m.styles.hintDesc.Render(h.Desc))
	}
	b.WriteString("\n")
	b.WriteString(m.styles.title.Render("Status"))
	b.WriteString("\n\n")
	for _, st := range []model.Status{model.StatusWorking, model.StatusWaitingInput, model.StatusIdle, model.StatusUnknown} {
		fmt.Fprintf(&b, "  %s %s\n", m.styles.status(st).Render(st.Symbol()), st.Label())
	}
	b.WriteString("\n")
	b.WriteString(m.styles.dim.Render("  branch marks: * dirty  ⎇ worktree  ↑ ahead  ↓ behind  … loading  - not a repo"))
	b.WriteString("\n\n")
	b.WriteString(m.styles.dim.Render("  ?/esc to close"))
	return b.String()
}

// shortenHome replaces a leading home directory with "~".
func shortenHome(path, home string) string {
	if home == "" || home == "/" {
		return path
	}
	if path == home {
		return "~"
	}
	if rest, ok := strings.CutPrefix(path, home+"/"); ok {
		return "~/" + rest
	}
	return path
}

// truncate cuts s to at most width display cells, marking the cut with "…".
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}

// padRight pads s with spaces to reach the desired visible width. Escape
// sequences do not count toward the width.
func padRight(s string, width int) string {
	visible := ansi.StringWidth(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}
