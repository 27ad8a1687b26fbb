// Package tui is the interactive watch view. It owns the registry, polls the
// loader on every tick and renders the instance list.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/timvw/claude-panes/internal/loader"
	ppotel "github.com/timvw/claude-panes/internal/otel"
	"github.com/timvw/claude-panes/internal/registry"
)

// Poll cadence: fast while a cycle is streaming results, slower when idle.
const (
	loadingTick = 16 * time.Millisecond
	idleTick    = 100 * time.Millisecond
)

// Source starts discovery cycles and hands back their messages.
// *loader.Loader implements it.
type Source interface {
	Start(ctx context.Context) uint64
	Poll() []loader.Message
}

// Navigator moves the user's client to a pane. mux.Multiplexer implements it.
type Navigator interface {
	SwitchTo(ctx context.Context, paneID string) error
}

// messages
type tickMsg struct{}

type switchedMsg struct {
	target string
	err    error
}

type handledMsg struct {
	text string
	err  error
}

// TUI runs the interactive watch view.
type TUI struct {
	Source    Source
	Navigator Navigator
	// Handler receives lifecycle requests. Defaults to CommandReporter.
	Handler         RequestHandler
	RefreshInterval time.Duration // 0 disables auto-refresh
	Theme           Theme
	Metrics         *ppotel.Metrics // nil-safe
	Logger          *slog.Logger
}

// tuiModel implements tea.Model.
type tuiModel struct {
	ctx     context.Context
	src     Source
	nav     Navigator
	handler RequestHandler
	metrics *ppotel.Metrics
	logger  *slog.Logger
	styles  styles

	reg             *registry.Registry
	refreshInterval time.Duration
	lastStart       time.Time
	now             func() time.Time

	menuCursor int
	input      textinput.Model

	width  int
	height int

	message string
	isErr   bool
}

func newModel(ctx context.Context, t *TUI) *tuiModel {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 48

	handler := t.Handler
	if handler == nil {
		handler = CommandReporter{}
	}
	logger := t.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &tuiModel{
		ctx:             ctx,
		src:             t.Source,
		nav:             t.Navigator,
		handler:         handler,
		metrics:         t.Metrics,
		logger:          logger,
		styles:          newStyles(t.Theme),
		reg:             registry.New(),
		refreshInterval: t.RefreshInterval,
		now:             time.Now,
		input:           ti,
	}
}

// Run starts the program and blocks until the user quits or ctx is done.
func (t *TUI) Run(ctx context.Context) error {
	m := newModel(ctx, t)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (m *tuiModel) Init() tea.Cmd {
	m.startCycle()
	return m.scheduleTick()
}

// startCycle begins a new generation and makes the registry track it.
func (m *tuiModel) startCycle() {
	gen := m.src.Start(m.ctx)
	m.reg.Begin(gen)
	m.lastStart = m.now()
	m.logger.Debug("cycle started", "generation", gen)
}

// scheduleTick polls again soon; sooner while a cycle is in flight.
func (m *tuiModel) scheduleTick() tea.Cmd {
	d := idleTick
	if m.reg.Loading().Loading() {
		d = loadingTick
	}
	return tea.Tick(d, func(time.Time) tea.Msg { return tickMsg{} })
}

// drain applies everything the loader has queued.
func (m *tuiModel) drain() {
	stale := 0
	for _, msg := range m.src.Poll() {
		if !m.reg.Apply(msg) {
			stale++
			continue
		}
		if f, ok := msg.(loader.Failed); ok {
			m.setError(fmt.Sprintf("refresh failed: %v", f.Err))
		}
	}
	if stale > 0 {
		m.metrics.RecordStale(m.ctx, stale)
		m.logger.Debug("dropped stale messages", "count", stale, "generation", m.reg.Generation())
	}
}

// refreshDue reports whether auto-refresh should start a new cycle.
func (m *tuiModel) refreshDue() bool {
	if m.refreshInterval <= 0 || m.reg.Loading().Loading() {
		return false
	}
	return m.now().Sub(m.lastStart) >= m.refreshInterval
}

func (m *tuiModel) setMessage(s string) {
	m.message, m.isErr = s, false
}

func (m *tuiModel) setError(s string) {
	m.message, m.isErr = s, true
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		m.drain()
		if m.refreshDue() {
			m.startCycle()
		}
		return m, m.scheduleTick()

	case switchedMsg:
		if msg.err != nil {
			m.setError(fmt.Sprintf("switch to %s failed: %v", msg.target, msg.err))
		} else {
			m.setMessage("switched to " + msg.target)
		}
		return m, nil

	case handledMsg:
		if msg.err != nil {
			m.setError(msg.err.Error())
		} else {
			m.setMessage(msg.text)
		}
		return m, nil
	}
	return m, nil
}

func (m *tuiModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	switch m.reg.Mode() {
	case registry.ModeFilter:
		return m.handleFilterKey(msg)
	case registry.ModeActionMenu:
		return m.handleMenuKey(msg)
	case registry.ModeConfirmAction:
		return m.handleConfirmKey(msg)
	case registry.ModeNewSession, registry.ModeRename:
		return m.handleInputKey(msg)
	case registry.ModeHelp:
		if key.Matches(msg, keys.Help, keys.Back, keys.Quit) {
			m.reg.Dispatch(registry.EventCancel)
		}
		return m, nil
	default:
		return m.handleNormalKey(msg)
	}
}

func (m *tuiModel) handleNormalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Up):
		m.reg.Move(-1)
	case key.Matches(msg, keys.Down):
		m.reg.Move(1)
	case key.Matches(msg, keys.Jump):
		if inst, ok := m.reg.SelectedInstance(); ok {
			return m, m.switchTo(inst.PaneID, inst.Target())
		}
	case key.Matches(msg, keys.Filter):
		if m.reg.Dispatch(registry.EventFilter) {
			m.openInput(m.reg.Filter(), "filter")
			return m, textinput.Blink
		}
	case key.Matches(msg, keys.Actions):
		if m.reg.Dispatch(registry.EventActions) {
			m.menuCursor = 0
		}
	case key.Matches(msg, keys.NewSession):
		if m.reg.Dispatch(registry.EventNewSession) {
			m.openInput("", "session name")
			return m, textinput.Blink
		}
	case key.Matches(msg, keys.Rename):
		if m.reg.Dispatch(registry.EventRename) {
			subject, _ := m.reg.Subject()
			m.openInput(subject.Session, "new session name")
			return m, textinput.Blink
		}
	case key.Matches(msg, keys.Refresh):
		m.startCycle()
		m.setMessage("refreshing")
	case key.Matches(msg, keys.Help):
		m.reg.Dispatch(registry.EventHelp)
	case key.Matches(msg, keys.Back):
		m.reg.SetFilter("")
	}
	return m, nil
}

func (m *tuiModel) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.reg.Dispatch(registry.EventSubmit)
		m.input.Blur()
		return m, nil
	case tea.KeyEsc:
		m.reg.Dispatch(registry.EventCancel)
		m.input.Blur()
		return m, nil
	case tea.KeyUp:
		m.reg.Move(-1)
		return m, nil
	case tea.KeyDown:
		m.reg.Move(1)
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.reg.SetFilter(m.input.Value())
	return m, cmd
}

func (m *tuiModel) handleMenuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if m.menuCursor > 0 {
			m.menuCursor--
		}
	case key.Matches(msg, keys.Down):
		if m.menuCursor < len(registry.Actions)-1 {
			m.menuCursor++
		}
	case key.Matches(msg, keys.Back), key.Matches(msg, keys.Quit):
		m.reg.Dispatch(registry.EventCancel)
	case key.Matches(msg, keys.Jump):
		action := registry.Actions[m.menuCursor]
		p, ok := m.reg.Choose(action)
		if !ok {
			m.setError(fmt.Sprintf("%s is not available here", action))
			return m, nil
		}
		switch m.reg.Mode() {
		case registry.ModeRename:
			m.openInput(p.Instance.Session, "new session name")
			return m, textinput.Blink
		case registry.ModeNewSession:
			m.openInput("", "session name")
			return m, textinput.Blink
		}
		if p.Kind == registry.ActionSwitch {
			return m, m.switchTo(p.Instance.PaneID, p.Instance.Target())
		}
	}
	return m, nil
}

func (m *tuiModel) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Confirm):
		p, ok := m.reg.Pending()
		m.reg.Dispatch(registry.EventSubmit)
		if !ok {
			return m, nil
		}
		req, err := m.requestFor(p)
		if err != nil {
			m.setError(err.Error())
			return m, nil
		}
		return m, m.handle(req)
	case key.Matches(msg, keys.Deny):
		m.reg.Dispatch(registry.EventCancel)
	}
	return m, nil
}

func (m *tuiModel) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.reg.Dispatch(registry.EventCancel)
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		name := strings.TrimSpace(m.input.Value())
		if name == "" {
			m.setError("name must not be empty")
			return m, nil
		}
		var req Request
		if m.reg.Mode() == registry.ModeRename {
			subject, ok := m.reg.Subject()
			if !ok {
				m.reg.Dispatch(registry.EventCancel)
				return m, nil
			}
			req = Request{Kind: RequestRename, Target: subject.Session, Arg: name}
		} else {
			req = Request{Kind: RequestNewSession, Arg: name}
			if p, ok := m.reg.Pending(); ok {
				req.Path = p.Instance.Path
			}
		}
		m.reg.Dispatch(registry.EventSubmit)
		m.input.Blur()
		return m, m.handle(req)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// openInput resets the text input with value and focuses it.
func (m *tuiModel) openInput(value, placeholder string) {
	m.input.Reset()
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
}

// requestFor turns a confirmed menu action into a lifecycle request.
// Worktree deletion is refused unless the worktree is safe to remove.
func (m *tuiModel) requestFor(p registry.Pending) (Request, error) {
	switch p.Kind {
	case registry.ActionKill:
		return Request{Kind: RequestKill, Target: p.Instance.Session}, nil
	case registry.ActionDeleteWorktree:
		safety, ok := m.reg.Safety(p.Instance.PaneID)
		if !ok {
			return Request{}, fmt.Errorf("%s is gone", p.Instance.Target())
		}
		if !safety.Safe() {
			return Request{}, fmt.Errorf("refusing to delete worktree: %s", strings.Join(safety.Reasons(), ", "))
		}
		return Request{Kind: RequestDeleteWorktree, Path: p.Instance.Path, RepoPath: safety.MainRepoPath}, nil
	default:
		return Request{}, fmt.Errorf("%s needs no confirmation", p.Kind)
	}
}

func (m *tuiModel) switchTo(paneID, target string) tea.Cmd {
	ctx, nav := m.ctx, m.nav
	return func() tea.Msg {
		if nav == nil {
			return switchedMsg{target: target, err: fmt.Errorf("no multiplexer")}
		}
		return switchedMsg{target: target, err: nav.SwitchTo(ctx, paneID)}
	}
}

func (m *tuiModel) handle(req Request) tea.Cmd {
	ctx, h, logger := m.ctx, m.handler, m.logger
	return func() tea.Msg {
		text, err := h.Handle(ctx, req)
		logger.Info("lifecycle request", "kind", req.Kind.String(), "target", req.Target, "path", req.Path, "error", err)
		return handledMsg{text: text, err: err}
	}
}
