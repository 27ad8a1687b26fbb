// Package registry is the consumer's single-threaded store of instances.
//
// It merges loader messages, keeps the display order, filter and selection
// consistent after every merge, tracks loading progress and drives the
// interaction mode. It is not safe for concurrent use; the consumer loop owns
// it.
package registry

import (
	"strings"

	"github.com/timvw/claude-panes/internal/loader"
	"github.com/timvw/claude-panes/internal/model"
)

// Phase is the loading phase of the current generation.
type Phase int

const (
	PhaseInitial Phase = iota
	PhasePanesDiscovered
	PhaseEnriching
	PhaseComplete
)

func (p Phase) String() string {
	switch p {
	case PhasePanesDiscovered:
		return "panes discovered"
	case PhaseEnriching:
		return "enriching"
	case PhaseComplete:
		return "complete"
	default:
		return "initial"
	}
}

// LoadingState is the loading progress of the current generation. It only
// moves forward until the next Begin.
type LoadingState struct {
	Phase     Phase
	Completed int
	Total     int
}

// Loading reports whether the generation is still in progress.
func (s LoadingState) Loading() bool {
	return s.Phase != PhaseComplete
}

// Counts holds the number of instances per status.
type Counts struct {
	Working int
	Idle    int
	Input   int
	Unknown int
}

// Total is the number of instances counted.
func (c Counts) Total() int {
	return c.Working + c.Idle + c.Input + c.Unknown
}

// Registry holds the instance set and the view state derived from it.
type Registry struct {
	gen        uint64
	appliedGen uint64
	loading    LoadingState
	err        error
	stale      int

	instances []model.Instance // display order
	visible   []int            // indices into instances
	filter    string

	selected   int
	selectedID string

	mode    Mode
	pinned  string
	pending *Pending
}

// New returns an empty registry with nothing selected.
func New() *Registry {
	return &Registry{selected: -1}
}

// Begin starts tracking generation gen: older messages are dropped from now
// on and the loading state restarts. Instances stay visible until replaced.
func (r *Registry) Begin(gen uint64) {
	if gen <= r.gen {
		return
	}
	r.gen = gen
	r.loading = LoadingState{}
}

// Apply merges one loader message. It returns false when the message was
// dropped because it belongs to an older generation.
func (r *Registry) Apply(msg loader.Message) bool {
	gen := msg.Generation()
	if gen < r.gen {
		r.stale++
		return false
	}
	if gen > r.gen {
		r.Begin(gen)
	}

	switch m := msg.(type) {
	case loader.PanesReady:
		r.applyPanes(m)
	case loader.EnrichmentReady:
		r.applyEnrichment(m)
	case loader.EnrichmentProgress:
		r.advance(PhaseEnriching, m.Completed, m.Total)
		if m.Total > 0 && m.Completed >= m.Total {
			r.advance(PhaseComplete, m.Completed, m.Total)
		}
	case loader.Failed:
		r.err = m.Err
		r.advance(PhaseComplete, r.loading.Completed, r.loading.Total)
	}
	return true
}

func (r *Registry) applyPanes(m loader.PanesReady) {
	var previous map[string]model.GitInfo
	if m.Gen == r.appliedGen {
		previous = make(map[string]model.GitInfo, len(r.instances))
		for _, inst := range r.instances {
			previous[inst.PaneID] = inst.Git
		}
	}

	instances := make([]model.Instance, len(m.Instances))
	copy(instances, m.Instances)
	for i := range instances {
		if git, ok := previous[instances[i].PaneID]; ok && instances[i].Git.State() == model.GitPending {
			instances[i].Git = git
		}
	}
	model.SortInstances(instances)

	r.instances = instances
	r.appliedGen = m.Gen
	r.err = nil
	r.refresh()

	if len(instances) == 0 {
		r.advance(PhaseComplete, 0, 0)
	} else {
		r.advance(PhasePanesDiscovered, 0, len(instances))
	}
}

func (r *Registry) applyEnrichment(m loader.EnrichmentReady) {
	for i := range r.instances {
		if r.instances[i].PaneID == m.PaneID {
			r.instances[i].Git = m.Git
			r.refresh()
			return
		}
	}
}

// advance moves the loading state forward. Phase and counts never decrease.
func (r *Registry) advance(phase Phase, completed, total int) {
	s := r.loading
	s.Phase = max(s.Phase, phase)
	s.Completed = max(s.Completed, completed)
	if total > 0 {
		s.Total = total
	}
	r.loading = s
}

// refresh recomputes the visible indices, selection and pinned subject after
// the instance set or filter changed.
func (r *Registry) refresh() {
	r.visible = r.visible[:0]
	for i, inst := range r.instances {
		if matchesFilter(inst, r.filter) {
			r.visible = append(r.visible, i)
		}
	}

	if idx := r.indexOf(r.selectedID); idx >= 0 {
		r.selected = idx
	}
	r.clampSelection()

	if r.mode.pinsSubject() {
		if _, ok := r.Find(r.pinned); !ok {
			r.setMode(ModeNormal)
		}
	}
}

// indexOf returns the visible index of paneID, or -1.
func (r *Registry) indexOf(paneID string) int {
	if paneID == "" {
		return -1
	}
	for vi, i := range r.visible {
		if r.instances[i].PaneID == paneID {
			return vi
		}
	}
	return -1
}

func (r *Registry) clampSelection() {
	switch {
	case len(r.visible) == 0:
		r.selected = -1
		r.selectedID = ""
		return
	case r.selected >= len(r.visible):
		r.selected = len(r.visible) - 1
	case r.selected < 0:
		r.selected = 0
	}
	r.selectedID = r.instances[r.visible[r.selected]].PaneID
}

func matchesFilter(inst model.Instance, filter string) bool {
	if filter == "" {
		return true
	}
	f := strings.ToLower(filter)
	fields := []string{inst.Session, inst.WindowName, inst.Path}
	if c, ok := inst.Git.Context(); ok {
		fields = append(fields, c.Branch)
	}
	for _, s := range fields {
		if strings.Contains(strings.ToLower(s), f) {
			return true
		}
	}
	return false
}

// Generation is the generation currently tracked.
func (r *Registry) Generation() uint64 { return r.gen }

// Loading returns the loading state of the current generation.
func (r *Registry) Loading() LoadingState { return r.loading }

// Err returns the error of the last failed cycle, cleared by the next
// successful one.
func (r *Registry) Err() error { return r.err }

// Stale returns how many messages were dropped as stale so far.
func (r *Registry) Stale() int { return r.stale }

// Instances returns every instance in display order, ignoring the filter.
func (r *Registry) Instances() []model.Instance {
	out := make([]model.Instance, len(r.instances))
	copy(out, r.instances)
	return out
}

// Visible returns the filtered instances in display order.
func (r *Registry) Visible() []model.Instance {
	out := make([]model.Instance, len(r.visible))
	for vi, i := range r.visible {
		out[vi] = r.instances[i]
	}
	return out
}

// Find returns the instance in paneID.
func (r *Registry) Find(paneID string) (model.Instance, bool) {
	for _, inst := range r.instances {
		if inst.PaneID == paneID {
			return inst, true
		}
	}
	return model.Instance{}, false
}

// Counts returns per-status counts over all instances.
func (r *Registry) Counts() Counts {
	var c Counts
	for _, inst := range r.instances {
		switch inst.Status {
		case model.StatusWorking:
			c.Working++
		case model.StatusIdle:
			c.Idle++
		case model.StatusWaitingInput:
			c.Input++
		default:
			c.Unknown++
		}
	}
	return c
}

// Filter returns the current filter text.
func (r *Registry) Filter() string { return r.filter }

// SetFilter changes the filter and recomputes the visible set.
func (r *Registry) SetFilter(filter string) {
	if filter == r.filter {
		return
	}
	r.filter = filter
	r.refresh()
}

// Selected returns the selected index into Visible, or -1 when nothing is
// visible.
func (r *Registry) Selected() int { return r.selected }

// SelectedInstance returns the selected instance.
func (r *Registry) SelectedInstance() (model.Instance, bool) {
	if r.selected < 0 {
		return model.Instance{}, false
	}
	return r.instances[r.visible[r.selected]], true
}

// Select moves the selection to visible index i, clamped to the list.
func (r *Registry) Select(i int) {
	if len(r.visible) == 0 {
		return
	}
	r.selected = i
	r.clampSelection()
}

// Move shifts the selection by delta, clamped to the list.
func (r *Registry) Move(delta int) {
	r.Select(r.selected + delta)
}

// Mode returns the interaction mode.
func (r *Registry) Mode() Mode { return r.mode }

// Dispatch applies e to the current mode. It returns false and leaves the
// state unchanged when the transition is not in the table, or when the target
// mode needs a subject and nothing is selected.
func (r *Registry) Dispatch(e Event) bool {
	to, ok := Next(r.mode, e)
	if !ok {
		return false
	}
	if to.pinsSubject() && !r.mode.pinsSubject() {
		inst, ok := r.SelectedInstance()
		if !ok {
			return false
		}
		r.pinned = inst.PaneID
	}
	if r.mode == ModeFilter && e == EventCancel {
		r.SetFilter("")
	}
	r.setMode(to)
	return true
}

func (r *Registry) setMode(m Mode) {
	r.mode = m
	if !m.pinsSubject() {
		r.pinned = ""
	}
	if m == ModeNormal || m == ModeActionMenu {
		r.pending = nil
	}
}

// Subject returns the instance the current mode acts on. Normal and Filter
// follow the selection; ActionMenu, ConfirmAction and Rename use the
// instance pinned when the mode was entered; NewSession and Help have none.
func (r *Registry) Subject() (model.Instance, bool) {
	switch {
	case r.mode == ModeNormal || r.mode == ModeFilter:
		return r.SelectedInstance()
	case r.mode.pinsSubject():
		return r.Find(r.pinned)
	default:
		return model.Instance{}, false
	}
}

// Choose picks action a for the pinned subject and performs the transition
// it implies. Only valid in the action menu. Actions that need confirmation
// or input stay pending until the mode returns to Normal; a switch completes
// immediately and is only returned.
func (r *Registry) Choose(a ActionKind) (Pending, bool) {
	if r.mode != ModeActionMenu {
		return Pending{}, false
	}
	inst, ok := r.Subject()
	if !ok || !a.Available(inst) {
		return Pending{}, false
	}
	if !r.Dispatch(a.event()) {
		return Pending{}, false
	}
	p := Pending{Kind: a, Instance: inst}
	if r.mode != ModeNormal {
		r.pending = &p
	}
	return p, true
}

// Pending returns the action chosen from the menu while it awaits
// confirmation or input. Returning to Normal clears it.
func (r *Registry) Pending() (Pending, bool) {
	if r.pending == nil {
		return Pending{}, false
	}
	return *r.pending, true
}
