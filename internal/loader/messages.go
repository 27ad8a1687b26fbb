package loader

import "github.com/timvw/claude-panes/internal/model"

// Message is the closed set of values a Loader delivers. Every message carries
// the generation of the cycle that produced it.
type Message interface {
	Generation() uint64
	isMessage()
}

// PanesReady delivers the full instance set of a cycle, sorted for display,
// with git information still pending. It precedes every enrichment message of
// its generation.
type PanesReady struct {
	Gen       uint64
	Instances []model.Instance
}

// EnrichmentReady delivers the git information for one pane.
type EnrichmentReady struct {
	Gen    uint64
	PaneID string
	Git    model.GitInfo
}

// EnrichmentProgress follows every EnrichmentReady. Completed never decreases
// within a generation.
type EnrichmentProgress struct {
	Gen       uint64
	Completed int
	Total     int
}

// Failed reports that discovery failed. No PanesReady follows for the
// generation.
type Failed struct {
	Gen uint64
	Err error
}

func (m PanesReady) Generation() uint64         { return m.Gen }
func (m EnrichmentReady) Generation() uint64    { return m.Gen }
func (m EnrichmentProgress) Generation() uint64 { return m.Gen }
func (m Failed) Generation() uint64             { return m.Gen }

func (PanesReady) isMessage()         {}
func (EnrichmentReady) isMessage()    {}
func (EnrichmentProgress) isMessage() {}
func (Failed) isMessage()             {}
