package loader

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/timvw/claude-panes/internal/model"
	"github.com/timvw/claude-panes/internal/mux"
	ppotel "github.com/timvw/claude-panes/internal/otel"
	"github.com/timvw/claude-panes/internal/proc"
	"github.com/timvw/claude-panes/internal/status"
)

// Discoverer runs one discovery pass: pane and process inventory, ancestry
// resolution, capture and classification.
type Discoverer struct {
	Mux     mux.Multiplexer
	Procs   proc.Snapshotter
	Matcher proc.Matcher
	// MaxHops bounds each ancestry walk. Zero means proc.DefaultMaxHops.
	MaxHops int
	// CaptureLines is the number of trailing non-blank lines classified.
	CaptureLines int
	// Parallel bounds concurrent captures. Values below 1 mean 1.
	Parallel int
	// Exclude hides panes of matching sessions. Nil excludes nothing.
	Exclude func(session string) bool
	Metrics *ppotel.Metrics // nil-safe
	Logger  *slog.Logger
}

// Discover returns the sorted instance set. Failure of either inventory call
// fails the pass; a failed capture only degrades that instance to unknown.
func (d *Discoverer) Discover(ctx context.Context) ([]model.Instance, error) {
	ctx, span := tracer.Start(ctx, "discover")
	defer span.End()

	var (
		panes []model.PaneFact
		procs []model.ProcessFact
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		panes, err = d.Mux.ListPanes(gctx)
		if err != nil {
			return fmt.Errorf("listing panes: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		procs, err = d.Procs.Snapshot(gctx)
		if err != nil {
			return fmt.Errorf("process snapshot: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	if d.Exclude != nil {
		kept := make([]model.PaneFact, 0, len(panes))
		for _, p := range panes {
			if !d.Exclude(p.Session) {
				kept = append(kept, p)
			}
		}
		panes = kept
	}

	maxHops := d.MaxHops
	if maxHops <= 0 {
		maxHops = proc.DefaultMaxHops
	}
	matches := proc.Resolve(panes, procs, d.Matcher.Match, maxHops)

	instances := d.classify(ctx, matches)
	model.SortInstances(instances)

	span.SetAttributes(
		attribute.Int("panes.total", len(panes)),
		attribute.Int("processes.total", len(procs)),
		attribute.Int("instances.total", len(instances)),
	)
	return instances, nil
}

// classify captures every matched pane and derives its status, at most
// Parallel captures at a time.
func (d *Discoverer) classify(ctx context.Context, matches []proc.Match) []model.Instance {
	instances := make([]model.Instance, len(matches))
	if len(matches) == 0 {
		return instances
	}

	parallel := max(d.Parallel, 1)
	var g errgroup.Group
	g.SetLimit(parallel)
	for i, m := range matches {
		g.Go(func() error {
			st := model.StatusUnknown
			p := m.Pane
			text, err := d.Mux.CapturePane(ctx, p.PaneID, d.CaptureLines)
			if err != nil {
				d.Metrics.RecordCaptureFailure(ctx)
				d.logger().Warn("capture failed", "pane", p.PaneID, "target", p.Target(), "error", err)
			} else {
				p.Tail = text
				st = status.Classify(p.Tail)
				if st == model.StatusUnknown {
					d.logger().Debug("pane not classified", "pane", p.PaneID, "target", p.Target(), "tail", p.Tail)
				}
			}
			instances[i] = model.NewInstance(p, m.Process, st)
			return nil
		})
	}
	_ = g.Wait()
	return instances
}

func (d *Discoverer) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}
