// Package loader runs discovery and git enrichment off the consumer's
// goroutine and streams the results as generation-stamped messages.
//
// A cycle delivers one PanesReady (or one Failed), then for every instance an
// EnrichmentReady followed by an EnrichmentProgress. Consumers drain with Poll,
// which never blocks; messages from a generation older than the consumer's
// current one are meant to be dropped.
package loader

import (
	"context"
	"log/slog"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/timvw/claude-panes/internal/gitctx"
	"github.com/timvw/claude-panes/internal/model"
	ppotel "github.com/timvw/claude-panes/internal/otel"
)

var tracer = otel.Tracer("claude-panes")

// queueSize is the channel buffer between the worker and the consumer.
const queueSize = 256

// Discovery produces the instance set for one cycle.
type Discovery interface {
	Discover(ctx context.Context) ([]model.Instance, error)
}

// Loader runs discovery cycles in the background.
type Loader struct {
	discovery Discovery
	enricher  gitctx.Enricher
	parallel  int
	metrics   *ppotel.Metrics
	logger    *slog.Logger

	gen  atomic.Uint64
	msgs chan Message
}

// Option configures a Loader.
type Option func(*Loader)

// WithParallel bounds concurrent git lookups. Values below 1 mean 1.
func WithParallel(n int) Option {
	return func(l *Loader) { l.parallel = max(n, 1) }
}

// WithMetrics records cycle and enrichment counters.
func WithMetrics(m *ppotel.Metrics) Option {
	return func(l *Loader) { l.metrics = m }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// New creates a Loader.
func New(d Discovery, e gitctx.Enricher, opts ...Option) *Loader {
	l := &Loader{
		discovery: d,
		enricher:  e,
		parallel:  4,
		logger:    slog.Default(),
		msgs:      make(chan Message, queueSize),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start begins a new cycle in the background and returns its generation.
// Generations strictly increase. Start never blocks; an earlier cycle still
// running keeps going and its messages become stale.
func (l *Loader) Start(ctx context.Context) uint64 {
	gen := l.gen.Add(1)
	go l.cycle(ctx, gen, func(m Message) bool {
		select {
		case l.msgs <- m:
			return true
		case <-ctx.Done():
			return false
		}
	})
	return gen
}

// Poll returns every queued message without blocking.
func (l *Loader) Poll() []Message {
	var out []Message
	for {
		select {
		case m := <-l.msgs:
			out = append(out, m)
		default:
			return out
		}
	}
}

// Run performs one cycle synchronously and returns its messages in delivery
// order. A failed discovery is returned as the error.
func (l *Loader) Run(ctx context.Context) ([]Message, error) {
	gen := l.gen.Add(1)
	ch := make(chan Message)
	go func() {
		defer close(ch)
		l.cycle(ctx, gen, func(m Message) bool {
			select {
			case ch <- m:
				return true
			case <-ctx.Done():
				return false
			}
		})
	}()

	var out []Message
	var err error
	for m := range ch {
		if f, ok := m.(Failed); ok {
			err = f.Err
		}
		out = append(out, m)
	}
	if err == nil {
		err = ctx.Err()
	}
	return out, err
}

// cycle runs both phases, delivering through send. It stops as soon as send
// reports the consumer is gone.
func (l *Loader) cycle(ctx context.Context, gen uint64, send func(Message) bool) {
	log := l.logger.With("generation", gen)

	instances, err := l.discovery.Discover(ctx)
	l.metrics.RecordCycle(ctx, len(instances), err)
	if err != nil {
		log.Warn("discovery failed", "error", err)
		send(Failed{Gen: gen, Err: err})
		return
	}
	log.Debug("discovery complete", "instances", len(instances))
	if !send(PanesReady{Gen: gen, Instances: instances}) {
		return
	}

	l.enrich(ctx, gen, instances, send)
}

// enrich resolves git information for every instance with bounded
// parallelism. A single loop forwards results so progress is monotonic in
// delivery order.
func (l *Loader) enrich(ctx context.Context, gen uint64, instances []model.Instance, send func(Message) bool) {
	total := len(instances)
	if total == 0 {
		return
	}

	ctx, span := tracer.Start(ctx, "enrich")
	defer span.End()
	span.SetAttributes(attribute.Int("instances.total", total))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan EnrichmentReady)
	go func() {
		defer close(results)
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(l.parallel)
		for _, inst := range instances {
			g.Go(func() error {
				info := l.enricher.Enrich(gctx, inst.Path)
				select {
				case results <- EnrichmentReady{Gen: gen, PaneID: inst.PaneID, Git: info}:
				case <-gctx.Done():
				}
				return nil
			})
		}
		_ = g.Wait()
	}()

	completed := 0
	stopped := false
	for r := range results {
		if stopped {
			continue
		}
		l.metrics.RecordEnrichment(ctx, r.Git.State().String())
		if !send(r) {
			stopped = true
			cancel()
			continue
		}
		completed++
		if !send(EnrichmentProgress{Gen: gen, Completed: completed, Total: total}) {
			stopped = true
			cancel()
		}
	}
	span.SetAttributes(attribute.Int("instances.enriched", completed))
}
