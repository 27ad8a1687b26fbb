package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "claude-panes"

// Metrics holds the metric instruments for discovery and enrichment.
// All counters are cumulative and safe for concurrent use. A nil *Metrics
// records nothing.
type Metrics struct {
	// DiscoveryCycles counts phase-1 runs, partitioned by result (ok, failed).
	DiscoveryCycles metric.Int64Counter
	// DiscoveryInstances counts instances found across all cycles.
	DiscoveryInstances metric.Int64Counter
	// CaptureFailures counts panes whose content could not be captured.
	CaptureFailures metric.Int64Counter
	// Enrichments counts git lookups, partitioned by result (resolved, not_repo).
	Enrichments metric.Int64Counter
	// StaleMessages counts loader messages dropped for an old generation.
	StaleMessages metric.Int64Counter
}

// NewMetrics creates all metric instruments. Returns no-op instruments
// when no MeterProvider is registered.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	if m.DiscoveryCycles, err = meter.Int64Counter("discovery.cycles",
		metric.WithDescription("Discovery cycles partitioned by result (ok, failed)")); err != nil {
		return nil, err
	}
	if m.DiscoveryInstances, err = meter.Int64Counter("discovery.instances",
		metric.WithDescription("Claude Code instances found by discovery cycles"),
		metric.WithUnit("{instance}")); err != nil {
		return nil, err
	}
	if m.CaptureFailures, err = meter.Int64Counter("capture.failures",
		metric.WithDescription("Pane captures that failed and were classified unknown")); err != nil {
		return nil, err
	}
	if m.Enrichments, err = meter.Int64Counter("enrichment.total",
		metric.WithDescription("Git enrichments partitioned by result (resolved, not_repo)")); err != nil {
		return nil, err
	}
	if m.StaleMessages, err = meter.Int64Counter("loader.stale_messages",
		metric.WithDescription("Loader messages discarded because a newer generation started")); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordCycle records the outcome of one discovery cycle.
func (m *Metrics) RecordCycle(ctx context.Context, instances int, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "failed"
	}
	m.DiscoveryCycles.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
	if err == nil {
		m.DiscoveryInstances.Add(ctx, int64(instances))
	}
}

// RecordCaptureFailure records a failed pane capture.
func (m *Metrics) RecordCaptureFailure(ctx context.Context) {
	if m == nil {
		return
	}
	m.CaptureFailures.Add(ctx, 1)
}

// RecordEnrichment records a git enrichment with the resulting state.
func (m *Metrics) RecordEnrichment(ctx context.Context, state string) {
	if m == nil {
		return
	}
	m.Enrichments.Add(ctx, 1, metric.WithAttributes(attribute.String("result", state)))
}

// RecordStale records n discarded stale messages.
func (m *Metrics) RecordStale(ctx context.Context, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.StaleMessages.Add(ctx, int64(n))
}
