package otel

import (
	"context"
	"errors"
	"testing"
)

func TestParseHeaders(t *testing.T) {
	tests := []struct {
		raw  string
		want map[string]string
	}{
		{raw: "", want: map[string]string{}},
		{raw: "Authorization=Basic abc", want: map[string]string{"Authorization": "Basic abc"}},
		{raw: " a = 1 , b=2=3 ", want: map[string]string{"a": "1", "b": "2=3"}},
		{raw: "novalue,=x", want: map[string]string{}},
	}
	for _, tt := range tests {
		got := parseHeaders(tt.raw)
		if len(got) != len(tt.want) {
			t.Errorf("parseHeaders(%q): got %v, want %v", tt.raw, got, tt.want)
			continue
		}
		for k, v := range tt.want {
			if got[k] != v {
				t.Errorf("parseHeaders(%q)[%q]: got %q, want %q", tt.raw, k, got[k], v)
			}
		}
	}
}

func TestExporterOptions(t *testing.T) {
	if _, _, err := exporterOptions(OTELConfig{Endpoint: "http://localhost:4318/otel"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, _, err := exporterOptions(OTELConfig{Endpoint: "localhost"}); err == nil {
		t.Error("expected error for endpoint without host")
	}
}

func TestInit_NoEndpointIsNoop(t *testing.T) {
	tel, err := Init(context.Background(), OTELConfig{})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if tel.Enabled() {
		t.Error("expected telemetry disabled without endpoint")
	}
	if tel.Tracer == nil || tel.Metrics == nil {
		t.Fatal("expected no-op tracer and metrics")
	}
	ctx := context.Background()
	tel.Metrics.RecordCycle(ctx, 3, nil)
	tel.Metrics.RecordCycle(ctx, 0, errors.New("boom"))
	tel.Metrics.RecordCaptureFailure(ctx)
	tel.Metrics.RecordEnrichment(ctx, "resolved")
	tel.Metrics.RecordStale(ctx, 2)
	tel.Shutdown(ctx)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.RecordCycle(ctx, 1, nil)
	m.RecordCaptureFailure(ctx)
	m.RecordEnrichment(ctx, "not_repo")
	m.RecordStale(ctx, 1)

	var tel *Telemetry
	if tel.Enabled() {
		t.Error("nil telemetry must report disabled")
	}
	tel.Shutdown(ctx)
}
