// Package otel sets up OpenTelemetry tracing and metrics for claude-panes.
//
// Traces and metrics go to an OTLP/HTTP endpoint taken from the config file
// or OTEL_EXPORTER_OTLP_ENDPOINT. Without an endpoint every instrument is a
// no-op, so callers never need to check whether telemetry is enabled.
package otel

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "claude-panes"

// Version is reported as service.version. cmd sets it from its own Version.
var Version = "dev"

// OTELConfig holds the configuration needed by Init.
type OTELConfig struct {
	Endpoint string // OTLP base URL, e.g. "http://localhost:4318"
	Headers  string // Comma-separated key=value pairs
	RunID    string // Attached to the resource as claude_panes.run_id
}

// Telemetry holds the OTEL providers and metric instruments.
type Telemetry struct {
	tp *sdktrace.TracerProvider
	mp *sdkmetric.MeterProvider

	Tracer  trace.Tracer
	Metrics *Metrics
}

// parseHeaders parses the OTEL_EXPORTER_OTLP_HEADERS format,
// "key=value,key2=value2", into a map.
func parseHeaders(raw string) map[string]string {
	headers := make(map[string]string)
	if raw == "" {
		return headers
	}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if idx := strings.IndexByte(pair, '='); idx > 0 {
			key := strings.TrimSpace(pair[:idx])
			val := strings.TrimSpace(pair[idx+1:])
			if key != "" {
				headers[key] = val
			}
		}
	}
	return headers
}

// exporterOptions derives the trace and metric exporter options from an
// endpoint URL. The SDK appends the signal paths to the URL's base path.
func exporterOptions(cfg OTELConfig) ([]otlptracehttp.Option, []otlpmetrichttp.Option, error) {
	u, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, nil, fmt.Errorf("otel: invalid endpoint URL %q: %w", cfg.Endpoint, err)
	}
	if u.Host == "" {
		return nil, nil, fmt.Errorf("otel: endpoint %q has no host", cfg.Endpoint)
	}
	basePath := strings.TrimRight(u.Path, "/")

	traceOpts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(u.Host),
		otlptracehttp.WithURLPath(basePath + "/v1/traces"),
	}
	metricOpts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(u.Host),
		otlpmetrichttp.WithURLPath(basePath + "/v1/metrics"),
	}
	if u.Scheme == "http" {
		traceOpts = append(traceOpts, otlptracehttp.WithInsecure())
		metricOpts = append(metricOpts, otlpmetrichttp.WithInsecure())
	}
	if headers := parseHeaders(cfg.Headers); len(headers) > 0 {
		traceOpts = append(traceOpts, otlptracehttp.WithHeaders(headers))
		metricOpts = append(metricOpts, otlpmetrichttp.WithHeaders(headers))
	}
	return traceOpts, metricOpts, nil
}

// Init initializes OTEL with OTLP HTTP exporters.
// If cfg.Endpoint is empty, the returned Telemetry uses the global no-op
// providers.
func Init(ctx context.Context, cfg OTELConfig) (*Telemetry, error) {
	t := &Telemetry{}

	if cfg.Endpoint != "" {
		attrs := []attribute.KeyValue{
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(Version),
		}
		if cfg.RunID != "" {
			attrs = append(attrs, attribute.String("claude_panes.run_id", cfg.RunID))
		}
		res, err := resource.New(ctx, resource.WithAttributes(attrs...), resource.WithHost())
		if err != nil {
			return nil, fmt.Errorf("otel resource: %w", err)
		}

		traceOpts, metricOpts, err := exporterOptions(cfg)
		if err != nil {
			return nil, err
		}

		traceExp, err := otlptracehttp.New(ctx, traceOpts...)
		if err != nil {
			return nil, fmt.Errorf("otel trace exporter: %w", err)
		}
		t.tp = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(traceExp),
			sdktrace.WithResource(res),
		)

		metricExp, err := otlpmetrichttp.New(ctx, metricOpts...)
		if err != nil {
			return nil, fmt.Errorf("otel metric exporter: %w", err)
		}
		t.mp = sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp,
				sdkmetric.WithInterval(15*time.Second))),
			sdkmetric.WithResource(res),
		)

		otel.SetTracerProvider(t.tp)
		otel.SetMeterProvider(t.mp)
	}

	t.Tracer = otel.Tracer(serviceName)

	metrics, err := NewMetrics()
	if err != nil {
		return nil, fmt.Errorf("otel metrics: %w", err)
	}
	t.Metrics = metrics

	return t, nil
}

// Enabled reports whether telemetry is exported anywhere.
func (t *Telemetry) Enabled() bool {
	return t != nil && t.tp != nil
}

// Shutdown flushes and shuts down all OTEL providers.
func (t *Telemetry) Shutdown(ctx context.Context) {
	if t == nil {
		return
	}
	if t.tp != nil {
		_ = t.tp.Shutdown(ctx)
	}
	if t.mp != nil {
		_ = t.mp.Shutdown(ctx)
	}
}
