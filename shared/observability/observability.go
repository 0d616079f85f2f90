package observability

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// SetupTracing initializes OpenTelemetry tracing with a stdout exporter
// (replace with OTLP in production)
func SetupTracing(serviceName string) (func(), error) {
	exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize stdouttrace exporter: %w", err)
	}
	res, _ := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
	provider := trace.NewTracerProvider(
		trace.WithBatcher(exp),
		trace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	return func() { _ = provider.Shutdown(context.Background()) }, nil
}

// SetupMetrics initializes the Prometheus metrics exporter. The exposition
// endpoint is mounted on the main router rather than a side port.
func SetupMetrics() (*sdkmetric.MeterProvider, error) {
	exp, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize prometheus exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exp))
	otel.SetMeterProvider(mp)
	return mp, nil
}

// MetricsHandler returns the Prometheus exposition handler
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// StreamMetrics records counters for the chat streaming relay
type StreamMetrics struct {
	started   metric.Int64Counter
	completed metric.Int64Counter
	failed    metric.Int64Counter
	fragments metric.Int64Counter
	active    metric.Int64UpDownCounter
}

// NewStreamMetrics creates relay metrics on the given meter provider
func NewStreamMetrics(mp *sdkmetric.MeterProvider) (*StreamMetrics, error) {
	meter := mp.Meter("chatbot-api/relay")

	started, err := meter.Int64Counter("chat_streams_started_total",
		metric.WithDescription("Number of stream tickets redeemed"))
	if err != nil {
		return nil, err
	}
	completed, err := meter.Int64Counter("chat_streams_completed_total",
		metric.WithDescription("Number of streams that ran to completion"))
	if err != nil {
		return nil, err
	}
	failed, err := meter.Int64Counter("chat_streams_failed_total",
		metric.WithDescription("Number of streams ended by provider or server errors"))
	if err != nil {
		return nil, err
	}
	fragments, err := meter.Int64Counter("chat_stream_fragments_total",
		metric.WithDescription("Number of fragments forwarded to clients"))
	if err != nil {
		return nil, err
	}
	active, err := meter.Int64UpDownCounter("chat_streams_active",
		metric.WithDescription("Streams currently being relayed"))
	if err != nil {
		return nil, err
	}

	return &StreamMetrics{
		started:   started,
		completed: completed,
		failed:    failed,
		fragments: fragments,
		active:    active,
	}, nil
}

func (m *StreamMetrics) StreamStarted(ctx context.Context) {
	if m == nil {
		return
	}
	m.started.Add(ctx, 1)
	m.active.Add(ctx, 1)
}

func (m *StreamMetrics) StreamCompleted(ctx context.Context) {
	if m == nil {
		return
	}
	m.completed.Add(ctx, 1)
	m.active.Add(ctx, -1)
}

func (m *StreamMetrics) StreamFailed(ctx context.Context) {
	if m == nil {
		return
	}
	m.failed.Add(ctx, 1)
	m.active.Add(ctx, -1)
}

func (m *StreamMetrics) FragmentForwarded(ctx context.Context) {
	if m == nil {
		return
	}
	m.fragments.Add(ctx, 1)
}
