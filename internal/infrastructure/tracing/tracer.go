// Package tracing provides OpenTelemetry-based tracing infrastructure. It
// supports multiple exporters (stdout, OTLP) and provides domain-specific
// span helpers for workspace switches and placement plan computation.
package tracing

import (
	"context"
	"fmt"
	"io"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	// TracerName is the name used for the tilekit tracer.
	TracerName = "github.com/jbctechsolutions/tilekit"

	// Version is the semantic version of the tracer.
	Version = "1.0.0"
)

// ExporterType defines the type of trace exporter.
type ExporterType string

const (
	ExporterNone   ExporterType = "none"
	ExporterStdout ExporterType = "stdout"
	ExporterOTLP   ExporterType = "otlp"
)

// Config holds tracing configuration.
type Config struct {
	Enabled      bool         // Whether tracing is enabled
	ExporterType ExporterType // Type of exporter to use
	OTLPEndpoint string       // OTLP collector endpoint (for OTLP exporter)
	ServiceName  string       // Service name for traces
	Environment  string       // Deployment environment (development, production)
	SampleRate   float64      // Sampling rate (0.0 to 1.0)
	Output       io.Writer    // Output for stdout exporter (defaults to os.Stdout)
}

// DefaultConfig returns sensible default tracing configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:      false,
		ExporterType: ExporterNone,
		ServiceName:  "tilekit",
		Environment:  "development",
		SampleRate:   1.0,
	}
}

// Tracer wraps an OpenTelemetry tracer with domain-specific functionality.
type Tracer struct {
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
	config   Config
}

// global is the package-level default tracer.
var (
	global     *Tracer
	globalOnce sync.Once
)

// Init initializes the global tracer with the provided configuration.
func Init(ctx context.Context, cfg Config) (*Tracer, error) {
	var err error
	globalOnce.Do(func() {
		global, err = New(ctx, cfg)
	})
	return global, err
}

// Default returns the global tracer, or a no-op tracer if not initialized.
func Default() *Tracer {
	if global == nil {
		return &Tracer{
			tracer: otel.Tracer(TracerName),
			config: DefaultConfig(),
		}
	}
	return global
}

// New creates a new Tracer with the provided configuration.
func New(ctx context.Context, cfg Config) (*Tracer, error) {
	if !cfg.Enabled || cfg.ExporterType == ExporterNone {
		return &Tracer{
			tracer: noop.NewTracerProvider().Tracer(TracerName),
			config: cfg,
		}, nil
	}

	exporter, err := createExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create exporter: %w", err)
	}

	// Create resource without merging with Default() to avoid schema URL
	// conflicts between semconv versions.
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(Version),
			attribute.String("deployment.environment", cfg.Environment),
		),
		resource.WithHost(),
		resource.WithTelemetrySDK(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	var sampler sdktrace.Sampler
	if cfg.SampleRate >= 1.0 {
		sampler = sdktrace.AlwaysSample()
	} else if cfg.SampleRate <= 0.0 {
		sampler = sdktrace.NeverSample()
	} else {
		sampler = sdktrace.TraceIDRatioBased(cfg.SampleRate)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	otel.SetTracerProvider(provider)

	return &Tracer{
		tracer:   provider.Tracer(TracerName, trace.WithInstrumentationVersion(Version)),
		provider: provider,
		config:   cfg,
	}, nil
}

// createExporter creates the appropriate exporter based on configuration.
func createExporter(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
	switch cfg.ExporterType {
	case ExporterStdout:
		opts := []stdouttrace.Option{
			stdouttrace.WithPrettyPrint(),
		}
		if cfg.Output != nil {
			opts = append(opts, stdouttrace.WithWriter(cfg.Output))
		}
		return stdouttrace.New(opts...)

	case ExporterOTLP:
		opts := []otlptracehttp.Option{
			otlptracehttp.WithInsecure(),
		}
		if cfg.OTLPEndpoint != "" {
			opts = append(opts, otlptracehttp.WithEndpoint(cfg.OTLPEndpoint))
		}
		return otlptracehttp.New(ctx, opts...)

	default:
		return nil, fmt.Errorf("unsupported exporter type: %s", cfg.ExporterType)
	}
}

// Shutdown gracefully shuts down the tracer provider.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t.provider != nil {
		return t.provider.Shutdown(ctx)
	}
	return nil
}

// Start starts a new span with the given name.
func (t *Tracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}

// SpanFromContext returns the current span from context.
func SpanFromContext(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}

// --- Domain-specific span helpers ---

// SwitchSpan represents a workspace switch span.
type SwitchSpan struct {
	span trace.Span
	ctx  context.Context
}

// StartSwitchSpan starts a span for a workspace switch.
func (t *Tracer) StartSwitchSpan(ctx context.Context, workspaceID, previousID string) (context.Context, *SwitchSpan) {
	ctx, span := t.tracer.Start(ctx, "workspace.switch",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("workspace.id", workspaceID),
			attribute.String("workspace.previous_id", previousID),
		),
	)

	return ctx, &SwitchSpan{span: span, ctx: ctx}
}

// SetWindowCount sets the number of windows placed by the switch.
func (ss *SwitchSpan) SetWindowCount(count int) {
	ss.span.SetAttributes(attribute.Int("workspace.window_count", count))
}

// SetLatencyMS sets the observed switch latency.
func (ss *SwitchSpan) SetLatencyMS(latency int64) {
	ss.span.SetAttributes(attribute.Int64("workspace.latency_ms", latency))
}

// SetRolledBack marks the switch as rolled back to the previous workspace.
func (ss *SwitchSpan) SetRolledBack(rollbackID string) {
	ss.span.SetAttributes(
		attribute.Bool("workspace.rolled_back", true),
		attribute.String("workspace.rollback_id", rollbackID),
	)
}

// End ends the switch span with success status.
func (ss *SwitchSpan) End() {
	ss.span.SetStatus(codes.Ok, "switch completed")
	ss.span.End()
}

// EndWithError ends the switch span with error status.
func (ss *SwitchSpan) EndWithError(err error) {
	ss.span.RecordError(err)
	ss.span.SetStatus(codes.Error, err.Error())
	ss.span.End()
}

// PlanSpan represents a placement plan computation span.
type PlanSpan struct {
	span trace.Span
	ctx  context.Context
}

// StartPlanSpan starts a span for plan computation.
func (t *Tracer) StartPlanSpan(ctx context.Context, workspaceID string) (context.Context, *PlanSpan) {
	ctx, span := t.tracer.Start(ctx, "tiling.compute_plan",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("workspace.id", workspaceID),
		),
	)

	return ctx, &PlanSpan{span: span, ctx: ctx}
}

// SetAlgorithm sets the layout algorithm used for the primary monitor.
func (ps *PlanSpan) SetAlgorithm(algorithm string) {
	ps.span.SetAttributes(attribute.String("tiling.algorithm", algorithm))
}

// SetCounts sets the monitor and window counts for the computation.
func (ps *PlanSpan) SetCounts(monitors, windows int) {
	ps.span.SetAttributes(
		attribute.Int("tiling.monitor_count", monitors),
		attribute.Int("tiling.window_count", windows),
	)
}

// SetFallback marks that the pattern policy failed and the plan fell back to
// allow-overflow.
func (ps *PlanSpan) SetFallback(reason string) {
	ps.span.SetAttributes(
		attribute.Bool("tiling.fallback", true),
		attribute.String("tiling.fallback_reason", reason),
	)
}

// End ends the plan span with success status.
func (ps *PlanSpan) End() {
	ps.span.SetStatus(codes.Ok, "plan computed")
	ps.span.End()
}

// EndWithError ends the plan span with error status.
func (ps *PlanSpan) EndWithError(err error) {
	ps.span.RecordError(err)
	ps.span.SetStatus(codes.Error, err.Error())
	ps.span.End()
}

// AddEvent adds an event to the current span.
func AddEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// RecordError records an error on the current span.
func RecordError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
}

// SetAttribute sets an attribute on the current span.
func SetAttribute(ctx context.Context, key string, value any) {
	span := trace.SpanFromContext(ctx)
	switch v := value.(type) {
	case string:
		span.SetAttributes(attribute.String(key, v))
	case int:
		span.SetAttributes(attribute.Int(key, v))
	case int64:
		span.SetAttributes(attribute.Int64(key, v))
	case float64:
		span.SetAttributes(attribute.Float64(key, v))
	case bool:
		span.SetAttributes(attribute.Bool(key, v))
	}
}
