package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"

	"fuelpipe/internal/config"
	"fuelpipe/pkg/contracts"
)

// MeterName is the instrumentation scope of pipeline metrics
const MeterName = "fuelpipe"

// OTelConfig holds OpenTelemetry configuration
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	TraceExporter  string // "stdout", "none"
	MetricExporter string // "prometheus", "none"
	PushgatewayURL string
	PushJob        string
	SampleRatio    float64
	TraceWriter    io.Writer
}

// OTelConfigFrom maps the telemetry section of the application config
func OTelConfigFrom(cfg config.TelemetryConfig) *OTelConfig {
	return &OTelConfig{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: contracts.Version,
		TraceExporter:  cfg.TraceExporter,
		MetricExporter: cfg.MetricExporter,
		PushgatewayURL: cfg.PushgatewayURL,
		PushJob:        cfg.PushJob,
		SampleRatio:    1.0,
	}
}

// OTelProviders holds the OpenTelemetry providers for one process
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Meter          metric.Meter
	Registry       *promclient.Registry
	Logger         *slog.Logger

	pushURL string
	pushJob string
}

// InitializeOTel sets up tracing and metrics. With both exporters set to "none"
// the returned providers hand out no-op instruments.
func InitializeOTel(cfg *OTelConfig, logger *slog.Logger) (*OTelProviders, error) {
	if cfg == nil {
		cfg = OTelConfigFrom(config.Default().Telemetry)
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx := context.Background()

	res, err := createResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	providers := &OTelProviders{
		Meter:   noop.NewMeterProvider().Meter(MeterName),
		Logger:  logger,
		pushURL: cfg.PushgatewayURL,
		pushJob: cfg.PushJob,
	}

	if err := initializeTracing(ctx, cfg, res, providers); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	if err := initializeMetrics(ctx, cfg, res, providers); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.DebugContext(ctx, "OpenTelemetry initialization complete",
		slog.String("trace_exporter", cfg.TraceExporter),
		slog.String("metric_exporter", cfg.MetricExporter))

	return providers, nil
}

// createResource creates the OpenTelemetry resource
func createResource(cfg *OTelConfig) (*resource.Resource, error) {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		attribute.String("service.instance.id", generateInstanceID()),
	), nil
}

// initializeTracing sets up OpenTelemetry tracing
func initializeTracing(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	switch cfg.TraceExporter {
	case "", "none":
		return nil
	case "stdout":
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	writer := cfg.TraceWriter
	if writer == nil {
		writer = os.Stderr
	}
	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(writer),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	// Syncer, not batcher: a CLI run exits right after its last span
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
	)

	providers.TracerProvider = tp
	otel.SetTracerProvider(tp)

	providers.Logger.DebugContext(ctx, "Tracing initialized",
		slog.String("exporter", cfg.TraceExporter),
		slog.Float64("sample_ratio", cfg.SampleRatio))

	return nil
}

// initializeMetrics sets up OpenTelemetry metrics on a private Prometheus registry
func initializeMetrics(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	switch cfg.MetricExporter {
	case "", "none":
		return nil
	case "prometheus":
	default:
		return fmt.Errorf("unsupported metric exporter: %s", cfg.MetricExporter)
	}

	registry := promclient.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)

	providers.Registry = registry
	providers.MeterProvider = mp
	providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(cfg.ServiceVersion))
	otel.SetMeterProvider(mp)

	providers.Logger.DebugContext(ctx, "Metrics initialized",
		slog.String("exporter", cfg.MetricExporter))

	return nil
}

// Tracer returns a tracer from the configured provider, or the global one
func (p *OTelProviders) Tracer(name string) trace.Tracer {
	if p != nil && p.TracerProvider != nil {
		return p.TracerProvider.Tracer(name)
	}
	return otel.Tracer(name)
}

// PushMetrics sends the gathered metrics to the configured Pushgateway.
// It is a no-op when no gateway is configured or metrics are disabled.
func (p *OTelProviders) PushMetrics(ctx context.Context) error {
	if p == nil || p.pushURL == "" || p.Registry == nil {
		return nil
	}

	pusher := push.New(p.pushURL, p.pushJob).Gatherer(p.Registry)
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", p.pushURL, err)
	}

	p.Logger.InfoContext(ctx, "Metrics pushed",
		slog.String("pushgateway", p.pushURL),
		slog.String("job", p.pushJob))
	return nil
}

// Shutdown pushes pending metrics and shuts down the providers
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	var errs []error

	if err := p.PushMetrics(ctx); err != nil {
		errs = append(errs, err)
	}

	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}

	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("opentelemetry shutdown errors: %w", errors.Join(errs...))
	}

	p.Logger.DebugContext(ctx, "OpenTelemetry shutdown complete")
	return nil
}

// PipelineMetrics holds the instruments recorded by a pipeline run
type PipelineMetrics struct {
	StepsTotal       metric.Int64Counter
	StepDuration     metric.Float64Histogram
	StepErrors       metric.Int64Counter
	Rows             metric.Int64Counter
	PostalLookups    metric.Int64Counter
	ValidationIssues metric.Int64Counter
}

// CreatePipelineMetrics creates the pipeline instruments on meter
func CreatePipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	stepsTotal, err := meter.Int64Counter(
		"pipeline_steps_total",
		metric.WithDescription("Total number of pipeline steps executed"),
	)
	if err != nil {
		return nil, err
	}

	stepDuration, err := meter.Float64Histogram(
		"pipeline_step_duration_seconds",
		metric.WithDescription("Pipeline step execution duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	stepErrors, err := meter.Int64Counter(
		"pipeline_step_errors_total",
		metric.WithDescription("Total number of failed pipeline steps"),
	)
	if err != nil {
		return nil, err
	}

	rows, err := meter.Int64Counter(
		"pipeline_rows_total",
		metric.WithDescription("Rows handled by a step, by outcome"),
	)
	if err != nil {
		return nil, err
	}

	lookups, err := meter.Int64Counter(
		"postal_code_lookups_total",
		metric.WithDescription("Postal code resolutions, by result"),
	)
	if err != nil {
		return nil, err
	}

	issues, err := meter.Int64Counter(
		"validation_issues_total",
		metric.WithDescription("Validation issues found, by field"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		StepsTotal:       stepsTotal,
		StepDuration:     stepDuration,
		StepErrors:       stepErrors,
		Rows:             rows,
		PostalLookups:    lookups,
		ValidationIssues: issues,
	}, nil
}

// RecordStepMetrics records the execution of one pipeline step
func RecordStepMetrics(ctx context.Context, m *PipelineMetrics, stepID string, duration time.Duration, success bool) {
	if m == nil {
		return
	}

	status := "success"
	if !success {
		status = "failure"
	}
	attrs := metric.WithAttributes(
		attribute.String("step", stepID),
		attribute.String("status", status),
	)

	m.StepsTotal.Add(ctx, 1, attrs)
	m.StepDuration.Record(ctx, duration.Seconds(), attrs)
	if !success {
		m.StepErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("step", stepID)))
	}
}

// RecordRows adds n rows with the given outcome for a step
func RecordRows(ctx context.Context, m *PipelineMetrics, stepID, outcome string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.Rows.Add(ctx, int64(n), metric.WithAttributes(
		attribute.String("step", stepID),
		attribute.String("outcome", outcome),
	))
}

// RecordPostalLookups adds n postal code resolutions with the given result
func RecordPostalLookups(ctx context.Context, m *PipelineMetrics, result string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.PostalLookups.Add(ctx, int64(n), metric.WithAttributes(attribute.String("result", result)))
}

// RecordValidationIssue counts one issue against field
func RecordValidationIssue(ctx context.Context, m *PipelineMetrics, field string) {
	if m == nil {
		return
	}
	m.ValidationIssues.Add(ctx, 1, metric.WithAttributes(attribute.String("field", field)))
}

// generateInstanceID generates a unique instance identifier
func generateInstanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().Unix())
}
