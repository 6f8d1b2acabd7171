package infrastructure

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"fuelpipe/internal/config"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOTelConfigFrom(t *testing.T) {
	cfg := OTelConfigFrom(config.Default().Telemetry)
	assert.Equal(t, "fuelpipe", cfg.ServiceName)
	assert.Equal(t, "none", cfg.TraceExporter)
	assert.Equal(t, "prometheus", cfg.MetricExporter)
	assert.Equal(t, 1.0, cfg.SampleRatio)
	assert.NotEmpty(t, cfg.ServiceVersion)
}

func TestInitializeOTelDisabled(t *testing.T) {
	providers, err := InitializeOTel(&OTelConfig{
		ServiceName:    "fuelpipe-test",
		TraceExporter:  "none",
		MetricExporter: "none",
	}, quietLogger())
	require.NoError(t, err)

	assert.Nil(t, providers.TracerProvider)
	assert.Nil(t, providers.MeterProvider)
	assert.Nil(t, providers.Registry)
	assert.NotNil(t, providers.Tracer("test"))

	m, err := CreatePipelineMetrics(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)
	RecordStepMetrics(context.Background(), m, "clean", time.Second, true)

	assert.NoError(t, providers.PushMetrics(context.Background()))
	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestInitializeOTelUnsupportedExporter(t *testing.T) {
	_, err := InitializeOTel(&OTelConfig{ServiceName: "x", TraceExporter: "jaeger"}, quietLogger())
	assert.ErrorContains(t, err, "unsupported trace exporter: jaeger")

	_, err = InitializeOTel(&OTelConfig{ServiceName: "x", MetricExporter: "statsd"}, quietLogger())
	assert.ErrorContains(t, err, "unsupported metric exporter: statsd")
}

func TestPipelineMetricsGathered(t *testing.T) {
	providers, err := InitializeOTel(&OTelConfig{
		ServiceName:    "fuelpipe-test",
		MetricExporter: "prometheus",
	}, quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = providers.Shutdown(context.Background()) })

	m, err := CreatePipelineMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	RecordStepMetrics(ctx, m, "enrich", 50*time.Millisecond, false)
	RecordRows(ctx, m, "clean", "duplicate", 2)
	RecordPostalLookups(ctx, m, "resolved", 3)
	RecordValidationIssue(ctx, m, "Gallons Purchased")

	families, err := providers.Registry.Gather()
	require.NoError(t, err)

	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	joined := strings.Join(names, ",")
	for _, prefix := range []string{
		"pipeline_steps", "pipeline_step_duration", "pipeline_step_errors",
		"pipeline_rows", "postal_code_lookups", "validation_issues",
	} {
		assert.Contains(t, joined, prefix)
	}
}

func TestRecordHelpersTolerateNilMetrics(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() {
		RecordStepMetrics(ctx, nil, "clean", time.Second, true)
		RecordRows(ctx, nil, "clean", "kept", 1)
		RecordPostalLookups(ctx, nil, "resolved", 1)
		RecordValidationIssue(ctx, nil, "Driver ID")
	})
}

func TestStdoutTraceExporter(t *testing.T) {
	var buf bytes.Buffer
	providers, err := InitializeOTel(&OTelConfig{
		ServiceName:    "fuelpipe-test",
		TraceExporter:  "stdout",
		MetricExporter: "none",
		SampleRatio:    1,
		TraceWriter:    &buf,
	}, quietLogger())
	require.NoError(t, err)
	require.NotNil(t, providers.TracerProvider)

	_, span := providers.Tracer("test").Start(context.Background(), "pipeline.step.clean")
	span.End()
	require.NoError(t, providers.Shutdown(context.Background()))

	assert.Contains(t, buf.String(), "pipeline.step.clean")
}

func TestPushMetrics(t *testing.T) {
	var pushes int32
	var path atomic.Value
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&pushes, 1)
		path.Store(r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer gateway.Close()

	providers, err := InitializeOTel(&OTelConfig{
		ServiceName:    "fuelpipe-test",
		MetricExporter: "prometheus",
		PushgatewayURL: gateway.URL,
		PushJob:        "fuelpipe",
	}, quietLogger())
	require.NoError(t, err)

	m, err := CreatePipelineMetrics(providers.Meter)
	require.NoError(t, err)
	RecordStepMetrics(context.Background(), m, "clean", time.Millisecond, true)

	require.NoError(t, providers.Shutdown(context.Background()))
	assert.Equal(t, int32(1), atomic.LoadInt32(&pushes))
	assert.Equal(t, "/metrics/job/fuelpipe", path.Load())
}

func TestPushMetricsFailure(t *testing.T) {
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer gateway.Close()

	providers, err := InitializeOTel(&OTelConfig{
		ServiceName:    "fuelpipe-test",
		MetricExporter: "prometheus",
		PushgatewayURL: gateway.URL,
		PushJob:        "fuelpipe",
	}, quietLogger())
	require.NoError(t, err)

	err = providers.PushMetrics(context.Background())
	assert.ErrorContains(t, err, "failed to push metrics")
}
