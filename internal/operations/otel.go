package operations

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"fuelpipe/internal/infrastructure"
)

const (
	TracerName = "fuelpipe/operations"
)

// OperationTracer provides OpenTelemetry instrumentation for pipeline runs
type OperationTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
}

// NewOperationTracer creates a tracer and the pipeline instruments from providers.
// Nil providers yield a tracer bound to the global OpenTelemetry providers.
func NewOperationTracer(providers *infrastructure.OTelProviders) (*OperationTracer, error) {
	if providers == nil {
		return &OperationTracer{tracer: otel.Tracer(TracerName)}, nil
	}

	metrics, err := infrastructure.CreatePipelineMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
	}

	return &OperationTracer{
		tracer:  providers.Tracer(TracerName),
		metrics: metrics,
	}, nil
}

// Metrics returns the pipeline instruments; nil when telemetry is off
func (pt *OperationTracer) Metrics() *infrastructure.PipelineMetrics {
	if pt == nil {
		return nil
	}
	return pt.metrics
}

// TraceOperationExecution creates a span for the whole run
func (pt *OperationTracer) TraceOperationExecution(ctx context.Context, operationID, step string) (context.Context, trace.Span) {
	return pt.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("operation.id", operationID),
			attribute.String("operation.step", step),
		),
	)
}

// TraceStageExecution creates a span for one step
func (pt *OperationTracer) TraceStageExecution(ctx context.Context, operationID, stageID string) (context.Context, trace.Span) {
	return pt.tracer.Start(ctx, "pipeline.step."+stageID,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("operation.id", operationID),
			attribute.String("step.id", stageID),
		),
	)
}

// RecordStageCompletion closes out a step span and records step metrics
func (pt *OperationTracer) RecordStageCompletion(ctx context.Context, span trace.Span, stageID string, duration time.Duration, err error) {
	success := err == nil
	status := "success"
	if !success {
		status = "failure"
	}

	span.SetAttributes(
		attribute.String("step.status", status),
		attribute.Float64("step.duration_seconds", duration.Seconds()),
	)
	span.AddEvent("step.completed", trace.WithAttributes(attribute.String("step.id", stageID)))

	if success {
		span.SetStatus(codes.Ok, "step completed")
	} else {
		span.RecordError(err, trace.WithAttributes(attribute.String("error.type", string(GetErrorType(err)))))
		span.SetStatus(codes.Error, err.Error())
	}

	infrastructure.RecordStepMetrics(ctx, pt.metrics, stageID, duration, success)
}

// RecordOperationCompletion sets the final status on the run span
func (pt *OperationTracer) RecordOperationCompletion(span trace.Span, status OperationStatusValue, duration time.Duration, err error) {
	span.SetAttributes(
		attribute.String("operation.status", string(status)),
		attribute.Float64("operation.duration_seconds", duration.Seconds()),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "operation completed")
}
