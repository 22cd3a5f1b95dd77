package operations

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"dataingest/internal/infrastructure"
)

const (
	SpanRun  = "ingestion.run"
	SpanStep = "ingestion.step"
)

// runTracer wraps the telemetry of a pipeline. A nil Telemetry traces to a no-op tracer
// and records no metrics.
type runTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
}

func newRunTracer(t *infrastructure.Telemetry) *runTracer {
	if t == nil || t.Tracer == nil {
		rt := &runTracer{tracer: tracenoop.NewTracerProvider().Tracer(infrastructure.InstrumentationName)}
		if t != nil {
			rt.metrics = t.Metrics
		}
		return rt
	}
	return &runTracer{tracer: t.Tracer, metrics: t.Metrics}
}

// traceRun creates the span covering a whole run
func (rt *runTracer) traceRun(ctx context.Context, runID string, stepCount int) (context.Context, trace.Span) {
	return rt.tracer.Start(ctx, SpanRun,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.Int("run.steps", stepCount),
		),
	)
}

// traceStep creates a child span for one step
func (rt *runTracer) traceStep(ctx context.Context, step Step, number int) (context.Context, trace.Span) {
	return rt.tracer.Start(ctx, SpanStep+"."+step.ID(),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("step.id", step.ID()),
			attribute.String("step.name", step.Name()),
			attribute.Int("step.number", number),
		),
	)
}

// endSpan sets the status of the span in ctx from err and ends it
func endSpan(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if err != nil {
		infrastructure.RecordError(ctx, err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
