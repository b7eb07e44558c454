package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "tracedeck"

// StartIngestSpan starts a span for a workflow result ingestion.
func StartIngestSpan(ctx context.Context, taskID, workflowID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "ingest",
		trace.WithAttributes(
			attribute.String("task.id", taskID),
			attribute.String("workflow.id", workflowID),
		),
	)
}

// StartDecisionSpan starts a span for a model validation decision.
func StartDecisionSpan(ctx context.Context, taskID, submissionID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "decision",
		trace.WithAttributes(
			attribute.String("task.id", taskID),
			attribute.String("submission.id", submissionID),
		),
	)
}
