package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/plan-go/domain/planning"
)

// Span attribute keys for planning requests.
const (
	AttrRequestID   = attribute.Key("planner.request_id")
	AttrProblemType = attribute.Key("planner.problem_type")
	AttrStage       = attribute.Key("planner.stage")
	AttrPlanLength  = attribute.Key("planner.plan_length")
	AttrErrorKind   = attribute.Key("planner.error_kind")
)

// StartStage starts an internal span named "planner.<stage>".
func StartStage(ctx context.Context, tracer trace.Tracer, stage string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, AttrStage.String(stage))
	return tracer.Start(ctx, "planner."+stage,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// EndStage records the stage outcome on span and ends it.
func EndStage(span trace.Span, plan planning.Plan, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(AttrErrorKind.String(planning.ErrorKind(err)))
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(AttrPlanLength.Int(plan.Len()))
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// Traced runs fn inside a stage span.
func Traced(ctx context.Context, tracer trace.Tracer, stage string, fn func(context.Context) (planning.Plan, error), attrs ...attribute.KeyValue) (planning.Plan, error) {
	ctx, span := StartStage(ctx, tracer, stage, attrs...)
	plan, err := fn(ctx)
	EndStage(span, plan, err)
	return plan, err
}
