package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// StartSpan starts a new span and records it in the returned context.
func (r *Recorder) StartSpan(
	ctx context.Context,
	name string,
	attrs ...Attr,
) (context.Context, trace.Span) {
	return r.tracer.Start(
		ctx,
		name,
		trace.WithAttributes(asAttrKeyValues(attrs)...),
	)
}

// SetAttributes adds attributes to span.
func SetAttributes(span trace.Span, attrs ...Attr) {
	span.SetAttributes(asAttrKeyValues(attrs)...)
}
