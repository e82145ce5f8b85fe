package api

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// startSpan opens a span through the handler tracer, degrading to a
// noop span when no tracer is configured.
func (h *Handler) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if h.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return h.tracer.Start(ctx, name)
}
