package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/GokulRavii/SingleAgent-MultiTool-System"

// StartDispatchSpan starts a span for one end-to-end request.
func StartDispatchSpan(ctx context.Context, dispatchID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "dispatch",
		trace.WithAttributes(attribute.String("dispatch.id", dispatchID)),
	)
}

// StartConfirmationSpan starts a span covering the wait for a human decision.
func StartConfirmationSpan(ctx context.Context, ticketID, tool string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "confirmation",
		trace.WithAttributes(
			attribute.String("confirmation.id", ticketID),
			attribute.String("toolcall.tool", tool),
		),
	)
}

// StartToolCallSpan starts a span for a remote tool invocation.
func StartToolCallSpan(ctx context.Context, tool, transport string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "toolcall",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("toolcall.tool", tool),
			attribute.String("toolcall.transport", transport),
		),
	)
}

// StartToolServeSpan starts a span for a tool executed by the tool server.
func StartToolServeSpan(ctx context.Context, tool string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "toolserve",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attribute.String("toolcall.tool", tool)),
	)
}
