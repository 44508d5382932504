package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/GokulRavii/SingleAgent-MultiTool-System"

// Metrics holds the dispatch metric instruments. A nil *Metrics records nothing.
type Metrics struct {
	Dispatches       metric.Int64Counter
	Confirmations    metric.Int64Counter
	ToolCalls        metric.Int64Counter
	DispatchDuration metric.Float64Histogram
	ConfirmationWait metric.Float64Histogram
}

// NewMetrics creates all metric instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.Dispatches, err = meter.Int64Counter("agent.dispatches",
		metric.WithDescription("Number of dispatched requests by outcome kind"))
	if err != nil {
		return nil, err
	}

	m.Confirmations, err = meter.Int64Counter("agent.confirmations",
		metric.WithDescription("Number of confirmation tickets by final decision"))
	if err != nil {
		return nil, err
	}

	m.ToolCalls, err = meter.Int64Counter("agent.toolcalls",
		metric.WithDescription("Number of remote tool invocations"))
	if err != nil {
		return nil, err
	}

	m.DispatchDuration, err = meter.Float64Histogram("agent.dispatch.duration_seconds",
		metric.WithDescription("End-to-end dispatch duration in seconds"))
	if err != nil {
		return nil, err
	}

	m.ConfirmationWait, err = meter.Float64Histogram("agent.confirmation.wait_seconds",
		metric.WithDescription("Time a dangerous call waited for a human decision"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordDispatch counts one finished dispatch.
func (m *Metrics) RecordDispatch(ctx context.Context, kind, toolName string, seconds float64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("kind", kind), attribute.String("tool", toolName))
	m.Dispatches.Add(ctx, 1, attrs)
	m.DispatchDuration.Record(ctx, seconds, attrs)
}

// RecordConfirmation counts one decided confirmation ticket.
func (m *Metrics) RecordConfirmation(ctx context.Context, decision, channel string, seconds float64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("decision", decision), attribute.String("channel", channel))
	m.Confirmations.Add(ctx, 1, attrs)
	m.ConfirmationWait.Record(ctx, seconds, attrs)
}

// RecordToolCall counts one remote invocation.
func (m *Metrics) RecordToolCall(ctx context.Context, toolName string, ok bool) {
	if m == nil {
		return
	}
	m.ToolCalls.Add(ctx, 1, metric.WithAttributes(attribute.String("tool", toolName), attribute.Bool("ok", ok)))
}
