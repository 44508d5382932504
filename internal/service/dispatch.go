package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	cfotel "github.com/GokulRavii/SingleAgent-MultiTool-System/internal/adapter/otel"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/domain"
	cf "github.com/GokulRavii/SingleAgent-MultiTool-System/internal/domain/confirmation"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/domain/dispatch"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/logger"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/port/broadcast"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/port/messagequeue"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/port/model"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/port/toolclient"
)

// DispatchService owns the end-to-end flow of one request:
// model output → parse → confirmation → invocation → outcome.
// Each request is strictly sequential; independent requests may run
// concurrently and share only the read-only catalog and the gate.
type DispatchService struct {
	model   model.Completer
	gate    *Gate
	invoker toolclient.Invoker
	hub     broadcast.Broadcaster
	queue   messagequeue.Queue
	metrics *cfotel.Metrics
	now     func() time.Time
	newID   func() string
}

// NewDispatchService creates a DispatchService. completer may be nil when
// only pre-built instructions are dispatched.
func NewDispatchService(completer model.Completer, gate *Gate, invoker toolclient.Invoker) *DispatchService {
	return &DispatchService{
		model:   completer,
		gate:    gate,
		invoker: invoker,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// SetBroadcaster sets the event hub outcomes are pushed to.
func (s *DispatchService) SetBroadcaster(b broadcast.Broadcaster) { s.hub = b }

// SetQueue sets the message queue outcome events are published to.
func (s *DispatchService) SetQueue(q messagequeue.Queue) { s.queue = q }

// SetMetrics sets the metric instruments.
func (s *DispatchService) SetMetrics(m *cfotel.Metrics) { s.metrics = m }

// Gate returns the confirmation gate used by this service.
func (s *DispatchService) Gate() *Gate { return s.gate }

// Ask runs model inference on task and dispatches the resulting instruction.
func (s *DispatchService) Ask(ctx context.Context, task string) dispatch.Outcome {
	ctx, o, finish := s.begin(ctx)

	if s.model == nil {
		s.fail(ctx, o, fmt.Errorf("%w: no model configured", domain.ErrInference))
		return finish()
	}
	raw, err := s.model.Complete(ctx, task)
	if err != nil {
		s.fail(ctx, o, err)
		return finish()
	}
	slog.InfoContext(ctx, "model output", "raw", raw)
	s.run(ctx, o, raw)
	return finish()
}

// Dispatch executes an instruction that was already produced, e.g. by a
// caller that ran inference itself.
func (s *DispatchService) Dispatch(ctx context.Context, raw string) dispatch.Outcome {
	ctx, o, finish := s.begin(ctx)
	s.run(ctx, o, raw)
	return finish()
}

func (s *DispatchService) begin(ctx context.Context) (context.Context, *dispatch.Outcome, func() dispatch.Outcome) {
	o := &dispatch.Outcome{ID: s.newID()}
	ctx = logger.WithDispatchID(ctx, o.ID)
	ctx, span := cfotel.StartDispatchSpan(ctx, o.ID)
	start := s.now()
	return ctx, o, func() dispatch.Outcome {
		defer span.End()
		o.Duration = s.now().Sub(start)
		s.report(ctx, o)
		return *o
	}
}

func (s *DispatchService) run(ctx context.Context, o *dispatch.Outcome, raw string) {
	o.Raw = raw

	call, err := ParseInstruction(raw)
	if err != nil {
		s.fail(ctx, o, err)
		return
	}
	o.Call = &call
	slog.InfoContext(ctx, "tool call parsed", "tool", call.Name(), "args", call.Args())

	ticket := s.gate.Confirm(ctx, call)
	o.Decision = ticket.Decision
	if ticket.Initial == cf.DecisionNotRequired {
		o.Decision = cf.DecisionNotRequired
	}
	if !ticket.Approved() {
		o.Kind = dispatch.KindCancelled
		o.Detail = ticket.Reason
		return
	}

	result, err := s.invoker.Invoke(ctx, call)
	s.metrics.RecordToolCall(ctx, call.Name(), err == nil && result.OK)
	if err != nil {
		s.fail(ctx, o, err)
		return
	}
	o.Result = &result
	if result.OK {
		o.Kind = dispatch.KindSucceeded
	} else {
		o.Kind = dispatch.KindToolFailed
	}
}

func (s *DispatchService) fail(ctx context.Context, o *dispatch.Outcome, err error) {
	o.Kind = dispatch.KindFailed
	o.Failure = dispatch.FailureOf(err)
	o.Detail = err.Error()
	o.Err = err
	slog.WarnContext(ctx, "dispatch failed", "failure", o.Failure, "error", err)
}

func (s *DispatchService) report(ctx context.Context, o *dispatch.Outcome) {
	toolName := ""
	var args map[string]any
	if o.Call != nil {
		toolName = o.Call.Name()
		args = o.Call.Args()
	}
	msg := o.Message()

	slog.InfoContext(ctx, "dispatch finished",
		"kind", o.Kind,
		"tool", toolName,
		"decision", o.Decision,
		"duration", o.Duration,
	)

	bg := context.WithoutCancel(ctx)
	s.metrics.RecordDispatch(bg, string(o.Kind), toolName, o.Duration.Seconds())

	payload := messagequeue.OutcomePayload{
		DispatchID: o.ID,
		Kind:       string(o.Kind),
		Tool:       toolName,
		Args:       args,
		Decision:   string(o.Decision),
		Failure:    string(o.Failure),
		Message:    msg,
		DurationMS: o.Duration.Milliseconds(),
		At:         s.now().UTC(),
	}
	if s.hub != nil {
		s.hub.BroadcastEvent(bg, broadcast.EventDispatchCompleted, payload)
	}
	if s.queue != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			slog.ErrorContext(ctx, "marshal outcome event", "error", err)
			return
		}
		if err := s.queue.Publish(bg, messagequeue.OutcomeSubject(string(o.Kind)), data); err != nil {
			slog.WarnContext(ctx, "publish outcome event", "error", err)
		}
	}
}
