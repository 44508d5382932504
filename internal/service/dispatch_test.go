package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/domain"
	cf "github.com/GokulRavii/SingleAgent-MultiTool-System/internal/domain/confirmation"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/domain/dispatch"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/domain/tool"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/port/broadcast"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/port/messagequeue"
)

// spyInvoker records every call and returns a canned result.
type spyInvoker struct {
	mu     sync.Mutex
	calls  []tool.Call
	result tool.Result
	err    error
}

func (s *spyInvoker) Invoke(_ context.Context, call tool.Call) (tool.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
	return s.result, s.err
}

func (s *spyInvoker) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type fakeCompleter struct {
	out  string
	err  error
	task string
}

func (f *fakeCompleter) Complete(_ context.Context, task string) (string, error) {
	f.task = task
	return f.out, f.err
}

type fakeQueue struct {
	mu        sync.Mutex
	published map[string][]byte
}

func (q *fakeQueue) Publish(_ context.Context, subject string, data []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.published == nil {
		q.published = map[string][]byte{}
	}
	q.published[subject] = data
	return nil
}

func (q *fakeQueue) Subscribe(context.Context, string, messagequeue.Handler) (func(), error) {
	return func() {}, nil
}
func (q *fakeQueue) Drain() error      { return nil }
func (q *fakeQueue) Close() error      { return nil }
func (q *fakeQueue) IsConnected() bool { return true }

func newTestDispatcher(t *testing.T, input string, inv *spyInvoker) *DispatchService {
	t.Helper()
	g := newTestGate(t, GateConfig{}, &scriptedProvider{input: input})
	return NewDispatchService(nil, g, inv)
}

const emailInstruction = `{"tool":"send_email","args":{"to":"a@b.c","subject":"Hello","body":"Hi"}}`

func TestDispatchRoutineSucceeds(t *testing.T) {
	inv := &spyInvoker{result: tool.Success("5")}
	s := newTestDispatcher(t, "no", inv)

	o := s.Dispatch(context.Background(), `{"tool":"calc","args":{"a":10,"b":2,"operation":"divide"}}`)
	if o.Kind != dispatch.KindSucceeded || o.Message() != "5" {
		t.Fatalf("outcome = %+v", o)
	}
	if o.Decision != cf.DecisionNotRequired {
		t.Fatalf("decision = %s, want not_required", o.Decision)
	}
	if inv.count() != 1 {
		t.Fatalf("invoker calls = %d, want 1", inv.count())
	}
	if o.ID == "" {
		t.Fatal("outcome must carry a dispatch id")
	}
}

func TestDispatchDeniedNeverInvokes(t *testing.T) {
	for _, input := range []string{"no", "", "YES", "sure"} {
		t.Run(input, func(t *testing.T) {
			inv := &spyInvoker{result: tool.Success("sent")}
			s := newTestDispatcher(t, input, inv)

			o := s.Dispatch(context.Background(), emailInstruction)
			if o.Kind != dispatch.KindCancelled || o.Decision != cf.DecisionDenied {
				t.Fatalf("outcome = %+v, want cancelled/denied", o)
			}
			if inv.count() != 0 {
				t.Fatalf("denied call reached the invoker %d times", inv.count())
			}
			if o.Err != nil {
				t.Fatalf("denial is not an error, got %v", o.Err)
			}
		})
	}
}

func TestDispatchApprovedInvokesOnce(t *testing.T) {
	inv := &spyInvoker{result: tool.Success("Email successfully sent to a@b.c")}
	s := newTestDispatcher(t, "yes", inv)

	o := s.Dispatch(context.Background(), emailInstruction)
	if o.Kind != dispatch.KindSucceeded || o.Decision != cf.DecisionApproved {
		t.Fatalf("outcome = %+v", o)
	}
	if inv.count() != 1 {
		t.Fatalf("invoker calls = %d, want exactly 1", inv.count())
	}
	if to, _ := inv.calls[0].Text("to"); to != "a@b.c" {
		t.Fatalf("invoked with %s", inv.calls[0].Summary())
	}
}

func TestDispatchToolFailure(t *testing.T) {
	inv := &spyInvoker{result: tool.Failure(tool.ErrorKindInvalidOperation, "invalid operation: cannot divide by zero")}
	s := newTestDispatcher(t, "", inv)

	o := s.Dispatch(context.Background(), `{"tool":"calc","args":{"a":10,"b":0,"operation":"divide"}}`)
	if o.Kind != dispatch.KindToolFailed {
		t.Fatalf("kind = %s, want tool_failed", o.Kind)
	}
	if !strings.HasPrefix(o.Message(), "Invalid operation") {
		t.Fatalf("message = %q", o.Message())
	}
}

func TestDispatchParserFailures(t *testing.T) {
	tests := []struct {
		raw     string
		failure dispatch.Failure
		sentry  error
	}{
		{"I think you want the weather", dispatch.FailureMalformedOutput, domain.ErrMalformedOutput},
		{`{"tool":"rm_rf","args":{}}`, dispatch.FailureUnknownTool, domain.ErrUnknownTool},
		{`{"tool":"calc","args":{"a":"1","b":2,"operation":"add"}}`, dispatch.FailureSchemaMismatch, domain.ErrSchemaMismatch},
	}
	for _, tt := range tests {
		inv := &spyInvoker{}
		s := newTestDispatcher(t, "yes", inv)
		o := s.Dispatch(context.Background(), tt.raw)
		if o.Kind != dispatch.KindFailed || o.Failure != tt.failure || !errors.Is(o.Err, tt.sentry) {
			t.Errorf("Dispatch(%q) = %+v", tt.raw, o)
		}
		if inv.count() != 0 {
			t.Errorf("parser failure reached the invoker")
		}
	}
}

func TestDispatchTransportFailure(t *testing.T) {
	inv := &spyInvoker{err: fmt.Errorf("call calc: %w: connection reset", domain.ErrTransport)}
	s := newTestDispatcher(t, "", inv)

	o := s.Dispatch(context.Background(), `{"tool":"calc","args":{"a":1,"b":2,"operation":"add"}}`)
	if o.Kind != dispatch.KindFailed || o.Failure != dispatch.FailureTransport {
		t.Fatalf("outcome = %+v", o)
	}
	if inv.count() != 1 {
		t.Fatalf("transport failures must not be retried, calls = %d", inv.count())
	}
}

func TestAsk(t *testing.T) {
	inv := &spyInvoker{result: tool.Success("No active alerts for this state.")}
	g := newTestGate(t, GateConfig{})
	model := &fakeCompleter{out: `{"tool":"get_alerts","args":{"state":"CA"}}`}
	s := NewDispatchService(model, g, inv)

	o := s.Ask(context.Background(), "Any weather alerts in California?")
	if o.Kind != dispatch.KindSucceeded || o.Raw != model.out {
		t.Fatalf("outcome = %+v", o)
	}
	if model.task != "Any weather alerts in California?" {
		t.Fatalf("model got %q", model.task)
	}

	failing := NewDispatchService(&fakeCompleter{err: fmt.Errorf("%w: 503", domain.ErrInference)}, g, inv)
	o = failing.Ask(context.Background(), "hi")
	if o.Kind != dispatch.KindFailed || o.Failure != dispatch.FailureInference {
		t.Fatalf("outcome = %+v", o)
	}

	o = NewDispatchService(nil, g, inv).Ask(context.Background(), "hi")
	if o.Failure != dispatch.FailureInference {
		t.Fatalf("missing model should be an inference failure, got %+v", o)
	}
}

func TestDispatchReportsOutcome(t *testing.T) {
	inv := &spyInvoker{result: tool.Success("3")}
	s := newTestDispatcher(t, "", inv)
	hub := &recordingHub{}
	q := &fakeQueue{}
	s.SetBroadcaster(hub)
	s.SetQueue(q)

	o := s.Dispatch(context.Background(), `{"tool":"calc","args":{"a":1,"b":2,"operation":"add"}}`)

	data, ok := q.published["dispatch.outcome.succeeded"]
	if !ok {
		t.Fatalf("no outcome published, got %v", q.published)
	}
	if err := messagequeue.Validate("dispatch.outcome.succeeded", data); err != nil {
		t.Fatalf("published payload invalid: %v", err)
	}
	var payload messagequeue.OutcomePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatal(err)
	}
	if payload.DispatchID != o.ID || payload.Tool != tool.NameCalc || payload.Message != "3" {
		t.Fatalf("payload = %+v", payload)
	}

	types := hub.types()
	if len(types) != 1 || types[0] != broadcast.EventDispatchCompleted {
		t.Fatalf("events = %v", types)
	}
}

func TestConcurrentDispatchesAreIndependent(t *testing.T) {
	inv := &spyInvoker{result: tool.Success("ok")}
	s := newTestDispatcher(t, "yes", inv)

	var wg sync.WaitGroup
	outcomes := make([]dispatch.Outcome, 20)
	for i := range outcomes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			raw := emailInstruction
			if i%2 == 0 {
				raw = `{"tool":"calc","args":{"a":1,"b":2,"operation":"add"}}`
			}
			outcomes[i] = s.Dispatch(context.Background(), raw)
		}(i)
	}
	wg.Wait()

	ids := map[string]bool{}
	for _, o := range outcomes {
		if o.Kind != dispatch.KindSucceeded {
			t.Errorf("outcome = %+v", o)
		}
		if ids[o.ID] {
			t.Errorf("duplicate dispatch id %s", o.ID)
		}
		ids[o.ID] = true
	}
	if inv.count() != len(outcomes) {
		t.Fatalf("invoker calls = %d, want %d", inv.count(), len(outcomes))
	}
}
