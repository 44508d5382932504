package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"

	cfotel "github.com/GokulRavii/SingleAgent-MultiTool-System/internal/adapter/otel"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/domain"
	cf "github.com/GokulRavii/SingleAgent-MultiTool-System/internal/domain/confirmation"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/domain/tool"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/logger"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/port/approvalstore"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/port/broadcast"
	confirmationPort "github.com/GokulRavii/SingleAgent-MultiTool-System/internal/port/confirmation"
)

// GateConfig configures the confirmation gate.
type GateConfig struct {
	Token         string
	Timeout       time.Duration // 0 waits until the context is done
	AlwaysConfirm []string      // doublestar patterns over tool names

	// ProvidersOnly means no passive channel calls Resolve. A dangerous call
	// is then denied at once when no provider is registered.
	ProvidersOnly bool
}

// ConfirmationEvent is broadcast when a ticket opens and when it is decided.
type ConfirmationEvent struct {
	TicketID   string         `json:"ticket_id"`
	DispatchID string         `json:"dispatch_id,omitempty"`
	Tool       string         `json:"tool"`
	Args       map[string]any `json:"args,omitempty"`
	Summary    string         `json:"summary"`
	Token      string         `json:"token,omitempty"`
	Decision   cf.Decision    `json:"decision"`
	Responder  string         `json:"responder,omitempty"`
	Channel    cf.Channel     `json:"channel,omitempty"`
	Reason     string         `json:"reason,omitempty"`
}

type pendingTicket struct {
	req     cf.Request
	ch      chan cf.Response
	claimed atomic.Bool
}

// offer delivers resp if no other answer has claimed the ticket yet.
func (p *pendingTicket) offer(resp cf.Response) bool {
	if !p.claimed.CompareAndSwap(false, true) {
		return false
	}
	p.ch <- resp
	return true
}

// Gate decides per call whether a human must approve it and suspends the
// request until one does. Pending tickets can be resumed by any channel:
// the registered providers answer directly, passive channels (HTTP,
// WebSocket) call Resolve. The first answer wins.
type Gate struct {
	token     string
	timeout   time.Duration
	escalate  []string
	closed    bool
	providers []confirmationPort.Provider
	hub       broadcast.Broadcaster
	store     approvalstore.Store
	metrics   *cfotel.Metrics
	pending   sync.Map // map[ticketID]*pendingTicket
	now       func() time.Time
	newID     func() string
}

// NewGate creates a Gate. Invalid escalation patterns are rejected.
func NewGate(cfg GateConfig, providers ...confirmationPort.Provider) (*Gate, error) {
	token := cfg.Token
	if token == "" {
		token = cf.DefaultToken
	}
	for _, p := range cfg.AlwaysConfirm {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("%w: invalid always_confirm pattern %q", domain.ErrValidation, p)
		}
	}
	return &Gate{
		token:     token,
		timeout:   cfg.Timeout,
		escalate:  append([]string(nil), cfg.AlwaysConfirm...),
		closed:    cfg.ProvidersOnly,
		providers: providers,
		now:       time.Now,
		newID:     uuid.NewString,
	}, nil
}

// SetBroadcaster sets the event hub for confirmation events.
func (g *Gate) SetBroadcaster(b broadcast.Broadcaster) { g.hub = b }

// SetStore sets the audit store for tickets of dangerous calls.
func (g *Gate) SetStore(s approvalstore.Store) { g.store = s }

// SetMetrics sets the metric instruments.
func (g *Gate) SetMetrics(m *cfotel.Metrics) { g.metrics = m }

// AddProvider registers another active confirmation channel.
func (g *Gate) AddProvider(p confirmationPort.Provider) {
	g.providers = append(g.providers, p)
}

// Token returns the affirmative input that approves a pending ticket.
func (g *Gate) Token() string { return g.token }

// Sensitivity returns the effective sensitivity of a call: the catalog's
// classification, escalated to dangerous when the name matches an
// always_confirm pattern. Dangerous tools are never downgraded.
func (g *Gate) Sensitivity(name string) tool.Sensitivity {
	sens := tool.Dangerous
	if spec, ok := tool.Lookup(name); ok {
		sens = spec.Sensitivity
	}
	if sens == tool.Dangerous {
		return sens
	}
	for _, p := range g.escalate {
		if ok, _ := doublestar.Match(p, name); ok {
			return tool.Dangerous
		}
	}
	return sens
}

// Confirm opens a ticket for call and returns it in a terminal state.
// Routine calls are approved immediately without contacting any channel.
// Dangerous calls block until a human answers, the timeout expires or ctx
// is done; the last two deny. When ProvidersOnly is set and no provider is
// registered, dangerous calls are denied without waiting.
func (g *Gate) Confirm(ctx context.Context, call tool.Call) *cf.Ticket {
	t := cf.Open(g.newID(), call, g.Sensitivity(call.Name()), g.now())
	if t.Initial == cf.DecisionNotRequired {
		return t
	}

	ctx, span := cfotel.StartConfirmationSpan(ctx, t.ID, call.Name())
	defer span.End()

	p := &pendingTicket{req: cf.NewRequest(t, g.token), ch: make(chan cf.Response, 1)}
	g.pending.Store(t.ID, p)
	defer g.pending.Delete(t.ID)

	g.save(ctx, t)
	g.broadcast(ctx, broadcast.EventConfirmationRequested, t)

	slog.InfoContext(ctx, "confirmation requested",
		"ticket_id", t.ID,
		"summary", t.Summary,
		"timeout", g.timeout,
		"providers", len(g.providers),
	)

	var (
		resp     cf.Response
		answered bool
		reason   string
	)
	if g.closed && len(g.providers) == 0 {
		reason = cf.ReasonNoChannel
	} else {
		resp, answered, reason = g.await(ctx, p)
	}

	// An answer that claimed the ticket before the deadline still counts.
	if !answered && !p.claimed.CompareAndSwap(false, true) {
		resp = <-p.ch
		answered = true
	}
	if answered {
		// Resolve only fails on a non-pending ticket; this one is pending.
		_ = t.Resolve(resp.Input, g.token, resp.Responder, resp.Channel, g.now())
	} else {
		switch reason {
		case cf.ReasonTimeout:
			slog.WarnContext(ctx, "confirmation timed out, denying", "ticket_id", t.ID, "tool", call.Name())
		case cf.ReasonNoChannel:
			slog.WarnContext(ctx, "no confirmation channel can answer, denying", "ticket_id", t.ID, "tool", call.Name())
		}
		_ = t.Expire(reason, g.now())
	}

	// Persisting and broadcasting must survive a cancelled request.
	bg := context.WithoutCancel(ctx)
	g.save(bg, t)
	g.broadcast(bg, broadcast.EventConfirmationResolved, t)
	g.metrics.RecordConfirmation(bg, string(t.Decision), string(t.Channel), t.ResolvedAt.Sub(t.CreatedAt).Seconds())

	slog.InfoContext(ctx, "confirmation decided",
		"ticket_id", t.ID,
		"decision", t.Decision,
		"channel", t.Channel,
		"responder", t.Responder,
		"reason", t.Reason,
	)
	return t
}

// await fans the request out to the providers and waits for the first
// answer, the timeout or ctx.
func (g *Gate) await(ctx context.Context, p *pendingTicket) (cf.Response, bool, string) {
	// Providers stop waiting as soon as a decision exists.
	askCtx, stopAsking := context.WithCancel(ctx)
	defer stopAsking()
	for _, prov := range g.providers {
		go g.ask(askCtx, prov, p)
	}

	var timeout <-chan time.Time
	if g.timeout > 0 {
		timer := time.NewTimer(g.timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case resp := <-p.ch:
		return resp, true, ""
	case <-timeout:
		return cf.Response{}, false, cf.ReasonTimeout
	case <-ctx.Done():
		return cf.Response{}, false, cf.ReasonCancelled
	}
}

func (g *Gate) ask(ctx context.Context, prov confirmationPort.Provider, p *pendingTicket) {
	resp, err := prov.RequestConfirmation(ctx, p.req)
	if err != nil {
		if ctx.Err() == nil {
			slog.Warn("confirmation provider failed", "provider", prov.Name(), "ticket_id", p.req.ID, "error", err)
		}
		return
	}
	p.offer(resp)
}

// Resolve answers a pending ticket from a passive channel. Returns
// domain.ErrNotFound if no such ticket is pending and domain.ErrConflict if
// another channel answered first.
func (g *Gate) Resolve(id, input, responder string, ch cf.Channel) error {
	val, ok := g.pending.Load(id)
	if !ok {
		return fmt.Errorf("confirmation %s: %w", id, domain.ErrNotFound)
	}
	p, _ := val.(*pendingTicket)
	if !p.offer(cf.Response{Input: input, Responder: responder, Channel: ch}) {
		return fmt.Errorf("confirmation %s already answered: %w", id, domain.ErrConflict)
	}
	return nil
}

// Pending returns the requests awaiting a decision, oldest first.
func (g *Gate) Pending() []cf.Request {
	var out []cf.Request
	g.pending.Range(func(_, val any) bool {
		if p, ok := val.(*pendingTicket); ok && !p.claimed.Load() {
			out = append(out, p.req)
		}
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (g *Gate) save(ctx context.Context, t *cf.Ticket) {
	if g.store == nil {
		return
	}
	snapshot := *t
	if err := g.store.Save(ctx, &snapshot); err != nil {
		slog.ErrorContext(ctx, "persist confirmation ticket", "ticket_id", t.ID, "error", err)
	}
}

func (g *Gate) broadcast(ctx context.Context, eventType string, t *cf.Ticket) {
	if g.hub == nil {
		return
	}
	ev := ConfirmationEvent{
		TicketID:   t.ID,
		DispatchID: logger.DispatchID(ctx),
		Tool:       t.Call.Name(),
		Summary:    t.Summary,
		Decision:   t.Decision,
		Responder:  t.Responder,
		Channel:    t.Channel,
		Reason:     t.Reason,
	}
	if t.Decision == cf.DecisionPending {
		ev.Args = t.Call.Args()
		ev.Token = g.token
	}
	g.hub.BroadcastEvent(ctx, eventType, ev)
}
