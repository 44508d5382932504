// Package confirmation provides the domain model for human approval of tool
// calls: the per-call ticket state machine, the request presented to a human,
// and the response a confirmation channel returns.
package confirmation

import (
	"fmt"
	"strings"
	"time"

	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/domain"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/domain/tool"
)

// Decision is the state of a confirmation ticket.
type Decision string

const (
	DecisionNotRequired Decision = "not_required"
	DecisionPending     Decision = "pending"
	DecisionApproved    Decision = "approved"
	DecisionDenied      Decision = "denied"
)

// Terminal reports whether no further transition is possible.
func (d Decision) Terminal() bool {
	return d == DecisionApproved || d == DecisionDenied
}

// Channel identifies where a decision came from.
type Channel string

const (
	ChannelSystem    Channel = "system"
	ChannelTerminal  Channel = "terminal"
	ChannelHTTP      Channel = "http"
	ChannelWebSocket Channel = "websocket"
	ChannelNATS      Channel = "nats"
)

// Reasons recorded on tickets that were not decided by a human.
const (
	ReasonRoutine   = "routine tool"
	ReasonDeclined  = "declined"
	ReasonTimeout   = "timeout"
	ReasonCancelled = "cancelled"
	ReasonNoChannel = "no confirmation channel"
)

// DefaultToken is the affirmative input that approves a pending ticket.
const DefaultToken = "yes"

// Ticket tracks the confirmation state of a single tool call. It is owned by
// the request that opened it.
type Ticket struct {
	ID         string    `json:"id"`
	Call       tool.Call `json:"call"`
	Summary    string    `json:"summary"`
	Initial    Decision  `json:"initial"`
	Decision   Decision  `json:"decision"`
	Responder  string    `json:"responder,omitempty"`
	Channel    Channel   `json:"channel,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	ResolvedAt time.Time `json:"resolved_at,omitempty"`
}

// Open creates a ticket for call. Routine calls start not_required and move
// straight to approved; dangerous calls start and stay pending until resolved.
func Open(id string, call tool.Call, sens tool.Sensitivity, now time.Time) *Ticket {
	t := &Ticket{
		ID:        id,
		Call:      call,
		Summary:   call.Summary(),
		CreatedAt: now,
	}
	if sens == tool.Dangerous {
		t.Initial = DecisionPending
		t.Decision = DecisionPending
		return t
	}
	t.Initial = DecisionNotRequired
	t.Decision = DecisionApproved
	t.Channel = ChannelSystem
	t.Reason = ReasonRoutine
	t.ResolvedAt = now
	return t
}

// IsAffirmative reports whether input is exactly the approval token, ignoring
// surrounding whitespace. An empty token never matches.
func IsAffirmative(input, token string) bool {
	return token != "" && strings.TrimSpace(input) == token
}

// Resolve applies human input to a pending ticket: the exact token approves,
// anything else denies. Returns domain.ErrConflict if the ticket is not pending.
func (t *Ticket) Resolve(input, token string, responder string, ch Channel, now time.Time) error {
	if t.Decision != DecisionPending {
		return fmt.Errorf("ticket %s is %s: %w", t.ID, t.Decision, domain.ErrConflict)
	}
	if IsAffirmative(input, token) {
		t.Decision = DecisionApproved
	} else {
		t.Decision = DecisionDenied
		t.Reason = ReasonDeclined
	}
	t.Responder = responder
	t.Channel = ch
	t.ResolvedAt = now
	return nil
}

// Expire denies a pending ticket without human input (timeout or cancellation).
func (t *Ticket) Expire(reason string, now time.Time) error {
	if t.Decision != DecisionPending {
		return fmt.Errorf("ticket %s is %s: %w", t.ID, t.Decision, domain.ErrConflict)
	}
	t.Decision = DecisionDenied
	t.Channel = ChannelSystem
	t.Reason = reason
	t.ResolvedAt = now
	return nil
}

// Approved reports whether the call may be executed.
func (t *Ticket) Approved() bool { return t.Decision == DecisionApproved }

// Request is what a confirmation channel presents to a human.
type Request struct {
	ID        string         `json:"id"`
	Tool      string         `json:"tool"`
	Args      map[string]any `json:"args"`
	Summary   string         `json:"summary"`
	Token     string         `json:"token"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewRequest builds the request view of a pending ticket.
func NewRequest(t *Ticket, token string) Request {
	return Request{
		ID:        t.ID,
		Tool:      t.Call.Name(),
		Args:      t.Call.Args(),
		Summary:   t.Summary,
		Token:     token,
		CreatedAt: t.CreatedAt,
	}
}

// Response is the raw human input a channel collected.
type Response struct {
	Input     string  `json:"input"`
	Responder string  `json:"responder,omitempty"`
	Channel   Channel `json:"channel"`
}
