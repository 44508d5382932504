package messagequeue

import "time"

// OutcomePayload is the schema for dispatch.outcome.* messages.
type OutcomePayload struct {
	DispatchID string         `json:"dispatch_id"`
	Kind       string         `json:"kind"`
	Tool       string         `json:"tool,omitempty"`
	Args       map[string]any `json:"args,omitempty"`
	Decision   string         `json:"decision,omitempty"`
	Failure    string         `json:"failure,omitempty"`
	Message    string         `json:"message"`
	DurationMS int64          `json:"duration_ms"`
	At         time.Time      `json:"at"`
}

// ConfirmationEventPayload is the schema for dispatch.confirmation.* messages.
type ConfirmationEventPayload struct {
	TicketID   string `json:"ticket_id"`
	DispatchID string `json:"dispatch_id,omitempty"`
	Tool       string `json:"tool"`
	Summary    string `json:"summary"`
	Decision   string `json:"decision"`
	Responder  string `json:"responder,omitempty"`
	Channel    string `json:"channel,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// ConfirmationRequestPayload is sent to a remote approver.
type ConfirmationRequestPayload struct {
	ID      string         `json:"id"`
	Tool    string         `json:"tool"`
	Args    map[string]any `json:"args"`
	Summary string         `json:"summary"`
	Token   string         `json:"token"`
}

// ConfirmationReplyPayload is the approver's answer.
type ConfirmationReplyPayload struct {
	ID        string `json:"id"`
	Input     string `json:"input"`
	Responder string `json:"responder,omitempty"`
}
