// Package messagequeue defines the message queue port (interface).
package messagequeue

import "context"

// Handler processes a message received from the queue.
// The context carries request-scoped values such as the request ID.
type Handler func(ctx context.Context, subject string, data []byte) error

// Queue is the port interface for publishing and subscribing to messages.
type Queue interface {
	// Publish sends a message to the given subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Subscribe registers a handler for messages on the given subject.
	// The returned function cancels the subscription.
	Subscribe(ctx context.Context, subject string, handler Handler) (cancel func(), err error)

	// Drain gracefully drains all subscriptions before closing.
	Drain() error

	// Close shuts down the queue connection immediately.
	Close() error

	// IsConnected reports whether the queue is currently connected.
	IsConnected() bool
}

// Subjects. Outcome events are published to SubjectOutcome + "." + kind.
const (
	SubjectOutcome               = "dispatch.outcome"
	SubjectOutcomeAll            = "dispatch.outcome.>"
	SubjectConfirmationRequested = "dispatch.confirmation.requested"
	SubjectConfirmationResolved  = "dispatch.confirmation.resolved"

	// SubjectConfirmationRequest is the default request-reply subject used
	// by remote approvers. It sits outside the stream on purpose: replies
	// go to the requester's inbox.
	SubjectConfirmationRequest = "approvals.request"
)

// OutcomeSubject returns the subject for an outcome of the given kind.
func OutcomeSubject(kind string) string {
	return SubjectOutcome + "." + kind
}
