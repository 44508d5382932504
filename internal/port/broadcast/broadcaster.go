// Package broadcast defines the port for pushing dispatch and confirmation
// events to connected clients.
package broadcast

import "context"

// Event types pushed to clients.
const (
	EventConfirmationRequested = "confirmation.requested"
	EventConfirmationResolved  = "confirmation.resolved"
	EventDispatchCompleted     = "dispatch.completed"
)

// Broadcaster sends real-time events to all connected clients.
type Broadcaster interface {
	BroadcastEvent(ctx context.Context, eventType string, payload any)
}

// Multi sends every event to each non-nil broadcaster in order.
type Multi []Broadcaster

// BroadcastEvent implements Broadcaster.
func (m Multi) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	for _, b := range m {
		if b != nil {
			b.BroadcastEvent(ctx, eventType, payload)
		}
	}
}
