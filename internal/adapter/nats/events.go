package nats

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/port/broadcast"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/port/messagequeue"
)

// EventBridge republishes confirmation events onto the stream so external
// consumers can audit them. Dispatch outcomes are published by the
// dispatcher itself and are ignored here.
type EventBridge struct {
	q messagequeue.Queue
}

// NewEventBridge creates a bridge publishing to q.
func NewEventBridge(q messagequeue.Queue) *EventBridge {
	return &EventBridge{q: q}
}

// BroadcastEvent implements broadcast.Broadcaster.
func (b *EventBridge) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	subject, ok := eventSubject(eventType)
	if !ok {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		slog.ErrorContext(ctx, "marshal confirmation event", "type", eventType, "error", err)
		return
	}
	if err := b.q.Publish(ctx, subject, data); err != nil {
		slog.WarnContext(ctx, "publish confirmation event", "subject", subject, "error", err)
	}
}

func eventSubject(eventType string) (string, bool) {
	switch eventType {
	case broadcast.EventConfirmationRequested:
		return messagequeue.SubjectConfirmationRequested, true
	case broadcast.EventConfirmationResolved:
		return messagequeue.SubjectConfirmationResolved, true
	default:
		return "", false
	}
}
