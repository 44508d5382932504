package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/domain"
	cf "github.com/GokulRavii/SingleAgent-MultiTool-System/internal/domain/confirmation"
)

// Client-to-server message types.
const (
	TypeConfirmationRespond = "confirmation.respond"
	TypeConfirmationResult  = "confirmation.respond.result"
	TypeError               = "error"
)

// RespondPayload answers a pending confirmation.
type RespondPayload struct {
	ID        string `json:"id"`
	Input     string `json:"input"`
	Responder string `json:"responder,omitempty"`
}

// ResultPayload tells the sender whether its answer was accepted.
type ResultPayload struct {
	ID     string `json:"id"`
	OK     bool   `json:"ok"`
	Status string `json:"status"` // accepted | not_pending | already_answered | unavailable
}

// BroadcastEvent marshals payload and sends it to every client. It
// implements broadcast.Broadcaster.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	h.Broadcast(ctx, Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	})
}

func (h *Hub) handleMessage(ctx context.Context, c *conn, data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		h.reply(ctx, c, TypeError, map[string]string{"error": "invalid message"})
		return
	}
	switch msg.Type {
	case TypeConfirmationRespond:
		var p RespondPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil || p.ID == "" {
			h.reply(ctx, c, TypeError, map[string]string{"error": "invalid confirmation.respond payload"})
			return
		}
		h.reply(ctx, c, TypeConfirmationResult, h.respond(p, c.remote))
	default:
		h.reply(ctx, c, TypeError, map[string]string{"error": "unknown message type " + msg.Type})
	}
}

func (h *Hub) respond(p RespondPayload, remote string) ResultPayload {
	h.mu.RLock()
	r := h.resolver
	h.mu.RUnlock()

	res := ResultPayload{ID: p.ID}
	if r == nil {
		res.Status = "unavailable"
		return res
	}
	responder := p.Responder
	if responder == "" {
		responder = remote
	}
	err := r.Resolve(p.ID, p.Input, responder, cf.ChannelWebSocket)
	switch {
	case err == nil:
		res.OK = true
		res.Status = "accepted"
	case errors.Is(err, domain.ErrConflict):
		res.Status = "already_answered"
	default:
		res.Status = "not_pending"
	}
	return res
}

func (h *Hub) reply(ctx context.Context, c *conn, msgType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	out, err := json.Marshal(Message{Type: msgType, Payload: data})
	if err != nil {
		return
	}
	if err := write(ctx, c, out); err != nil {
		slog.Debug("websocket reply failed", "error", err)
	}
}
