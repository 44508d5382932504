// Package ws implements the WebSocket event stream and the WebSocket
// confirmation channel.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"

	cf "github.com/GokulRavii/SingleAgent-MultiTool-System/internal/domain/confirmation"
)

const writeTimeout = 5 * time.Second

// Message is the envelope for all WebSocket messages.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Resolver answers pending confirmation tickets.
type Resolver interface {
	Resolve(id, input, responder string, ch cf.Channel) error
}

// conn wraps a single WebSocket connection.
type conn struct {
	ws     *websocket.Conn
	cancel context.CancelFunc
	remote string
}

// Hub manages all active WebSocket connections, broadcasts events to them
// and routes confirmation answers they send back to the resolver.
type Hub struct {
	mu       sync.RWMutex
	conns    map[*conn]struct{}
	origin   string
	resolver Resolver
}

// NewHub creates a hub. allowedOrigin restricts browser origins; empty
// accepts any. resolver may be nil, in which case answers are rejected.
func NewHub(allowedOrigin string, resolver Resolver) *Hub {
	return &Hub{
		conns:    make(map[*conn]struct{}),
		origin:   allowedOrigin,
		resolver: resolver,
	}
}

// SetResolver sets the confirmation resolver.
func (h *Hub) SetResolver(r Resolver) {
	h.mu.Lock()
	h.resolver = r
	h.mu.Unlock()
}

// HandleWS upgrades the request and serves the connection until it closes.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	opts := &websocket.AcceptOptions{InsecureSkipVerify: h.origin == ""}
	if h.origin != "" {
		if u, err := url.Parse(h.origin); err == nil && u.Host != "" {
			opts.OriginPatterns = []string{u.Host}
		}
	}
	ws, err := websocket.Accept(w, r, opts)
	if err != nil {
		slog.Error("websocket accept failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	c := &conn{ws: ws, cancel: cancel, remote: r.RemoteAddr}

	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()

	slog.Info("websocket connected", "remote", r.RemoteAddr)

	defer func() {
		h.remove(c)
		_ = ws.Close(websocket.StatusNormalClosure, "")
	}()
	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			return
		}
		h.handleMessage(ctx, c, data)
	}
}

// Broadcast sends a message to all connected clients.
func (h *Hub) Broadcast(ctx context.Context, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("websocket marshal failed", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.conns {
		if err := write(ctx, c, data); err != nil {
			slog.Debug("websocket write failed", "error", err)
			go h.remove(c)
		}
	}
}

// ConnectionCount returns the number of active connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) remove(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[c]; ok {
		c.cancel()
		delete(h.conns, c)
		slog.Info("websocket disconnected", "remote", c.remote)
	}
}

func write(ctx context.Context, c *conn, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return c.ws.Write(ctx, websocket.MessageText, data)
}
