package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/adapter/ws"
	cf "github.com/GokulRavii/SingleAgent-MultiTool-System/internal/domain/confirmation"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/domain/dispatch"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/domain/tool"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/port/approvalstore"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/port/messagequeue"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/service"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// Handlers holds the services the API routes call into. Store, Hub and Queue
// are optional.
type Handlers struct {
	Dispatch *service.DispatchService
	Store    approvalstore.Store
	Hub      *ws.Hub
	Queue    messagequeue.Queue
}

type dispatchRequest struct {
	Task        string `json:"task"`
	Instruction string `json:"instruction"`
}

type dispatchResponse struct {
	Outcome dispatch.Outcome `json:"outcome"`
	Message string           `json:"message"`
}

// PostDispatch handles POST /v1/dispatch. The request blocks while a
// confirmation is pending; a client disconnect denies it.
func (h *Handlers) PostDispatch(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[dispatchRequest](w, r)
	if !ok {
		return
	}
	task := strings.TrimSpace(req.Task)
	if (task == "") == (req.Instruction == "") {
		writeError(w, http.StatusBadRequest, "exactly one of task or instruction is required")
		return
	}

	var o dispatch.Outcome
	if task != "" {
		o = h.Dispatch.Ask(r.Context(), task)
	} else {
		o = h.Dispatch.Dispatch(r.Context(), req.Instruction)
	}
	writeJSON(w, http.StatusOK, dispatchResponse{Outcome: o, Message: o.Message()})
}

// ListTools handles GET /v1/tools.
func (h *Handlers) ListTools(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, tool.Catalog())
}

// ListPending handles GET /v1/confirmations.
func (h *Handlers) ListPending(w http.ResponseWriter, _ *http.Request) {
	pending := h.Dispatch.Gate().Pending()
	if pending == nil {
		pending = []cf.Request{}
	}
	writeJSON(w, http.StatusOK, pending)
}

// ListHistory handles GET /v1/confirmations/history?limit=N.
func (h *Handlers) ListHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	tickets := []cf.Ticket{}
	if h.Store != nil {
		list, err := h.Store.ListRecent(r.Context(), limit)
		if err != nil {
			writeDomainError(w, err, "")
			return
		}
		if list != nil {
			tickets = list
		}
	}
	writeJSON(w, http.StatusOK, tickets)
}

// GetConfirmation handles GET /v1/confirmations/{id}.
func (h *Handlers) GetConfirmation(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	for _, p := range h.Dispatch.Gate().Pending() {
		if p.ID == id {
			writeJSON(w, http.StatusOK, p)
			return
		}
	}
	if h.Store == nil {
		writeError(w, http.StatusNotFound, "confirmation not found")
		return
	}
	t, err := h.Store.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "confirmation not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

type resolveRequest struct {
	Input     string `json:"input"`
	Responder string `json:"responder"`
}

type resolveResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// ResolveConfirmation handles POST /v1/confirmations/{id}. The decision is
// reported on the dispatch that owns the ticket.
func (h *Handlers) ResolveConfirmation(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	req, ok := readJSON[resolveRequest](w, r)
	if !ok {
		return
	}
	responder := strings.TrimSpace(req.Responder)
	if responder == "" {
		responder = r.RemoteAddr
	}

	if err := h.Dispatch.Gate().Resolve(id, req.Input, responder, cf.ChannelHTTP); err != nil {
		writeDomainError(w, err, "confirmation is not pending")
		return
	}
	writeJSON(w, http.StatusAccepted, resolveResponse{ID: id, Status: "accepted"})
}

// WebSocket handles GET /ws.
func (h *Handlers) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.Hub == nil {
		writeError(w, http.StatusServiceUnavailable, "event stream disabled")
		return
	}
	h.Hub.HandleWS(w, r)
}

type healthResponse struct {
	Status    string `json:"status"`
	NATS      string `json:"nats,omitempty"`
	WSClients int    `json:"ws_clients"`
	Pending   int    `json:"pending_confirmations"`
}

// Health handles GET /health.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "ok", Pending: len(h.Dispatch.Gate().Pending())}
	if h.Hub != nil {
		resp.WSClients = h.Hub.ConnectionCount()
	}
	if h.Queue != nil {
		resp.NATS = "connected"
		if !h.Queue.IsConnected() {
			resp.NATS = "disconnected"
			resp.Status = "degraded"
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
