package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	cfotel "github.com/GokulRavii/SingleAgent-MultiTool-System/internal/adapter/otel"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/config"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/middleware"
)

// NewRouter builds the agent API with its middleware stack. limiter may be
// nil to disable rate limiting of dispatch requests.
func NewRouter(cfg config.Server, h *Handlers, limiter *middleware.RateLimiter) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(Logger)
	r.Use(chimw.Recoverer)
	r.Use(SecurityHeaders)
	r.Use(CORS(cfg.CORSOrigin))
	r.Use(middleware.APIKey(cfg.APIKey, cfg.APIKeyHash))

	MountRoutes(r, h, limiter)

	return cfotel.HTTPMiddleware("agent-api")(r)
}

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers, limiter *middleware.RateLimiter) {
	r.Get("/health", h.Health)
	r.Get("/ws", h.WebSocket)

	r.Route("/v1", func(r chi.Router) {
		limited := r.With()
		if limiter != nil {
			limited = r.With(limiter.Handler)
		}
		limited.Post("/dispatch", h.PostDispatch)

		r.Get("/tools", h.ListTools)

		r.Get("/confirmations", h.ListPending)
		r.Get("/confirmations/history", h.ListHistory)
		r.Get("/confirmations/{id}", h.GetConfirmation)
		r.Post("/confirmations/{id}", h.ResolveConfirmation)
	})
}
