package mcp

import (
	"net/http"

	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/middleware"
)

// AuthMiddleware guards the MCP endpoints with the shared bearer-key check.
// With neither key nor hash set all requests pass through.
func AuthMiddleware(apiKey, apiKeyHash string, next http.Handler) http.Handler {
	return middleware.APIKey(apiKey, apiKeyHash)(next)
}
