// Package mcp exposes the tool catalog over the Model Context Protocol and
// provides the client the dispatcher uses to invoke it.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	cfotel "github.com/GokulRavii/SingleAgent-MultiTool-System/internal/adapter/otel"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/config"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/domain/tool"
)

// Executor runs a validated tool call and describes its outcome.
type Executor interface {
	Execute(ctx context.Context, call tool.Call) tool.Result
}

// ServerConfig holds the tool server settings.
type ServerConfig struct {
	Addr       string
	Name       string
	Version    string
	Transport  string // sse | streamable_http
	BaseURL    string // public base URL advertised to SSE clients; empty uses relative endpoints
	APIKey     string
	APIKeyHash string
}

// Server hosts the tool catalog on an mcp-go server.
type Server struct {
	cfg       ServerConfig
	exec      Executor
	mcpServer *mcpserver.MCPServer
	httpSrv   *http.Server
	ln        net.Listener
}

// NewServer creates the MCP server and registers every catalog tool.
func NewServer(cfg ServerConfig, exec Executor) *Server {
	if cfg.Transport == "" {
		cfg.Transport = config.TransportSSE
	}
	s := &Server{
		cfg:  cfg,
		exec: exec,
		mcpServer: mcpserver.NewMCPServer(cfg.Name, cfg.Version,
			mcpserver.WithToolCapabilities(false),
			mcpserver.WithResourceCapabilities(false, false),
			mcpserver.WithRecovery(),
		),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

// Handler returns the HTTP handler for the configured transport, wrapped in
// authentication and tracing. SSE is served at /sse and /message,
// streamable HTTP at /mcp.
func (s *Server) Handler() (http.Handler, error) {
	mux := http.NewServeMux()
	switch s.cfg.Transport {
	case config.TransportSSE:
		var opts []mcpserver.SSEOption
		if s.cfg.BaseURL != "" {
			opts = append(opts, mcpserver.WithBaseURL(s.cfg.BaseURL))
		}
		sse := mcpserver.NewSSEServer(s.mcpServer, opts...)
		mux.Handle("/sse", sse)
		mux.Handle("/message", sse)
	case config.TransportStreamableHTTP:
		mux.Handle("/mcp", mcpserver.NewStreamableHTTPServer(s.mcpServer))
	default:
		return nil, fmt.Errorf("mcp server: transport %q is not served over HTTP", s.cfg.Transport)
	}

	var h http.Handler = mux
	h = AuthMiddleware(s.cfg.APIKey, s.cfg.APIKeyHash, h)
	h = cfotel.HTTPMiddleware(s.cfg.Name)(h)
	return h, nil
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start() error {
	h, err := s.Handler()
	if err != nil {
		return err
	}
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("mcp server listen %s: %w", s.cfg.Addr, err)
	}
	s.ln = ln
	s.httpSrv = &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("mcp server stopped", "error", err)
		}
	}()

	slog.Info("mcp server started", "addr", ln.Addr().String(), "transport", s.cfg.Transport, "name", s.cfg.Name)
	return nil
}

// Addr returns the bound listen address once started.
func (s *Server) Addr() string {
	if s.ln == nil {
		return s.cfg.Addr
	}
	return s.ln.Addr().String()
}

// Stop gracefully shuts down the HTTP listener.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	slog.Info("mcp server stopping")
	return s.httpSrv.Shutdown(ctx)
}

// ServeStdio serves the MCP protocol on stdin/stdout until EOF or a signal.
func (s *Server) ServeStdio() error {
	return mcpserver.ServeStdio(s.mcpServer)
}
