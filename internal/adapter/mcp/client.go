package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	cfotel "github.com/GokulRavii/SingleAgent-MultiTool-System/internal/adapter/otel"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/config"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/domain"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/domain/tool"
)

const clientName = "single-agent-dispatcher"

// session is the subset of the mcp-go client used for one invocation.
type session interface {
	Initialize(ctx context.Context, req mcplib.InitializeRequest) (*mcplib.InitializeResult, error)
	CallTool(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error)
	ListTools(ctx context.Context, req mcplib.ListToolsRequest) (*mcplib.ListToolsResult, error)
	Close() error
}

// dialFunc opens a started, uninitialized session.
type dialFunc func(ctx context.Context) (session, error)

// ClientConfig describes how to reach the tool server.
type ClientConfig struct {
	Transport string
	URL       string
	Command   string
	Args      []string
	Env       []string
	APIKey    string
	Timeout   time.Duration
}

// Client invokes tools on the tool server. Every invocation opens its own
// session and closes it exactly once, on success or failure. Failed calls
// are never retried.
type Client struct {
	transport string
	timeout   time.Duration
	dial      dialFunc
}

// NewClient creates a client for an out-of-process tool server.
func NewClient(cfg ClientConfig) (*Client, error) {
	var headers map[string]string
	if cfg.APIKey != "" {
		headers = map[string]string{"Authorization": "Bearer " + cfg.APIKey}
	}

	var dial dialFunc
	switch cfg.Transport {
	case config.TransportSSE:
		dial = func(ctx context.Context) (session, error) {
			var opts []transport.ClientOption
			if headers != nil {
				opts = append(opts, transport.WithHeaders(headers))
			}
			c, err := mcpclient.NewSSEMCPClient(cfg.URL, opts...)
			if err != nil {
				return nil, err
			}
			return started(ctx, c)
		}
	case config.TransportStreamableHTTP:
		dial = func(ctx context.Context) (session, error) {
			var opts []transport.StreamableHTTPCOption
			if headers != nil {
				opts = append(opts, transport.WithHTTPHeaders(headers))
			}
			c, err := mcpclient.NewStreamableHttpClient(cfg.URL, opts...)
			if err != nil {
				return nil, err
			}
			return started(ctx, c)
		}
	case config.TransportStdio:
		// The stdio constructor spawns the subprocess itself.
		dial = func(_ context.Context) (session, error) {
			return mcpclient.NewStdioMCPClient(cfg.Command, cfg.Env, cfg.Args...)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported tool server transport %q", domain.ErrValidation, cfg.Transport)
	}

	return &Client{transport: cfg.Transport, timeout: cfg.Timeout, dial: dial}, nil
}

// NewInProcessClient creates a client bound directly to an in-process server.
func NewInProcessClient(srv *mcpserver.MCPServer, timeout time.Duration) *Client {
	return &Client{
		transport: config.TransportInProcess,
		timeout:   timeout,
		dial: func(ctx context.Context) (session, error) {
			c, err := mcpclient.NewInProcessClient(srv)
			if err != nil {
				return nil, err
			}
			return started(ctx, c)
		},
	}
}

func started(ctx context.Context, c *mcpclient.Client) (session, error) {
	if err := c.Start(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// Invoke executes call on the tool server. Tool-level failures come back as
// a Result with OK false; connection, protocol and timeout failures return
// an error wrapping domain.ErrTransport.
func (c *Client) Invoke(ctx context.Context, call tool.Call) (tool.Result, error) {
	ctx, span := cfotel.StartToolCallSpan(ctx, call.Name(), c.transport)
	defer span.End()

	var res *mcplib.CallToolResult
	err := c.withSession(ctx, func(ctx context.Context, s session) error {
		var err error
		res, err = s.CallTool(ctx, mcplib.CallToolRequest{
			Params: mcplib.CallToolParams{Name: call.Name(), Arguments: call.Args()},
		})
		return err
	})
	if err != nil {
		span.RecordError(err)
		return tool.Result{}, fmt.Errorf("%w: %s: %w", domain.ErrTransport, call.Name(), err)
	}
	if res == nil {
		return tool.Result{}, fmt.Errorf("%w: %s: empty response", domain.ErrTransport, call.Name())
	}
	return toResult(res), nil
}

// Tools lists the tool names the server advertises.
func (c *Client) Tools(ctx context.Context) ([]string, error) {
	var names []string
	err := c.withSession(ctx, func(ctx context.Context, s session) error {
		res, err := s.ListTools(ctx, mcplib.ListToolsRequest{})
		if err != nil {
			return err
		}
		for i := range res.Tools {
			names = append(names, res.Tools[i].Name)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: list tools: %w", domain.ErrTransport, err)
	}
	return names, nil
}

// withSession runs fn inside a fresh, initialized session bounded by the
// call timeout. The session is closed before withSession returns.
func (c *Client) withSession(ctx context.Context, fn func(context.Context, session) error) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	s, err := c.dial(ctx)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			slog.Debug("mcp session close", "transport", c.transport, "error", cerr)
		}
	}()

	initReq := mcplib.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcplib.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcplib.Implementation{Name: clientName, Version: "1.0.0"}
	if _, err := s.Initialize(ctx, initReq); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	if err := fn(ctx, s); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("timed out after %s: %w", c.timeout, err)
		}
		return err
	}
	return nil
}

// toResult maps a protocol result onto a tool result. Text contents are
// joined by newlines; error results carry their kind in structured content.
func toResult(res *mcplib.CallToolResult) tool.Result {
	var texts []string
	for _, content := range res.Content {
		if tc, ok := content.(mcplib.TextContent); ok {
			texts = append(texts, tc.Text)
		}
	}
	text := strings.Join(texts, "\n")

	if !res.IsError {
		return tool.Success(text)
	}
	kind := tool.ErrorKindTool
	if m, ok := res.StructuredContent.(map[string]any); ok {
		if k, ok := m[errorKindKey].(string); ok && k != "" {
			kind = k
		}
	}
	return tool.Failure(kind, text)
}
