package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/adapter/llm"
	cfmcp "github.com/GokulRavii/SingleAgent-MultiTool-System/internal/adapter/mcp"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/adapter/memstore"
	cfnats "github.com/GokulRavii/SingleAgent-MultiTool-System/internal/adapter/nats"
	cfotel "github.com/GokulRavii/SingleAgent-MultiTool-System/internal/adapter/otel"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/adapter/postgres"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/adapter/terminal"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/adapter/ws"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/config"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/port/approvalstore"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/port/broadcast"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/service"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/toolhost"
)

// wireOptions selects the optional parts of the dependency graph.
type wireOptions struct {
	embedded bool // host the tools in-process instead of dialing the tool server
	terminal bool // read confirmations from stdin
	hub      bool // create the WebSocket hub; HTTP and WebSocket can resolve tickets
}

// app is the wired dependency graph shared by the subcommands.
type app struct {
	cfg      *config.Config
	dispatch *service.DispatchService
	client   *cfmcp.Client
	store    approvalstore.Store
	hub      *ws.Hub
	queue    *cfnats.Queue

	closers []func()
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func (a *app) onClose(fn func()) { a.closers = append(a.closers, fn) }

func wire(ctx context.Context, cfg *config.Config, opts wireOptions) (_ *app, err error) {
	a := &app{cfg: cfg}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	shutdownOTEL, err := cfotel.Init(ctx, cfg.OTEL)
	if err != nil {
		return nil, fmt.Errorf("otel: %w", err)
	}
	a.onClose(func() {
		if err := shutdownOTEL(context.Background()); err != nil {
			slog.Warn("otel shutdown", "error", err)
		}
	})
	metrics, err := cfotel.NewMetrics()
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	// --- Infrastructure ---

	if cfg.NATS.URL != "" {
		q, err := cfnats.Connect(ctx, cfg.NATS.URL, cfg.NATS.Stream)
		if err != nil {
			return nil, fmt.Errorf("nats: %w", err)
		}
		a.queue = q
		a.onClose(func() { _ = q.Drain() })
		slog.Info("nats connected", "url", cfg.NATS.URL)
	}

	if a.store, err = openStore(ctx, a, cfg.Postgres); err != nil {
		return nil, err
	}

	// --- Tools ---

	if opts.embedded || cfg.ToolServer.Transport == config.TransportInProcess {
		var js jetstream.JetStream
		if a.queue != nil {
			js = a.queue.JetStream()
		}
		toolbox, release, err := toolhost.New(ctx, cfg, js)
		if err != nil {
			return nil, fmt.Errorf("tools: %w", err)
		}
		a.onClose(release)
		srv := cfmcp.NewServer(cfmcp.ServerConfig{Name: cfg.ToolServer.Name, Version: cfg.ToolServer.Version}, toolbox)
		a.client = cfmcp.NewInProcessClient(srv.MCPServer(), cfg.ToolServer.CallTimeout)
	} else {
		a.client, err = cfmcp.NewClient(cfmcp.ClientConfig{
			Transport: cfg.ToolServer.Transport,
			URL:       cfg.ToolServer.URL,
			Command:   cfg.ToolServer.Command,
			Args:      cfg.ToolServer.Args,
			Env:       os.Environ(),
			APIKey:    cfg.ToolServer.APIKey,
			Timeout:   cfg.ToolServer.CallTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("tool client: %w", err)
		}
	}

	// --- Confirmation ---

	gate, err := service.NewGate(service.GateConfig{
		Token:         cfg.Confirmation.Token,
		Timeout:       cfg.Confirmation.Timeout,
		AlwaysConfirm: cfg.Confirmation.AlwaysConfirm,
		ProvidersOnly: !opts.hub,
	})
	if err != nil {
		return nil, fmt.Errorf("gate: %w", err)
	}
	gate.SetStore(a.store)
	gate.SetMetrics(metrics)
	// Piped stdin answers too: echo yes | agent dispatch ...
	if opts.terminal && cfg.Confirmation.Terminal {
		gate.AddProvider(terminal.New(os.Stdin, os.Stderr))
	}
	if a.queue != nil && cfg.Confirmation.NATSSubject != "" {
		gate.AddProvider(cfnats.NewConfirmationProvider(a.queue.Conn(), cfg.Confirmation.NATSSubject))
	}

	var sinks broadcast.Multi
	if opts.hub {
		a.hub = ws.NewHub(cfg.Server.CORSOrigin, gate)
		sinks = append(sinks, a.hub)
	}
	if a.queue != nil {
		sinks = append(sinks, cfnats.NewEventBridge(a.queue))
	}
	if len(sinks) > 0 {
		gate.SetBroadcaster(sinks)
	}

	// --- Dispatch ---

	completer, err := llm.New(cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	a.dispatch = service.NewDispatchService(completer, gate, a.client)
	a.dispatch.SetMetrics(metrics)
	if a.hub != nil {
		a.dispatch.SetBroadcaster(a.hub)
	}
	if a.queue != nil {
		a.dispatch.SetQueue(a.queue)
	}

	return a, nil
}

// openStore connects the confirmation audit store: Postgres when a DSN is
// configured, process memory otherwise.
func openStore(ctx context.Context, a *app, cfg config.Postgres) (approvalstore.Store, error) {
	if cfg.DSN == "" {
		return memstore.NewTickets(memstore.DefaultCapacity), nil
	}
	if err := postgres.RunMigrations(ctx, cfg.DSN); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	a.onClose(pool.Close)
	slog.Info("postgres connected")
	return postgres.NewStore(pool), nil
}
