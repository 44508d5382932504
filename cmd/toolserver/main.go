// Command toolserver hosts the weather, calculator and email tools over MCP.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/spf13/cobra"

	cfmcp "github.com/GokulRavii/SingleAgent-MultiTool-System/internal/adapter/mcp"
	cfnats "github.com/GokulRavii/SingleAgent-MultiTool-System/internal/adapter/nats"
	cfotel "github.com/GokulRavii/SingleAgent-MultiTool-System/internal/adapter/otel"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/config"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/logger"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/toolhost"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

type flags struct {
	configPath string
	transport  string
	addr       string
	stdio      bool
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:           "toolserver",
		Short:         "Serve the weather, calculator and email tools over MCP",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), f)
		},
	}
	cmd.Flags().StringVar(&f.configPath, "config", config.DefaultConfigFile, "path to the YAML config file")
	cmd.Flags().StringVar(&f.transport, "transport", "", "sse, streamable_http or stdio (default toolserver.transport)")
	cmd.Flags().StringVar(&f.addr, "addr", "", "listen address (default toolserver.addr)")
	cmd.Flags().BoolVar(&f.stdio, "stdio", false, "shorthand for --transport stdio")
	return cmd
}

// resolve picks the transport from the flags and the config. The
// inprocess client mode has no server side, so it falls back to SSE.
func (f *flags) resolve(cfg *config.Config) (transport, addr string, err error) {
	transport = cfg.ToolServer.Transport
	if f.transport != "" {
		transport = f.transport
	}
	if f.stdio {
		transport = config.TransportStdio
	}
	if transport == config.TransportInProcess {
		transport = config.TransportSSE
	}
	switch transport {
	case config.TransportSSE, config.TransportStreamableHTTP, config.TransportStdio:
	default:
		return "", "", fmt.Errorf("unknown transport %q", transport)
	}

	addr = cfg.ToolServer.Addr
	if f.addr != "" {
		addr = f.addr
	}
	return transport, addr, nil
}

func run(ctx context.Context, f *flags) error {
	cfg, err := config.LoadFrom(f.configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	transport, addr, err := f.resolve(cfg)
	if err != nil {
		return err
	}

	// stdout carries the protocol in stdio mode.
	var logOut io.Writer = os.Stdout
	if transport == config.TransportStdio {
		logOut = os.Stderr
	}
	log, closer := logger.NewWithWriter(cfg.Logging, logOut)
	defer closer.Close()
	slog.SetDefault(log.With("component", "toolserver"))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTEL, err := cfotel.Init(ctx, cfg.OTEL)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() { _ = shutdownOTEL(context.Background()) }()

	var js jetstream.JetStream
	if cfg.NATS.URL != "" {
		q, err := cfnats.Connect(ctx, cfg.NATS.URL, cfg.NATS.Stream)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() { _ = q.Close() }()
		js = q.JetStream()
	}

	toolbox, release, err := toolhost.New(ctx, cfg, js)
	if err != nil {
		return fmt.Errorf("tools: %w", err)
	}
	defer release()

	srv := cfmcp.NewServer(cfmcp.ServerConfig{
		Addr:       addr,
		Name:       cfg.ToolServer.Name,
		Version:    cfg.ToolServer.Version,
		Transport:  transport,
		APIKey:     cfg.ToolServer.APIKey,
		APIKeyHash: cfg.ToolServer.APIKeyHash,
	}, toolbox)

	if transport == config.TransportStdio {
		slog.Info("serving tools on stdio")
		return srv.ServeStdio()
	}

	if err := srv.Start(); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	slog.Info("serving tools", "addr", srv.Addr(), "transport", transport, "auth", cfg.ToolServer.APIKey != "" || cfg.ToolServer.APIKeyHash != "")

	<-ctx.Done()
	slog.Info("shutting down tool server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Stop(shutdownCtx)
}
