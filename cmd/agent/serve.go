package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	cfhttp "github.com/GokulRavii/SingleAgent-MultiTool-System/internal/adapter/http"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/middleware"
)

const (
	shutdownTimeout = 10 * time.Second
	limiterSweep    = time.Minute
)

func newServeCmd(root *rootFlags) *cobra.Command {
	var embedded bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dispatch and approval HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), root, embedded)
		},
	}
	cmd.Flags().BoolVar(&embedded, "embedded", false, "run the tools in-process instead of calling the tool server")
	return cmd
}

func runServe(ctx context.Context, root *rootFlags, embedded bool) error {
	cfg, flush, err := root.loadConfig(os.Stdout)
	if err != nil {
		return err
	}
	defer flush()

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"toolserver_transport", cfg.ToolServer.Transport,
		"model", cfg.Model.Name,
		"confirmation_timeout", cfg.Confirmation.Timeout,
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Confirmations are answered over HTTP, NATS or WebSocket here, never on
	// the server's own terminal.
	a, err := wire(ctx, cfg, wireOptions{embedded: embedded, hub: true})
	if err != nil {
		return err
	}
	defer a.Close()

	var limiter *middleware.RateLimiter
	if cfg.Server.RateLimit > 0 {
		limiter = middleware.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst)
	}

	handlers := &cfhttp.Handlers{
		Dispatch: a.dispatch,
		Store:    a.store,
		Hub:      a.hub,
	}
	if a.queue != nil {
		handlers.Queue = a.queue
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Server.Port),
		Handler:           cfhttp.NewRouter(cfg.Server, handlers, limiter),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Dispatch responses wait for human confirmation, so writes are
		// bounded by the confirmation and invocation timeouts instead.
		IdleTimeout: 120 * time.Second,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if limiter != nil {
		g.Go(func() error {
			limiter.Cleanup(gctx, limiterSweep)
			return nil
		})
	}

	return g.Wait()
}
