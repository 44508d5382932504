// Package toolhost assembles the tool implementations the MCP server hosts:
// the NWS source behind a circuit breaker and a tiered response cache, and
// the SMTP sender. Both binaries use it; the agent only when tools run
// in-process.
package toolhost

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/adapter/email"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/adapter/natskv"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/adapter/nws"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/adapter/ristretto"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/adapter/tiered"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/config"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/port/cache"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/resilience"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/service"
)

// New builds the toolbox. js may be nil, which disables the shared L2 cache.
// The returned function releases the L1 cache.
func New(ctx context.Context, cfg *config.Config, js jetstream.JetStream) (*service.Toolbox, func(), error) {
	src := nws.NewSource(cfg.Weather.UserAgent, cfg.Weather.Timeout)
	src.SetBreaker(resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))

	release := func() {}
	if cfg.Weather.CacheTTL > 0 {
		l1, err := ristretto.New(cfg.Cache.L1MaxSizeMB)
		if err != nil {
			return nil, nil, fmt.Errorf("l1 cache: %w", err)
		}
		release = l1.Close

		var l2 cache.Cache
		if js != nil && cfg.Cache.L2Bucket != "" {
			kv, err := natskv.Open(ctx, js, cfg.Cache.L2Bucket, cfg.Cache.L2TTL)
			if err != nil {
				slog.Warn("l2 weather cache unavailable", "bucket", cfg.Cache.L2Bucket, "error", err)
			} else {
				l2 = kv
			}
		}
		src.SetCache(tiered.New(l1, l2, cfg.Weather.CacheTTL), cfg.Weather.CacheTTL)
	}

	box := service.NewToolbox(src, email.NewSender(cfg.SMTP), cfg.Weather.BaseURL, cfg.Weather.ForecastPeriods)
	return box, release, nil
}
