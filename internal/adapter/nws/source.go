// Package nws fetches GeoJSON documents from the National Weather Service API.
package nws

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	cfotel "github.com/GokulRavii/SingleAgent-MultiTool-System/internal/adapter/otel"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/port/cache"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/resilience"
)

const maxBody = 4 << 20

// Source performs GET requests against the NWS API with the required
// User-Agent. Identical concurrent requests share one upstream call and
// successful documents are cached for the configured TTL.
type Source struct {
	userAgent  string
	httpClient *http.Client
	breaker    *resilience.Breaker
	cache      cache.Cache
	ttl        time.Duration
	group      singleflight.Group
}

// NewSource creates a Source with the given per-request timeout.
func NewSource(userAgent string, timeout time.Duration) *Source {
	return &Source{
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: cfotel.Transport(nil),
		},
	}
}

// SetBreaker attaches a circuit breaker to all outgoing requests.
func (s *Source) SetBreaker(b *resilience.Breaker) { s.breaker = b }

// SetCache enables response caching for ttl.
func (s *Source) SetCache(c cache.Cache, ttl time.Duration) {
	s.cache = c
	s.ttl = ttl
}

// Get returns the body of a 2xx response to url.
func (s *Source) Get(ctx context.Context, url string) ([]byte, error) {
	if s.cache != nil {
		if data, ok, err := s.cache.Get(ctx, url); err == nil && ok {
			return data, nil
		}
	}

	ch := s.group.DoChan(url, func() (any, error) {
		return s.fetch(context.WithoutCancel(ctx), url)
	})
	var data []byte
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		data = r.Val.([]byte)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, url, data, s.ttl); err != nil {
			slog.WarnContext(ctx, "weather cache set failed", "url", url, "error", err)
		}
	}
	return data, nil
}

func (s *Source) fetch(ctx context.Context, url string) ([]byte, error) {
	var result []byte
	call := func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("User-Agent", s.userAgent)
		req.Header.Set("Accept", "application/geo+json")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("http request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return fmt.Errorf("nws API error %d: %s", resp.StatusCode, truncate(data, 200))
		}

		result = data
		return nil
	}

	if s.breaker != nil {
		if err := s.breaker.Do(ctx, call); err != nil {
			return nil, err
		}
		return result, nil
	}
	if err := call(ctx); err != nil {
		return nil, err
	}
	return result, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
