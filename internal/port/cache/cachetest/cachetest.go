// Package cachetest checks that a cache.Cache implementation behaves the way
// the weather source relies on.
package cachetest

import (
	"context"
	"testing"
	"time"

	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/port/cache"
)

// Run exercises c with upstream-URL keys: hit after set, miss, overwrite and
// delete, including deletes of absent keys.
func Run(t *testing.T, c cache.Cache) {
	t.Helper()
	ctx := context.Background()
	const (
		alerts   = "https://api.weather.gov/alerts/active/area/CA"
		forecast = "https://api.weather.gov/gridpoints/MTR/85,105/forecast"
	)

	get := func(t *testing.T, key string) (string, bool) {
		t.Helper()
		val, ok, err := c.Get(ctx, key)
		if err != nil {
			t.Fatalf("Get(%s): %v", key, err)
		}
		return string(val), ok
	}

	t.Run("SetThenGet", func(t *testing.T) {
		if err := c.Set(ctx, alerts, []byte(`{"features":[]}`), time.Minute); err != nil {
			t.Fatal(err)
		}
		if val, ok := get(t, alerts); !ok || val != `{"features":[]}` {
			t.Fatalf("Get = %q, %v", val, ok)
		}
	})

	t.Run("Miss", func(t *testing.T) {
		if _, ok := get(t, "https://api.weather.gov/alerts/active/area/ZZ"); ok {
			t.Fatal("unexpected hit")
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		for _, doc := range []string{`{"periods":1}`, `{"periods":2}`} {
			if err := c.Set(ctx, forecast, []byte(doc), time.Minute); err != nil {
				t.Fatal(err)
			}
		}
		if val, ok := get(t, forecast); !ok || val != `{"periods":2}` {
			t.Fatalf("Get = %q, %v, want the newer document", val, ok)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := c.Delete(ctx, forecast); err != nil {
			t.Fatal(err)
		}
		if _, ok := get(t, forecast); ok {
			t.Fatal("hit after Delete")
		}
		if err := c.Delete(ctx, forecast); err != nil {
			t.Fatalf("second Delete: %v", err)
		}
	})
}
