package natskv_test

import (
	"context"
	"os"
	"regexp"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/adapter/natskv"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/port/cache/cachetest"
)

var validKey = regexp.MustCompile(`^[-/_=.a-zA-Z0-9]+$`)

func TestKeyIsValidKVKey(t *testing.T) {
	urls := []string{
		"https://api.weather.gov/alerts/active/area/CA",
		"https://api.weather.gov/points/37.7749,-122.4194",
	}
	seen := map[string]bool{}
	for _, u := range urls {
		k := natskv.Key(u)
		if !validKey.MatchString(k) {
			t.Errorf("Key(%q) = %q is not a valid KV key", u, k)
		}
		if seen[k] {
			t.Errorf("duplicate key for %q", u)
		}
		seen[k] = true
	}
}

func TestCacheRoundTrip(t *testing.T) {
	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("NATS_URL not set")
	}
	nc, err := nats.Connect(url)
	if err != nil {
		t.Fatal(err)
	}
	defer nc.Close()
	js, err := jetstream.New(nc)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	c, err := natskv.Open(ctx, js, "WEATHER_CACHE_TEST", time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	cachetest.Run(t, c)

	key := "https://api.weather.gov/alerts/active/area/ZZ"
	if err := c.Set(ctx, key, []byte("doc"), 0); err != nil {
		t.Fatal(err)
	}
	val, ok, err := c.Get(ctx, key)
	if err != nil || !ok || string(val) != "doc" {
		t.Fatalf("Get = %q, %v, %v", val, ok, err)
	}
	if err := c.Delete(ctx, key); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := c.Get(ctx, key); ok {
		t.Error("expected miss after delete")
	}
}
