package nws_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/adapter/nws"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/resilience"
)

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memCache) Get(_ context.Context, key string) (data []byte, ok bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func TestGetSendsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "weather-app/1.0" {
			t.Errorf("User-Agent = %q", got)
		}
		if got := r.Header.Get("Accept"); got != "application/geo+json" {
			t.Errorf("Accept = %q", got)
		}
		_, _ = w.Write([]byte(`{"features":[]}`))
	}))
	defer srv.Close()

	src := nws.NewSource("weather-app/1.0", 5*time.Second)
	data, err := src.Get(context.Background(), srv.URL+"/alerts/active/area/ZZ")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"features":[]}` {
		t.Errorf("body = %s", data)
	}
}

func TestGetNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"title":"Not Found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	src := nws.NewSource("ua", 5*time.Second)
	if _, err := src.Get(context.Background(), srv.URL+"/points/0,0"); err == nil {
		t.Fatal("expected error for 404")
	}
}

func TestGetUsesCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"properties":{}}`))
	}))
	defer srv.Close()

	src := nws.NewSource("ua", 5*time.Second)
	src.SetCache(&memCache{data: map[string][]byte{}}, time.Minute)

	for range 3 {
		if _, err := src.Get(context.Background(), srv.URL+"/points/1,2"); err != nil {
			t.Fatal(err)
		}
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("upstream hits = %d, want 1", n)
	}
}

func TestGetErrorsAreNotCached(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	src := nws.NewSource("ua", 5*time.Second)
	src.SetCache(&memCache{data: map[string][]byte{}}, time.Minute)

	_, _ = src.Get(context.Background(), srv.URL+"/x")
	_, _ = src.Get(context.Background(), srv.URL+"/x")
	if n := hits.Load(); n != 2 {
		t.Errorf("upstream hits = %d, want 2", n)
	}
}

func TestGetBreakerOpens(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	src := nws.NewSource("ua", 5*time.Second)
	src.SetBreaker(resilience.NewBreaker(2, time.Minute))

	for range 2 {
		_, _ = src.Get(context.Background(), srv.URL+"/x")
	}
	_, err := src.Get(context.Background(), srv.URL+"/x")
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("err = %v, want ErrCircuitOpen", err)
	}
	if n := hits.Load(); n != 2 {
		t.Errorf("upstream hits = %d, want 2", n)
	}
}
