package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/config"
)

func TestNew(t *testing.T) {
	cfg := config.Logging{Level: "debug", Service: "test-svc"}
	l, closer := New(cfg)
	defer closer.Close()
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestNewAsync(t *testing.T) {
	cfg := config.Logging{Level: "debug", Service: "test-svc", Async: true}
	l, closer := New(cfg)
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	closer.Close()
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"debug", "DEBUG"},
		{"info", "INFO"},
		{"warn", "WARN"},
		{"warning", "WARN"},
		{"error", "ERROR"},
		{"unknown", "INFO"},
		{"", "INFO"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseLevel(tt.input).String()
			if got != tt.want {
				t.Errorf("parseLevel(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestContextIDs(t *testing.T) {
	ctx := context.Background()

	if got := RequestID(ctx); got != "" {
		t.Errorf("expected empty request ID, got %q", got)
	}
	if got := DispatchID(ctx); got != "" {
		t.Errorf("expected empty dispatch ID, got %q", got)
	}

	ctx = WithRequestID(ctx, "req-123")
	ctx = WithDispatchID(ctx, "d-9")
	if got := RequestID(ctx); got != "req-123" {
		t.Errorf("expected req-123, got %q", got)
	}
	if got := DispatchID(ctx); got != "d-9" {
		t.Errorf("expected d-9, got %q", got)
	}
}

func TestContextIDsAreLogged(t *testing.T) {
	var buf bytes.Buffer
	l, closer := NewWithWriter(config.Logging{Level: "info", Service: "agent"}, &buf)
	defer closer.Close()

	ctx := WithDispatchID(WithRequestID(context.Background(), "req-1"), "d-1")
	l.InfoContext(ctx, "tool call parsed", "tool", "calc")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line: %v (%s)", err, buf.String())
	}
	if rec["request_id"] != "req-1" || rec["dispatch_id"] != "d-1" {
		t.Errorf("ids missing from record: %v", rec)
	}
	if rec["service"] != "agent" || rec["tool"] != "calc" {
		t.Errorf("attrs missing from record: %v", rec)
	}
}
