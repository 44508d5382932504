package mcp

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/domain"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/domain/tool"
)

type fakeSession struct {
	initErr error
	callErr error
	block   bool
	result  *mcplib.CallToolResult
	closes  atomic.Int32
}

func (f *fakeSession) Initialize(context.Context, mcplib.InitializeRequest) (*mcplib.InitializeResult, error) {
	return &mcplib.InitializeResult{}, f.initErr
}

func (f *fakeSession) CallTool(ctx context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.result, f.callErr
}

func (f *fakeSession) ListTools(context.Context, mcplib.ListToolsRequest) (*mcplib.ListToolsResult, error) {
	return &mcplib.ListToolsResult{Tools: []mcplib.Tool{{Name: "calc"}}}, nil
}

func (f *fakeSession) Close() error {
	f.closes.Add(1)
	return nil
}

func fakeClient(s *fakeSession, dialErr error) *Client {
	return &Client{
		transport: "fake",
		timeout:   time.Second,
		dial: func(context.Context) (session, error) {
			if dialErr != nil {
				return nil, dialErr
			}
			return s, nil
		},
	}
}

func calc() tool.Call {
	return tool.NewCall(tool.NameCalc, map[string]any{"a": 1.0, "b": 2.0, "operation": "add"})
}

func TestInvokeSuccessClosesSession(t *testing.T) {
	s := &fakeSession{result: mcplib.NewToolResultText("3")}
	res, err := fakeClient(s, nil).Invoke(context.Background(), calc())
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if !res.OK || res.Payload != "3" {
		t.Errorf("result = %+v", res)
	}
	if n := s.closes.Load(); n != 1 {
		t.Errorf("closes = %d, want 1", n)
	}
}

func TestInvokeFailures(t *testing.T) {
	tests := []struct {
		name    string
		session *fakeSession
		dialErr error
		closes  int32
	}{
		{"dial refused", &fakeSession{}, errors.New("connection refused"), 0},
		{"initialize fails", &fakeSession{initErr: errors.New("eof")}, nil, 1},
		{"disconnect mid-call", &fakeSession{callErr: errors.New("stream closed")}, nil, 1},
		{"timeout", &fakeSession{block: true}, nil, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := fakeClient(tt.session, tt.dialErr)
			c.timeout = 50 * time.Millisecond

			_, err := c.Invoke(context.Background(), calc())
			if !errors.Is(err, domain.ErrTransport) {
				t.Fatalf("err = %v, want ErrTransport", err)
			}
			if n := tt.session.closes.Load(); n != tt.closes {
				t.Errorf("closes = %d, want %d", n, tt.closes)
			}
		})
	}
}

func TestToResult(t *testing.T) {
	errRes := mcplib.NewToolResultError("cannot divide by 0")
	errRes.StructuredContent = map[string]any{errorKindKey: tool.ErrorKindInvalidOperation}

	multi := &mcplib.CallToolResult{Content: []mcplib.Content{
		mcplib.NewTextContent("a"), mcplib.NewTextContent("b"),
	}}

	tests := []struct {
		name string
		in   *mcplib.CallToolResult
		want tool.Result
	}{
		{"text", mcplib.NewToolResultText("ok"), tool.Success("ok")},
		{"joined", multi, tool.Success("a\nb")},
		{"typed error", errRes, tool.Failure(tool.ErrorKindInvalidOperation, "cannot divide by 0")},
		{"untyped error", mcplib.NewToolResultError("boom"), tool.Failure(tool.ErrorKindTool, "boom")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := toResult(tt.in); got != tt.want {
				t.Errorf("toResult = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestTools(t *testing.T) {
	s := &fakeSession{}
	names, err := fakeClient(s, nil).Tools(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 1 || names[0] != "calc" {
		t.Errorf("names = %v", names)
	}
	if s.closes.Load() != 1 {
		t.Error("session not closed")
	}
}

func TestNewClientRejectsUnknownTransport(t *testing.T) {
	if _, err := NewClient(ClientConfig{Transport: "carrier-pigeon"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}
