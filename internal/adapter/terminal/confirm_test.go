package terminal

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	cf "github.com/GokulRavii/SingleAgent-MultiTool-System/internal/domain/confirmation"
)

func emailRequest(id string) cf.Request {
	return cf.Request{
		ID:      id,
		Tool:    "send_email",
		Args:    map[string]any{"to": "a@b.c", "subject": "Hello", "body": "hi"},
		Summary: `send_email(body="hi", subject="Hello", to="a@b.c")`,
		Token:   "yes",
	}
}

func TestRequestConfirmationReadsLine(t *testing.T) {
	var out bytes.Buffer
	p := New(strings.NewReader("yes\n"), &out)

	resp, err := p.RequestConfirmation(context.Background(), emailRequest("t1"))
	if err != nil {
		t.Fatal(err)
	}
	if resp.Input != "yes" || resp.Channel != cf.ChannelTerminal {
		t.Errorf("resp = %+v", resp)
	}
	if !strings.Contains(out.String(), "Type 'yes' to proceed") {
		t.Errorf("prompt missing token:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "send_email") {
		t.Errorf("summary missing tool name:\n%s", out.String())
	}
}

func TestRequestConfirmationEOFIsEmpty(t *testing.T) {
	p := New(strings.NewReader(""), io.Discard)
	resp, err := p.RequestConfirmation(context.Background(), emailRequest("t1"))
	if err != nil {
		t.Fatal(err)
	}
	if resp.Input != "" {
		t.Errorf("input = %q, want empty", resp.Input)
	}
}

func TestRequestConfirmationCancelKeepsNextLine(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	p := New(pr, io.Discard)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := p.RequestConfirmation(ctx, emailRequest("t1")); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}

	go func() { _, _ = io.WriteString(pw, "no\n") }()
	resp, err := p.RequestConfirmation(context.Background(), emailRequest("t2"))
	if err != nil {
		t.Fatal(err)
	}
	if resp.Input != "no" {
		t.Errorf("input = %q, want no", resp.Input)
	}
}

func TestRenderSortsArgs(t *testing.T) {
	got := Render(emailRequest("t1"), 0)
	b, s, to := strings.Index(got, "body:"), strings.Index(got, "subject:"), strings.Index(got, "to:")
	if b < 0 || s < 0 || to < 0 || b >= s || s >= to {
		t.Errorf("args not in key order:\n%s", got)
	}
}

func TestPipedInputRendersPlain(t *testing.T) {
	var out bytes.Buffer
	p := New(strings.NewReader("yes\n"), &out)
	if _, err := p.RequestConfirmation(context.Background(), emailRequest("t1")); err != nil {
		t.Fatal(err)
	}
	got := out.String()
	if strings.ContainsAny(got, "╭╰│") {
		t.Errorf("piped prompt must not draw a box:\n%s", got)
	}
	for _, want := range []string{"Confirmation required: send_email", "  subject: Hello", `call: send_email(`} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q:\n%s", want, got)
		}
	}
}
