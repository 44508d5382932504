package confirmation

import (
	"errors"
	"testing"
	"time"

	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/domain"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/domain/tool"
)

var now = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func emailCall() tool.Call {
	return tool.NewCall(tool.NameSendEmail, map[string]any{"to": "a@b.c", "subject": "s", "body": "b"})
}

func TestOpenRoutineAutoApproves(t *testing.T) {
	tk := Open("t1", tool.NewCall(tool.NameCalc, map[string]any{"a": 1.0, "b": 2.0, "operation": "add"}), tool.Routine, now)

	if tk.Initial != DecisionNotRequired {
		t.Errorf("initial = %s, want not_required", tk.Initial)
	}
	if !tk.Approved() {
		t.Errorf("decision = %s, want approved", tk.Decision)
	}
	if tk.ResolvedAt != now {
		t.Errorf("resolved_at not set")
	}
}

func TestOpenDangerousIsPending(t *testing.T) {
	tk := Open("t2", emailCall(), tool.Dangerous, now)
	if tk.Initial != DecisionPending || tk.Decision != DecisionPending {
		t.Fatalf("expected pending ticket, got initial=%s decision=%s", tk.Initial, tk.Decision)
	}
	if tk.Decision.Terminal() {
		t.Fatal("pending must not be terminal")
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		input string
		want  Decision
	}{
		{"yes", DecisionApproved},
		{"  yes\n", DecisionApproved},
		{"YES", DecisionDenied},
		{"y", DecisionDenied},
		{"yes please", DecisionDenied},
		{"", DecisionDenied},
		{"no", DecisionDenied},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tk := Open("t", emailCall(), tool.Dangerous, now)
			if err := tk.Resolve(tt.input, DefaultToken, "alice", ChannelTerminal, now); err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if tk.Decision != tt.want {
				t.Errorf("Resolve(%q) = %s, want %s", tt.input, tk.Decision, tt.want)
			}
			if tk.Responder != "alice" || tk.Channel != ChannelTerminal {
				t.Errorf("responder/channel not recorded: %+v", tk)
			}
		})
	}
}

func TestTerminalTicketRejectsFurtherTransitions(t *testing.T) {
	tk := Open("t", emailCall(), tool.Dangerous, now)
	if err := tk.Resolve("no", DefaultToken, "", ChannelHTTP, now); err != nil {
		t.Fatal(err)
	}

	if err := tk.Resolve("yes", DefaultToken, "", ChannelHTTP, now); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if err := tk.Expire(ReasonTimeout, now); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict on expire, got %v", err)
	}
	if tk.Decision != DecisionDenied {
		t.Fatalf("terminal decision changed to %s", tk.Decision)
	}

	routine := Open("r", tool.NewCall(tool.NameGetAlerts, map[string]any{"state": "CA"}), tool.Routine, now)
	if err := routine.Resolve("no", DefaultToken, "", ChannelHTTP, now); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("routine ticket accepted input: %v", err)
	}
}

func TestExpireDenies(t *testing.T) {
	tk := Open("t", emailCall(), tool.Dangerous, now)
	if err := tk.Expire(ReasonTimeout, now); err != nil {
		t.Fatal(err)
	}
	if tk.Decision != DecisionDenied || tk.Reason != ReasonTimeout {
		t.Fatalf("unexpected ticket after expire: %+v", tk)
	}
}

func TestEmptyTokenNeverApproves(t *testing.T) {
	if IsAffirmative("", "") {
		t.Fatal("empty token must not match empty input")
	}
}

func TestNewRequestCopiesArgs(t *testing.T) {
	tk := Open("t", emailCall(), tool.Dangerous, now)
	req := NewRequest(tk, DefaultToken)
	req.Args["to"] = "evil@x.y"

	if to, _ := tk.Call.Text("to"); to != "a@b.c" {
		t.Fatalf("request mutated ticket call: %s", to)
	}
	if req.Summary != tk.Summary || req.Tool != tool.NameSendEmail {
		t.Fatalf("unexpected request: %+v", req)
	}
}
