package messagequeue

import (
	"strings"
	"testing"
)

func TestValidateOutcome(t *testing.T) {
	data := []byte(`{"dispatch_id":"d1","kind":"succeeded","tool":"calc","args":{"a":1,"b":2,"operation":"add"},"message":"3","duration_ms":12}`)
	if err := Validate(OutcomeSubject("succeeded"), data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateConfirmationEvent(t *testing.T) {
	data := []byte(`{"ticket_id":"t1","tool":"send_email","summary":"send_email(...)","decision":"approved","channel":"terminal"}`)
	for _, subj := range []string{SubjectConfirmationRequested, SubjectConfirmationResolved} {
		if err := Validate(subj, data); err != nil {
			t.Fatalf("%s: unexpected error: %v", subj, err)
		}
	}
}

func TestValidateUnknownSubject(t *testing.T) {
	if err := Validate("unknown.subject", []byte(`{"foo":"bar"}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateInvalidJSON(t *testing.T) {
	err := Validate(OutcomeSubject("failed"), []byte(`{not valid json`))
	if err == nil || !strings.Contains(err.Error(), "invalid JSON") {
		t.Fatalf("expected 'invalid JSON' error, got: %v", err)
	}
}

func TestValidateWrongShape(t *testing.T) {
	err := Validate(OutcomeSubject("failed"), []byte(`"just a string"`))
	if err == nil || !strings.Contains(err.Error(), "schema validation failed") {
		t.Fatalf("expected schema validation error, got: %v", err)
	}

	err = Validate(SubjectConfirmationResolved, []byte(`{"decision":42}`))
	if err == nil {
		t.Fatal("expected type mismatch to fail validation")
	}
}

func TestOutcomeSubject(t *testing.T) {
	if got := OutcomeSubject("cancelled"); got != "dispatch.outcome.cancelled" {
		t.Fatalf("OutcomeSubject = %q", got)
	}
}
