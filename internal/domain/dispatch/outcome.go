// Package dispatch defines the terminal outcome of one end-to-end request.
package dispatch

import (
	"errors"
	"fmt"
	"time"

	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/domain"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/domain/confirmation"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/domain/tool"
)

// Kind distinguishes the four terminal outcomes of a request.
type Kind string

const (
	KindSucceeded  Kind = "succeeded"
	KindToolFailed Kind = "tool_failed"
	KindCancelled  Kind = "cancelled"
	KindFailed     Kind = "failed"
)

// Failure names the fatal error class of a failed request.
type Failure string

const (
	FailureNone            Failure = ""
	FailureMalformedOutput Failure = "malformed_output"
	FailureUnknownTool     Failure = "unknown_tool"
	FailureSchemaMismatch  Failure = "schema_mismatch"
	FailureTransport       Failure = "transport_error"
	FailureInference       Failure = "inference_error"
	FailureInternal        Failure = "internal_error"
)

// FailureOf classifies err by its wrapped sentinel.
func FailureOf(err error) Failure {
	switch {
	case err == nil:
		return FailureNone
	case errors.Is(err, domain.ErrMalformedOutput):
		return FailureMalformedOutput
	case errors.Is(err, domain.ErrUnknownTool):
		return FailureUnknownTool
	case errors.Is(err, domain.ErrSchemaMismatch):
		return FailureSchemaMismatch
	case errors.Is(err, domain.ErrTransport):
		return FailureTransport
	case errors.Is(err, domain.ErrInference):
		return FailureInference
	default:
		return FailureInternal
	}
}

// Outcome is the report returned to the caller for one request.
type Outcome struct {
	ID       string                `json:"id"`
	Kind     Kind                  `json:"kind"`
	Raw      string                `json:"raw,omitempty"`
	Call     *tool.Call            `json:"call,omitempty"`
	Decision confirmation.Decision `json:"decision,omitempty"`
	Result   *tool.Result          `json:"result,omitempty"`
	Failure  Failure               `json:"failure,omitempty"`
	Detail   string                `json:"detail,omitempty"`
	Duration time.Duration         `json:"duration_ns"`

	// Err is the wrapped sentinel behind a failed outcome.
	Err error `json:"-"`
}

// Message renders a distinct user-facing line for each terminal outcome.
func (o *Outcome) Message() string {
	switch o.Kind {
	case KindSucceeded:
		if o.Result == nil {
			return "Done."
		}
		return o.Result.Payload
	case KindToolFailed:
		if o.Result != nil && o.Result.ErrorKind == tool.ErrorKindInvalidOperation {
			return "Invalid operation: " + o.Result.Error
		}
		if o.Result != nil {
			return "Tool reported a failure: " + o.Result.Error
		}
		return "Tool reported a failure."
	case KindCancelled:
		name := ""
		if o.Call != nil {
			name = o.Call.Name()
		}
		if o.Detail != "" {
			return fmt.Sprintf("Cancelled: %s was not executed (%s).", name, o.Detail)
		}
		return fmt.Sprintf("Cancelled: %s was not executed.", name)
	case KindFailed:
		return fmt.Sprintf("Request failed [%s]: %s", o.Failure, o.Detail)
	default:
		return "Unknown outcome."
	}
}
