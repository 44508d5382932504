package tool

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Call is a decoded, validated request to invoke one tool. It is immutable:
// Args returns a copy, so holders cannot change the call after creation.
type Call struct {
	name string
	args map[string]any
}

// NewCall builds a call from a tool name and argument mapping. The mapping is
// copied. NewCall performs no validation; use Spec.Validate first.
func NewCall(name string, args map[string]any) Call {
	return Call{name: name, args: copyArgs(args)}
}

// Name returns the tool name.
func (c Call) Name() string { return c.name }

// Args returns a copy of the argument mapping.
func (c Call) Args() map[string]any { return copyArgs(c.args) }

// Number returns a number argument, or false if missing or not numeric.
func (c Call) Number(key string) (float64, bool) {
	f, ok := toFloat(c.args[key])
	return f, ok
}

// Text returns a string argument, or false if missing or not a string.
func (c Call) Text(key string) (string, bool) {
	s, ok := c.args[key].(string)
	return s, ok
}

// IsZero reports whether c is the zero Call.
func (c Call) IsZero() bool { return c.name == "" && c.args == nil }

// Summary renders the call as a single human-readable line with arguments
// sorted by name, e.g. send_email(body="hi", subject="Hello", to="a@b.c").
func (c Call) Summary() string {
	keys := make([]string, 0, len(c.args))
	for k := range c.args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+formatValue(c.args[k]))
	}
	return c.name + "(" + strings.Join(parts, ", ") + ")"
}

type wireCall struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args"`
}

// MarshalJSON encodes the call in the instruction shape {"tool":..,"args":..}.
func (c Call) MarshalJSON() ([]byte, error) {
	args := c.args
	if args == nil {
		args = map[string]any{}
	}
	return json.Marshal(wireCall{Tool: c.name, Args: args})
}

func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return strconv.Quote(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

func copyArgs(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// Error kinds carried by a failed Result.
const (
	ErrorKindInvalidOperation = "invalid_operation"
	ErrorKindTool             = "tool_error"
)

// Result is the outcome of one remote invocation. A Result with OK false is a
// tool-reported failure, not a transport failure.
type Result struct {
	OK        bool   `json:"ok"`
	Payload   string `json:"payload"`
	Error     string `json:"error,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
}

// Success returns an OK result.
func Success(payload string) Result {
	return Result{OK: true, Payload: payload}
}

// Failure returns a tool-reported failure. An empty kind defaults to ErrorKindTool.
func Failure(kind, msg string) Result {
	if kind == "" {
		kind = ErrorKindTool
	}
	return Result{OK: false, Payload: msg, Error: msg, ErrorKind: kind}
}
