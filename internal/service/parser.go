package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/domain"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/domain/tool"
)

// ParseInstruction decodes raw model output into a validated tool call.
//
// The input must be exactly one JSON object with the keys "tool" (a string)
// and "args" (an object), optionally surrounded by whitespace. Anything else,
// including prose, code fences or a second object, fails with
// domain.ErrMalformedOutput. A tool outside the catalog fails with
// domain.ErrUnknownTool, and arguments that do not match the tool's schema
// fail with domain.ErrSchemaMismatch.
func ParseInstruction(raw string) (tool.Call, error) {
	trimmed := bytes.TrimSpace([]byte(raw))
	if len(trimmed) == 0 {
		return tool.Call{}, fmt.Errorf("%w: empty output", domain.ErrMalformedOutput)
	}
	if trimmed[0] != '{' {
		return tool.Call{}, fmt.Errorf("%w: output does not start with a JSON object", domain.ErrMalformedOutput)
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	var fields map[string]json.RawMessage
	if err := dec.Decode(&fields); err != nil {
		return tool.Call{}, fmt.Errorf("%w: %v", domain.ErrMalformedOutput, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return tool.Call{}, fmt.Errorf("%w: unexpected content after the instruction object", domain.ErrMalformedOutput)
	}

	var extra []string
	for k := range fields {
		if k != "tool" && k != "args" {
			extra = append(extra, k)
		}
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		return tool.Call{}, fmt.Errorf("%w: unexpected keys %v", domain.ErrMalformedOutput, extra)
	}

	name, err := decodeToolName(fields["tool"])
	if err != nil {
		return tool.Call{}, err
	}
	args, err := decodeArgs(fields["args"])
	if err != nil {
		return tool.Call{}, err
	}

	spec, ok := tool.Lookup(name)
	if !ok {
		return tool.Call{}, fmt.Errorf("%w: %q", domain.ErrUnknownTool, name)
	}
	if err := numbersToFloat(args); err != nil {
		return tool.Call{}, err
	}
	if err := spec.Validate(args); err != nil {
		return tool.Call{}, err
	}
	return tool.NewCall(name, args), nil
}

func decodeToolName(raw json.RawMessage) (string, error) {
	if raw == nil {
		return "", fmt.Errorf("%w: missing \"tool\"", domain.ErrMalformedOutput)
	}
	var name string
	if err := json.Unmarshal(raw, &name); err != nil || bytes.Equal(raw, []byte("null")) {
		return "", fmt.Errorf("%w: \"tool\" must be a string", domain.ErrMalformedOutput)
	}
	return name, nil
}

func decodeArgs(raw json.RawMessage) (map[string]any, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: missing \"args\"", domain.ErrMalformedOutput)
	}
	if bytes.Equal(raw, []byte("null")) || raw[0] != '{' {
		return nil, fmt.Errorf("%w: \"args\" must be an object", domain.ErrMalformedOutput)
	}
	// Numbers stay json.Number until the tool is known, so a value outside
	// float64 range is reported against its argument.
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var args map[string]any
	if err := dec.Decode(&args); err != nil {
		return nil, fmt.Errorf("%w: \"args\": %v", domain.ErrMalformedOutput, err)
	}
	return args, nil
}

// numbersToFloat converts top-level json.Number values to float64 in place.
func numbersToFloat(args map[string]any) error {
	for k, v := range args {
		n, ok := v.(json.Number)
		if !ok {
			continue
		}
		f, err := n.Float64()
		if err != nil {
			return fmt.Errorf("%w: argument %q: number %s is out of range", domain.ErrSchemaMismatch, k, n)
		}
		args[k] = f
	}
	return nil
}
