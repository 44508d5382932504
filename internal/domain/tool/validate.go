package tool

import (
	"fmt"
	"slices"
	"sort"

	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/domain"
)

// Validate checks args against the spec. Every declared argument must be
// present with the right semantic type and no undeclared argument may appear.
// Failures wrap domain.ErrSchemaMismatch.
func (s *Spec) Validate(args map[string]any) error {
	for _, a := range s.Args {
		v, ok := args[a.Name]
		if !ok {
			return fmt.Errorf("%w: %s: missing argument %q", domain.ErrSchemaMismatch, s.Name, a.Name)
		}
		if err := a.check(v); err != nil {
			return fmt.Errorf("%w: %s.%s: %s", domain.ErrSchemaMismatch, s.Name, a.Name, err.Error())
		}
	}

	var extra []string
	for k := range args {
		if _, ok := s.Arg(k); !ok {
			extra = append(extra, k)
		}
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		return fmt.Errorf("%w: %s: unexpected arguments %v", domain.ErrSchemaMismatch, s.Name, extra)
	}
	return nil
}

func (a Arg) check(v any) error {
	switch a.Type {
	case ArgNumber:
		if _, ok := toFloat(v); !ok {
			return fmt.Errorf("expected number, got %s", kindOf(v))
		}
	case ArgString:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("expected string, got %s", kindOf(v))
		}
		if a.Format == FormatStateCode && !isStateCode(s) {
			return fmt.Errorf("expected two-letter state code, got %q", s)
		}
	case ArgEnum:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("expected one of %v, got %s", a.Enum, kindOf(v))
		}
		if !slices.Contains(a.Enum, s) {
			return fmt.Errorf("expected one of %v, got %q", a.Enum, s)
		}
	default:
		return fmt.Errorf("unsupported argument type %q", a.Type)
	}
	return nil
}

func isStateCode(s string) bool {
	if len(s) != 2 {
		return false
	}
	for i := 0; i < 2; i++ {
		c := s[i]
		if (c < 'A' || c > 'Z') && (c < 'a' || c > 'z') {
			return false
		}
	}
	return true
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	default:
		if _, ok := toFloat(v); ok {
			return "number"
		}
		return fmt.Sprintf("%T", v)
	}
}
