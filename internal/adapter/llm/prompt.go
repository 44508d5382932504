// Package llm implements the model port over hosted chat models. The model
// acts as a router: it must answer every task with a single JSON instruction
// naming one catalog tool.
package llm

import (
	"fmt"
	"strings"

	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/domain/tool"
)

type example struct {
	user     string
	response string
}

var examples = []example{
	{"Is there any weather alert in California?", `{"tool":"get_alerts","args":{"state":"CA"}}`},
	{"Give me the forecast for San Francisco", `{"tool":"get_forecast","args":{"latitude":37.77,"longitude":-122.42}}`},
	{"What is 10 divided by 2?", `{"tool":"calc","args":{"a":10,"b":2,"operation":"divide"}}`},
	{"Send an email to test@gmail.com saying hello", `{"tool":"send_email","args":{"to":"test@gmail.com","subject":"Hello","body":"Hello!"}}`},
}

// SystemPrompt renders the routing prompt from the tool catalog.
func SystemPrompt() string {
	var b strings.Builder
	b.WriteString("You are a weather routing agent.\n\n")
	b.WriteString("You MUST respond with ONLY valid JSON.\nNO explanations.\nNO markdown.\nNO extra text.\n\n")

	names := tool.Names()
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	b.WriteString("Schema:\n{\n  \"tool\": " + strings.Join(quoted, " | ") + ",\n  \"args\": { ... }\n}\n\n")

	b.WriteString("Tools:\n")
	for _, spec := range tool.Catalog() {
		args := make([]string, 0, len(spec.Args))
		for _, a := range spec.Args {
			args = append(args, describeArg(a))
		}
		fmt.Fprintf(&b, "- %s(%s): %s\n", spec.Name, strings.Join(args, ", "), spec.Description)
	}

	b.WriteString("\nExamples:\n")
	for _, ex := range examples {
		fmt.Fprintf(&b, "\nUser: %s\nResponse:\n%s\n", ex.user, ex.response)
	}
	return b.String()
}

func describeArg(a tool.Arg) string {
	switch {
	case a.Type == tool.ArgEnum:
		return a.Name + ": one of " + strings.Join(a.Enum, "|")
	case a.Format == tool.FormatStateCode:
		return a.Name + ": two-letter state code"
	default:
		return a.Name + ": " + string(a.Type)
	}
}
