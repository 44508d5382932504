// Package tool defines the closed catalog of dispatchable tools, their
// argument schemas and sensitivity, and the call/result value types that
// flow between the parser, the confirmation gate and the invocation client.
package tool

// Sensitivity classifies whether a tool needs human confirmation.
type Sensitivity string

const (
	// Routine tools run without confirmation.
	Routine Sensitivity = "routine"
	// Dangerous tools have external, irreversible side effects and must be confirmed.
	Dangerous Sensitivity = "dangerous"
)

// ArgType is the semantic type of a tool argument.
type ArgType string

const (
	ArgString ArgType = "string"
	ArgNumber ArgType = "number"
	ArgEnum   ArgType = "enum"
)

// Format narrows an ArgString further.
type Format string

const (
	FormatNone      Format = ""
	FormatStateCode Format = "state_code" // two ASCII letters, e.g. CA
)

// Arg declares one argument of a tool. Every declared argument is required.
type Arg struct {
	Name        string   `json:"name" yaml:"name"`
	Type        ArgType  `json:"type" yaml:"type"`
	Description string   `json:"description" yaml:"description"`
	Enum        []string `json:"enum,omitempty" yaml:"enum,omitempty"`
	Format      Format   `json:"format,omitempty" yaml:"format,omitempty"`
}

// Spec is a static catalog entry.
type Spec struct {
	Name        string      `json:"name" yaml:"name"`
	Description string      `json:"description" yaml:"description"`
	Args        []Arg       `json:"args" yaml:"args"`
	Sensitivity Sensitivity `json:"sensitivity" yaml:"sensitivity"`
}

// Arg returns the declared argument with the given name.
func (s *Spec) Arg(name string) (Arg, bool) {
	for _, a := range s.Args {
		if a.Name == name {
			return a, true
		}
	}
	return Arg{}, false
}

// Tool names.
const (
	NameGetAlerts   = "get_alerts"
	NameGetForecast = "get_forecast"
	NameCalc        = "calc"
	NameSendEmail   = "send_email"
)

// Calc operations.
const (
	OpAdd      = "add"
	OpSubtract = "subtract"
	OpMultiply = "multiply"
	OpDivide   = "divide"
)

var catalog = []Spec{
	{
		Name:        NameGetAlerts,
		Description: "Get active weather alerts for a US state.",
		Args: []Arg{
			{Name: "state", Type: ArgString, Format: FormatStateCode, Description: "Two-letter US state code (e.g. CA, NY)"},
		},
		Sensitivity: Routine,
	},
	{
		Name:        NameGetForecast,
		Description: "Get the weather forecast for a location.",
		Args: []Arg{
			{Name: "latitude", Type: ArgNumber, Description: "Latitude of the location"},
			{Name: "longitude", Type: ArgNumber, Description: "Longitude of the location"},
		},
		Sensitivity: Routine,
	},
	{
		Name:        NameCalc,
		Description: "Perform basic arithmetic between two numbers.",
		Args: []Arg{
			{Name: "a", Type: ArgNumber, Description: "First number"},
			{Name: "b", Type: ArgNumber, Description: "Second number"},
			{Name: "operation", Type: ArgEnum, Enum: []string{OpAdd, OpSubtract, OpMultiply, OpDivide}, Description: "The operation to perform"},
		},
		Sensitivity: Routine,
	},
	{
		Name:        NameSendEmail,
		Description: "Send an email.",
		Args: []Arg{
			{Name: "to", Type: ArgString, Description: "Recipient email address"},
			{Name: "subject", Type: ArgString, Description: "Email subject"},
			{Name: "body", Type: ArgString, Description: "Email body text"},
		},
		Sensitivity: Dangerous,
	},
}

// Catalog returns a copy of every known tool spec, in declaration order.
func Catalog() []Spec {
	out := make([]Spec, len(catalog))
	for i := range catalog {
		out[i] = catalog[i].clone()
	}
	return out
}

// Lookup returns the spec for name.
func Lookup(name string) (Spec, bool) {
	for i := range catalog {
		if catalog[i].Name == name {
			return catalog[i].clone(), true
		}
	}
	return Spec{}, false
}

// Names returns the known tool names in declaration order.
func Names() []string {
	names := make([]string, len(catalog))
	for i := range catalog {
		names[i] = catalog[i].Name
	}
	return names
}

func (s *Spec) clone() Spec {
	out := *s
	out.Args = make([]Arg, len(s.Args))
	for i, a := range s.Args {
		a.Enum = append([]string(nil), a.Enum...)
		out.Args[i] = a
	}
	return out
}
