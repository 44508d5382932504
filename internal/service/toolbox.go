package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/domain"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/domain/tool"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/port/mailer"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/port/weather"
)

// Descriptive tool messages.
const (
	MsgAlertsUnavailable   = "Unable to fetch alerts or no alerts found."
	MsgNoActiveAlerts      = "No active alerts for this state."
	MsgForecastUnavailable = "Unable to fetch forecast data for this location."
	MsgForecastDetail      = "Unable to fetch detailed forecast."
	MsgEmailConfigMissing  = "Email configuration is missing."
)

const entrySeparator = "\n---\n"

// Toolbox holds the implementations behind the tool catalog. Every external
// failure is turned into a descriptive Result; Execute never returns an error.
type Toolbox struct {
	weather         weather.Source
	mail            mailer.Sender
	nwsBase         string
	forecastPeriods int
}

// NewToolbox creates a Toolbox. nwsBase is the weather API root without a
// trailing slash.
func NewToolbox(src weather.Source, mail mailer.Sender, nwsBase string, forecastPeriods int) *Toolbox {
	if forecastPeriods < 1 {
		forecastPeriods = 5
	}
	return &Toolbox{
		weather:         src,
		mail:            mail,
		nwsBase:         strings.TrimRight(nwsBase, "/"),
		forecastPeriods: forecastPeriods,
	}
}

// Execute runs a validated call.
func (t *Toolbox) Execute(ctx context.Context, call tool.Call) tool.Result {
	switch call.Name() {
	case tool.NameGetAlerts:
		state, _ := call.Text("state")
		return t.GetAlerts(ctx, state)
	case tool.NameGetForecast:
		lat, _ := call.Number("latitude")
		lon, _ := call.Number("longitude")
		return t.GetForecast(ctx, lat, lon)
	case tool.NameCalc:
		a, _ := call.Number("a")
		b, _ := call.Number("b")
		op, _ := call.Text("operation")
		v, err := Calc(a, b, op)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidOperation) {
				return tool.Failure(tool.ErrorKindInvalidOperation, err.Error())
			}
			return tool.Failure(tool.ErrorKindTool, err.Error())
		}
		return tool.Success(strconv.FormatFloat(v, 'f', -1, 64))
	case tool.NameSendEmail:
		to, _ := call.Text("to")
		subject, _ := call.Text("subject")
		body, _ := call.Text("body")
		return t.SendEmail(ctx, to, subject, body)
	default:
		return tool.Failure(tool.ErrorKindTool, fmt.Sprintf("unknown tool %q", call.Name()))
	}
}

// GetAlerts returns the active alerts for a two-letter state code.
func (t *Toolbox) GetAlerts(ctx context.Context, state string) tool.Result {
	url := t.nwsBase + "/alerts/active/area/" + strings.ToUpper(state)
	data, err := t.fetch(ctx, url)
	if err != nil {
		return tool.Failure(tool.ErrorKindTool, MsgAlertsUnavailable)
	}

	features := gjson.GetBytes(data, "features")
	if !features.IsArray() {
		return tool.Failure(tool.ErrorKindTool, MsgAlertsUnavailable)
	}
	alerts := features.Array()
	if len(alerts) == 0 {
		return tool.Success(MsgNoActiveAlerts)
	}

	out := make([]string, 0, len(alerts))
	for _, f := range alerts {
		out = append(out, formatAlert(f.Get("properties")))
	}
	return tool.Success(strings.Join(out, entrySeparator))
}

// GetForecast resolves the forecast endpoint for a point and returns the
// first periods of its forecast.
func (t *Toolbox) GetForecast(ctx context.Context, lat, lon float64) tool.Result {
	pointsURL := fmt.Sprintf("%s/points/%s,%s", t.nwsBase, formatCoord(lat), formatCoord(lon))
	points, err := t.fetch(ctx, pointsURL)
	if err != nil {
		return tool.Failure(tool.ErrorKindTool, MsgForecastUnavailable)
	}
	forecastURL := gjson.GetBytes(points, "properties.forecast").String()
	if forecastURL == "" {
		return tool.Failure(tool.ErrorKindTool, MsgForecastUnavailable)
	}

	forecast, err := t.fetch(ctx, forecastURL)
	if err != nil {
		return tool.Failure(tool.ErrorKindTool, MsgForecastDetail)
	}
	periods := gjson.GetBytes(forecast, "properties.periods")
	if !periods.IsArray() {
		return tool.Failure(tool.ErrorKindTool, MsgForecastDetail)
	}

	list := periods.Array()
	if len(list) > t.forecastPeriods {
		list = list[:t.forecastPeriods]
	}
	out := make([]string, 0, len(list))
	for _, p := range list {
		out = append(out, formatPeriod(p))
	}
	return tool.Success(strings.Join(out, entrySeparator))
}

// SendEmail relays a plain-text message.
func (t *Toolbox) SendEmail(ctx context.Context, to, subject, body string) tool.Result {
	if t.mail == nil || !t.mail.Configured() {
		return tool.Failure(tool.ErrorKindTool, MsgEmailConfigMissing)
	}
	if err := t.mail.Send(ctx, mailer.Message{To: to, Subject: subject, Body: body}); err != nil {
		slog.Warn("email relay failed", "to", to, "error", err)
		return tool.Failure(tool.ErrorKindTool, "Failed to send email: "+err.Error())
	}
	return tool.Success("Email successfully sent to " + to)
}

// Calc applies a basic arithmetic operation. Division by zero and results
// that are not finite fail with domain.ErrInvalidOperation.
func Calc(a, b float64, op string) (float64, error) {
	var v float64
	switch op {
	case tool.OpAdd:
		v = a + b
	case tool.OpSubtract:
		v = a - b
	case tool.OpMultiply:
		v = a * b
	case tool.OpDivide:
		if b == 0 {
			return 0, fmt.Errorf("%w: cannot divide by zero", domain.ErrInvalidOperation)
		}
		v = a / b
	default:
		return 0, fmt.Errorf("%w: unsupported operation %q", domain.ErrInvalidOperation, op)
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("%w: result of %s is not a finite number", domain.ErrInvalidOperation, op)
	}
	return v, nil
}

func (t *Toolbox) fetch(ctx context.Context, url string) ([]byte, error) {
	if t.weather == nil {
		return nil, errors.New("weather source not configured")
	}
	data, err := t.weather.Get(ctx, url)
	if err != nil {
		slog.Warn("weather request failed", "url", url, "error", err)
		return nil, err
	}
	if !gjson.ValidBytes(data) {
		slog.Warn("weather response is not valid JSON", "url", url)
		return nil, errors.New("invalid JSON")
	}
	return data, nil
}

func formatAlert(props gjson.Result) string {
	return fmt.Sprintf("Event: %s\nArea: %s\nSeverity: %s\nDescription: %s\nInstructions: %s",
		field(props, "event", "Unknown"),
		field(props, "areaDesc", "Unknown"),
		field(props, "severity", "Unknown"),
		field(props, "description", "No description available"),
		field(props, "instruction", "No specific instructions provided"),
	)
}

func formatPeriod(p gjson.Result) string {
	return fmt.Sprintf("%s:\nTemperature: %s°%s\nWind: %s %s\nForecast: %s",
		field(p, "name", "Unknown"),
		field(p, "temperature", "?"),
		field(p, "temperatureUnit", ""),
		field(p, "windSpeed", "Unknown"),
		field(p, "windDirection", ""),
		field(p, "detailedForecast", "No forecast available"),
	)
}

// field returns the string form of a JSON value, or def when it is missing or null.
func field(r gjson.Result, path, def string) string {
	v := r.Get(path)
	if !v.Exists() || v.Type == gjson.Null {
		return def
	}
	return v.String()
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
