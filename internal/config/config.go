// Package config provides hierarchical configuration loading for the agent
// and the tool server.
// Precedence: defaults < YAML file < .env file < environment variables.
package config

import "time"

// Config holds all runtime configuration. It is built once at process start
// and passed explicitly to every component that needs a setting.
type Config struct {
	Server       Server       `yaml:"server"`
	ToolServer   ToolServer   `yaml:"toolserver"`
	Model        Model        `yaml:"model"`
	Weather      Weather      `yaml:"weather"`
	SMTP         SMTP         `yaml:"smtp"`
	Confirmation Confirmation `yaml:"confirmation"`
	Logging      Logging      `yaml:"logging"`
	Breaker      Breaker      `yaml:"breaker"`
	Cache        Cache        `yaml:"cache"`
	NATS         NATS         `yaml:"nats"`
	Postgres     Postgres     `yaml:"postgres"`
	OTEL         OTEL         `yaml:"otel"`
}

// Server holds the dispatch/approval HTTP API configuration.
type Server struct {
	Port       string  `yaml:"port"`
	CORSOrigin string  `yaml:"cors_origin"`
	APIKey     string  `yaml:"api_key"`
	APIKeyHash string  `yaml:"api_key_hash"` // bcrypt hash; takes precedence over api_key
	RateLimit  float64 `yaml:"rate_limit"`   // dispatch requests per second per client; 0 disables
	RateBurst  int     `yaml:"rate_burst"`
}

// MCP transports understood by the tool server and the invocation client.
const (
	TransportSSE            = "sse"
	TransportStreamableHTTP = "streamable_http"
	TransportStdio          = "stdio"
	TransportInProcess      = "inprocess"
)

// ToolServer holds both sides of the MCP connection: where the server listens
// and how the invocation client reaches it.
type ToolServer struct {
	Name        string        `yaml:"name"`
	Version     string        `yaml:"version"`
	Addr        string        `yaml:"addr"`      // listen address of cmd/toolserver
	Transport   string        `yaml:"transport"` // sse | streamable_http | stdio | inprocess
	URL         string        `yaml:"url"`       // client endpoint for sse / streamable_http
	Command     string        `yaml:"command"`   // client command for stdio
	Args        []string      `yaml:"args"`
	APIKey      string        `yaml:"api_key"`
	APIKeyHash  string        `yaml:"api_key_hash"`
	CallTimeout time.Duration `yaml:"call_timeout"`
}

// Model providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Model holds language-model inference configuration.
type Model struct {
	Provider    string        `yaml:"provider"` // openai (any OpenAI-compatible endpoint) | anthropic
	Name        string        `yaml:"name"`
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Weather holds NWS API configuration.
type Weather struct {
	BaseURL         string        `yaml:"base_url"`
	UserAgent       string        `yaml:"user_agent"`
	Timeout         time.Duration `yaml:"timeout"`
	CacheTTL        time.Duration `yaml:"cache_ttl"`
	ForecastPeriods int           `yaml:"forecast_periods"`
}

// SMTP holds mail relay settings. Missing values are not a configuration
// error: send_email reports them at call time.
type SMTP struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"` // sender identity and login
	Password string `yaml:"password"`
}

// Complete reports whether every required relay setting is present.
func (s SMTP) Complete() bool {
	return s.Host != "" && s.User != "" && s.Password != ""
}

// Confirmation holds human-approval gate configuration.
type Confirmation struct {
	Token         string        `yaml:"token"`
	Timeout       time.Duration `yaml:"timeout"` // 0 waits forever
	AlwaysConfirm []string      `yaml:"always_confirm"`
	Terminal      bool          `yaml:"terminal"`
	NATSSubject   string        `yaml:"nats_subject"` // empty disables the NATS channel
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
	Async   bool   `yaml:"async"`
}

// Breaker holds circuit breaker configuration for outbound HTTP APIs.
type Breaker struct {
	MaxFailures int           `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Cache holds the weather response cache configuration.
type Cache struct {
	L1MaxSizeMB int64         `yaml:"l1_max_size_mb"`
	L2Bucket    string        `yaml:"l2_bucket"` // NATS KV bucket; used only when nats.url is set
	L2TTL       time.Duration `yaml:"l2_ttl"`
}

// NATS holds NATS configuration. An empty URL disables every NATS adapter.
type NATS struct {
	URL    string `yaml:"url"`
	Stream string `yaml:"stream"`
}

// Postgres holds confirmation-ticket store configuration. An empty DSN keeps
// tickets in memory.
type Postgres struct {
	DSN             string        `yaml:"dsn"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
	HealthCheck     time.Duration `yaml:"health_check"`
}

// OTEL holds OpenTelemetry exporter configuration. An empty endpoint keeps
// the global no-op providers.
type OTEL struct {
	Endpoint    string `yaml:"endpoint"`
	Insecure    bool   `yaml:"insecure"`
	ServiceName string `yaml:"service_name"`
}

// Defaults returns a Config with sensible default values for local development.
func Defaults() Config {
	return Config{
		Server: Server{
			Port:       "8080",
			CORSOrigin: "http://localhost:3000",
			RateLimit:  2,
			RateBurst:  10,
		},
		ToolServer: ToolServer{
			Name:        "weather",
			Version:     "1.0.0",
			Addr:        "0.0.0.0:8000",
			Transport:   TransportSSE,
			URL:         "http://localhost:8000/sse",
			CallTimeout: 60 * time.Second,
		},
		Model: Model{
			Provider:  ProviderOpenAI,
			Name:      "gemini-2.5-flash",
			BaseURL:   "https://generativelanguage.googleapis.com/v1beta/openai/",
			MaxTokens: 1024,
			Timeout:   60 * time.Second,
		},
		Weather: Weather{
			BaseURL:         "https://api.weather.gov",
			UserAgent:       "weather-app/1.0",
			Timeout:         30 * time.Second,
			CacheTTL:        5 * time.Minute,
			ForecastPeriods: 5,
		},
		SMTP: SMTP{
			Port: 587,
		},
		Confirmation: Confirmation{
			Token:    "yes",
			Timeout:  2 * time.Minute,
			Terminal: true,
		},
		Logging: Logging{
			Level:   "info",
			Service: "agent",
		},
		Breaker: Breaker{
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		},
		Cache: Cache{
			L1MaxSizeMB: 16,
			L2Bucket:    "WEATHER_CACHE",
			L2TTL:       10 * time.Minute,
		},
		NATS: NATS{
			Stream: "DISPATCH",
		},
		Postgres: Postgres{
			MaxConns:        5,
			MinConns:        1,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 10 * time.Minute,
			HealthCheck:     time.Minute,
		},
		OTEL: OTEL{
			Insecure:    true,
			ServiceName: "single-agent-multi-tool",
		},
	}
}
