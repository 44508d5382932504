package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "agent.yaml"

// DefaultEnvFile is the dotenv file loaded before the environment overlay.
const DefaultEnvFile = ".env"

// Load returns a Config using the hierarchy: defaults < YAML < .env < ENV.
// Both files are optional; a missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < .env < ENV.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	if err := loadDotEnv(DefaultEnvFile); err != nil {
		return nil, fmt.Errorf("config dotenv: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is chosen by the operator
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadDotEnv copies variables from a dotenv file into the process
// environment. Variables already set in the environment win.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "AGENT_PORT")
	setString(&cfg.Server.CORSOrigin, "AGENT_CORS_ORIGIN")
	setString(&cfg.Server.APIKey, "AGENT_API_KEY")
	setString(&cfg.Server.APIKeyHash, "AGENT_API_KEY_HASH")
	setFloat64(&cfg.Server.RateLimit, "AGENT_RATE_LIMIT")
	setInt(&cfg.Server.RateBurst, "AGENT_RATE_BURST")

	// Tool server
	setString(&cfg.ToolServer.Addr, "TOOLSERVER_ADDR")
	setString(&cfg.ToolServer.Transport, "TOOLSERVER_TRANSPORT")
	setString(&cfg.ToolServer.URL, "TOOLSERVER_URL")
	setString(&cfg.ToolServer.Command, "TOOLSERVER_COMMAND")
	setString(&cfg.ToolServer.APIKey, "TOOLSERVER_API_KEY")
	setString(&cfg.ToolServer.APIKeyHash, "TOOLSERVER_API_KEY_HASH")
	setDuration(&cfg.ToolServer.CallTimeout, "TOOLSERVER_CALL_TIMEOUT")

	// Model
	setString(&cfg.Model.Provider, "AGENT_MODEL_PROVIDER")
	setString(&cfg.Model.Name, "AGENT_MODEL")
	setString(&cfg.Model.BaseURL, "AGENT_MODEL_BASE_URL")
	setString(&cfg.Model.APIKey, "OPENAI_API_KEY")
	setString(&cfg.Model.APIKey, "GEMINI_API_KEY")
	setString(&cfg.Model.APIKey, "AGENT_MODEL_API_KEY")
	setInt(&cfg.Model.MaxTokens, "AGENT_MODEL_MAX_TOKENS")
	setFloat64(&cfg.Model.Temperature, "AGENT_MODEL_TEMPERATURE")
	setDuration(&cfg.Model.Timeout, "AGENT_MODEL_TIMEOUT")

	// Weather
	setString(&cfg.Weather.BaseURL, "NWS_API_BASE")
	setString(&cfg.Weather.UserAgent, "NWS_USER_AGENT")
	setDuration(&cfg.Weather.Timeout, "NWS_TIMEOUT")
	setDuration(&cfg.Weather.CacheTTL, "NWS_CACHE_TTL")

	// Mail relay
	setString(&cfg.SMTP.User, "EMAIL_USER")
	setString(&cfg.SMTP.Password, "EMAIL_PASSWORD")
	setString(&cfg.SMTP.Host, "EMAIL_HOST")
	setInt(&cfg.SMTP.Port, "EMAIL_PORT")

	// Confirmation
	setString(&cfg.Confirmation.Token, "AGENT_CONFIRM_TOKEN")
	setDuration(&cfg.Confirmation.Timeout, "AGENT_CONFIRM_TIMEOUT")
	setBool(&cfg.Confirmation.Terminal, "AGENT_CONFIRM_TERMINAL")
	setString(&cfg.Confirmation.NATSSubject, "AGENT_CONFIRM_NATS_SUBJECT")
	setList(&cfg.Confirmation.AlwaysConfirm, "AGENT_CONFIRM_ALWAYS")

	setString(&cfg.Logging.Level, "AGENT_LOG_LEVEL")
	setString(&cfg.Logging.Service, "AGENT_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "AGENT_LOG_ASYNC")
	setInt(&cfg.Breaker.MaxFailures, "AGENT_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "AGENT_BREAKER_TIMEOUT")

	// Cache
	setInt64(&cfg.Cache.L1MaxSizeMB, "AGENT_CACHE_L1_SIZE_MB")
	setString(&cfg.Cache.L2Bucket, "AGENT_CACHE_L2_BUCKET")
	setDuration(&cfg.Cache.L2TTL, "AGENT_CACHE_L2_TTL")

	// Infrastructure
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.NATS.Stream, "AGENT_NATS_STREAM")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "AGENT_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "AGENT_PG_MIN_CONNS")
	setString(&cfg.OTEL.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setBool(&cfg.OTEL.Insecure, "AGENT_OTEL_INSECURE")
	setString(&cfg.OTEL.ServiceName, "OTEL_SERVICE_NAME")
}

// validate checks that required fields are set and enumerations are known.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	switch cfg.ToolServer.Transport {
	case TransportSSE, TransportStreamableHTTP:
		if cfg.ToolServer.URL == "" {
			return fmt.Errorf("toolserver.url is required for %s transport", cfg.ToolServer.Transport)
		}
	case TransportStdio:
		if cfg.ToolServer.Command == "" {
			return errors.New("toolserver.command is required for stdio transport")
		}
	case TransportInProcess:
	default:
		return fmt.Errorf("toolserver.transport %q is not one of sse, streamable_http, stdio, inprocess", cfg.ToolServer.Transport)
	}
	if cfg.ToolServer.CallTimeout <= 0 {
		return errors.New("toolserver.call_timeout must be > 0")
	}
	if cfg.Model.Provider != ProviderOpenAI && cfg.Model.Provider != ProviderAnthropic {
		return fmt.Errorf("model.provider %q is not one of openai, anthropic", cfg.Model.Provider)
	}
	if cfg.Weather.BaseURL == "" {
		return errors.New("weather.base_url is required")
	}
	if cfg.Weather.ForecastPeriods < 1 {
		return errors.New("weather.forecast_periods must be >= 1")
	}
	if strings.TrimSpace(cfg.Confirmation.Token) == "" {
		return errors.New("confirmation.token is required")
	}
	if cfg.Confirmation.Timeout < 0 {
		return errors.New("confirmation.timeout must be >= 0")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Postgres.DSN != "" && cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setList(dst *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	*dst = out
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
