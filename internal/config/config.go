package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Data     DataConfig
	Logger   LoggerConfig
	Security SecurityConfig
	HTTP     HTTPConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DataConfig points at the two files loaded once at startup.
type DataConfig struct {
	SalesFile    string
	BoundaryFile string
	LoadTimeout  time.Duration
}

type LoggerConfig struct {
	Level  string
	Format string
}

type SecurityConfig struct {
	EnableRateLimit bool
	RateLimitRPS    int
	RateLimitBurst  int
	AllowedOrigins  []string
	TrustedProxies  []string
}

type HTTPConfig struct {
	EnableCompression bool
}

var (
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validLogFormats = []string{"json", "text"}
)

// Load reads the configuration from the environment. Unset or unparsable
// variables take their default; the result must then pass validation.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            env("SERVER_HOST", "localhost", parseString),
			Port:            env("SERVER_PORT", 8084, strconv.Atoi),
			ReadTimeout:     env("SERVER_READ_TIMEOUT", 10*time.Second, time.ParseDuration),
			WriteTimeout:    env("SERVER_WRITE_TIMEOUT", 30*time.Second, time.ParseDuration),
			IdleTimeout:     env("SERVER_IDLE_TIMEOUT", 60*time.Second, time.ParseDuration),
			ShutdownTimeout: env("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second, time.ParseDuration),
		},
		Data: DataConfig{
			SalesFile:    env("SALES_FILE", "data/ventas.json", parseString),
			BoundaryFile: env("BOUNDARY_FILE", "data/regiones.geojson", parseString),
			LoadTimeout:  env("DATA_LOAD_TIMEOUT", 30*time.Second, time.ParseDuration),
		},
		Logger: LoggerConfig{
			Level:  env("LOG_LEVEL", "info", parseString),
			Format: env("LOG_FORMAT", "json", parseString),
		},
		Security: SecurityConfig{
			EnableRateLimit: env("SECURITY_RATE_LIMIT_ENABLED", true, strconv.ParseBool),
			RateLimitRPS:    env("SECURITY_RATE_LIMIT_RPS", 100, strconv.Atoi),
			RateLimitBurst:  env("SECURITY_RATE_LIMIT_BURST", 20, strconv.Atoi),
			AllowedOrigins:  env("SECURITY_ALLOWED_ORIGINS", []string{"http://localhost:8084"}, parseList),
			TrustedProxies:  env("SECURITY_TRUSTED_PROXIES", []string{"127.0.0.1"}, parseList),
		},
		HTTP: HTTPConfig{
			EnableCompression: env("HTTP_COMPRESSION_ENABLED", true, strconv.ParseBool),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// validate reports every problem at once.
func (c *Config) validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Server.Port >= 1 && c.Server.Port <= 65535, "server port must be between 1 and 65535, got %d", c.Server.Port)
	check(c.Server.ReadTimeout > 0, "server read timeout must be positive")
	check(c.Server.WriteTimeout > 0, "server write timeout must be positive")

	check(c.Data.SalesFile != "", "sales file path cannot be empty")
	check(c.Data.BoundaryFile != "", "boundary file path cannot be empty")
	check(c.Data.LoadTimeout > 0, "data load timeout must be positive")

	check(slices.Contains(validLogLevels, c.Logger.Level),
		"invalid log level %q, must be one of: %s", c.Logger.Level, strings.Join(validLogLevels, ", "))
	check(slices.Contains(validLogFormats, c.Logger.Format),
		"invalid log format %q, must be one of: %s", c.Logger.Format, strings.Join(validLogFormats, ", "))

	check(c.Security.RateLimitRPS > 0, "rate limit RPS must be positive")
	check(c.Security.RateLimitBurst > 0, "rate limit burst must be positive")

	return errors.Join(errs...)
}

func env[T any](key string, fallback T, parse func(string) (T, error)) T {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := parse(raw)
	if err != nil {
		return fallback
	}
	return v
}

func parseString(s string) (string, error) {
	return s, nil
}

func parseList(s string) ([]string, error) {
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts, nil
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
