// Package config loads process configuration from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/Sternrassler/chronos/pkg/logging"
)

// Environments accepted in APP_ENV.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

type Config struct {
	Env      string
	LogLevel string
	Server   ServerConfig
	Upstream UpstreamConfig
	Redis    RedisConfig
	Cache    CacheConfig
}

type ServerConfig struct {
	Port string
}

type UpstreamConfig struct {
	BaseURL           string
	UserAgent         string
	Timeout           time.Duration
	MaxRetries        int
	RequestsPerSecond float64
}

// RedisConfig is empty when no Redis backend is configured.
type RedisConfig struct {
	URL   string
	Token string
}

type CacheConfig struct {
	WriteNonFatal bool
}

// Enabled reports whether a Redis backend is configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != ""
}

// Options builds go-redis options. REDIS_TOKEN, when set, overrides the
// password carried in the URL.
func (r RedisConfig) Options() (*redis.Options, error) {
	opts, err := redis.ParseURL(r.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	if r.Token != "" {
		opts.Password = r.Token
	}
	return opts, nil
}

// Pretty reports whether logs should use the console writer.
func (c Config) Pretty() bool {
	return c.Env == EnvDevelopment
}

// Load reads .env (if present) and the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return LoadFrom(os.Getenv)
}

// LoadFrom builds a Config from getenv and validates it.
func LoadFrom(getenv func(string) string) (Config, error) {
	get := func(key, fallback string) string {
		value := strings.TrimSpace(getenv(key))
		if value == "" {
			return fallback
		}
		return value
	}

	timeout, err := time.ParseDuration(get("UPSTREAM_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid UPSTREAM_TIMEOUT: %w", err)
	}
	maxRetries, err := strconv.Atoi(get("UPSTREAM_MAX_RETRIES", "2"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid UPSTREAM_MAX_RETRIES: %w", err)
	}
	rps, err := strconv.ParseFloat(get("UPSTREAM_RPS", "0"), 64)
	if err != nil {
		return Config{}, fmt.Errorf("invalid UPSTREAM_RPS: %w", err)
	}
	writeNonFatal, err := strconv.ParseBool(get("CACHE_WRITE_NON_FATAL", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid CACHE_WRITE_NON_FATAL: %w", err)
	}

	cfg := Config{
		Env:      get("APP_ENV", EnvProduction),
		LogLevel: get("LOG_LEVEL", "info"),
		Server: ServerConfig{
			Port: get("PORT", "3000"),
		},
		Upstream: UpstreamConfig{
			BaseURL:           strings.TrimRight(get("WIKIPEDIA_API_URL", "https://en.wikipedia.org/api/rest_v1"), "/"),
			UserAgent:         get("WIKIPEDIA_API_USER_AGENT", "chronos/1.0 (https://github.com/Sternrassler/chronos)"),
			Timeout:           timeout,
			MaxRetries:        maxRetries,
			RequestsPerSecond: rps,
		},
		Redis: RedisConfig{
			URL:   get("REDIS_URL", ""),
			Token: get("REDIS_TOKEN", ""),
		},
		Cache: CacheConfig{
			WriteNonFatal: writeNonFatal,
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.Env {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		return fmt.Errorf("invalid APP_ENV %q (want development, production or test)", c.Env)
	}

	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	port, err := strconv.Atoi(c.Server.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid PORT %q", c.Server.Port)
	}

	u, err := url.Parse(c.Upstream.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid WIKIPEDIA_API_URL %q: must be an absolute URL", c.Upstream.BaseURL)
	}
	if c.Upstream.UserAgent == "" {
		return fmt.Errorf("WIKIPEDIA_API_USER_AGENT is required")
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("invalid UPSTREAM_TIMEOUT %s: must be > 0", c.Upstream.Timeout)
	}
	if c.Upstream.MaxRetries < 0 {
		return fmt.Errorf("invalid UPSTREAM_MAX_RETRIES %d: must be >= 0", c.Upstream.MaxRetries)
	}
	if c.Upstream.RequestsPerSecond < 0 {
		return fmt.Errorf("invalid UPSTREAM_RPS %g: must be >= 0", c.Upstream.RequestsPerSecond)
	}

	if c.Redis.Enabled() {
		if _, err := c.Redis.Options(); err != nil {
			return err
		}
	} else if c.Redis.Token != "" {
		return fmt.Errorf("REDIS_TOKEN is set but REDIS_URL is empty")
	}

	return nil
}
