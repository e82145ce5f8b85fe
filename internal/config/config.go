// Package config loads gateway configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// envPrefix is stripped from environment variable names, so
// STOREGW_PORT becomes the key "port".
const envPrefix = "STOREGW_"

// Config holds all gateway configuration.
type Config struct {
	// HTTP surface
	Port     int    `koanf:"port"`
	APIKey   string `koanf:"api_key"`
	PortFile string `koanf:"port_file"`

	// CORS allow-list. Empty means development mode: all origins.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// TrustedProxies are CIDRs whose X-Forwarded-For is honored when
	// attributing a request to an origin.
	TrustedProxies []string `koanf:"trusted_proxies"`

	// Debug controls whether 5xx responses carry internal detail.
	Debug bool `koanf:"debug"`

	// Upstream automation backend
	BackendURL     string        `koanf:"backend_url"`
	BackendTimeout time.Duration `koanf:"backend_timeout"`

	// Session tracking
	SessionTimeout time.Duration `koanf:"session_timeout"`

	// Flood guard: coarse global requests-per-second cap.
	FloodRPS   int `koanf:"flood_rps"`
	FloodBurst int `koanf:"flood_burst"`

	// Optional Redis-backed rate-limit counters for multi-replica
	// deployments. Empty means in-memory counters.
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// Observability
	LogLevel     string `koanf:"log_level"`
	LogFormat    string `koanf:"log_format"`
	MetricsAddr  string `koanf:"metrics_addr"`
	OTLPEndpoint string `koanf:"otlp_endpoint"`
}

// defaults sets sensible default values.
func defaults() map[string]interface{} {
	return map[string]interface{}{
		"port":            8080,
		"backend_url":     "http://127.0.0.1:9090",
		"backend_timeout": "60s",
		"session_timeout": "24h",
		"flood_rps":       100,
		"flood_burst":     200,
		"log_level":       "info",
		"log_format":      "json",
	}
}

// rawProvider implements koanf.Provider for a map[string]interface{}.
type rawProvider struct {
	data map[string]interface{}
}

// Read returns the config map directly (no Parser needed).
func (r *rawProvider) Read() (map[string]interface{}, error) {
	return r.data, nil
}

// ReadBytes is unused; rawProvider only supports Read.
func (r *rawProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("rawProvider does not support ReadBytes")
}

// Load reads configuration from STOREGW_-prefixed environment variables.
func Load() (*Config, error) {
	// "." delimiter keeps underscore-bearing env names as flat keys.
	k := koanf.New(".")

	if err := k.Load(&rawProvider{data: defaults()}, nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Comma-separated list fields koanf won't split on its own.
	cfg.CORSAllowedOrigins = splitCSV(k.String("cors_allowed_origins"))
	cfg.TrustedProxies = splitCSV(k.String("trusted_proxies"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for coherence.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 0 and 65535, got %d", c.Port)
	}
	if c.BackendURL == "" {
		return fmt.Errorf("backend_url is required")
	}
	if c.SessionTimeout <= 0 {
		return fmt.Errorf("session_timeout must be positive")
	}
	if c.FloodRPS <= 0 {
		return fmt.Errorf("flood_rps must be positive")
	}
	return nil
}

// splitCSV splits a comma-separated string into trimmed non-empty parts.
func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
