package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/spf13/viper"
)

// Config holds the gateway's environment-driven settings. Every field has
// a local-development default so the binary runs with no environment at
// all.
type Config struct {
	CacheURL        string        `mapstructure:"cache_url"`
	CoreServiceURL  string        `mapstructure:"core_service_url"`
	MLServiceURL    string        `mapstructure:"ml_service_url"`
	ListenAddr      string        `mapstructure:"listen_addr"`
	UpstreamTimeout time.Duration `mapstructure:"upstream_timeout"`
	LogLevel        string        `mapstructure:"log_level"`
}

func Default() *Config {
	return &Config{
		CacheURL:        "memory://",
		CoreServiceURL:  "http://localhost:8000",
		MLServiceURL:    "http://localhost:8001",
		ListenAddr:      ":3000",
		UpstreamTimeout: 30 * time.Second,
		LogLevel:        "info",
	}
}

// Load reads configuration from the environment on top of the defaults.
// Recognized variables: CACHE_URL, CORE_SERVICE_URL, ML_SERVICE_URL,
// LISTEN_ADDR, UPSTREAM_TIMEOUT, LOG_LEVEL.
func Load() (*Config, error) {
	defaults := Default()

	v := viper.New()
	v.SetDefault("cache_url", defaults.CacheURL)
	v.SetDefault("core_service_url", defaults.CoreServiceURL)
	v.SetDefault("ml_service_url", defaults.MLServiceURL)
	v.SetDefault("listen_addr", defaults.ListenAddr)
	v.SetDefault("upstream_timeout", defaults.UpstreamTimeout)
	v.SetDefault("log_level", defaults.LogLevel)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	for name, value := range map[string]string{
		"CACHE_URL":        c.CacheURL,
		"CORE_SERVICE_URL": c.CoreServiceURL,
		"ML_SERVICE_URL":   c.MLServiceURL,
	} {
		u, err := url.Parse(value)
		if err != nil || u.Scheme == "" {
			return fmt.Errorf("%s must be a URL with a scheme, got %q", name, value)
		}
	}

	if c.UpstreamTimeout <= 0 {
		return fmt.Errorf("UPSTREAM_TIMEOUT must be positive, got %s", c.UpstreamTimeout)
	}

	if c.ListenAddr == "" {
		return fmt.Errorf("LISTEN_ADDR must not be empty")
	}

	return nil
}

// SlogLevel maps the configured log level onto slog. Unknown values fall
// back to info.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
