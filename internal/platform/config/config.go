package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"go-simpler.org/env"
)

type Config struct {
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	APIURL    string `env:"API_URL"`
	LoginPath string `env:"LOGIN_PATH" default:"/api/users/login"`

	ProbeTimeout  time.Duration `env:"PROBE_TIMEOUT" default:"10s"`
	ProbeRetries  int           `env:"PROBE_RETRIES" default:"2"`
	ReadyAttempts int           `env:"READY_ATTEMPTS" default:"5"`
	ReadyBackoff  time.Duration `env:"READY_BACKOFF" default:"500ms"`

	MetricsTextfile string `env:"METRICS_TEXTFILE"`
}

// Load decodes the tool settings from src. A nil src reads the process
// environment; callers normally pass the envloader's source so that .env
// values are visible.
func Load(src env.Source) (*Config, error) {
	if src == nil {
		src = env.OS
	}

	var cfg Config
	if err := env.Load(&cfg, &env.Options{Source: src}); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// overlay answers from overrides first and falls back to base.
type overlay struct {
	base      env.Source
	overrides env.Map
}

func (o overlay) LookupEnv(key string) (string, bool) {
	if v, ok := o.overrides[key]; ok {
		return v, true
	}
	return o.base.LookupEnv(key)
}

// WithOverrides layers the non-empty values of overrides over src, so that
// command-line flags go through the same decoding and validation as the
// environment. A nil src means the process environment.
func WithOverrides(src env.Source, overrides map[string]string) env.Source {
	if src == nil {
		src = env.OS
	}
	set := env.Map{}
	for k, v := range overrides {
		if v != "" {
			set[k] = v
		}
	}
	if len(set) == 0 {
		return src
	}
	return overlay{base: src, overrides: set}
}

// BaseAPIURL returns API_URL, or fallback (the suite URL) when unset.
func (c *Config) BaseAPIURL(fallback string) string {
	if c.APIURL != "" {
		return c.APIURL
	}
	return fallback
}

func validate(cfg *Config) error {
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error, got %q", cfg.LogLevel)
	}

	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	if cfg.APIURL != "" {
		u, err := url.Parse(cfg.APIURL)
		if err != nil {
			return fmt.Errorf("API_URL must be a valid URL: %w", err)
		}
		if !u.IsAbs() || u.Host == "" {
			return fmt.Errorf("API_URL must be an absolute URL, got %q", cfg.APIURL)
		}
	}

	if cfg.ProbeTimeout <= 0 {
		return errors.New("PROBE_TIMEOUT must be positive")
	}
	if cfg.ProbeRetries < 0 {
		return errors.New("PROBE_RETRIES must not be negative")
	}
	if cfg.ReadyAttempts < 1 {
		return errors.New("READY_ATTEMPTS must be at least 1")
	}
	if cfg.ReadyBackoff <= 0 {
		return errors.New("READY_BACKOFF must be positive")
	}

	return nil
}
