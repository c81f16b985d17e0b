package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-simpler.org/env"
)

func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := Load(env.Map{})
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "/api/users/login", cfg.LoginPath)
	assert.Equal(t, 10*time.Second, cfg.ProbeTimeout)
	assert.Equal(t, 2, cfg.ProbeRetries)
	assert.Equal(t, 5, cfg.ReadyAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.ReadyBackoff)
	assert.Empty(t, cfg.APIURL)
	assert.Empty(t, cfg.MetricsTextfile)
}

func TestLoad_CustomValues(t *testing.T) {
	cfg, err := Load(env.Map{
		"LOG_LEVEL":        "debug",
		"LOG_FORMAT":       "json",
		"API_URL":          "http://localhost:5000",
		"LOGIN_PATH":       "/login",
		"PROBE_TIMEOUT":    "3s",
		"PROBE_RETRIES":    "0",
		"READY_ATTEMPTS":   "10",
		"READY_BACKOFF":    "1s",
		"METRICS_TEXTFILE": "/tmp/envcheck.prom",
	})
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "http://localhost:5000", cfg.APIURL)
	assert.Equal(t, "/login", cfg.LoginPath)
	assert.Equal(t, 3*time.Second, cfg.ProbeTimeout)
	assert.Equal(t, 0, cfg.ProbeRetries)
	assert.Equal(t, 10, cfg.ReadyAttempts)
	assert.Equal(t, time.Second, cfg.ReadyBackoff)
	assert.Equal(t, "/tmp/envcheck.prom", cfg.MetricsTextfile)
}

func TestLoad_ProcessEnvironment(t *testing.T) {
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     env.Map
		wantErr string
	}{
		{"bad log level", env.Map{"LOG_LEVEL": "trace"}, "LOG_LEVEL must be one of"},
		{"bad log format", env.Map{"LOG_FORMAT": "xml"}, "LOG_FORMAT must be text or json"},
		{"relative api url", env.Map{"API_URL": "/api"}, "API_URL must be an absolute URL"},
		{"zero timeout", env.Map{"PROBE_TIMEOUT": "0s"}, "PROBE_TIMEOUT must be positive"},
		{"negative retries", env.Map{"PROBE_RETRIES": "-1"}, "PROBE_RETRIES must not be negative"},
		{"zero attempts", env.Map{"READY_ATTEMPTS": "0"}, "READY_ATTEMPTS must be at least 1"},
		{"zero backoff", env.Map{"READY_BACKOFF": "0s"}, "READY_BACKOFF must be positive"},
		{"unparsable duration", env.Map{"PROBE_TIMEOUT": "soon"}, "failed to load environment variables"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.env)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_BaseAPIURL(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, "http://front", cfg.BaseAPIURL("http://front"))

	cfg.APIURL = "http://api"
	assert.Equal(t, "http://api", cfg.BaseAPIURL("http://front"))
}

func TestWithOverrides(t *testing.T) {
	tests := []struct {
		name       string
		env        env.Map
		overrides  map[string]string
		wantLevel  string
		wantFormat string
		wantErr    string
	}{
		{"no overrides", env.Map{"LOG_FORMAT": "json"}, nil, "info", "json", ""},
		{"empty values ignored", env.Map{"LOG_LEVEL": "warn"}, map[string]string{"LOG_LEVEL": ""}, "warn", "text", ""},
		{"override wins", env.Map{"LOG_LEVEL": "warn"}, map[string]string{"LOG_LEVEL": "debug"}, "debug", "text", ""},
		{"override masks invalid env", env.Map{"LOG_FORMAT": "xml"}, map[string]string{"LOG_FORMAT": "json"}, "info", "json", ""},
		{"invalid override rejected", env.Map{}, map[string]string{"LOG_FORMAT": "xml"}, "", "", "LOG_FORMAT must be text or json"},
		{"invalid level override rejected", env.Map{}, map[string]string{"LOG_LEVEL": "verbose"}, "", "", "LOG_LEVEL must be one of"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(WithOverrides(tt.env, tt.overrides))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLevel, cfg.LogLevel)
			assert.Equal(t, tt.wantFormat, cfg.LogFormat)
		})
	}
}

func TestWithOverrides_NilSourceReadsProcess(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")

	cfg, err := Load(WithOverrides(nil, map[string]string{"LOG_FORMAT": "json"}))
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}
