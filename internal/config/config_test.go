package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moodroute/moodroute/internal/itinerary"
)

func envMap(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func validConfig() *Config {
	cfg := Default()
	cfg.Credentials = Credentials{GoogleMaps: "maps-key", Gemini: "gemini-key"}
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load("", envMap(nil))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Environment)
	assert.Equal(t, ProviderGoogle, cfg.Maps.Provider)
	assert.Equal(t, ProviderGoogle, cfg.Weather.Provider)
	assert.True(t, cfg.Recommendations.Enabled)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.False(t, cfg.CircuitBreaker.Enabled)
	assert.Equal(t, 10*time.Second, cfg.UpstreamTimeout)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, zerolog.InfoLevel, cfg.Level())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	cfg, err := load("", envMap(map[string]string{
		"APP_PORT":                "9090",
		"APP_ENV":                 "production",
		"LOG_LEVEL":               "debug",
		"OTEL_ENABLED":            "true",
		"MAPS_PROVIDER":           "openrouteservice",
		"ORS_API_KEY":             " ors-key ",
		"WEATHER_PROVIDER":        "openweathermap",
		"OPENWEATHERMAP_API_KEY":  "owm-key",
		"GEMINI_API_KEY":          "gemini-key",
		"GEMINI_MODEL":            "gemini-1.5-pro",
		"RECOMMENDATIONS_ENABLED": "false",
		"UPSTREAM_TIMEOUT":        "3s",
		"ORS_BASE_URL":            "http://localhost:8082",
		"CIRCUIT_BREAKER_ENABLED": "true",
	}))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, zerolog.DebugLevel, cfg.Level())
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, ProviderOpenRouteService, cfg.Maps.Provider)
	assert.Equal(t, "ors-key", cfg.Credentials.OpenRouteService)
	assert.Equal(t, "http://localhost:8082", cfg.Maps.OpenRouteServiceBaseURL)
	assert.Equal(t, ProviderOpenWeatherMap, cfg.Weather.Provider)
	assert.Equal(t, "owm-key", cfg.Credentials.OpenWeatherMap)
	assert.Equal(t, "gemini-1.5-pro", cfg.Recommendations.Model)
	assert.False(t, cfg.Recommendations.Enabled)
	assert.Equal(t, 3*time.Second, cfg.UpstreamTimeout)
	assert.True(t, cfg.CircuitBreaker.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_YAMLFileThenEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "moodroute.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "7070"
  log_level: warn
maps:
  provider: openrouteservice
weather:
  openweathermap_base_url: http://weather.local
recommendations:
  enabled: false
  model: gemini-1.5-flash
upstream_timeout: 5s
`), 0o600))

	cfg, err := load(path, envMap(map[string]string{"APP_PORT": "6060"}))
	require.NoError(t, err)

	assert.Equal(t, "6060", cfg.Server.Port)
	assert.Equal(t, zerolog.WarnLevel, cfg.Level())
	assert.Equal(t, "development", cfg.Server.Environment)
	assert.Equal(t, ProviderOpenRouteService, cfg.Maps.Provider)
	assert.Equal(t, ProviderGoogle, cfg.Weather.Provider)
	assert.Equal(t, "http://weather.local", cfg.Weather.OpenWeatherMapBaseURL)
	assert.False(t, cfg.Recommendations.Enabled)
	assert.Equal(t, "gemini-1.5-flash", cfg.Recommendations.Model)
	assert.Equal(t, 5*time.Second, cfg.UpstreamTimeout)
}

func TestLoad_FileErrors(t *testing.T) {
	_, err := load(filepath.Join(t.TempDir(), "missing.yaml"), envMap(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o600))
	_, err = load(path, envMap(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoad_InvalidEnvironmentValues(t *testing.T) {
	_, err := load("", envMap(map[string]string{
		"OTEL_ENABLED":     "sometimes",
		"UPSTREAM_TIMEOUT": "ten seconds",
	}))
	require.Error(t, err)
	assert.ErrorIs(t, err, itinerary.ErrConfiguration)
	assert.Contains(t, err.Error(), "OTEL_ENABLED")
	assert.Contains(t, err.Error(), "UPSTREAM_TIMEOUT")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr []string
	}{
		{
			name:   "valid",
			modify: func(*Config) {},
		},
		{
			name:    "missing google key reported once",
			modify:  func(c *Config) { c.Credentials.GoogleMaps = "" },
			wantErr: []string{"missing GOOGLE_MAPS_API_KEY"},
		},
		{
			name:    "missing gemini key",
			modify:  func(c *Config) { c.Credentials.Gemini = "" },
			wantErr: []string{"GEMINI_API_KEY"},
		},
		{
			name: "recommendations disabled",
			modify: func(c *Config) {
				c.Credentials.Gemini = ""
				c.Recommendations.Enabled = false
			},
		},
		{
			name: "all credentials missing",
			modify: func(c *Config) {
				c.Maps.Provider = ProviderOpenRouteService
				c.Weather.Provider = ProviderOpenWeatherMap
				c.Credentials = Credentials{}
			},
			wantErr: []string{"missing ORS_API_KEY, OPENWEATHERMAP_API_KEY, GEMINI_API_KEY"},
		},
		{
			name:    "unknown maps provider",
			modify:  func(c *Config) { c.Maps.Provider = "bing" },
			wantErr: []string{`unsupported maps provider "bing"`},
		},
		{
			name:    "unknown weather provider",
			modify:  func(c *Config) { c.Weather.Provider = "darksky" },
			wantErr: []string{`unsupported weather provider "darksky"`},
		},
		{
			name:    "bad log level",
			modify:  func(c *Config) { c.Server.LogLevel = "loud" },
			wantErr: []string{`unsupported log level "loud"`},
		},
		{
			name:    "non-positive timeout",
			modify:  func(c *Config) { c.UpstreamTimeout = 0 },
			wantErr: []string{"upstream timeout must be positive"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if len(tt.wantErr) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, itinerary.ErrConfiguration)
			for _, want := range tt.wantErr {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestValidate_GoogleKeyListedOnce(t *testing.T) {
	cfg := validConfig()
	cfg.Credentials.GoogleMaps = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Equal(t, "missing GOOGLE_MAPS_API_KEY", err.Error())
}
