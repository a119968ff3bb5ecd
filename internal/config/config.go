// Package config loads MoodRoute configuration from .env files, an optional
// YAML file and the process environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/moodroute/moodroute/internal/itinerary"
)

// Provider names accepted by MAPS_PROVIDER and WEATHER_PROVIDER.
const (
	ProviderGoogle           = "google"
	ProviderOpenRouteService = "openrouteservice"
	ProviderOpenWeatherMap   = "openweathermap"
)

// Config is the complete service configuration.
type Config struct {
	Server          ServerConfig          `yaml:"server"`
	Telemetry       TelemetryConfig       `yaml:"telemetry"`
	Maps            MapsConfig            `yaml:"maps"`
	Weather         WeatherConfig         `yaml:"weather"`
	Recommendations RecommendationsConfig `yaml:"recommendations"`
	CircuitBreaker  CircuitBreakerConfig  `yaml:"circuit_breaker"`
	// UpstreamTimeout bounds every single upstream call.
	UpstreamTimeout time.Duration `yaml:"upstream_timeout"`
	// Credentials are only read from the environment.
	Credentials Credentials `yaml:"-"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port        string `yaml:"port"`
	Environment string `yaml:"environment"`
	LogLevel    string `yaml:"log_level"`
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	Enabled      bool   `yaml:"enabled"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
}

// MapsConfig selects the geocoding and directions provider.
type MapsConfig struct {
	Provider                string `yaml:"provider"`
	GoogleBaseURL           string `yaml:"google_base_url"`
	OpenRouteServiceBaseURL string `yaml:"openrouteservice_base_url"`
}

// WeatherConfig selects the weather provider.
type WeatherConfig struct {
	Provider              string `yaml:"provider"`
	GoogleBaseURL         string `yaml:"google_base_url"`
	OpenWeatherMapBaseURL string `yaml:"openweathermap_base_url"`
}

// RecommendationsConfig configures the generative spot recommender.
type RecommendationsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

// CircuitBreakerConfig controls whether upstream breakers may open. When
// disabled they only count outcomes for the status endpoint.
type CircuitBreakerConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Credentials holds upstream API keys.
type Credentials struct {
	GoogleMaps       string
	OpenRouteService string
	OpenWeatherMap   string
	Gemini           string
}

// Default returns a Config with development defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "8080",
			Environment: "development",
			LogLevel:    "info",
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: "localhost:4317",
		},
		Maps: MapsConfig{
			Provider: ProviderGoogle,
		},
		Weather: WeatherConfig{
			Provider: ProviderGoogle,
		},
		Recommendations: RecommendationsConfig{
			Enabled: true,
		},
		UpstreamTimeout: 10 * time.Second,
	}
}

// Load reads .env and .env.local from the working directory, then the YAML
// file at path (or MOODROUTE_CONFIG when path is empty), then applies
// environment overrides. It does not validate the result.
func Load(path string) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Overload(".env.local")

	if path == "" {
		path = os.Getenv("MOODROUTE_CONFIG")
	}
	return load(path, os.LookupEnv)
}

func load(path string, lookupEnv func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.applyEnv(lookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookupEnv func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookupEnv(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	str("APP_PORT", &c.Server.Port)
	str("APP_ENV", &c.Server.Environment)
	str("LOG_LEVEL", &c.Server.LogLevel)
	str("OTEL_EXPORTER_OTLP_ENDPOINT", &c.Telemetry.OTLPEndpoint)
	str("MAPS_PROVIDER", &c.Maps.Provider)
	str("GOOGLE_MAPS_BASE_URL", &c.Maps.GoogleBaseURL)
	str("ORS_BASE_URL", &c.Maps.OpenRouteServiceBaseURL)
	str("WEATHER_PROVIDER", &c.Weather.Provider)
	str("GOOGLE_WEATHER_BASE_URL", &c.Weather.GoogleBaseURL)
	str("OPENWEATHERMAP_BASE_URL", &c.Weather.OpenWeatherMapBaseURL)
	str("GEMINI_MODEL", &c.Recommendations.Model)
	str("GEMINI_BASE_URL", &c.Recommendations.BaseURL)
	str("GOOGLE_MAPS_API_KEY", &c.Credentials.GoogleMaps)
	str("ORS_API_KEY", &c.Credentials.OpenRouteService)
	str("OPENWEATHERMAP_API_KEY", &c.Credentials.OpenWeatherMap)
	str("GEMINI_API_KEY", &c.Credentials.Gemini)

	var errs []error
	boolean := func(key string, dst *bool) {
		v, ok := lookupEnv(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, itinerary.Configuration(fmt.Sprintf("%s must be a boolean, got %q", key, v)))
			return
		}
		*dst = b
	}

	boolean("OTEL_ENABLED", &c.Telemetry.Enabled)
	boolean("RECOMMENDATIONS_ENABLED", &c.Recommendations.Enabled)
	boolean("CIRCUIT_BREAKER_ENABLED", &c.CircuitBreaker.Enabled)

	if v, ok := lookupEnv("UPSTREAM_TIMEOUT"); ok && strings.TrimSpace(v) != "" {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, itinerary.Configuration(fmt.Sprintf("UPSTREAM_TIMEOUT must be a duration, got %q", v)))
		} else {
			c.UpstreamTimeout = d
		}
	}

	return errors.Join(errs...)
}

// Validate reports every missing credential for the selected providers and
// any unsupported setting in a single ErrConfiguration error.
func (c *Config) Validate() error {
	var missing, invalid []string
	need := func(key, value string) {
		if value != "" {
			return
		}
		for _, m := range missing {
			if m == key {
				return
			}
		}
		missing = append(missing, key)
	}

	switch c.Maps.Provider {
	case ProviderGoogle:
		need("GOOGLE_MAPS_API_KEY", c.Credentials.GoogleMaps)
	case ProviderOpenRouteService:
		need("ORS_API_KEY", c.Credentials.OpenRouteService)
	default:
		invalid = append(invalid, fmt.Sprintf("unsupported maps provider %q", c.Maps.Provider))
	}

	switch c.Weather.Provider {
	case ProviderGoogle:
		need("GOOGLE_MAPS_API_KEY", c.Credentials.GoogleMaps)
	case ProviderOpenWeatherMap:
		need("OPENWEATHERMAP_API_KEY", c.Credentials.OpenWeatherMap)
	default:
		invalid = append(invalid, fmt.Sprintf("unsupported weather provider %q", c.Weather.Provider))
	}

	if c.Recommendations.Enabled {
		need("GEMINI_API_KEY", c.Credentials.Gemini)
	}

	if _, err := zerolog.ParseLevel(c.Server.LogLevel); err != nil {
		invalid = append(invalid, fmt.Sprintf("unsupported log level %q", c.Server.LogLevel))
	}
	if c.UpstreamTimeout <= 0 {
		invalid = append(invalid, "upstream timeout must be positive")
	}

	if len(missing) > 0 {
		invalid = append([]string{"missing " + strings.Join(missing, ", ")}, invalid...)
	}
	if len(invalid) > 0 {
		return itinerary.Configuration(strings.Join(invalid, "; "))
	}
	return nil
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}

// Level returns the configured log level, info when unparseable.
func (c *Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.Server.LogLevel)
	if err != nil || c.Server.LogLevel == "" {
		return zerolog.InfoLevel
	}
	return level
}
