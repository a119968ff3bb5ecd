// Package app builds the MoodRoute component graph from configuration. It is
// shared by the HTTP server and the CLI.
package app

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/moodroute/moodroute/internal/config"
	"github.com/moodroute/moodroute/internal/geocoding"
	"github.com/moodroute/moodroute/internal/itinerary"
	"github.com/moodroute/moodroute/internal/llm/gemini"
	"github.com/moodroute/moodroute/internal/maps/googlemaps"
	"github.com/moodroute/moodroute/internal/maps/openrouteservice"
	"github.com/moodroute/moodroute/internal/provider/resilience"
	"github.com/moodroute/moodroute/internal/recommend"
	"github.com/moodroute/moodroute/internal/routing"
	"github.com/moodroute/moodroute/internal/telemetry"
	"github.com/moodroute/moodroute/internal/weather"
	"github.com/moodroute/moodroute/internal/weather/googleweather"
	"github.com/moodroute/moodroute/internal/weather/openweathermap"
)

// Options configures New.
type Options struct {
	Config *config.Config
	Logger zerolog.Logger

	// Metrics records upstream calls and degraded phases (optional).
	Metrics *telemetry.ProviderMetrics
}

// App is the wired set of services.
type App struct {
	Planner *itinerary.Planner
	// Analyzer is nil when no Gemini credential is configured.
	Analyzer *recommend.Service
	Registry *resilience.Registry
}

// mapsProvider geocodes and computes directions.
type mapsProvider interface {
	geocoding.Provider
	routing.Provider
}

// New validates the configuration and constructs every upstream client and
// service. Missing credentials are reported as an itinerary.ErrConfiguration error.
func New(opts Options) (*App, error) {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := opts.Logger
	registry := resilience.NewRegistry()

	maps, err := newMapsProvider(cfg, registry, opts.Metrics, log)
	if err != nil {
		return nil, fmt.Errorf("create maps provider: %w", err)
	}

	weatherProvider, err := newWeatherProvider(cfg, registry, opts.Metrics, log)
	if err != nil {
		return nil, fmt.Errorf("create weather provider: %w", err)
	}

	var generator *recommend.Service
	if cfg.Credentials.Gemini != "" {
		client, err := gemini.NewClient(gemini.ClientConfig{
			APIKey:   cfg.Credentials.Gemini,
			Model:    cfg.Recommendations.Model,
			BaseURL:  cfg.Recommendations.BaseURL,
			Registry: registry,
			Metrics:  opts.Metrics,
			FailFast: cfg.CircuitBreaker.Enabled,
			Logger:   log.With().Str("component", "gemini").Logger(),
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		generator = recommend.NewService(recommend.ServiceConfig{
			Generator: client,
			Logger:    log.With().Str("component", "recommend").Logger(),
		})
	}

	plannerCfg := itinerary.PlannerConfig{
		Geocoder: geocoding.NewService(geocoding.ServiceConfig{
			Provider: maps,
			Logger:   log.With().Str("component", "geocoding").Logger(),
		}),
		Router: routing.NewService(routing.ServiceConfig{
			Provider: maps,
			Logger:   log.With().Str("component", "routing").Logger(),
		}),
		Weather: weather.NewService(weather.ServiceConfig{
			Provider: weatherProvider,
			Logger:   log.With().Str("component", "weather").Logger(),
		}),
		Logger: log.With().Str("component", "planner").Logger(),
	}
	if cfg.Recommendations.Enabled && generator != nil {
		plannerCfg.Recommender = generator
	}
	if opts.Metrics != nil {
		plannerCfg.OnDegraded = func(d itinerary.Degradation) {
			opts.Metrics.RecordDegraded(d.Phase)
		}
	}

	log.Info().
		Str("maps_provider", maps.Name()).
		Str("weather_provider", weatherProvider.Name()).
		Bool("recommendations", plannerCfg.Recommender != nil).
		Int("providers", registry.ProviderCount()).
		Msg("itinerary planner initialized")

	return &App{
		Planner:  itinerary.NewPlanner(plannerCfg),
		Analyzer: generator,
		Registry: registry,
	}, nil
}

func newMapsProvider(cfg *config.Config, registry *resilience.Registry, metrics *telemetry.ProviderMetrics, log zerolog.Logger) (mapsProvider, error) {
	if cfg.Maps.Provider == config.ProviderOpenRouteService {
		return openrouteservice.NewClient(openrouteservice.ClientConfig{
			APIKey:   cfg.Credentials.OpenRouteService,
			BaseURL:  cfg.Maps.OpenRouteServiceBaseURL,
			Timeout:  cfg.UpstreamTimeout,
			Registry: registry,
			Metrics:  metrics,
			FailFast: cfg.CircuitBreaker.Enabled,
			Logger:   log.With().Str("component", openrouteservice.ProviderName).Logger(),
		})
	}
	return googlemaps.NewClient(googlemaps.ClientConfig{
		APIKey:   cfg.Credentials.GoogleMaps,
		BaseURL:  cfg.Maps.GoogleBaseURL,
		Timeout:  cfg.UpstreamTimeout,
		Registry: registry,
		Metrics:  metrics,
		FailFast: cfg.CircuitBreaker.Enabled,
		Logger:   log.With().Str("component", googlemaps.ProviderName).Logger(),
	})
}

func newWeatherProvider(cfg *config.Config, registry *resilience.Registry, metrics *telemetry.ProviderMetrics, log zerolog.Logger) (weather.Provider, error) {
	if cfg.Weather.Provider == config.ProviderOpenWeatherMap {
		return openweathermap.NewClient(openweathermap.ClientConfig{
			APIKey:   cfg.Credentials.OpenWeatherMap,
			BaseURL:  cfg.Weather.OpenWeatherMapBaseURL,
			Timeout:  cfg.UpstreamTimeout,
			Registry: registry,
			Metrics:  metrics,
			FailFast: cfg.CircuitBreaker.Enabled,
			Logger:   log.With().Str("component", openweathermap.ProviderName).Logger(),
		})
	}
	return googleweather.NewClient(googleweather.ClientConfig{
		APIKey:   cfg.Credentials.GoogleMaps,
		BaseURL:  cfg.Weather.GoogleBaseURL,
		Timeout:  cfg.UpstreamTimeout,
		Registry: registry,
		Metrics:  metrics,
		FailFast: cfg.CircuitBreaker.Enabled,
		Logger:   log.With().Str("component", googleweather.ProviderName).Logger(),
	})
}
