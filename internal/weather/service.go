package weather

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/moodroute/moodroute/internal/itinerary"
)

// Provider defines the interface for weather data providers. Payloads are
// returned undecoded; the service applies the extraction rules.
type Provider interface {
	// FetchCurrent fetches current conditions for a location.
	FetchCurrent(ctx context.Context, lat, lng float64) (Payload, error)

	// FetchForecast fetches the forecast for a location.
	FetchForecast(ctx context.Context, lat, lng float64) (Payload, error)

	// Name returns the provider name for logging.
	Name() string
}

// ServiceConfig holds configuration for the weather service.
type ServiceConfig struct {
	// Provider is the weather data provider.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// Now returns the reference time for forecast selection (default: time.Now).
	Now func() time.Time
}

// Service combines a provider's current and forecast calls into WeatherInfo.
type Service struct {
	provider Provider
	logger   zerolog.Logger
	now      func() time.Time
}

// NewService creates a new weather service.
func NewService(cfg ServiceConfig) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		provider: cfg.Provider,
		logger:   cfg.Logger,
		now:      now,
	}
}

// Lookup fetches current conditions and the forecast for loc concurrently.
// Both calls must succeed. A forecast without a usable list reads as the
// defaults.
func (s *Service) Lookup(ctx context.Context, loc itinerary.Location) (itinerary.WeatherInfo, error) {
	if err := validateCoordinates(loc.Lat, loc.Lng); err != nil {
		return itinerary.WeatherInfo{}, itinerary.InvalidInput(fmt.Sprintf("invalid coordinates for %s: %v", loc.Name, err))
	}

	var current, forecast Payload
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, err = s.provider.FetchCurrent(gctx, loc.Lat, loc.Lng)
		return err
	})
	g.Go(func() error {
		var err error
		forecast, err = s.provider.FetchForecast(gctx, loc.Lat, loc.Lng)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Debug().Err(err).
			Str("location", loc.Name).
			Str("provider", s.provider.Name()).
			Msg("weather fetch failed")
		return itinerary.WeatherInfo{}, itinerary.Upstream("failed to fetch weather for "+loc.Name, err)
	}

	return itinerary.WeatherInfo{
		Location: loc,
		Current:  ExtractCurrent(current),
		Forecast: ExtractForecast(forecast, s.now()),
	}, nil
}

// ProviderName returns the name of the underlying provider.
func (s *Service) ProviderName() string {
	return s.provider.Name()
}

// validateCoordinates checks if coordinates are within valid ranges.
func validateCoordinates(lat, lng float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude %f out of range", ErrInvalidCoordinates, lat)
	}
	if lng < -180 || lng > 180 {
		return fmt.Errorf("%w: longitude %f out of range", ErrInvalidCoordinates, lng)
	}
	return nil
}
