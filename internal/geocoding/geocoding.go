// Package geocoding resolves free-text place names to itinerary stops.
package geocoding

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/moodroute/moodroute/internal/itinerary"
)

// ErrNoResults indicates the provider could not match the query to any place.
var ErrNoResults = errors.New("no geocoding results")

// Provider defines the interface for forward geocoding providers.
type Provider interface {
	// Geocode returns the single best match for a query.
	Geocode(ctx context.Context, query string) (*Result, error)
	// Name returns the provider identifier for logging and metrics.
	Name() string
}

// Result is a provider's best match.
type Result struct {
	Lat              float64
	Lng              float64
	FormattedAddress string
}

// ServiceConfig holds configuration for the geocoding service.
type ServiceConfig struct {
	Provider Provider
	Logger   zerolog.Logger
}

// Service resolves place names through a Provider.
type Service struct {
	provider Provider
	logger   zerolog.Logger
}

// NewService creates a new geocoding service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		provider: cfg.Provider,
		logger:   cfg.Logger,
	}
}

// Resolve geocodes name into a Location carrying the requested name.
// A query without a match yields an itinerary.ErrNotFound error.
func (s *Service) Resolve(ctx context.Context, name string) (itinerary.Location, error) {
	query := strings.TrimSpace(name)
	if query == "" {
		return itinerary.Location{}, itinerary.InvalidInput("location name must not be empty")
	}

	res, err := s.provider.Geocode(ctx, query)
	if err != nil {
		if errors.Is(err, ErrNoResults) {
			return itinerary.Location{}, itinerary.NotFound("location not found: "+name, err)
		}
		return itinerary.Location{}, itinerary.Upstream("failed to geocode "+name, err)
	}

	s.logger.Debug().
		Str("query", query).
		Float64("lat", res.Lat).
		Float64("lng", res.Lng).
		Str("provider", s.provider.Name()).
		Msg("geocoded location")

	return itinerary.Location{
		Name:    name,
		Lat:     res.Lat,
		Lng:     res.Lng,
		Address: res.FormattedAddress,
	}, nil
}
