package routing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/moodroute/moodroute/internal/itinerary"
)

// ServiceConfig holds configuration for the routing service.
type ServiceConfig struct {
	// Provider is the directions provider.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger
}

// Service turns an ordered list of stops into route segments.
type Service struct {
	provider Provider
	logger   zerolog.Logger
}

// NewService creates a new routing service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		provider: cfg.Provider,
		logger:   cfg.Logger,
	}
}

// Route computes one segment per consecutive pair of stops, in order. Legs are
// requested one at a time and the first failing leg fails the whole route.
func (s *Service) Route(ctx context.Context, stops []itinerary.Location, prefs *itinerary.Preferences) ([]itinerary.RouteSegment, error) {
	if len(stops) < 2 {
		return nil, itinerary.InvalidInput("at least two stops are required to compute a route")
	}
	for _, stop := range stops {
		if err := validateCoordinates(stop.Coordinate()); err != nil {
			return nil, itinerary.InvalidInput(fmt.Sprintf("invalid coordinates for %s: %v", stop.Name, err))
		}
	}

	mode := prefs.Mode()
	segments := make([]itinerary.RouteSegment, 0, len(stops)-1)

	for i := 0; i < len(stops)-1; i++ {
		from, to := stops[i], stops[i+1]

		req := DirectionsRequest{
			Origin:      from.Coordinate(),
			Destination: to.Coordinate(),
			Mode:        mode,
		}
		if prefs != nil {
			req.AvoidTolls = prefs.AvoidTolls
			req.AvoidHighways = prefs.AvoidHighways
		}

		s.logger.Debug().
			Str("from", from.Name).
			Str("to", to.Name).
			Str("mode", string(mode)).
			Str("provider", s.provider.Name()).
			Msg("fetching directions from provider")

		dir, err := s.provider.GetDirections(ctx, req)
		if err != nil {
			s.logger.Error().Err(err).
				Str("from", from.Name).
				Str("to", to.Name).
				Str("mode", string(mode)).
				Msg("failed to fetch directions")
			return nil, classify(err, from, to, mode)
		}

		segments = append(segments, toSegment(from, to, mode, dir))
	}

	return segments, nil
}

// ProviderName returns the name of the underlying provider.
func (s *Service) ProviderName() string {
	return s.provider.Name()
}

func classify(err error, from, to itinerary.Location, mode itinerary.TransportationMode) error {
	switch {
	case errors.Is(err, ErrNoRouteFound):
		return itinerary.NotFound(fmt.Sprintf("route not found between %s and %s", from.Name, to.Name), err)
	case errors.Is(err, ErrUnsupportedMode):
		return &itinerary.Error{
			Kind:    itinerary.ErrInvalidInput,
			Message: fmt.Sprintf("transportation mode %s is not supported", mode),
			Err:     err,
		}
	default:
		return itinerary.Upstream(fmt.Sprintf("failed to compute route between %s and %s", from.Name, to.Name), err)
	}
}

func toSegment(from, to itinerary.Location, mode itinerary.TransportationMode, dir *Directions) itinerary.RouteSegment {
	steps := make([]itinerary.RouteStep, 0, len(dir.Steps))
	for _, st := range dir.Steps {
		steps = append(steps, itinerary.RouteStep{
			Instruction:        StripMarkup(st.Instruction),
			Distance:           st.DistanceMeters,
			Duration:           st.DurationSeconds,
			TransportationMode: stepMode(st, mode),
		})
	}

	return itinerary.RouteSegment{
		From:               from,
		To:                 to,
		Distance:           dir.DistanceMeters,
		Duration:           dir.DurationSeconds,
		TransportationMode: mode,
		Steps:              steps,
		Polyline:           dir.Polyline,
	}
}

// stepMode resolves a step's mode: transit details win, then the provider's
// reported travel mode, then the segment's nominal mode.
func stepMode(st Step, nominal itinerary.TransportationMode) itinerary.TransportationMode {
	if st.Transit {
		return itinerary.ModeTransit
	}
	switch itinerary.TransportationMode(strings.ToLower(st.TravelMode)) {
	case itinerary.ModeWalking:
		return itinerary.ModeWalking
	case itinerary.ModeTransit:
		return itinerary.ModeTransit
	case itinerary.ModeDriving:
		return itinerary.ModeDriving
	}
	return nominal
}

// validateCoordinates checks if coordinates are within valid ranges.
func validateCoordinates(c itinerary.Coordinate) error {
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("latitude %f out of range [-90, 90]: %w", c.Lat, ErrInvalidCoordinates)
	}
	if c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("longitude %f out of range [-180, 180]: %w", c.Lng, ErrInvalidCoordinates)
	}
	return nil
}
