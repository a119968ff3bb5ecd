// Package routing computes the travel segments between consecutive stops of an
// itinerary using a directions provider.
package routing

import (
	"context"
	"errors"
	"time"

	"github.com/moodroute/moodroute/internal/itinerary"
)

// Sentinel errors for routing operations.
var (
	// ErrProviderUnavailable indicates the routing provider is down or the circuit breaker is open.
	ErrProviderUnavailable = errors.New("routing provider unavailable")
	// ErrNoRouteFound indicates no valid route exists between the given points.
	ErrNoRouteFound = errors.New("no route found between the given points")
	// ErrRateLimitExceeded indicates the API quota has been exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	// ErrInvalidCoordinates indicates the provided coordinates are invalid or out of range.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	// ErrUnsupportedMode indicates the provider cannot route the requested transportation mode.
	ErrUnsupportedMode = errors.New("unsupported transportation mode")
)

// Provider defines the interface for directions providers.
type Provider interface {
	// GetDirections retrieves the best route between two points.
	GetDirections(ctx context.Context, req DirectionsRequest) (*Directions, error)
	// Name returns the provider identifier for logging and metrics.
	Name() string
}

// DirectionsRequest is the request for a single leg.
type DirectionsRequest struct {
	Origin        itinerary.Coordinate
	Destination   itinerary.Coordinate
	Mode          itinerary.TransportationMode
	AvoidTolls    bool
	AvoidHighways bool
}

// Directions is the provider's best route for one leg.
type Directions struct {
	DistanceMeters  int
	DurationSeconds int
	Polyline        string // Encoded polyline (precision 5)
	Steps           []Step
	Provider        string
	FetchedAt       time.Time
}

// Step is one provider instruction.
type Step struct {
	Instruction     string // May contain HTML markup
	DistanceMeters  int
	DurationSeconds int
	TravelMode      string // Provider travel mode of the step, if reported
	Transit         bool   // Step carries public transit details
}

// Error provides detailed error information from the routing provider.
type Error struct {
	Provider string // Provider that generated the error
	Code     string // Error code from the provider
	Message  string // Human-readable error message
	Err      error  // Underlying error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}
