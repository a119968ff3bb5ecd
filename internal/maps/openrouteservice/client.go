// Package openrouteservice provides a client for the OpenRouteService directions
// and geocoding APIs. It is the alternative to Google Maps for walking and
// driving itineraries; ORS has no public transit profile.
package openrouteservice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/moodroute/moodroute/internal/geocoding"
	"github.com/moodroute/moodroute/internal/itinerary"
	"github.com/moodroute/moodroute/internal/provider/resilience"
	"github.com/moodroute/moodroute/internal/routing"
	"github.com/moodroute/moodroute/internal/telemetry"
	"github.com/moodroute/moodroute/pkg/polyline"
)

const (
	// ProviderName identifies this provider.
	ProviderName = "openrouteservice"

	// DefaultBaseURL is the OpenRouteService API base URL.
	DefaultBaseURL = "https://api.openrouteservice.org"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 10 * time.Second
)

// profiles maps itinerary modes to ORS routing profiles.
var profiles = map[itinerary.TransportationMode]string{
	itinerary.ModeWalking: "foot-walking",
	itinerary.ModeDriving: "driving-car",
}

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the OpenRouteService client.
type ClientConfig struct {
	// APIKey is the ORS API key (required).
	APIKey string

	// BaseURL is the API base URL (optional, defaults to ORS API).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient HTTPDoer

	// Timeout is the request timeout (optional, defaults to 10s).
	Timeout time.Duration

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// Metrics records upstream call metrics (optional).
	Metrics *telemetry.ProviderMetrics

	// FailFast lets the circuit breaker open after repeated failures.
	FailFast bool

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an OpenRouteService API client. It implements both
// geocoding.Provider and routing.Provider.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

var (
	_ geocoding.Provider = (*Client)(nil)
	_ routing.Provider   = (*Client)(nil)
)

// NewClient creates a new OpenRouteService client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, itinerary.Configuration("ORS_API_KEY is required")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		clientCfg.Timeout = timeout
		clientCfg.Registry = cfg.Registry
		clientCfg.Metrics = cfg.Metrics
		clientCfg.FailFast = cfg.FailFast
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}, nil
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// Geocode returns the best Pelias match for query.
func (c *Client) Geocode(ctx context.Context, query string) (*geocoding.Result, error) {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("text", query)
	params.Set("size", "1")

	httpReq, err := http.NewRequestWithContext(resilience.WithOperation(ctx, "geocode"),
		http.MethodGet, c.baseURL+"/geocode/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json, application/geo+json")

	body, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}

	var fc featureCollection[placeProperties]
	if err := json.Unmarshal(body, &fc); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if len(fc.Features) == 0 {
		return nil, fmt.Errorf("%s: %w", query, geocoding.ErrNoResults)
	}

	best := fc.Features[0]
	var point []float64
	if err := json.Unmarshal(best.Geometry.Coordinates, &point); err != nil || len(point) < 2 {
		return nil, fmt.Errorf("%s: unexpected geometry: %w", query, geocoding.ErrNoResults)
	}

	address := best.Properties.Label
	if address == "" {
		address = best.Properties.Name
	}

	// GeoJSON positions are [lng, lat].
	return &geocoding.Result{
		Lat:              point[1],
		Lng:              point[0],
		FormattedAddress: address,
	}, nil
}

// GetDirections retrieves the route between two points.
func (c *Client) GetDirections(ctx context.Context, req routing.DirectionsRequest) (*routing.Directions, error) {
	profile, ok := profiles[req.Mode]
	if !ok {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "UNSUPPORTED_MODE",
			Message:  fmt.Sprintf("openrouteservice cannot route %s", req.Mode),
			Err:      routing.ErrUnsupportedMode,
		}
	}

	orsReq := orsRequest{
		// ORS uses [lon, lat] order (GeoJSON)
		Coordinates: [][]float64{
			{req.Origin.Lng, req.Origin.Lat},
			{req.Destination.Lng, req.Destination.Lat},
		},
		Instructions: true,
		Units:        "m",
		Language:     "en",
	}
	if avoid := avoidFeatures(req); len(avoid) > 0 {
		orsReq.Options = &orsOptions{AvoidFeatures: avoid}
	}

	body, err := json.Marshal(orsReq)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	reqURL := fmt.Sprintf("%s/v2/directions/%s/geojson", c.baseURL, profile)
	httpReq, err := http.NewRequestWithContext(resilience.WithOperation(ctx, "directions"),
		http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", c.apiKey)
	httpReq.Header.Set("Accept", "application/json, application/geo+json")

	c.logger.Debug().
		Str("profile", profile).
		Float64("origin_lat", req.Origin.Lat).
		Float64("origin_lng", req.Origin.Lng).
		Float64("dest_lat", req.Destination.Lat).
		Float64("dest_lng", req.Destination.Lng).
		Msg("requesting directions from ORS")

	respBody, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}

	var fc featureCollection[routeProperties]
	if err := json.Unmarshal(respBody, &fc); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if len(fc.Features) == 0 {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "NO_ROUTE",
			Message:  "no route found between the given points",
			Err:      routing.ErrNoRouteFound,
		}
	}

	return toDirections(&fc.Features[0], string(req.Mode))
}

// do executes a request and returns the body of a 200 response.
func (c *Client) do(httpReq *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "REQUEST_FAILED",
			Message:  "failed to reach routing provider",
			Err:      errors.Join(routing.ErrProviderUnavailable, err),
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.handleErrorResponse(resp.StatusCode, body)
	}
	return body, nil
}

// handleErrorResponse maps ORS error responses to domain errors.
func (c *Client) handleErrorResponse(statusCode int, body []byte) error {
	var orsErr orsErrorResponse
	if err := json.Unmarshal(body, &orsErr); err != nil {
		return &routing.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("HTTP_%d", statusCode),
			Message:  fmt.Sprintf("routing provider returned status %d", statusCode),
			Err:      routing.ErrProviderUnavailable,
		}
	}

	switch {
	case statusCode == http.StatusTooManyRequests:
		return &routing.Error{
			Provider: ProviderName,
			Code:     "RATE_LIMIT",
			Message:  "API rate limit exceeded",
			Err:      routing.ErrRateLimitExceeded,
		}
	case statusCode == http.StatusForbidden || statusCode == http.StatusUnauthorized:
		return &routing.Error{
			Provider: ProviderName,
			Code:     "FORBIDDEN",
			Message:  "API access denied - check API key configuration",
			Err:      routing.ErrProviderUnavailable,
		}
	case statusCode == http.StatusNotFound,
		orsErr.Error.Code == orsErrorCodeRouteNotFound,
		orsErr.Error.Code == orsErrorCodePointNotFound:
		return &routing.Error{
			Provider: ProviderName,
			Code:     "NO_ROUTE",
			Message:  nonEmpty(orsErr.Error.Message, "no route found between the given points"),
			Err:      routing.ErrNoRouteFound,
		}
	case statusCode == http.StatusBadRequest:
		return &routing.Error{
			Provider: ProviderName,
			Code:     "BAD_REQUEST",
			Message:  orsErr.Error.Message,
			Err:      routing.ErrInvalidCoordinates,
		}
	case statusCode >= 500:
		return &routing.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("SERVER_%d", statusCode),
			Message:  "routing provider is temporarily unavailable",
			Err:      routing.ErrProviderUnavailable,
		}
	default:
		return &routing.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("HTTP_%d", statusCode),
			Message:  orsErr.Error.Message,
			Err:      routing.ErrProviderUnavailable,
		}
	}
}

// toDirections converts a GeoJSON route feature to the domain model. The
// LineString geometry is re-encoded as a polyline.
func toDirections(f *feature[routeProperties], travelMode string) (*routing.Directions, error) {
	var line [][]float64
	if len(f.Geometry.Coordinates) > 0 {
		if err := json.Unmarshal(f.Geometry.Coordinates, &line); err != nil {
			return nil, fmt.Errorf("decoding route geometry: %w", err)
		}
	}

	dir := &routing.Directions{
		DistanceMeters:  int(math.Round(f.Properties.Summary.Distance)),
		DurationSeconds: int(math.Round(f.Properties.Summary.Duration)),
		Polyline:        polyline.EncodePositions(line),
		Provider:        ProviderName,
		FetchedAt:       time.Now(),
	}

	for _, seg := range f.Properties.Segments {
		for _, step := range seg.Steps {
			dir.Steps = append(dir.Steps, routing.Step{
				Instruction:     step.Instruction,
				DistanceMeters:  int(math.Round(step.Distance)),
				DurationSeconds: int(math.Round(step.Duration)),
				TravelMode:      travelMode,
			})
		}
	}

	return dir, nil
}

func avoidFeatures(req routing.DirectionsRequest) []string {
	var avoid []string
	// foot-walking has no highways to avoid and rejects the option.
	if req.Mode != itinerary.ModeDriving {
		return nil
	}
	if req.AvoidTolls {
		avoid = append(avoid, "tollways")
	}
	if req.AvoidHighways {
		avoid = append(avoid, "highways")
	}
	return avoid
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
