// Package googlemaps provides a client for the Google Maps Geocoding and
// Directions web services.
package googlemaps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
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
	ProviderName = "googlemaps"

	// DefaultBaseURL is the Google Maps web services base URL.
	DefaultBaseURL = "https://maps.googleapis.com/maps/api"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 10 * time.Second
)

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the Google Maps client.
type ClientConfig struct {
	// APIKey is the Google Maps API key (required).
	APIKey string

	// BaseURL is the API base URL (optional, defaults to Google Maps).
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

// Client is a Google Maps API client. It implements both geocoding.Provider
// and routing.Provider.
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

// NewClient creates a new Google Maps client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, itinerary.Configuration("GOOGLE_MAPS_API_KEY is required")
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

// Geocode returns the first Geocoding API match for query.
func (c *Client) Geocode(ctx context.Context, query string) (*geocoding.Result, error) {
	params := url.Values{}
	params.Set("address", query)

	var resp geocodeResponse
	if err := c.get(resilience.WithOperation(ctx, "geocode"), "/geocode/json", params, &resp); err != nil {
		return nil, err
	}

	switch resp.Status {
	case statusOK:
	case statusZeroResults:
		return nil, fmt.Errorf("%s: %w", query, geocoding.ErrNoResults)
	default:
		return nil, statusError("geocode", resp.Status, resp.ErrorMessage)
	}
	if len(resp.Results) == 0 {
		return nil, fmt.Errorf("%s: %w", query, geocoding.ErrNoResults)
	}

	best := resp.Results[0]
	return &geocoding.Result{
		Lat:              best.Geometry.Location.Lat,
		Lng:              best.Geometry.Location.Lng,
		FormattedAddress: best.FormattedAddress,
	}, nil
}

// GetDirections returns the first Directions API route between two points.
func (c *Client) GetDirections(ctx context.Context, req routing.DirectionsRequest) (*routing.Directions, error) {
	params := url.Values{}
	params.Set("origin", formatLatLng(req.Origin))
	params.Set("destination", formatLatLng(req.Destination))
	params.Set("mode", string(req.Mode))
	if avoid := avoidParam(req); avoid != "" {
		params.Set("avoid", avoid)
	}

	c.logger.Debug().
		Str("mode", string(req.Mode)).
		Str("origin", params.Get("origin")).
		Str("destination", params.Get("destination")).
		Msg("requesting directions from Google Maps")

	var resp directionsResponse
	if err := c.get(resilience.WithOperation(ctx, "directions"), "/directions/json", params, &resp); err != nil {
		return nil, err
	}

	switch resp.Status {
	case statusOK:
	case statusZeroResults, statusNotFound:
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     resp.Status,
			Message:  "no route found between the given points",
			Err:      routing.ErrNoRouteFound,
		}
	default:
		return nil, statusError("directions", resp.Status, resp.ErrorMessage)
	}
	if len(resp.Routes) == 0 {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     statusZeroResults,
			Message:  "no route found between the given points",
			Err:      routing.ErrNoRouteFound,
		}
	}

	return toDirections(&resp.Routes[0]), nil
}

// get issues a GET request and decodes a JSON body.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	params.Set("key", c.apiKey)
	reqURL := c.baseURL + path + "?" + params.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &routing.Error{
			Provider: ProviderName,
			Code:     "REQUEST_FAILED",
			Message:  "failed to reach Google Maps",
			Err:      errors.Join(routing.ErrProviderUnavailable, err),
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &routing.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("HTTP_%d", resp.StatusCode),
			Message:  fmt.Sprintf("Google Maps returned status %d", resp.StatusCode),
			Err:      routing.ErrProviderUnavailable,
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// statusError maps a non-OK API status to an error.
func statusError(op, status, message string) error {
	sentinel := routing.ErrProviderUnavailable
	if status == statusOverLimit {
		sentinel = routing.ErrRateLimitExceeded
	}

	msg := fmt.Sprintf("%s request failed with status %s", op, status)
	if message != "" {
		msg += " (" + message + ")"
	}
	return &routing.Error{
		Provider: ProviderName,
		Code:     status,
		Message:  msg,
		Err:      sentinel,
	}
}

func toDirections(route *directionRoute) *routing.Directions {
	dir := &routing.Directions{
		Polyline:  route.OverviewPolyline.Points,
		Provider:  ProviderName,
		FetchedAt: time.Now(),
	}

	var trace []polyline.Point
	for _, leg := range route.Legs {
		dir.DistanceMeters += int(math.Round(leg.Distance.Value))
		dir.DurationSeconds += int(math.Round(leg.Duration.Value))

		for _, st := range leg.Steps {
			dir.Steps = append(dir.Steps, routing.Step{
				Instruction:     st.HTMLInstructions,
				DistanceMeters:  int(math.Round(st.Distance.Value)),
				DurationSeconds: int(math.Round(st.Duration.Value)),
				TravelMode:      st.TravelMode,
				Transit:         len(st.TransitDetails) > 0 && string(st.TransitDetails) != "null",
			})
			if len(trace) == 0 {
				trace = append(trace, polyline.Point{Lat: st.StartLocation.Lat, Lng: st.StartLocation.Lng})
			}
			trace = append(trace, polyline.Point{Lat: st.EndLocation.Lat, Lng: st.EndLocation.Lng})
		}
	}

	// Coarse step-by-step trace when the overview is missing.
	if dir.Polyline == "" {
		dir.Polyline = polyline.Encode(trace)
	}
	return dir
}

func formatLatLng(c itinerary.Coordinate) string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lng, 'f', -1, 64)
}

func avoidParam(req routing.DirectionsRequest) string {
	var avoid []string
	if req.AvoidTolls {
		avoid = append(avoid, "tolls")
	}
	if req.AvoidHighways {
		avoid = append(avoid, "highways")
	}
	return strings.Join(avoid, "|")
}
