// Package googleweather provides a weather.Provider for the Maps Platform
// weather endpoints, authenticated with the Google Maps API key.
package googleweather

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/moodroute/moodroute/internal/itinerary"
	"github.com/moodroute/moodroute/internal/provider/resilience"
	"github.com/moodroute/moodroute/internal/telemetry"
	"github.com/moodroute/moodroute/internal/weather"
)

const (
	// ProviderName identifies this weather provider.
	ProviderName = "googleweather"

	// DefaultBaseURL is the Maps Platform web services base URL.
	DefaultBaseURL = "https://maps.googleapis.com/maps/api"
)

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the Google weather client.
type ClientConfig struct {
	// APIKey is the Google Maps API key (required).
	APIKey string

	// BaseURL is the API base URL (optional).
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

// Client fetches weather payloads from Google.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

var _ weather.Provider = (*Client)(nil)

// NewClient creates a new Google weather client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, itinerary.Configuration("GOOGLE_MAPS_API_KEY is required")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		if cfg.Timeout > 0 {
			clientCfg.Timeout = cfg.Timeout
		}
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

// FetchCurrent fetches current conditions for a location.
func (c *Client) FetchCurrent(ctx context.Context, lat, lng float64) (weather.Payload, error) {
	return c.get(resilience.WithOperation(ctx, "current_weather"), "/weather", lat, lng)
}

// FetchForecast fetches the forecast for a location.
func (c *Client) FetchForecast(ctx context.Context, lat, lng float64) (weather.Payload, error) {
	return c.get(resilience.WithOperation(ctx, "forecast"), "/forecast", lat, lng)
}

func (c *Client) get(ctx context.Context, path string, lat, lng float64) (weather.Payload, error) {
	params := url.Values{}
	params.Set("location", strconv.FormatFloat(lat, 'f', -1, 64)+","+strconv.FormatFloat(lng, 'f', -1, 64))
	params.Set("key", c.apiKey)
	params.Set("units", "metric")
	params.Set("language", "en")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Debug().
			Int("status", resp.StatusCode).
			Str("path", path).
			Msg("google weather returned non-OK status")
		return nil, fmt.Errorf("%w: unexpected status code: %d", weather.ErrProviderUnavailable, resp.StatusCode)
	}

	return weather.DecodePayload(resp.Body)
}
