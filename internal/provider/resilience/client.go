// Package resilience provides the shared HTTP client for upstream provider calls:
// a per-request timeout, a circuit breaker per provider and health tracking.
//
// Each call is a single attempt and never re-issued. By default the breaker only
// counts outcomes for the status endpoint; with FailFast it short-circuits calls
// to an upstream that keeps failing.
package resilience

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/moodroute/moodroute/internal/telemetry"
)

// ErrCircuitOpen is returned when the circuit breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// ClientConfig holds configuration for the resilient HTTP client.
type ClientConfig struct {
	// Name identifies this client for circuit breaker naming, health and metrics.
	Name string

	// Timeout is the request timeout for individual HTTP calls.
	// Default: 10 seconds
	Timeout time.Duration

	// CircuitBreaker is the circuit breaker configuration.
	// If nil, uses DefaultCircuitBreakerConfig.
	CircuitBreaker *CircuitBreakerConfig

	// FailFast opens the circuit with DefaultReadyToTrip. Without it calls are
	// never short-circuited.
	FailFast bool

	// Registry receives the client on construction and success/failure records (optional).
	Registry *Registry

	// Metrics records request duration and counts per operation (optional).
	Metrics *telemetry.ProviderMetrics

	// Transport overrides the underlying round tripper (optional, used in tests).
	Transport http.RoundTripper
}

// DefaultClientConfig returns sensible defaults for the resilient client.
func DefaultClientConfig(name string) ClientConfig {
	cbConfig := DefaultCircuitBreakerConfig(name)
	return ClientConfig{
		Name:           name,
		Timeout:        10 * time.Second,
		CircuitBreaker: &cbConfig,
	}
}

// Client is an HTTP client with circuit breaker protection.
type Client struct {
	name           string
	httpClient     *http.Client
	circuitBreaker *gobreaker.CircuitBreaker[*http.Response]
	registry       *Registry
	metrics        *telemetry.ProviderMetrics
}

// NewClient creates a new resilient HTTP client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	cbConfig := DefaultCircuitBreakerConfig(cfg.Name)
	if cfg.CircuitBreaker != nil {
		cbConfig = *cfg.CircuitBreaker
	}
	if cfg.FailFast {
		cbConfig.ReadyToTrip = DefaultReadyToTrip
	}

	c := &Client{
		name: cfg.Name,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: cfg.Transport,
		},
		circuitBreaker: NewCircuitBreaker[*http.Response](cbConfig), //nolint:bodyclose // type param, not response
		registry:       cfg.Registry,
		metrics:        cfg.Metrics,
	}

	if c.registry != nil {
		c.registry.Register(c.name, c)
	}

	return c
}

// Name returns the provider name this client was created for.
func (c *Client) Name() string {
	return c.name
}

// Do executes an HTTP request through the circuit breaker.
// 5xx responses count as breaker failures but are still returned to the caller
// so it can map the status. Returns ErrCircuitOpen without calling the upstream
// when the breaker is open.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	start := time.Now()

	resp, err := c.circuitBreaker.Execute(func() (*http.Response, error) { //nolint:bodyclose // caller is responsible for closing
		r, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		if r.StatusCode >= 500 {
			return r, &ServerError{StatusCode: r.StatusCode}
		}
		return r, nil
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = ErrCircuitOpen
	}

	c.record(req.Context(), time.Since(start), resp, err)

	var serverErr *ServerError
	if errors.As(err, &serverErr) && resp != nil {
		return resp, nil
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) record(ctx context.Context, elapsed time.Duration, resp *http.Response, err error) {
	op := OperationFromContext(ctx)
	if c.metrics != nil {
		c.metrics.RecordRequest(c.name, op, elapsed, err)
	}
	if c.registry == nil {
		return
	}
	if err != nil {
		c.registry.RecordFailure(c.name, op, err)
		return
	}
	if resp != nil && resp.StatusCode >= 400 {
		c.registry.RecordFailure(c.name, op, errors.New(http.StatusText(resp.StatusCode)))
		return
	}
	c.registry.RecordSuccess(c.name, op)
}

// ServerError represents an HTTP 5xx server error.
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return "server error: " + http.StatusText(e.StatusCode)
}

// CircuitBreakerState returns the current state of the circuit breaker.
func (c *Client) CircuitBreakerState() gobreaker.State {
	return c.circuitBreaker.State()
}

// CircuitBreakerCounts returns the current counts of the circuit breaker.
func (c *Client) CircuitBreakerCounts() gobreaker.Counts {
	return c.circuitBreaker.Counts()
}

type operationKey struct{}

// WithOperation labels the upstream calls made with ctx for metrics.
func WithOperation(ctx context.Context, operation string) context.Context {
	return context.WithValue(ctx, operationKey{}, operation)
}

// OperationFromContext returns the operation label set by WithOperation.
func OperationFromContext(ctx context.Context) string {
	if op, ok := ctx.Value(operationKey{}).(string); ok {
		return op
	}
	return "unknown"
}
