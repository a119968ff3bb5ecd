package googlemaps

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moodroute/moodroute/internal/geocoding"
	"github.com/moodroute/moodroute/internal/itinerary"
	"github.com/moodroute/moodroute/internal/provider/resilience"
	"github.com/moodroute/moodroute/internal/routing"
	"github.com/moodroute/moodroute/pkg/polyline"
)

const geocodeFixture = `{
  "status": "OK",
  "results": [
    {
      "formatted_address": "1 Chome Marunouchi, Chiyoda City, Tokyo 100-0005, Japan",
      "geometry": {"location": {"lat": 35.6812362, "lng": 139.7671248}}
    },
    {
      "formatted_address": "Tokyo, Japan",
      "geometry": {"location": {"lat": 35.6761919, "lng": 139.6503106}}
    }
  ]
}`

const directionsFixture = `{
  "status": "OK",
  "routes": [{
    "summary": "Route 1",
    "overview_polyline": {"points": "_p~iF~ps|U_ulLnnqC"},
    "legs": [{
      "distance": {"text": "7.4 km", "value": 7412},
      "duration": {"text": "21 mins", "value": 1268},
      "steps": [
        {
          "html_instructions": "Head <b>south</b> toward <b>Route 1</b>",
          "distance": {"text": "0.4 km", "value": 412},
          "duration": {"text": "1 min", "value": 68},
          "travel_mode": "WALKING",
          "start_location": {"lat": 35.6812, "lng": 139.7671},
          "end_location": {"lat": 35.678, "lng": 139.765}
        },
        {
          "html_instructions": "Subway towards Shibuya",
          "distance": {"text": "7 km", "value": 7000},
          "duration": {"text": "20 mins", "value": 1200},
          "travel_mode": "TRANSIT",
          "start_location": {"lat": 35.678, "lng": 139.765},
          "end_location": {"lat": 35.658, "lng": 139.7016},
          "transit_details": {"line": {"short_name": "G"}}
        }
      ]
    }]
  }]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(ClientConfig{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
		Logger:     zerolog.Nop(),
	})
	require.NoError(t, err)
	return client
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(ClientConfig{})
	require.Error(t, err)
	assert.ErrorIs(t, err, itinerary.ErrConfiguration)
}

func TestClient_Geocode(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/geocode/json", r.URL.Path)
		assert.Equal(t, "Tokyo Station", r.URL.Query().Get("address"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(geocodeFixture))
	})

	res, err := client.Geocode(context.Background(), "Tokyo Station")
	require.NoError(t, err)

	assert.Equal(t, 35.6812362, res.Lat)
	assert.Equal(t, 139.7671248, res.Lng)
	assert.Equal(t, "1 Chome Marunouchi, Chiyoda City, Tokyo 100-0005, Japan", res.FormattedAddress)
}

func TestClient_Geocode_ZeroResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status": "ZERO_RESULTS", "results": []}`))
	})

	_, err := client.Geocode(context.Background(), "Atlantis")
	require.Error(t, err)
	assert.ErrorIs(t, err, geocoding.ErrNoResults)
}

func TestClient_Geocode_RequestDenied(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status": "REQUEST_DENIED", "error_message": "The provided API key is invalid.", "results": []}`))
	})

	_, err := client.Geocode(context.Background(), "Tokyo Station")
	require.Error(t, err)
	assert.NotErrorIs(t, err, geocoding.ErrNoResults)
	assert.ErrorIs(t, err, routing.ErrProviderUnavailable)
	assert.Contains(t, err.Error(), "The provided API key is invalid.")
}

func TestClient_GetDirections(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/directions/json", r.URL.Path)
		assert.Equal(t, "35.6812,139.7671", q.Get("origin"))
		assert.Equal(t, "35.658,139.7016", q.Get("destination"))
		assert.Equal(t, "transit", q.Get("mode"))
		assert.Equal(t, "tolls|highways", q.Get("avoid"))
		_, _ = w.Write([]byte(directionsFixture))
	})

	dir, err := client.GetDirections(context.Background(), routing.DirectionsRequest{
		Origin:        itinerary.Coordinate{Lat: 35.6812, Lng: 139.7671},
		Destination:   itinerary.Coordinate{Lat: 35.658, Lng: 139.7016},
		Mode:          itinerary.ModeTransit,
		AvoidTolls:    true,
		AvoidHighways: true,
	})
	require.NoError(t, err)

	assert.Equal(t, ProviderName, dir.Provider)
	assert.Equal(t, 7412, dir.DistanceMeters)
	assert.Equal(t, 1268, dir.DurationSeconds)
	assert.Equal(t, "_p~iF~ps|U_ulLnnqC", dir.Polyline)
	require.Len(t, dir.Steps, 2)
	assert.Equal(t, "Head <b>south</b> toward <b>Route 1</b>", dir.Steps[0].Instruction)
	assert.Equal(t, "WALKING", dir.Steps[0].TravelMode)
	assert.False(t, dir.Steps[0].Transit)
	assert.Equal(t, 412, dir.Steps[0].DistanceMeters)
	assert.True(t, dir.Steps[1].Transit)
}

func TestClient_GetDirections_NoAvoid(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, ok := r.URL.Query()["avoid"]
		assert.False(t, ok)
		_, _ = w.Write([]byte(directionsFixture))
	})

	_, err := client.GetDirections(context.Background(), routing.DirectionsRequest{Mode: itinerary.ModeDriving})
	require.NoError(t, err)
}

func TestClient_GetDirections_PolylineFallback(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status": "OK", "routes": [{"legs": [{
			"distance": {"value": 100}, "duration": {"value": 60},
			"steps": [
				{"html_instructions": "a", "start_location": {"lat": 35.1, "lng": 139.1}, "end_location": {"lat": 35.2, "lng": 139.2}},
				{"html_instructions": "b", "start_location": {"lat": 35.2, "lng": 139.2}, "end_location": {"lat": 35.3, "lng": 139.3}}
			]
		}]}]}`))
	})

	dir, err := client.GetDirections(context.Background(), routing.DirectionsRequest{Mode: itinerary.ModeDriving})
	require.NoError(t, err)

	points, err := polyline.Decode(dir.Polyline)
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.InDelta(t, 35.1, points[0].Lat, 1e-5)
	assert.InDelta(t, 139.3, points[2].Lng, 1e-5)
}

func TestClient_GetDirections_NotFound(t *testing.T) {
	for _, status := range []string{"ZERO_RESULTS", "NOT_FOUND"} {
		t.Run(status, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"status": "` + status + `", "routes": []}`))
			})

			_, err := client.GetDirections(context.Background(), routing.DirectionsRequest{Mode: itinerary.ModeWalking})
			require.Error(t, err)
			assert.ErrorIs(t, err, routing.ErrNoRouteFound)

			var routingErr *routing.Error
			require.True(t, errors.As(err, &routingErr))
			assert.Equal(t, status, routingErr.Code)
		})
	}
}

func TestClient_GetDirections_OverQueryLimit(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status": "OVER_QUERY_LIMIT", "routes": []}`))
	})

	_, err := client.GetDirections(context.Background(), routing.DirectionsRequest{Mode: itinerary.ModeDriving})
	assert.ErrorIs(t, err, routing.ErrRateLimitExceeded)
}

func TestClient_ServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.GetDirections(context.Background(), routing.DirectionsRequest{Mode: itinerary.ModeDriving})
	require.Error(t, err)
	assert.ErrorIs(t, err, routing.ErrProviderUnavailable)
}

func TestClient_DefaultResilientClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(geocodeFixture))
	}))
	defer server.Close()

	registry := resilience.NewRegistry()
	client, err := NewClient(ClientConfig{
		APIKey:   "test-key",
		BaseURL:  server.URL,
		Registry: registry,
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, err)

	_, err = client.Geocode(context.Background(), "Tokyo Station")
	require.NoError(t, err)

	health := registry.GetHealth(ProviderName)
	require.NotNil(t, health)
	assert.True(t, health.IsHealthy())
	assert.NotNil(t, health.LastSuccessAt)
}

func TestClient_FailedRequestsDoNotBlockLaterOnes(t *testing.T) {
	var hits atomic.Int32
	var healthy atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		if !healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(geocodeFixture))
	}))
	defer server.Close()

	registry := resilience.NewRegistry()
	client, err := NewClient(ClientConfig{
		APIKey:   "test-key",
		BaseURL:  server.URL,
		Registry: registry,
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := client.Geocode(context.Background(), "Tokyo Station")
		require.Error(t, err)
	}

	healthy.Store(true)
	result, err := client.Geocode(context.Background(), "Tokyo Station")
	require.NoError(t, err)
	assert.InDelta(t, 35.6812362, result.Lat, 1e-9)
	assert.Equal(t, int32(6), hits.Load())

	health := registry.GetHealth(ProviderName)
	require.NotNil(t, health)
	assert.True(t, health.IsHealthy())
	assert.Equal(t, uint32(6), health.Counts.Requests)
}

func TestClient_FailFastOpensCircuit(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{
		APIKey:   "test-key",
		BaseURL:  server.URL,
		FailFast: true,
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, err)

	for i := 0; i < 6; i++ {
		_, _ = client.Geocode(context.Background(), "Tokyo Station")
	}

	_, err = client.Geocode(context.Background(), "Tokyo Station")
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, int32(5), hits.Load())
}
