package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moodroute/moodroute/internal/config"
	"github.com/moodroute/moodroute/internal/itinerary"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// newUpstream fakes the Maps, Weather and Gemini APIs on one server.
func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()

	places := map[string][2]float64{
		"Tokyo Station": {35.6812, 139.7671},
		"Shibuya":       {35.658, 139.7016},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/geocode/json", func(w http.ResponseWriter, r *http.Request) {
		addr := r.URL.Query().Get("address")
		pos, ok := places[addr]
		if !ok {
			writeJSON(w, map[string]any{"status": "ZERO_RESULTS", "results": []any{}})
			return
		}
		writeJSON(w, map[string]any{
			"status": "OK",
			"results": []any{map[string]any{
				"formatted_address": addr + ", Tokyo, Japan",
				"geometry":          map[string]any{"location": map[string]any{"lat": pos[0], "lng": pos[1]}},
			}},
		})
	})
	mux.HandleFunc("/directions/json", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{
			"status": "OK",
			"routes": []any{map[string]any{
				"overview_polyline": map[string]any{"points": "_p~iF~ps|U_ulLnnqC"},
				"legs": []any{map[string]any{
					"distance": map[string]any{"text": "7.5 km", "value": 7500},
					"duration": map[string]any{"text": "20 mins", "value": 1200},
					"steps": []any{map[string]any{
						"html_instructions": "Head <b>southwest</b>",
						"distance":          map[string]any{"value": 7500},
						"duration":          map[string]any{"value": 1200},
						"travel_mode":       "DRIVING",
						"start_location":    map[string]any{"lat": 35.6812, "lng": 139.7671},
						"end_location":      map[string]any{"lat": 35.658, "lng": 139.7016},
					}},
				}},
			}},
		})
	})
	mux.HandleFunc("/weather", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{
			"temperature":      map[string]any{"degrees": 21.5},
			"weatherCondition": map[string]any{"description": map[string]any{"text": "Sunny"}},
			"relativeHumidity": 60,
			"wind":             map[string]any{"speed": map[string]any{"value": 3}},
		})
	})
	mux.HandleFunc("/forecast", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{
			"forecastDays": []any{
				map[string]any{"maxTemperature": map[string]any{"degrees": 22}},
				map[string]any{"maxTemperature": map[string]any{"degrees": 24}},
			},
		})
	})
	mux.HandleFunc("/v1beta/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{"parts": []any{map[string]any{
					"text": `[{"name": "Meiji Shrine", "description": "Shrine", "lat": 35.6764, "lng": 139.6993, "address": "Shibuya City", "reason": "Calm"}]`,
				}}},
			}},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(baseURL string) *config.Config {
	cfg := config.Default()
	cfg.Credentials = config.Credentials{GoogleMaps: "maps-key", Gemini: "gemini-key"}
	cfg.Maps.GoogleBaseURL = baseURL
	cfg.Weather.GoogleBaseURL = baseURL
	cfg.Recommendations.BaseURL = baseURL
	return cfg
}

func TestNew_PlansAgainstUpstreams(t *testing.T) {
	srv := newUpstream(t)

	a, err := New(Options{Config: testConfig(srv.URL), Logger: zerolog.Nop()})
	require.NoError(t, err)
	require.NotNil(t, a.Analyzer)
	assert.Equal(t, 3, a.Registry.ProviderCount())

	resp, err := a.Planner.Plan(context.Background(), itinerary.RouteRequest{
		Locations: []string{"Tokyo Station", "Shibuya"},
		Mood:      "relaxing",
	})
	require.NoError(t, err)

	require.Len(t, resp.Route, 1)
	assert.Equal(t, "Tokyo Station", resp.Route[0].From.Name)
	assert.Equal(t, "Shibuya", resp.Route[0].To.Name)
	assert.Equal(t, 7500, resp.TotalDistance)
	assert.Equal(t, 1200, resp.TotalDuration)
	require.Len(t, resp.Route[0].Steps, 1)
	assert.Equal(t, "Head southwest", resp.Route[0].Steps[0].Instruction)

	require.Len(t, resp.Weather, 2)
	assert.InDelta(t, 21.5, resp.Weather[0].Current.Temperature, 1e-9)
	assert.Equal(t, "Sunny", resp.Weather[0].Current.Condition)
	require.NotNil(t, resp.Weather[0].Forecast)
	assert.InDelta(t, 24, resp.Weather[0].Forecast.Temperature, 1e-9)

	require.Len(t, resp.RecommendedSpots, 1)
	assert.Equal(t, "Meiji Shrine", resp.RecommendedSpots[0].Name)

	health := a.Registry.GetHealth("googlemaps")
	require.NotNil(t, health)
	assert.True(t, health.IsHealthy())
}

func TestNew_UnknownPlaceIsNotFound(t *testing.T) {
	srv := newUpstream(t)

	a, err := New(Options{Config: testConfig(srv.URL), Logger: zerolog.Nop()})
	require.NoError(t, err)

	_, err = a.Planner.Plan(context.Background(), itinerary.RouteRequest{Locations: []string{"Tokyo Station", "Atlantis"}})
	require.Error(t, err)
	assert.True(t, itinerary.IsNotFound(err))
	assert.Contains(t, err.Error(), "Atlantis")
}

func TestNew_MissingCredentials(t *testing.T) {
	cfg := config.Default()

	_, err := New(Options{Config: cfg, Logger: zerolog.Nop()})
	require.Error(t, err)
	assert.ErrorIs(t, err, itinerary.ErrConfiguration)
	assert.Contains(t, err.Error(), "GOOGLE_MAPS_API_KEY")
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestNew_AlternateProvidersWithoutRecommendations(t *testing.T) {
	cfg := config.Default()
	cfg.Maps.Provider = config.ProviderOpenRouteService
	cfg.Weather.Provider = config.ProviderOpenWeatherMap
	cfg.Recommendations.Enabled = false
	cfg.Credentials = config.Credentials{OpenRouteService: "ors-key", OpenWeatherMap: "owm-key"}

	a, err := New(Options{Config: cfg, Logger: zerolog.Nop()})
	require.NoError(t, err)

	assert.NotNil(t, a.Planner)
	assert.Nil(t, a.Analyzer)
	assert.Equal(t, 2, a.Registry.ProviderCount())
	assert.NotNil(t, a.Registry.GetHealth("openrouteservice"))
	assert.NotNil(t, a.Registry.GetHealth("openweathermap"))
}
