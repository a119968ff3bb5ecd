package openweathermap_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moodroute/moodroute/internal/itinerary"
	"github.com/moodroute/moodroute/internal/provider/resilience"
	"github.com/moodroute/moodroute/internal/weather"
	"github.com/moodroute/moodroute/internal/weather/openweathermap"
)

func newTestClient(t *testing.T, url string) *openweathermap.Client {
	t.Helper()
	client, err := openweathermap.NewClient(openweathermap.ClientConfig{
		APIKey:     "****",
		BaseURL:    url,
		HTTPClient: resilience.NewClient(resilience.DefaultClientConfig("test")),
		Logger:     zerolog.Nop(),
	})
	require.NoError(t, err)
	return client
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := openweathermap.NewClient(openweathermap.ClientConfig{})
	assert.ErrorIs(t, err, itinerary.ErrConfiguration)
}

func TestClient_FetchCurrent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/weather", r.URL.Path)
		assert.Equal(t, "52.370000", r.URL.Query().Get("lat"))
		assert.Equal(t, "4.895000", r.URL.Query().Get("lon"))
		assert.Equal(t, "****", r.URL.Query().Get("appid"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))

		response := map[string]interface{}{
			"coord": map[string]float64{"lat": 52.370, "lon": 4.895},
			"weather": []map[string]interface{}{
				{"id": 800, "main": "Clear", "description": "clear sky"},
			},
			"main": map[string]float64{
				"temp":     18.5,
				"pressure": 1015.0,
				"humidity": 72.0,
			},
			"wind": map[string]float64{"speed": 4.5, "deg": 220.0},
			"dt":   time.Now().Unix(),
			"name": "Amsterdam",
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	payload, err := newTestClient(t, server.URL).FetchCurrent(context.Background(), 52.370, 4.895)
	require.NoError(t, err)

	assert.Equal(t, itinerary.CurrentWeather{
		Temperature: 18.5,
		Condition:   "Clear",
		Humidity:    72,
		WindSpeed:   4.5,
	}, weather.ExtractCurrent(payload))
}

func TestClient_FetchForecast(t *testing.T) {
	now := time.Now()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forecast", r.URL.Path)
		assert.Equal(t, "metric", r.URL.Query().Get("units"))

		response := map[string]interface{}{
			"cnt": 3,
			"list": []map[string]interface{}{
				{
					"dt":      now.Add(21 * time.Hour).Unix(),
					"main":    map[string]float64{"temp": 17.0},
					"weather": []map[string]string{{"main": "Clouds"}},
				},
				{
					"dt":      now.Add(24 * time.Hour).Unix(),
					"main":    map[string]float64{"temp": 19.5},
					"weather": []map[string]string{{"main": "Rain"}},
					"rain":    map[string]float64{"3h": 1.25},
				},
				{
					"dt":      now.Add(27 * time.Hour).Unix(),
					"main":    map[string]float64{"temp": 21.0},
					"weather": []map[string]string{{"main": "Clear"}},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	payload, err := newTestClient(t, server.URL).FetchForecast(context.Background(), 52.370, 4.895)
	require.NoError(t, err)

	forecast := weather.ExtractForecast(payload, now)
	require.NotNil(t, forecast)
	assert.Equal(t, itinerary.ForecastWeather{
		Temperature:   19.5,
		Condition:     "Rain",
		Precipitation: 1.25,
	}, *forecast)
}

func TestClient_FetchCurrent_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).FetchCurrent(context.Background(), 52.370, 4.895)
	require.Error(t, err)
	assert.ErrorIs(t, err, weather.ErrProviderUnavailable)
	assert.Contains(t, err.Error(), "500")
}

func TestClient_FetchCurrent_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(t, server.URL).FetchCurrent(ctx, 52.370, 4.895)
	require.Error(t, err)
}

func TestClient_Name(t *testing.T) {
	client, err := openweathermap.NewClient(openweathermap.ClientConfig{APIKey: "****"})
	require.NoError(t, err)
	assert.Equal(t, "openweathermap", client.Name())
}
