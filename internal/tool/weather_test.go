// ABOUTME: Tests for the Open-Meteo weather tool against a local HTTP stub.
// ABOUTME: Covers geocoding resolution, explicit coordinates, and error paths.

package tool

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWeatherStub(t *testing.T) *Weather {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/geocode", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("name") == "Nowhere" {
			w.Write([]byte(`{"results":[]}`))
			return
		}
		w.Write([]byte(`{"results":[{"name":"Portland","latitude":45.52,"longitude":-122.68,"country_code":"US"}]}`))
	})
	mux.HandleFunc("/forecast", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"current":{"temperature_2m":18.5,"weather_code":3,"wind_speed_10m":12.2},
			"daily":{"temperature_2m_max":[21.0],"temperature_2m_min":[11.5],"weather_code":[3]}
		}`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return NewWeather(WithWeatherEndpoints(server.URL+"/geocode", server.URL+"/forecast"))
}

func TestWeather_ResolvesLocationName(t *testing.T) {
	weather := newWeatherStub(t)

	result, err := weather.Execute(context.Background(), `{"location":"Portland"}`)
	require.NoError(t, err)

	var out weatherOutput
	require.NoError(t, json.Unmarshal([]byte(result), &out))
	assert.Equal(t, "Portland, US", out.ResolvedLocation)
	assert.InDelta(t, 45.52, out.Latitude, 0.001)
	require.NotNil(t, out.Current.TemperatureC)
	assert.InDelta(t, 18.5, *out.Current.TemperatureC, 0.001)
	require.NotNil(t, out.Today.TempMaxC)
	assert.InDelta(t, 21.0, *out.Today.TempMaxC, 0.001)
}

func TestWeather_AcceptsExplicitCoordinates(t *testing.T) {
	weather := newWeatherStub(t)

	result, err := weather.Execute(context.Background(), `{"latitude":45.52,"longitude":-122.68}`)
	require.NoError(t, err)

	var out weatherOutput
	require.NoError(t, json.Unmarshal([]byte(result), &out))
	assert.Equal(t, "45.5200,-122.6800", out.ResolvedLocation)
}

func TestWeather_NoGeocodingResult(t *testing.T) {
	weather := newWeatherStub(t)

	_, err := weather.Execute(context.Background(), `{"location":"Nowhere"}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no geocoding result")
}

func TestWeather_RequiresLocationOrCoords(t *testing.T) {
	weather := newWeatherStub(t)

	_, err := weather.Execute(context.Background(), `{}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must include location")
}

func TestWeather_InvalidJSONInput(t *testing.T) {
	weather := newWeatherStub(t)

	_, err := weather.Execute(context.Background(), `not-json`)
	assert.Error(t, err)
}
