// ABOUTME: Weather tool backed by the Open-Meteo geocoding and forecast APIs.
// ABOUTME: Accepts a location name or explicit coordinates.

package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	defaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1/search"
	defaultForecastURL  = "https://api.open-meteo.com/v1/forecast"
)

// Weather looks up current conditions and today's forecast for a location.
type Weather struct {
	client       *http.Client
	geocodingURL string
	forecastURL  string
}

// WeatherOption overrides Weather defaults.
type WeatherOption func(*Weather)

// WithWeatherEndpoints overrides the API base URLs, used in tests.
func WithWeatherEndpoints(geocoding, forecast string) WeatherOption {
	return func(w *Weather) {
		w.geocodingURL = geocoding
		w.forecastURL = forecast
	}
}

// NewWeather creates the weather tool.
func NewWeather(optFns ...WeatherOption) *Weather {
	w := &Weather{
		client:       &http.Client{Timeout: 10 * time.Second},
		geocodingURL: defaultGeocodingURL,
		forecastURL:  defaultForecastURL,
	}
	for _, fn := range optFns {
		fn(w)
	}
	return w
}

func (w *Weather) Name() string { return "weather" }

func (w *Weather) Description() string {
	return "Get current weather and today's forecast for a location"
}

func (w *Weather) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"location":  map[string]any{"type": "string", "description": "Place name, e.g. 'Portland, OR'"},
			"latitude":  map[string]any{"type": "number"},
			"longitude": map[string]any{"type": "number"},
		},
	}
}

type weatherInput struct {
	Location  string   `json:"location"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type weatherOutput struct {
	ResolvedLocation string  `json:"resolved_location"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	Current          struct {
		TemperatureC *float64 `json:"temperature_c"`
		WeatherCode  *int     `json:"weather_code"`
		WindKmh      *float64 `json:"wind_kmh"`
	} `json:"current"`
	Today struct {
		TempMaxC    *float64 `json:"temp_max_c"`
		TempMinC    *float64 `json:"temp_min_c"`
		WeatherCode *int     `json:"weather_code"`
	} `json:"today"`
}

// Execute resolves the location and fetches the forecast.
func (w *Weather) Execute(ctx context.Context, args string) (string, error) {
	var in weatherInput
	if args != "" {
		if err := json.Unmarshal([]byte(args), &in); err != nil {
			return "", fmt.Errorf("invalid input: %w", err)
		}
	}

	lat, lon, name, err := w.resolveCoords(ctx, in)
	if err != nil {
		return "", err
	}

	forecast, err := w.fetchForecast(ctx, lat, lon)
	if err != nil {
		return "", err
	}

	out := weatherOutput{
		ResolvedLocation: name,
		Latitude:         lat,
		Longitude:        lon,
	}
	out.Current.TemperatureC = forecast.Current.Temperature2m
	out.Current.WeatherCode = forecast.Current.WeatherCode
	out.Current.WindKmh = forecast.Current.WindSpeed10m
	if len(forecast.Daily.Temperature2mMax) > 0 {
		out.Today.TempMaxC = &forecast.Daily.Temperature2mMax[0]
	}
	if len(forecast.Daily.Temperature2mMin) > 0 {
		out.Today.TempMinC = &forecast.Daily.Temperature2mMin[0]
	}
	if len(forecast.Daily.WeatherCode) > 0 {
		out.Today.WeatherCode = &forecast.Daily.WeatherCode[0]
	}

	data, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("encoding result: %w", err)
	}
	return string(data), nil
}

type geocodingResponse struct {
	Results []struct {
		Name        string  `json:"name"`
		Latitude    float64 `json:"latitude"`
		Longitude   float64 `json:"longitude"`
		Country     string  `json:"country"`
		CountryCode string  `json:"country_code"`
	} `json:"results"`
}

func (w *Weather) resolveCoords(ctx context.Context, in weatherInput) (float64, float64, string, error) {
	if in.Latitude != nil && in.Longitude != nil {
		name := in.Location
		if name == "" {
			name = fmt.Sprintf("%.4f,%.4f", *in.Latitude, *in.Longitude)
		}
		return *in.Latitude, *in.Longitude, name, nil
	}

	if in.Location == "" {
		return 0, 0, "", fmt.Errorf("input must include location or latitude and longitude")
	}

	q := url.Values{
		"name":     {in.Location},
		"count":    {"1"},
		"language": {"en"},
		"format":   {"json"},
	}

	var geo geocodingResponse
	if err := w.getJSON(ctx, w.geocodingURL+"?"+q.Encode(), &geo); err != nil {
		return 0, 0, "", fmt.Errorf("geocoding %q: %w", in.Location, err)
	}
	if len(geo.Results) == 0 {
		return 0, 0, "", fmt.Errorf("no geocoding result for location %q", in.Location)
	}

	top := geo.Results[0]
	country := top.CountryCode
	if country == "" {
		country = top.Country
	}
	resolved := top.Name
	if country != "" {
		resolved = top.Name + ", " + country
	}
	return top.Latitude, top.Longitude, resolved, nil
}

type forecastResponse struct {
	Current struct {
		Temperature2m *float64 `json:"temperature_2m"`
		WeatherCode   *int     `json:"weather_code"`
		WindSpeed10m  *float64 `json:"wind_speed_10m"`
	} `json:"current"`
	Daily struct {
		Temperature2mMax []float64 `json:"temperature_2m_max"`
		Temperature2mMin []float64 `json:"temperature_2m_min"`
		WeatherCode      []int     `json:"weather_code"`
	} `json:"daily"`
}

func (w *Weather) fetchForecast(ctx context.Context, lat, lon float64) (*forecastResponse, error) {
	q := url.Values{
		"latitude":      {strconv.FormatFloat(lat, 'f', -1, 64)},
		"longitude":     {strconv.FormatFloat(lon, 'f', -1, 64)},
		"current":       {"temperature_2m,weather_code,wind_speed_10m"},
		"daily":         {"temperature_2m_max,temperature_2m_min,weather_code"},
		"timezone":      {"auto"},
		"forecast_days": {"1"},
	}

	var forecast forecastResponse
	if err := w.getJSON(ctx, w.forecastURL+"?"+q.Encode(), &forecast); err != nil {
		return nil, fmt.Errorf("fetching forecast: %w", err)
	}
	return &forecast, nil
}

func (w *Weather) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
