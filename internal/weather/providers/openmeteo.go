package providers

import (
	"context"

	"github.com/i474232898/weather-now/internal/geo"
	"github.com/i474232898/weather-now/internal/weather"
)

// OpenMeteoBaseURL is the public Open-Meteo API host. No key is needed.
const OpenMeteoBaseURL = "https://api.open-meteo.com"

// NewOpenMeteoClient returns a keyless Client for Open-Meteo.
func NewOpenMeteoClient(cfg ClientConfig) *Client {
	if cfg.Name == "" {
		cfg.Name = "openmeteo"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = OpenMeteoBaseURL
	}
	cfg.RequiresKey = false
	cfg.APIKey = ""
	return NewClient(cfg)
}

// OpenMeteoSource fetches hourly and daily series plus current conditions in
// one call, in the location's own timezone.
type OpenMeteoSource struct {
	client *Client
}

func NewOpenMeteoSource(client *Client) *OpenMeteoSource {
	return &OpenMeteoSource{client: client}
}

func (s *OpenMeteoSource) Name() string { return s.client.Name() }

func (s *OpenMeteoSource) Fetch(ctx context.Context, c geo.Coordinates) (weather.Payload, error) {
	params := coordParams(c)
	params["hourly"] = "temperature_2m,apparent_temperature,weathercode,relativehumidity_2m,windspeed_10m"
	params["daily"] = "temperature_2m_max,temperature_2m_min"
	params["current_weather"] = "true"
	params["timezone"] = "auto"
	params["windspeed_unit"] = "ms"
	params["forecast_days"] = "2"

	var payload weather.OpenMeteoPayload
	if err := s.client.Request(ctx, "/v1/forecast", params, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}
