package providers

import (
	"context"
	"strconv"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"github.com/i474232898/weather-now/internal/geo"
	"github.com/i474232898/weather-now/internal/weather"
)

// OpenWeatherBaseURL is the public OpenWeatherMap API host.
const OpenWeatherBaseURL = "https://api.openweathermap.org"

// NewOpenWeatherClient returns a Client that requires an API key sent as appid.
func NewOpenWeatherClient(cfg ClientConfig) *Client {
	if cfg.Name == "" {
		cfg.Name = "openweathermap"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = OpenWeatherBaseURL
	}
	cfg.KeyParam = "appid"
	cfg.RequiresKey = true
	return NewClient(cfg)
}

// OpenWeatherSource fetches current conditions and the 5 day / 3 hour forecast.
type OpenWeatherSource struct {
	client *Client
	lang   string
}

// NewOpenWeatherSource creates a source on top of an OpenWeatherMap client.
func NewOpenWeatherSource(client *Client, lang language.Tag) *OpenWeatherSource {
	return &OpenWeatherSource{client: client, lang: openWeatherLang(lang)}
}

func (s *OpenWeatherSource) Name() string { return s.client.Name() }

// Fetch requests both endpoints concurrently. Both must succeed.
func (s *OpenWeatherSource) Fetch(ctx context.Context, c geo.Coordinates) (weather.Payload, error) {
	params := coordParams(c)
	params["units"] = "metric"
	params["lang"] = s.lang

	var (
		current  weather.OWCurrent
		forecast weather.OWForecast
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.client.Request(gctx, "/data/2.5/weather", params, &current)
	})
	g.Go(func() error {
		return s.client.Request(gctx, "/data/2.5/forecast", params, &forecast)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return weather.OpenWeatherPayload{Current: current, Forecast: forecast}, nil
}

// openWeatherLang maps a language tag to OpenWeatherMap's lang codes, which
// use "kr" for Korean.
func openWeatherLang(tag language.Tag) string {
	base, _ := tag.Base()
	if base.String() == "ko" {
		return "kr"
	}
	return base.String()
}

func coordParams(c geo.Coordinates) map[string]string {
	return map[string]string{
		"lat": strconv.FormatFloat(c.Lat, 'f', 4, 64),
		"lon": strconv.FormatFloat(c.Lon, 'f', 4, 64),
	}
}
