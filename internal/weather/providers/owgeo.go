package providers

import (
	"context"

	"golang.org/x/text/language"

	"github.com/i474232898/weather-now/internal/common"
	"github.com/i474232898/weather-now/internal/geo"
	"github.com/i474232898/weather-now/internal/weather"
)

type owGeoEntry struct {
	Name       string            `json:"name"`
	LocalNames map[string]string `json:"local_names"`
	Lat        float64           `json:"lat" validate:"gte=-90,lte=90"`
	Lon        float64           `json:"lon" validate:"gte=-180,lte=180"`
	Country    string            `json:"country"`
	State      string            `json:"state"`
}

// OpenWeatherGeocoder uses the OpenWeatherMap geocoding API. It shares the
// OpenWeatherMap client, and therefore its key and call budget.
type OpenWeatherGeocoder struct {
	client *Client
	lang   string
}

func NewOpenWeatherGeocoder(client *Client, lang language.Tag) *OpenWeatherGeocoder {
	base, _ := lang.Base()
	return &OpenWeatherGeocoder{client: client, lang: base.String()}
}

// ReverseGeocode prefers the localized name, then the state for Korean
// results, then the default name.
func (g *OpenWeatherGeocoder) ReverseGeocode(ctx context.Context, c geo.Coordinates) (string, error) {
	params := coordParams(c)
	params["limit"] = "1"

	var entries []owGeoEntry
	if err := g.client.Request(ctx, "/geo/1.0/reverse", params, &entries); err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", nil
	}
	e := entries[0]
	state := ""
	if e.Country == "KR" {
		state = e.State
	}
	return common.FirstNonEmpty(e.LocalNames[g.lang], state, e.Name), nil
}

// Geocode resolves a place query with the direct geocoding endpoint.
func (g *OpenWeatherGeocoder) Geocode(ctx context.Context, query string) (geo.Coordinates, error) {
	params := map[string]string{"q": query, "limit": "1"}

	var entries []owGeoEntry
	if err := g.client.Request(ctx, "/geo/1.0/direct", params, &entries); err != nil {
		return geo.Coordinates{}, err
	}
	if len(entries) == 0 {
		return geo.Coordinates{}, weather.ErrNotFound
	}
	return geo.Coordinates{Lat: entries[0].Lat, Lon: entries[0].Lon}, nil
}
