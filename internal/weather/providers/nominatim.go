package providers

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/text/language"

	"github.com/i474232898/weather-now/internal/common"
	"github.com/i474232898/weather-now/internal/geo"
	"github.com/i474232898/weather-now/internal/weather"
)

// NominatimBaseURL is the public OpenStreetMap Nominatim host.
const NominatimBaseURL = "https://nominatim.openstreetmap.org"

type nominatimAddress struct {
	City    string `json:"city"`
	Town    string `json:"town"`
	Village string `json:"village"`
	County  string `json:"county"`
	State   string `json:"state"`
	Borough string `json:"borough"`
	Suburb  string `json:"suburb"`
}

type nominatimReverse struct {
	DisplayName string           `json:"display_name"`
	Address     nominatimAddress `json:"address"`
}

type nominatimPlace struct {
	Lat         string `json:"lat" validate:"required,numeric"`
	Lon         string `json:"lon" validate:"required,numeric"`
	DisplayName string `json:"display_name"`
}

// NominatimGeocoder resolves names through OpenStreetMap. Keyless, but a
// User-Agent is required.
type NominatimGeocoder struct {
	client *Client
	lang   string
}

// NewNominatimClient returns a keyless Client for Nominatim. Nominatim asks
// for at most one request per second, so callers usually pass a tight Limiter.
func NewNominatimClient(cfg ClientConfig) *Client {
	if cfg.Name == "" {
		cfg.Name = "nominatim"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = NominatimBaseURL
	}
	cfg.RequiresKey = false
	return NewClient(cfg)
}

func NewNominatimGeocoder(client *Client, lang language.Tag) *NominatimGeocoder {
	base, _ := lang.Base()
	return &NominatimGeocoder{client: client, lang: base.String()}
}

// ReverseGeocode returns "<locality> <borough> <suburb>" with blanks skipped.
// An empty name means the place has no usable address.
func (g *NominatimGeocoder) ReverseGeocode(ctx context.Context, c geo.Coordinates) (string, error) {
	params := coordParams(c)
	params["format"] = "json"
	params["addressdetails"] = "1"
	params["accept-language"] = g.lang

	var out nominatimReverse
	if err := g.client.Request(ctx, "/reverse", params, &out); err != nil {
		return "", err
	}
	a := out.Address
	locality := common.FirstNonEmpty(a.City, a.Town, a.Village, a.County, a.State)
	return common.JoinNonEmpty(" ", locality, a.Borough, a.Suburb), nil
}

// Geocode returns the coordinates of the best match for query.
func (g *NominatimGeocoder) Geocode(ctx context.Context, query string) (geo.Coordinates, error) {
	params := map[string]string{
		"q":               query,
		"format":          "json",
		"limit":           "1",
		"accept-language": g.lang,
	}
	var places []nominatimPlace
	if err := g.client.Request(ctx, "/search", params, &places); err != nil {
		return geo.Coordinates{}, err
	}
	if len(places) == 0 {
		return geo.Coordinates{}, weather.ErrNotFound
	}
	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return geo.Coordinates{}, &weather.SchemaError{Provider: g.client.Name(), Details: fmt.Sprintf("lat: %v", err)}
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return geo.Coordinates{}, &weather.SchemaError{Provider: g.client.Name(), Details: fmt.Sprintf("lon: %v", err)}
	}
	return geo.Coordinates{Lat: lat, Lon: lon}, nil
}
