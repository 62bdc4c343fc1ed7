package weather

import (
	"context"

	"github.com/i474232898/weather-now/internal/geo"
)

// Payload is a validated provider response. It is a closed union: every
// variant lives in this package and has exactly one mapping in Normalize.
type Payload interface {
	providerName() string
}

// Source fetches the payload for a location from one backend
// (e.g. OpenWeatherMap, Open-Meteo).
type Source interface {
	Name() string
	Fetch(ctx context.Context, c geo.Coordinates) (Payload, error)
}

// ReverseGeocoder turns coordinates into a place name. An empty name with a nil
// error means "no name available", which is a normal outcome.
type ReverseGeocoder interface {
	ReverseGeocode(ctx context.Context, c geo.Coordinates) (string, error)
}

// ForwardGeocoder turns a place query into coordinates.
type ForwardGeocoder interface {
	Geocode(ctx context.Context, query string) (geo.Coordinates, error)
}
