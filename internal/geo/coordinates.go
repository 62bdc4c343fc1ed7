package geo

import (
	"fmt"
	"math"
)

// Coordinates is a WGS84 point. Values are treated as immutable.
type Coordinates struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `json:"lon" validate:"gte=-180,lte=180"`
}

// precision is the number of decimal places kept by Round (~11m).
const precision = 1e4

// Round returns c rounded to 4 decimal places so GPS jitter does not produce
// distinct cache keys. Rounding is half-up and idempotent.
func (c Coordinates) Round() Coordinates {
	return Coordinates{
		Lat: roundHalfUp(c.Lat),
		Lon: roundHalfUp(c.Lon),
	}
}

func roundHalfUp(v float64) float64 {
	return math.Floor(v*precision+0.5) / precision
}

// Validate reports whether the coordinates are within range.
func (c Coordinates) Validate() error {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) {
		return fmt.Errorf("%w: NaN coordinate", ErrInvalidCoordinates)
	}
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidCoordinates, c.Lat)
	}
	if c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidCoordinates, c.Lon)
	}
	return nil
}

// Key returns a canonical key for indexing snapshots by location.
func (c Coordinates) Key() string {
	r := c.Round()
	return fmt.Sprintf("%.4f,%.4f", r.Lat, r.Lon)
}

// String is the human form used as a last-resort place name.
func (c Coordinates) String() string {
	return fmt.Sprintf("%.4f, %.4f", c.Lat, c.Lon)
}
