package providers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kelvins/geocoder"
	"go.uber.org/zap"

	"github.com/i474232898/weather-now/internal/common"
	"github.com/i474232898/weather-now/internal/geo"
	"github.com/i474232898/weather-now/internal/weather"
)

// geocoder keeps its key in a package variable.
var googleKeyMu sync.Mutex

// GoogleGeocoder reverse geocodes through the Google Maps Geocoding API.
type GoogleGeocoder struct {
	apiKey  string
	limiter *Limiter
	logger  *zap.Logger
	now     func() time.Time
	reverse func(geocoder.Location) ([]geocoder.Address, error)
}

// NewGoogleGeocoder creates a GoogleGeocoder. A nil limiter gets the default budget.
func NewGoogleGeocoder(apiKey string, limiter *Limiter, logger *zap.Logger) *GoogleGeocoder {
	if limiter == nil {
		limiter = NewLimiter(DefaultRateLimit, DefaultRateWindow)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GoogleGeocoder{
		apiKey:  apiKey,
		limiter: limiter,
		logger:  logger,
		now:     time.Now,
		reverse: geocoder.GeocodingReverse,
	}
}

type googleResult struct {
	addrs []geocoder.Address
	err   error
}

// ReverseGeocode names the first result: district, city, county, state, then
// the formatted address.
func (g *GoogleGeocoder) ReverseGeocode(ctx context.Context, c geo.Coordinates) (string, error) {
	if g.apiKey == "" {
		return "", fmt.Errorf("%w: google geocoder api key is not set", weather.ErrConfig)
	}
	if !g.limiter.Acquire(g.now()) {
		return "", weather.ErrRateLimited
	}

	done := make(chan googleResult, 1)
	go func() {
		googleKeyMu.Lock()
		geocoder.ApiKey = g.apiKey
		addrs, err := g.reverse(geocoder.Location{Latitude: c.Lat, Longitude: c.Lon})
		googleKeyMu.Unlock()
		done <- googleResult{addrs: addrs, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-done:
		if res.err != nil {
			g.logger.Debug("google reverse geocoding failed", zap.Error(res.err))
			return "", fmt.Errorf("%w: google: %v", weather.ErrUnavailable, res.err)
		}
		if len(res.addrs) == 0 {
			return "", nil
		}
		a := res.addrs[0]
		return common.FirstNonEmpty(a.District, a.City, a.County, a.State, a.FormattedAddress), nil
	}
}
