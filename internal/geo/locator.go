package geo

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Locator resolves the position of a client. Implementations return rounded
// coordinates or one of the ErrGeolocation* errors.
type Locator interface {
	Locate(ctx context.Context, clientIP string) (Coordinates, error)
}

// IPLocatorConfig configures an IPLocator.
type IPLocatorConfig struct {
	BaseURL string
	Enabled bool
	Timeout time.Duration
}

// IPLocator looks up an approximate position for an IP address using an
// ip-api.com compatible JSON endpoint.
type IPLocator struct {
	client  *resty.Client
	enabled bool
	timeout time.Duration
	logger  *zap.Logger
}

// NewIPLocator creates an IP based locator.
func NewIPLocator(cfg IPLocatorConfig, logger *zap.Logger) *IPLocator {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &IPLocator{
		client:  client,
		enabled: cfg.Enabled,
		timeout: timeout,
		logger:  logger,
	}
}

type ipAPIResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Locate implements Locator.
func (l *IPLocator) Locate(ctx context.Context, clientIP string) (Coordinates, error) {
	if !l.enabled {
		return Coordinates{}, ErrGeolocationDenied
	}
	if net.ParseIP(clientIP) == nil {
		return Coordinates{}, ErrGeolocationUnsupported
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	var payload ipAPIResponse
	resp, err := l.client.R().
		SetContext(ctx).
		SetQueryParam("fields", "status,message,lat,lon").
		SetResult(&payload).
		Get("/json/" + clientIP)
	if err != nil {
		if isTimeout(err) {
			return Coordinates{}, ErrGeolocationTimeout
		}
		return Coordinates{}, fmt.Errorf("%w: %v", ErrGeolocationUnavailable, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return Coordinates{}, fmt.Errorf("%w: status %d", ErrGeolocationUnavailable, resp.StatusCode())
	}
	if payload.Status != "success" {
		l.logger.Debug("ip lookup failed", zap.String("ip", clientIP), zap.String("reason", payload.Message))
		return Coordinates{}, fmt.Errorf("%w: %s", ErrGeolocationUnavailable, payload.Message)
	}

	c := Coordinates{Lat: payload.Lat, Lon: payload.Lon}
	if err := c.Validate(); err != nil {
		return Coordinates{}, fmt.Errorf("%w: %v", ErrGeolocationUnavailable, err)
	}
	return c.Round(), nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// StaticLocator always returns the same position.
type StaticLocator struct {
	Coordinates Coordinates
}

// Locate implements Locator.
func (s StaticLocator) Locate(ctx context.Context, _ string) (Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return Coordinates{}, ErrGeolocationTimeout
	}
	return s.Coordinates.Round(), nil
}

type cachedFix struct {
	coords Coordinates
	at     time.Time
}

// CachedLocator reuses a previous fix for the same client while it is younger
// than maxAge. Errors are never cached.
type CachedLocator struct {
	next   Locator
	maxAge time.Duration
	now    func() time.Time

	mu    sync.Mutex
	fixes map[string]cachedFix
}

// NewCachedLocator wraps next with a maximum-age cache.
func NewCachedLocator(next Locator, maxAge time.Duration) *CachedLocator {
	return &CachedLocator{
		next:   next,
		maxAge: maxAge,
		now:    time.Now,
		fixes:  make(map[string]cachedFix),
	}
}

// Locate implements Locator.
func (c *CachedLocator) Locate(ctx context.Context, clientIP string) (Coordinates, error) {
	now := c.now()

	c.mu.Lock()
	fix, ok := c.fixes[clientIP]
	c.mu.Unlock()
	if ok && now.Sub(fix.at) <= c.maxAge {
		return fix.coords, nil
	}

	coords, err := c.next.Locate(ctx, clientIP)
	if err != nil {
		return Coordinates{}, err
	}

	c.mu.Lock()
	c.sweep(now)
	c.fixes[clientIP] = cachedFix{coords: coords, at: now}
	c.mu.Unlock()
	return coords, nil
}

// sweep drops fixes older than maxAge. c.mu must be held.
func (c *CachedLocator) sweep(now time.Time) {
	for ip, fix := range c.fixes {
		if now.Sub(fix.at) > c.maxAge {
			delete(c.fixes, ip)
		}
	}
}
