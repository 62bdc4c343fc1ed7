package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/i474232898/weather-now/internal/telemetry"
	"github.com/i474232898/weather-now/internal/weather"
)

// DefaultUserAgent identifies the service to upstream APIs. Nominatim rejects
// requests without one.
const DefaultUserAgent = "weather-now/1.0 (+https://github.com/i474232898/weather-now)"

// ClientConfig configures a provider Client.
type ClientConfig struct {
	Name    string
	BaseURL string
	Timeout time.Duration

	// APIKey is sent under KeyParam on every request. When RequiresKey is set
	// and APIKey is empty, every request fails with weather.ErrConfig.
	APIKey      string
	KeyParam    string
	RequiresKey bool

	UserAgent string
	Headers   map[string]string

	// Limiter may be shared between clients of one host. Nil gets a default one.
	Limiter *Limiter
	// Breaker may be shared as well. Nil gets one that opens after five
	// consecutive failures for thirty seconds.
	Breaker *gobreaker.CircuitBreaker

	Logger *zap.Logger
	Now    func() time.Time
}

// Client performs rate limited, circuit protected GET requests against one
// provider and decodes validated JSON bodies. It never retries.
type Client struct {
	name        string
	apiKey      string
	keyParam    string
	requiresKey bool
	http        *resty.Client
	limiter     *Limiter
	circuit     *gobreaker.CircuitBreaker
	logger      *zap.Logger
	now         func() time.Time
}

// NewBreaker returns the circuit breaker settings used for provider hosts.
func NewBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
}

// NewClient creates a provider client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.KeyParam == "" {
		cfg.KeyParam = "appid"
	}
	if cfg.Limiter == nil {
		cfg.Limiter = NewLimiter(DefaultRateLimit, DefaultRateWindow)
	}
	if cfg.Breaker == nil {
		cfg.Breaker = NewBreaker(cfg.Name)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	hc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeaders(cfg.Headers)

	return &Client{
		name:        cfg.Name,
		apiKey:      cfg.APIKey,
		keyParam:    cfg.KeyParam,
		requiresKey: cfg.RequiresKey,
		http:        hc,
		limiter:     cfg.Limiter,
		circuit:     cfg.Breaker,
		logger:      cfg.Logger.With(zap.String("provider", cfg.Name)),
		now:         cfg.Now,
	}
}

// Name returns the provider name used in errors and logs.
func (c *Client) Name() string { return c.name }

// Limiter returns the call budget of this client.
func (c *Client) Limiter() *Limiter { return c.limiter }

// Request GETs endpoint with params, decodes the JSON body into out and
// validates it. It fails with weather.ErrRateLimited, weather.ErrConfig,
// weather.ErrNotFound, weather.ErrUnavailable, *weather.HTTPError or
// *weather.SchemaError.
func (c *Client) Request(ctx context.Context, endpoint string, params map[string]string, out any) error {
	ctx, span := telemetry.Tracer().Start(ctx, "provider.Request")
	defer span.End()
	span.SetAttributes(
		attribute.String("provider", c.name),
		attribute.String("endpoint", endpoint),
	)

	err := c.request(ctx, endpoint, params, out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (c *Client) request(ctx context.Context, endpoint string, params map[string]string, out any) error {
	if !c.limiter.Allow(c.now()) {
		return weather.ErrRateLimited
	}
	if c.requiresKey && c.apiKey == "" {
		return fmt.Errorf("%w: %s api key is not set", weather.ErrConfig, c.name)
	}
	if c.circuit.State() == gobreaker.StateOpen {
		return fmt.Errorf("%w: %s", weather.ErrUnavailable, c.name)
	}
	if !c.limiter.Acquire(c.now()) {
		return weather.ErrRateLimited
	}

	query := make(map[string]string, len(params)+1)
	for k, v := range params {
		query[k] = v
	}
	if c.apiKey != "" {
		query[c.keyParam] = c.apiKey
	}

	c.logger.Debug("provider request", zap.String("endpoint", endpoint))
	started := c.now()

	result, err := c.circuit.Execute(func() (interface{}, error) {
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(query).
			Get(endpoint)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode() >= http.StatusInternalServerError {
			return nil, &weather.HTTPError{Provider: c.name, Status: resp.StatusCode()}
		}
		return resp, nil
	})
	if err != nil {
		return c.classify(ctx, err)
	}

	resp := result.(*resty.Response)
	c.logger.Debug("provider response",
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("took", c.now().Sub(started)))

	switch status := resp.StatusCode(); {
	case status == http.StatusTooManyRequests:
		// Upstream throttling: report it, and hold local calls until the window rolls.
		c.limiter.Saturate(c.now())
		return &weather.HTTPError{Provider: c.name, Status: status}
	case status == http.StatusNotFound:
		return weather.ErrNotFound
	case status < 200 || status >= 300:
		return &weather.HTTPError{Provider: c.name, Status: status}
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return &weather.SchemaError{Provider: c.name, Details: err.Error()}
	}
	return weather.ValidateShape(c.name, out)
}

func (c *Client) classify(ctx context.Context, err error) error {
	var httpErr *weather.HTTPError
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return fmt.Errorf("%w: %s", weather.ErrUnavailable, c.name)
	case errors.As(err, &httpErr):
		return httpErr
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		c.logger.Warn("provider transport failure", zap.Error(err))
		return fmt.Errorf("%w: %s: %v", weather.ErrUnavailable, c.name, err)
	}
}
