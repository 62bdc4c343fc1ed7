package weather

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"github.com/i474232898/weather-now/internal/geo"
	"github.com/i474232898/weather-now/internal/i18n"
	"github.com/i474232898/weather-now/internal/telemetry"
)

// ServiceConfig holds the optional collaborators of a Service.
type ServiceConfig struct {
	Reverse ReverseGeocoder
	Forward ForwardGeocoder
	Lang    language.Tag
	Hourly  HourlyPolicy
	Logger  *zap.Logger
	Now     func() time.Time
}

// Service is the single entry point for weather lookups. It fetches a
// provider payload, resolves the place name and returns a validated snapshot.
type Service struct {
	source  Source
	reverse ReverseGeocoder
	forward ForwardGeocoder
	lang    language.Tag
	hourly  HourlyPolicy
	logger  *zap.Logger
	now     func() time.Time
}

// NewService creates a new Service.
func NewService(source Source, cfg ServiceConfig) *Service {
	s := &Service{
		source:  source,
		reverse: cfg.Reverse,
		forward: cfg.Forward,
		lang:    cfg.Lang,
		hourly:  cfg.Hourly,
		logger:  cfg.Logger,
		now:     cfg.Now,
	}
	if s.lang == (language.Tag{}) {
		s.lang = i18n.Default
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// ProviderName returns the name of the configured source.
func (s *Service) ProviderName() string {
	if s.source == nil {
		return ""
	}
	return s.source.Name()
}

// GetWeatherData returns the snapshot for a location. A non-blank nameHint is
// used verbatim as the place name; otherwise the reverse geocoder is asked
// concurrently with the provider fetch. Provider errors are returned unchanged
// and nothing is retried.
func (s *Service) GetWeatherData(ctx context.Context, coords geo.Coordinates, nameHint string) (WeatherSnapshot, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "weather.GetWeatherData")
	defer span.End()

	if err := coords.Validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return WeatherSnapshot{}, err
	}
	coords = coords.Round()
	span.SetAttributes(attribute.String("coords", coords.Key()))

	if s.source == nil {
		err := fmt.Errorf("%w: no weather source configured", ErrConfig)
		span.SetStatus(codes.Error, err.Error())
		return WeatherSnapshot{}, err
	}

	var (
		payload Payload
		name    = nameHint
	)
	if strings.TrimSpace(name) == "" {
		name = ""
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.source.Fetch(gctx, coords)
		if err != nil {
			return err
		}
		payload = p
		return nil
	})
	if name == "" && s.reverse != nil {
		g.Go(func() error {
			name = s.reverseName(gctx, coords)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Warn("weather fetch failed",
			zap.String("provider", s.source.Name()),
			zap.String("coords", coords.Key()),
			zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return WeatherSnapshot{}, err
	}

	snap, err := Normalize(payload, NormalizeOptions{
		Now:         s.now(),
		Lang:        s.lang,
		Hourly:      s.hourly,
		Coordinates: coords,
		Name:        name,
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return WeatherSnapshot{}, err
	}
	if err := ValidateSnapshot(snap); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return WeatherSnapshot{}, err
	}

	s.logger.Debug("weather snapshot ready",
		zap.String("provider", snap.Provider),
		zap.String("location", snap.Location),
		zap.Int("hourly", len(snap.HourlyForecast)))
	return snap, nil
}

// reverseName never fails: errors are logged and read as "no name".
func (s *Service) reverseName(ctx context.Context, c geo.Coordinates) string {
	name, err := s.reverse.ReverseGeocode(ctx, c)
	if err != nil {
		s.logger.Info("reverse geocoding failed", zap.String("coords", c.Key()), zap.Error(err))
		return ""
	}
	return strings.TrimSpace(name)
}

// Geocode resolves a free-text place query to coordinates.
func (s *Service) Geocode(ctx context.Context, query string) (geo.Coordinates, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "weather.Geocode")
	defer span.End()

	if s.forward == nil {
		return geo.Coordinates{}, fmt.Errorf("%w: no forward geocoder configured", ErrConfig)
	}
	c, err := s.forward.Geocode(ctx, strings.TrimSpace(query))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return geo.Coordinates{}, err
	}
	if err := c.Validate(); err != nil {
		return geo.Coordinates{}, &SchemaError{Provider: "geocoder", Details: err.Error()}
	}
	return c.Round(), nil
}
