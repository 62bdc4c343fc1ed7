package main

import (
	"context"
	"errors"
	"io"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	httpapi "github.com/i474232898/weather-now/internal/api/http"
	"github.com/i474232898/weather-now/internal/config"
	"github.com/i474232898/weather-now/internal/favorites"
	"github.com/i474232898/weather-now/internal/geo"
	"github.com/i474232898/weather-now/internal/i18n"
	"github.com/i474232898/weather-now/internal/logging"
	"github.com/i474232898/weather-now/internal/scheduler"
	"github.com/i474232898/weather-now/internal/store"
	"github.com/i474232898/weather-now/internal/telemetry"
	"github.com/i474232898/weather-now/internal/weather"
	"github.com/i474232898/weather-now/internal/weather/providers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	lg, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, "weather-now", cfg.ZipkinURL)
	if err != nil {
		lg.Fatal("failed to set up tracing", zap.Error(err))
	}

	lang := i18n.Parse(cfg.LangDefault)
	hourly, err := weather.ParseHourlyPolicy(cfg.HourlyPolicy)
	if err != nil {
		lg.Fatal("invalid hourly policy", zap.Error(err))
	}

	service := newWeatherService(cfg, lang, hourly, lg)
	lg.Info("weather provider selected", zap.String("provider", service.ProviderName()))

	backend, err := openFavoritesBackend(cfg, lg)
	if err != nil {
		lg.Fatal("failed to open favorites storage", zap.Error(err))
	}
	defer func() {
		if c, ok := backend.(io.Closer); ok {
			_ = c.Close()
		}
	}()

	favs, err := favorites.NewStore(ctx, backend, favorites.Options{
		Key:    cfg.FavoritesKey,
		Logger: lg.Named("favorites"),
	})
	if err != nil {
		lg.Fatal("failed to load favorites", zap.Error(err))
	}
	go func() {
		if err := favs.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			lg.Warn("favorites watcher stopped", zap.Error(err))
		}
	}()

	snapshots := store.NewMemoryStore(cfg.SnapshotMaxHistory, 24*time.Hour)

	if cfg.PrefetchInterval > 0 {
		sched := scheduler.New(favs, snapshots, service, cfg.PrefetchInterval, lg.Named("scheduler"))
		if err := sched.Start(); err != nil {
			lg.Fatal("failed to start scheduler", zap.Error(err))
		}
		defer sched.Stop()
	}

	locator := geo.NewCachedLocator(geo.NewIPLocator(geo.IPLocatorConfig{
		BaseURL: cfg.IPAPIBaseURL,
		Enabled: cfg.GeolocationEnabled,
		Timeout: cfg.GeolocationTimeout,
	}, lg.Named("geo")), cfg.GeolocationMaxAge)

	app := fiber.New(fiber.Config{
		AppName:               "weather-now",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler(lang, lg.Named("http")),
	})
	app.Use(logger.New())
	app.Use(recover.New())

	done := make(chan struct{})
	httpapi.RegisterRoutes(app, httpapi.Deps{
		Weather:   service,
		Cache:     snapshots,
		CacheTTL:  cfg.SnapshotTTL,
		Favorites: favs,
		Locator:   locator,
		Logger:    lg.Named("http"),
		Done:      done,
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			lg.Error("fiber server stopped", zap.Error(err))
		}
	}()
	lg.Info("listening", zap.String("port", cfg.Port))

	<-ctx.Done()
	close(done)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		lg.Error("error during shutdown", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		lg.Warn("error flushing traces", zap.Error(err))
	}
}

// newWeatherService builds the provider clients. Clients of one host share
// a call budget and a circuit breaker.
func newWeatherService(cfg *config.AppConfig, lang language.Tag, hourly weather.HourlyPolicy, lg *zap.Logger) *weather.Service {
	limiter := func() *providers.Limiter {
		return providers.NewLimiter(cfg.RateLimitCalls, cfg.RateLimitWindow)
	}

	owClient := providers.NewOpenWeatherClient(providers.ClientConfig{
		BaseURL: cfg.OpenWeatherBaseURL,
		Timeout: cfg.HTTPTimeout,
		APIKey:  cfg.OpenWeatherAPIKey,
		Limiter: limiter(),
		Logger:  lg,
	})
	nominatim := providers.NewNominatimGeocoder(providers.NewNominatimClient(providers.ClientConfig{
		BaseURL: cfg.NominatimBaseURL,
		Timeout: cfg.HTTPTimeout,
		Limiter: providers.NewLimiter(60, time.Minute),
		Logger:  lg,
	}), lang)
	owGeo := providers.NewOpenWeatherGeocoder(owClient, lang)

	var source weather.Source
	switch cfg.WeatherProvider {
	case "openweather":
		source = providers.NewOpenWeatherSource(owClient, lang)
	default:
		source = providers.NewOpenMeteoSource(providers.NewOpenMeteoClient(providers.ClientConfig{
			BaseURL: cfg.OpenMeteoBaseURL,
			Timeout: cfg.HTTPTimeout,
			Limiter: limiter(),
			Logger:  lg,
		}))
	}

	var reverse weather.ReverseGeocoder
	switch cfg.ReverseGeocoder {
	case "nominatim":
		reverse = nominatim
	case "openweather":
		reverse = owGeo
	case "google":
		reverse = providers.NewGoogleGeocoder(cfg.GoogleGeocoderAPIKey, limiter(), lg)
	}

	var forward weather.ForwardGeocoder = nominatim
	if cfg.OpenWeatherAPIKey != "" {
		forward = owGeo
	}

	return weather.NewService(source, weather.ServiceConfig{
		Reverse: reverse,
		Forward: forward,
		Lang:    lang,
		Hourly:  hourly,
		Logger:  lg.Named("weather"),
	})
}

func openFavoritesBackend(cfg *config.AppConfig, lg *zap.Logger) (favorites.Backend, error) {
	switch cfg.FavoritesBackend {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		return favorites.NewRedisBackend(client, lg.Named("redis")), nil
	case "memory":
		return favorites.NewMemoryKV().Handle(), nil
	default:
		return favorites.OpenSQLite(cfg.FavoritesDBPath, cfg.FavoritesPollInterval, lg.Named("sqlite"))
	}
}
