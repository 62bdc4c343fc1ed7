package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port        string `validate:"required,numeric"`
	LogLevel    string `validate:"oneof=debug info warn error"`
	LangDefault string `validate:"oneof=ko en"`

	// Weather provider selection and credentials.
	WeatherProvider    string `validate:"oneof=openmeteo openweather"`
	OpenWeatherAPIKey  string `validate:"required_if=WeatherProvider openweather"`
	OpenWeatherBaseURL string `validate:"required,url"`
	OpenMeteoBaseURL   string `validate:"required,url"`
	HourlyPolicy       string `validate:"oneof=default auto from_now synoptic"`

	// Provider client behaviour.
	RateLimitCalls  int           `validate:"gte=1"`
	RateLimitWindow time.Duration `validate:"gte=1s"`
	HTTPTimeout     time.Duration `validate:"gt=0"`

	// Place names.
	ReverseGeocoder      string `validate:"oneof=nominatim openweather google none"`
	NominatimBaseURL     string `validate:"required,url"`
	GoogleGeocoderAPIKey string `validate:"required_if=ReverseGeocoder google"`

	// Favorites persistence.
	FavoritesBackend      string        `validate:"oneof=sqlite redis memory"`
	FavoritesDBPath       string        `validate:"required_if=FavoritesBackend sqlite"`
	FavoritesKey          string        `validate:"required"`
	FavoritesPollInterval time.Duration `validate:"gt=0"`
	RedisAddr             string        `validate:"required_if=FavoritesBackend redis"`
	RedisDB               int           `validate:"gte=0"`

	// Snapshot cache and prefetch.
	SnapshotTTL        time.Duration `validate:"gte=0"`
	SnapshotMaxHistory int           `validate:"gte=0"`
	PrefetchInterval   time.Duration `validate:"gte=0"`

	// Coordinate provider.
	GeolocationEnabled bool
	IPAPIBaseURL       string        `validate:"required,url"`
	GeolocationTimeout time.Duration `validate:"gt=0"`
	GeolocationMaxAge  time.Duration `validate:"gte=0"`

	// ZipkinURL enables trace export when set.
	ZipkinURL string `validate:"omitempty,url"`
}

var validate = validator.New()

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	return FromEnv()
}

// FromEnv builds the configuration from the process environment only.
func FromEnv() (*AppConfig, error) {
	cfg := &AppConfig{
		Port:        getenvDefault("PORT", "8080"),
		LogLevel:    strings.ToLower(getenvDefault("LOG_LEVEL", "info")),
		LangDefault: strings.ToLower(getenvDefault("LANG_DEFAULT", "ko")),

		WeatherProvider:    strings.ToLower(getenvDefault("WEATHER_PROVIDER", "openmeteo")),
		OpenWeatherAPIKey:  os.Getenv("OPENWEATHER_API_KEY"),
		OpenWeatherBaseURL: getenvDefault("OPENWEATHER_BASE_URL", "https://api.openweathermap.org"),
		OpenMeteoBaseURL:   getenvDefault("OPENMETEO_BASE_URL", "https://api.open-meteo.com"),
		HourlyPolicy:       strings.ToLower(getenvDefault("HOURLY_POLICY", "default")),

		RateLimitCalls: getenvInt("RATE_LIMIT_CALLS", 50),

		ReverseGeocoder:      strings.ToLower(getenvDefault("REVERSE_GEOCODER", "nominatim")),
		NominatimBaseURL:     getenvDefault("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org"),
		GoogleGeocoderAPIKey: os.Getenv("GOOGLE_GEOCODER_API_KEY"),

		FavoritesBackend: strings.ToLower(getenvDefault("FAVORITES_BACKEND", "sqlite")),
		FavoritesDBPath:  getenvDefault("FAVORITES_DB_PATH", "data/weather-now.db"),
		FavoritesKey:     getenvDefault("FAVORITES_KEY", "weather-app-favorites"),
		RedisAddr:        getenvDefault("REDIS_ADDR", "localhost:6379"),
		RedisDB:          getenvInt("REDIS_DB", 0),

		SnapshotMaxHistory: getenvInt("SNAPSHOT_MAX_HISTORY", 12),

		GeolocationEnabled: getenvBool("GEOLOCATION_ENABLED", true),
		IPAPIBaseURL:       getenvDefault("IPAPI_BASE_URL", "http://ip-api.com"),

		ZipkinURL: os.Getenv("ZIPKIN_URL"),
	}

	durations := []struct {
		key string
		def string
		dst *time.Duration
	}{
		{"RATE_LIMIT_WINDOW", "60s", &cfg.RateLimitWindow},
		{"HTTP_TIMEOUT", "10s", &cfg.HTTPTimeout},
		{"FAVORITES_POLL_INTERVAL", "2s", &cfg.FavoritesPollInterval},
		{"SNAPSHOT_TTL", "5m", &cfg.SnapshotTTL},
		{"PREFETCH_INTERVAL", "15m", &cfg.PrefetchInterval},
		{"GEOLOCATION_TIMEOUT", "10s", &cfg.GeolocationTimeout},
		{"GEOLOCATION_MAX_AGE", "5m", &cfg.GeolocationMaxAge},
	}
	for _, d := range durations {
		v, err := getenvDuration(d.key, d.def)
		if err != nil {
			return nil, err
		}
		*d.dst = v
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
