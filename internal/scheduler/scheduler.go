package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/i474232898/weather-now/internal/favorites"
	"github.com/i474232898/weather-now/internal/geo"
	"github.com/i474232898/weather-now/internal/weather"
)

// WeatherFetcher is the part of weather.Service the scheduler needs.
type WeatherFetcher interface {
	GetWeatherData(ctx context.Context, c geo.Coordinates, nameHint string) (weather.WeatherSnapshot, error)
}

// FavoritesLister returns the current favorites.
type FavoritesLister interface {
	List() []favorites.Favorite
}

// SnapshotSaver stores prefetched snapshots.
type SnapshotSaver interface {
	SaveSnapshot(weather.WeatherSnapshot)
}

// Scheduler periodically prefetches weather for saved favorites so the
// favorites view can be served from cache.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   WeatherFetcher
	favorites FavoritesLister
	store     SnapshotSaver
	interval  time.Duration
	logger    *zap.Logger
}

// New creates a new Scheduler.
func New(favs FavoritesLister, store SnapshotSaver, service WeatherFetcher, interval time.Duration, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		service:   service,
		favorites: favs,
		store:     store,
		interval:  interval,
		logger:    logger,
	}
}

// DefaultInterval is used when no positive prefetch interval is configured.
const DefaultInterval = 15 * time.Minute

func (s *Scheduler) period() time.Duration {
	if s.interval <= 0 {
		return DefaultInterval
	}
	return s.interval
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(s.period()).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		s.RunOnce(ctx)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce fetches every favorite with cached coordinates, one at a time so
// the provider budget is drawn down predictably. Snapshots are fetched
// without a name hint so the cache holds resolved place names; callers apply
// the favorite's label when they read it. It stops early once the
// provider reports its budget exhausted. It returns the number of snapshots
// stored.
func (s *Scheduler) RunOnce(ctx context.Context) int {
	s.logger.Debug("scheduler: running favorites prefetch")

	stored := 0
	for _, f := range s.favorites.List() {
		if f.Coordinates == nil {
			continue
		}
		if ctx.Err() != nil {
			break
		}

		snap, err := s.service.GetWeatherData(ctx, *f.Coordinates, "")
		if errors.Is(err, weather.ErrRateLimited) {
			s.logger.Info("scheduler: provider budget exhausted, stopping prefetch", zap.Int("stored", stored))
			break
		}
		if err != nil {
			s.logger.Warn("scheduler: prefetch failed",
				zap.String("favorite", f.FullName),
				zap.Error(err))
			continue
		}
		s.store.SaveSnapshot(snap)
		stored++
	}

	s.logger.Debug("scheduler: completed favorites prefetch", zap.Int("stored", stored))
	return stored
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
