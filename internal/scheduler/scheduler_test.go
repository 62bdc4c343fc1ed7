package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/i474232898/weather-now/internal/favorites"
	"github.com/i474232898/weather-now/internal/geo"
	"github.com/i474232898/weather-now/internal/weather"
)

type staticFavorites []favorites.Favorite

func (s staticFavorites) List() []favorites.Favorite { return s }

type recordingStore struct{ saved []weather.WeatherSnapshot }

func (r *recordingStore) SaveSnapshot(s weather.WeatherSnapshot) { r.saved = append(r.saved, s) }

type scriptedFetcher struct {
	errs  []error
	hints []string
}

func (f *scriptedFetcher) GetWeatherData(_ context.Context, c geo.Coordinates, hint string) (weather.WeatherSnapshot, error) {
	f.hints = append(f.hints, hint)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return weather.WeatherSnapshot{}, err
		}
	}
	return weather.WeatherSnapshot{Location: hint, Coordinates: c}, nil
}

func fav(name string, c *geo.Coordinates, alias *string) favorites.Favorite {
	return favorites.Favorite{ID: name, FullName: name, DisplayName: name, Coordinates: c, Alias: alias}
}

func TestRunOnceSkipsFavoritesWithoutCoordinates(t *testing.T) {
	home := "집"
	favs := staticFavorites{
		fav("서울특별시 중구", &geo.Coordinates{Lat: 37.5636, Lon: 126.9976}, &home),
		fav("부산광역시 해운대구", nil, nil),
		fav("대구광역시 수성구", &geo.Coordinates{Lat: 35.8581, Lon: 128.6306}, nil),
	}
	fetcher := &scriptedFetcher{}
	store := &recordingStore{}

	n := New(favs, store, fetcher, 0, nil).RunOnce(context.Background())
	if n != 2 || len(store.saved) != 2 {
		t.Fatalf("stored %d snapshots, want 2", n)
	}
	for _, h := range fetcher.hints {
		if h != "" {
			t.Fatalf("prefetch must not pass name hints, got %v", fetcher.hints)
		}
	}
}

func TestSchedulerPeriod(t *testing.T) {
	cases := map[time.Duration]time.Duration{
		0:                DefaultInterval,
		-time.Minute:     DefaultInterval,
		30 * time.Second: 30 * time.Second,
		90 * time.Second: 90 * time.Second,
		time.Hour:        time.Hour,
	}
	for in, want := range cases {
		if got := New(staticFavorites{}, &recordingStore{}, &scriptedFetcher{}, in, nil).period(); got != want {
			t.Errorf("period(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestRunOnceStopsWhenRateLimited(t *testing.T) {
	c := &geo.Coordinates{Lat: 37.5, Lon: 127}
	favs := staticFavorites{fav("a", c, nil), fav("b", c, nil), fav("c", c, nil), fav("d", c, nil)}
	fetcher := &scriptedFetcher{errs: []error{nil, errors.New("boom"), weather.ErrRateLimited}}
	store := &recordingStore{}

	n := New(favs, store, fetcher, 0, nil).RunOnce(context.Background())
	if n != 1 {
		t.Fatalf("stored %d, want 1", n)
	}
	if len(fetcher.hints) != 3 {
		t.Fatalf("fetched %d favorites, want to stop after the rate limit", len(fetcher.hints))
	}
}
