package store

import (
	"errors"
	"testing"
	"time"

	"github.com/i474232898/weather-now/internal/geo"
	"github.com/i474232898/weather-now/internal/weather"
)

var seoul = geo.Coordinates{Lat: 37.5665, Lon: 126.978}

func snapshotAt(c geo.Coordinates, ts time.Time, temp int) weather.WeatherSnapshot {
	return weather.WeatherSnapshot{Location: "서울", Coordinates: c, Current: weather.Current{Temp: temp}, Timestamp: ts}
}

func TestGetFreshRespectsMaxAge(t *testing.T) {
	now := time.Date(2024, 5, 1, 3, 0, 0, 0, time.UTC)
	s := NewMemoryStore(10, time.Hour)
	s.now = func() time.Time { return now }

	s.SaveSnapshot(snapshotAt(seoul, now.Add(-2*time.Minute), 20))

	// GPS jitter below the rounding step hits the same entry.
	jitter := geo.Coordinates{Lat: 37.56651, Lon: 126.97801}
	snap, err := s.GetFresh(jitter, 5*time.Minute)
	if err != nil || snap.Current.Temp != 20 {
		t.Fatalf("got %+v, %v", snap, err)
	}

	now = now.Add(10 * time.Minute)
	if _, err := s.GetFresh(seoul, 5*time.Minute); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected stale snapshot to be skipped, got %v", err)
	}
	if _, err := s.GetLatest(seoul); err != nil {
		t.Fatalf("latest should still be available: %v", err)
	}
}

func TestRetention(t *testing.T) {
	now := time.Date(2024, 5, 1, 3, 0, 0, 0, time.UTC)
	s := NewMemoryStore(3, time.Hour)
	s.now = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		s.SaveSnapshot(snapshotAt(seoul, now.Add(time.Duration(i-4)*10*time.Minute), i))
	}
	all, err := s.GetRange(seoul, now.Add(-24*time.Hour), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 3 || all[0].Current.Temp != 2 {
		t.Fatalf("count retention failed: %+v", all)
	}

	s.SaveSnapshot(snapshotAt(seoul, now.Add(-3*time.Hour), 9))
	latest, _ := s.GetLatest(seoul)
	if latest.Current.Temp != 9 {
		t.Fatal("newest snapshot must be kept even when old")
	}
}

func TestGetRangeEmpty(t *testing.T) {
	s := NewMemoryStore(0, 0)
	if _, err := s.GetRange(seoul, time.Now().Add(-time.Hour), time.Now()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
