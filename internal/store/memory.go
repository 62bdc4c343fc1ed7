package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/weather-now/internal/geo"
	"github.com/i474232898/weather-now/internal/weather"
)

var (
	// ErrNotFound is returned when no usable snapshot is cached for a location.
	ErrNotFound = errors.New("no weather data for location")
)

// SnapshotHistory holds a time-ordered list of weather snapshots for a location.
type SnapshotHistory struct {
	Snapshots []weather.WeatherSnapshot
}

// MemoryStore is a concurrency-safe snapshot cache keyed by rounded
// coordinates.
type MemoryStore struct {
	mu sync.RWMutex

	// key: geo.Coordinates.Key(), value: history
	data map[string]*SnapshotHistory

	// retention configuration
	maxHistory int           // max number of snapshots per location
	maxAge     time.Duration // optional max age for snapshots

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*SnapshotHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// SaveSnapshot appends a snapshot under its coordinates and enforces retention.
func (s *MemoryStore) SaveSnapshot(snapshot weather.WeatherSnapshot) {
	key := snapshot.Coordinates.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[key]
	if !ok {
		history = &SnapshotHistory{}
		s.data[key] = history
	}

	history.Snapshots = append(history.Snapshots, snapshot)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(history.Snapshots) > s.maxHistory {
		over := len(history.Snapshots) - s.maxHistory
		history.Snapshots = history.Snapshots[over:]
	}

	// Enforce retention by age. The newest snapshot is always kept.
	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		i := 0
		for ; i < len(history.Snapshots)-1; i++ {
			if !history.Snapshots[i].Timestamp.Before(cutoff) {
				break
			}
		}
		history.Snapshots = history.Snapshots[i:]
	}
}

// GetLatest returns the most recent snapshot for a location.
func (s *MemoryStore) GetLatest(c geo.Coordinates) (weather.WeatherSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[c.Key()]
	if !ok || len(history.Snapshots) == 0 {
		return weather.WeatherSnapshot{}, ErrNotFound
	}
	return history.Snapshots[len(history.Snapshots)-1], nil
}

// GetFresh returns the latest snapshot if it is younger than maxAge.
func (s *MemoryStore) GetFresh(c geo.Coordinates, maxAge time.Duration) (weather.WeatherSnapshot, error) {
	snap, err := s.GetLatest(c)
	if err != nil {
		return weather.WeatherSnapshot{}, err
	}
	if maxAge > 0 && s.now().Sub(snap.Timestamp) > maxAge {
		return weather.WeatherSnapshot{}, ErrNotFound
	}
	return snap, nil
}

// GetRange returns all snapshots for a location between from and to (inclusive).
func (s *MemoryStore) GetRange(c geo.Coordinates, from, to time.Time) ([]weather.WeatherSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[c.Key()]
	if !ok || len(history.Snapshots) == 0 {
		return nil, ErrNotFound
	}

	var result []weather.WeatherSnapshot
	for _, snap := range history.Snapshots {
		if !snap.Timestamp.Before(from) && !snap.Timestamp.After(to) {
			result = append(result, snap)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}

	return result, nil
}
