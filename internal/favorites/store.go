package favorites

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/i474232898/weather-now/internal/geo"
	"github.com/i474232898/weather-now/internal/telemetry"
)

// Backend is the persistent key-value storage holding the serialized
// collection. Get returns nil data and a nil error for a missing key.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

// Watcher is implemented by backends that can report writes made by other
// store instances. Watch calls fn with the changed key until ctx is done.
type Watcher interface {
	Watch(ctx context.Context, fn func(key string)) error
}

// Listener receives a copy of the collection after every change.
// Listeners run synchronously and must not mutate the store.
type Listener func([]Favorite)

// Options configures a Store.
type Options struct {
	Key    string
	Logger *zap.Logger
	Now    func() time.Time
	NewID  func() string
}

// Store is the single source of truth for favorites. Every mutation reads the
// collection from the backend, applies the change, persists it, reloads it and
// then notifies every listener.
type Store struct {
	backend Backend
	key     string
	logger  *zap.Logger
	now     func() time.Time
	newID   func() string

	// mu serializes mutations and reloads.
	mu sync.Mutex

	cacheMu   sync.RWMutex
	cache     []Favorite
	listeners map[int]Listener
	nextSub   int
}

// NewStore creates a store and loads the current collection.
func NewStore(ctx context.Context, backend Backend, opts Options) (*Store, error) {
	s := &Store{
		backend:   backend,
		key:       opts.Key,
		logger:    opts.Logger,
		now:       opts.Now,
		newID:     opts.NewID,
		cache:     []Favorite{},
		listeners: make(map[int]Listener),
	}
	if s.key == "" {
		s.key = DefaultKey
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}

	list, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	s.cache = list
	return s, nil
}

// load reads the collection. Backend failures are returned; corrupt data is
// logged and read as an empty collection.
func (s *Store) load(ctx context.Context) ([]Favorite, error) {
	data, err := s.backend.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("reading favorites: %w", err)
	}
	list, err := decode(data)
	if err != nil {
		s.logger.Warn("stored favorites are unreadable, using an empty list", zap.Error(err))
	}
	return list, nil
}

func (s *Store) mutate(ctx context.Context, op string, fn func([]Favorite) ([]Favorite, error)) error {
	ctx, span := telemetry.Tracer().Start(ctx, "favorites."+op)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	next, err := fn(current)
	if err != nil {
		span.SetAttributes(attribute.String("result", err.Error()))
		return err
	}

	data, err := encode(next)
	if err != nil {
		return fmt.Errorf("encoding favorites: %w", err)
	}
	if err := s.backend.Put(ctx, s.key, data); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("writing favorites: %w", err)
	}

	stored, err := s.load(ctx)
	if err != nil {
		s.logger.Warn("reload after write failed", zap.Error(err))
		stored = next
	}
	s.publish(stored)
	s.logger.Debug("favorites changed", zap.String("op", op), zap.Int("count", len(stored)))
	return nil
}

func (s *Store) publish(list []Favorite) {
	s.cacheMu.Lock()
	s.cache = list
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.cacheMu.Unlock()

	for _, l := range listeners {
		l(cloneAll(list))
	}
}

// Add saves a new favorite. It returns ErrFavoritesFull or
// ErrDuplicateFavorite, leaving the collection untouched, when the place
// cannot be added.
func (s *Store) Add(ctx context.Context, fullName, displayName string, coords *geo.Coordinates) (Favorite, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return Favorite{}, fmt.Errorf("%w: empty full name", ErrInvalidFavorite)
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = fullName
	}
	if coords != nil {
		if err := coords.Validate(); err != nil {
			return Favorite{}, fmt.Errorf("%w: %v", ErrInvalidFavorite, err)
		}
		r := coords.Round()
		coords = &r
	}

	var added Favorite
	err := s.mutate(ctx, "add", func(list []Favorite) ([]Favorite, error) {
		if len(list) >= MaxFavorites {
			return nil, ErrFavoritesFull
		}
		if indexByFullName(list, fullName) >= 0 {
			return nil, ErrDuplicateFavorite
		}
		added = Favorite{
			ID:          s.newID(),
			FullName:    fullName,
			DisplayName: displayName,
			Coordinates: coords,
			CreatedAt:   s.now().UnixMilli(),
		}
		return append(list, added), nil
	})
	if err != nil {
		return Favorite{}, err
	}
	return added.clone(), nil
}

// Remove deletes a favorite by id.
func (s *Store) Remove(ctx context.Context, id string) error {
	return s.mutate(ctx, "remove", func(list []Favorite) ([]Favorite, error) {
		i := indexByID(list, id)
		if i < 0 {
			return nil, ErrFavoriteNotFound
		}
		return append(list[:i], list[i+1:]...), nil
	})
}

// SetAlias sets or, with a nil or blank alias, clears the display alias.
func (s *Store) SetAlias(ctx context.Context, id string, alias *string) error {
	alias = NormalizeAlias(alias)
	return s.mutate(ctx, "set_alias", func(list []Favorite) ([]Favorite, error) {
		i := indexByID(list, id)
		if i < 0 {
			return nil, ErrFavoriteNotFound
		}
		list[i].Alias = alias
		return list, nil
	})
}

// SetCoordinates replaces the cached coordinates of a favorite.
func (s *Store) SetCoordinates(ctx context.Context, id string, coords geo.Coordinates) error {
	if err := coords.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFavorite, err)
	}
	r := coords.Round()
	return s.mutate(ctx, "set_coordinates", func(list []Favorite) ([]Favorite, error) {
		i := indexByID(list, id)
		if i < 0 {
			return nil, ErrFavoriteNotFound
		}
		list[i].Coordinates = &r
		return list, nil
	})
}

// List returns a copy of the collection in insertion order.
func (s *Store) List() []Favorite {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	return cloneAll(s.cache)
}

// Get returns the favorite with the given id.
func (s *Store) Get(id string) (Favorite, bool) {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	if i := indexByID(s.cache, id); i >= 0 {
		return s.cache[i].clone(), true
	}
	return Favorite{}, false
}

// IsFavorite reports whether a place is saved.
func (s *Store) IsFavorite(fullName string) bool {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	return indexByFullName(s.cache, strings.TrimSpace(fullName)) >= 0
}

// CanAddMore reports whether the collection is below capacity.
func (s *Store) CanAddMore() bool {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	return len(s.cache) < MaxFavorites
}

// Subscribe registers l for change notifications and returns a func that
// removes it.
func (s *Store) Subscribe(l Listener) func() {
	s.cacheMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = l
	s.cacheMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.cacheMu.Lock()
			delete(s.listeners, id)
			s.cacheMu.Unlock()
		})
	}
}

// Refresh reloads the collection from the backend, as after a write by
// another instance. Listeners are notified only when the collection changed.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx)
	if err != nil {
		return err
	}

	s.cacheMu.RLock()
	same := reflect.DeepEqual(s.cache, list)
	s.cacheMu.RUnlock()
	if same {
		return nil
	}
	s.publish(list)
	return nil
}

// Run follows writes made by other instances until ctx is done. Backends
// without change notification only return when ctx is done.
func (s *Store) Run(ctx context.Context) error {
	w, ok := s.backend.(Watcher)
	if !ok {
		<-ctx.Done()
		return ctx.Err()
	}
	return w.Watch(ctx, func(key string) {
		if key != s.key {
			return
		}
		if err := s.Refresh(ctx); err != nil {
			s.logger.Warn("favorites refresh failed", zap.Error(err))
		}
	})
}
