package favorites

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/i474232898/weather-now/internal/geo"
)

var koreanPlaces = []struct{ full, display string }{
	{"서울특별시 중구", "중구"},
	{"부산광역시 해운대구", "해운대구"},
	{"대구광역시 수성구", "수성구"},
	{"인천광역시 연수구", "연수구"},
	{"광주광역시 서구", "서구"},
	{"대전광역시 유성구", "유성구"},
	{"울산광역시 남구", "남구"},
}

func newTestStore(t *testing.T, backend Backend) *Store {
	t.Helper()
	var n int
	s, err := NewStore(context.Background(), backend, Options{
		Now: func() time.Time { return time.UnixMilli(1714532400000) },
		NewID: func() string {
			n++
			return fmt.Sprintf("fav-%d", n)
		},
	})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func strptr(s string) *string { return &s }

func TestAddEnforcesCapacity(t *testing.T) {
	s := newTestStore(t, NewMemoryKV().Handle())
	ctx := context.Background()

	for _, p := range koreanPlaces[:MaxFavorites] {
		if _, err := s.Add(ctx, p.full, p.display, nil); err != nil {
			t.Fatalf("add %s: %v", p.full, err)
		}
	}
	if s.CanAddMore() {
		t.Fatal("CanAddMore should be false at capacity")
	}

	seventh := koreanPlaces[MaxFavorites]
	if _, err := s.Add(ctx, seventh.full, seventh.display, nil); !errors.Is(err, ErrFavoritesFull) {
		t.Fatalf("expected ErrFavoritesFull, got %v", err)
	}
	if got := len(s.List()); got != MaxFavorites {
		t.Fatalf("len = %d, want %d", got, MaxFavorites)
	}
	if s.IsFavorite(seventh.full) {
		t.Fatal("seventh place must not be stored")
	}
}

func TestAddRejectsDuplicateFullName(t *testing.T) {
	s := newTestStore(t, NewMemoryKV().Handle())
	ctx := context.Background()

	first, err := s.Add(ctx, "서울특별시 중구", "중구", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.ID != "fav-1" || first.CreatedAt != 1714532400000 || first.Alias != nil {
		t.Fatalf("unexpected favorite %+v", first)
	}

	_, err = s.Add(ctx, "서울특별시 중구", "다른 이름", &geo.Coordinates{Lat: 37.5636, Lon: 126.9976})
	if !errors.Is(err, ErrDuplicateFavorite) {
		t.Fatalf("expected ErrDuplicateFavorite, got %v", err)
	}
	list := s.List()
	if len(list) != 1 || list[0].DisplayName != "중구" || list[0].Coordinates != nil {
		t.Fatalf("duplicate add changed the collection: %+v", list)
	}
}

func TestAliasRoundTrip(t *testing.T) {
	s := newTestStore(t, NewMemoryKV().Handle())
	ctx := context.Background()

	f, err := s.Add(ctx, "서울특별시 중구", "중구", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := s.SetAlias(ctx, f.ID, strptr("  회사  ")); err != nil {
		t.Fatalf("SetAlias: %v", err)
	}
	got, _ := s.Get(f.ID)
	if got.Alias == nil || *got.Alias != "회사" || got.Label() != "회사" {
		t.Fatalf("alias = %v, label = %q", got.Alias, got.Label())
	}

	if err := s.SetAlias(ctx, f.ID, strptr("   ")); err != nil {
		t.Fatalf("SetAlias: %v", err)
	}
	got, _ = s.Get(f.ID)
	if got.Alias != nil || got.Label() != "중구" {
		t.Fatalf("blank alias should reset the label, got %v / %q", got.Alias, got.Label())
	}

	if err := s.SetAlias(ctx, "missing", strptr("x")); !errors.Is(err, ErrFavoriteNotFound) {
		t.Fatalf("expected ErrFavoriteNotFound, got %v", err)
	}
}

func TestNormalizeAliasTruncates(t *testing.T) {
	long := "가나다라마바사아자차카타파하가나다라마바사아"
	got := NormalizeAlias(&long)
	if got == nil || len([]rune(*got)) != MaxAliasLength {
		t.Fatalf("got %v", got)
	}
	if NormalizeAlias(nil) != nil {
		t.Fatal("nil alias should stay nil")
	}
}

func TestRemoveAndSetCoordinates(t *testing.T) {
	s := newTestStore(t, NewMemoryKV().Handle())
	ctx := context.Background()

	a, _ := s.Add(ctx, "서울특별시 중구", "중구", nil)
	b, _ := s.Add(ctx, "부산광역시 해운대구", "해운대구", nil)

	if err := s.SetCoordinates(ctx, b.ID, geo.Coordinates{Lat: 35.16311, Lon: 129.16357}); err != nil {
		t.Fatalf("SetCoordinates: %v", err)
	}
	got, _ := s.Get(b.ID)
	if got.Coordinates == nil || *got.Coordinates != (geo.Coordinates{Lat: 35.1631, Lon: 129.1636}) {
		t.Fatalf("coordinates = %v", got.Coordinates)
	}
	if err := s.SetCoordinates(ctx, b.ID, geo.Coordinates{Lat: 100}); !errors.Is(err, ErrInvalidFavorite) {
		t.Fatalf("expected ErrInvalidFavorite, got %v", err)
	}

	if err := s.Remove(ctx, a.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := s.Remove(ctx, a.ID); !errors.Is(err, ErrFavoriteNotFound) {
		t.Fatalf("second remove: expected ErrFavoriteNotFound, got %v", err)
	}
	list := s.List()
	if len(list) != 1 || list[0].ID != b.ID {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestSubscribersSeeEveryPersistedChange(t *testing.T) {
	kv := NewMemoryKV()
	h := kv.Handle()
	s := newTestStore(t, h)
	ctx := context.Background()

	var first, second [][]Favorite
	unsubscribe := s.Subscribe(func(list []Favorite) {
		// Broadcast happens after the write: storage already holds the list.
		data, _ := h.Get(ctx, DefaultKey)
		stored, _ := decode(data)
		if !reflect.DeepEqual(stored, list) {
			t.Errorf("notified before the write was readable")
		}
		first = append(first, list)
	})
	s.Subscribe(func(list []Favorite) { second = append(second, list) })

	f, _ := s.Add(ctx, "서울특별시 중구", "중구", nil)
	_ = s.SetAlias(ctx, f.ID, strptr("집"))

	if len(first) != 2 || !reflect.DeepEqual(first, second) {
		t.Fatalf("subscribers diverged: %v vs %v", first, second)
	}
	if !reflect.DeepEqual(first[1], s.List()) {
		t.Fatal("last notification differs from List")
	}

	// Listener copies are independent of the store.
	*first[1][0].Alias = "changed"
	if got, _ := s.Get(f.ID); *got.Alias != "집" {
		t.Fatal("listener mutation leaked into the store")
	}

	unsubscribe()
	_ = s.Remove(ctx, f.ID)
	if len(first) != 2 || len(second) != 3 {
		t.Fatalf("unsubscribe not honoured: %d / %d notifications", len(first), len(second))
	}

	// A failed mutation broadcasts nothing.
	_ = s.Remove(ctx, "missing")
	if len(second) != 3 {
		t.Fatal("no-op mutation should not notify")
	}
}

func TestCorruptStorageReadsAsEmpty(t *testing.T) {
	ctx := context.Background()
	for _, raw := range []string{`{not json`, `{"id":"x"}`, `[{"id":"","fullName":"a"}]`, `null`} {
		h := NewMemoryKV().Handle()
		_ = h.Put(ctx, DefaultKey, []byte(raw))

		s := newTestStore(t, h)
		if got := s.List(); len(got) != 0 {
			t.Errorf("%q: expected empty list, got %+v", raw, got)
		}
		if _, err := s.Add(ctx, "서울특별시 중구", "중구", nil); err != nil {
			t.Errorf("%q: add over corrupt data failed: %v", raw, err)
		}
	}
}

type failingBackend struct{}

func (failingBackend) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("connection refused")
}
func (failingBackend) Put(context.Context, string, []byte) error { return errors.New("connection refused") }

func TestBackendErrorsAreReturned(t *testing.T) {
	if _, err := NewStore(context.Background(), failingBackend{}, Options{}); err == nil {
		t.Fatal("expected error from unreachable backend")
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestCrossHandleReloadMemory(t *testing.T) {
	kv := NewMemoryKV()
	tabA := newTestStore(t, kv.Handle())
	tabB := newTestStore(t, kv.Handle())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go tabB.Run(ctx)

	notified := make(chan []Favorite, 4)
	tabB.Subscribe(func(list []Favorite) { notified <- list })

	// Give Run a moment to register its watcher.
	waitFor(t, func() bool {
		h := tabB.backend.(*MemoryHandle)
		h.mu.Lock()
		defer h.mu.Unlock()
		return len(h.watchers) == 1
	})

	if _, err := tabA.Add(context.Background(), "서울특별시 중구", "중구", nil); err != nil {
		t.Fatalf("add: %v", err)
	}

	select {
	case list := <-notified:
		if len(list) != 1 || list[0].FullName != "서울특별시 중구" {
			t.Fatalf("unexpected list %+v", list)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("tab B was not notified")
	}
	if !tabB.IsFavorite("서울특별시 중구") {
		t.Fatal("tab B cache not reloaded")
	}
}

func TestCrossHandleReloadSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "favorites.db")

	a, err := OpenSQLite(path, 20*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("open a: %v", err)
	}
	defer a.Close()
	b, err := OpenSQLite(path, 20*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("open b: %v", err)
	}
	defer b.Close()

	tabA := newTestStore(t, a)
	tabB := newTestStore(t, b)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go tabB.Run(ctx)

	f, err := tabA.Add(context.Background(), "부산광역시 해운대구", "해운대구", &geo.Coordinates{Lat: 35.1631, Lon: 129.1636})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	waitFor(t, func() bool { return tabB.IsFavorite("부산광역시 해운대구") })

	if err := tabB.SetAlias(context.Background(), f.ID, strptr("바다")); err != nil {
		t.Fatalf("alias from tab B: %v", err)
	}
	if err := tabA.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	got, ok := tabA.Get(f.ID)
	if !ok || got.Label() != "바다" {
		t.Fatalf("tab A sees %+v", got)
	}
}

func TestSQLiteBackendVersions(t *testing.T) {
	b, err := OpenSQLite(filepath.Join(t.TempDir(), "kv.db"), time.Second, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer b.Close()
	ctx := context.Background()

	if v, err := b.Get(ctx, "missing"); err != nil || v != nil {
		t.Fatalf("missing key: %v, %v", v, err)
	}
	_ = b.Put(ctx, "k", []byte("1"))
	_ = b.Put(ctx, "k", []byte("2"))
	if v, _ := b.Get(ctx, "k"); string(v) != "2" {
		t.Fatalf("got %q", v)
	}
	if changed, err := b.poll(ctx); err != nil || len(changed) != 0 {
		t.Fatalf("own writes should not be reported: %v, %v", changed, err)
	}
	b.mu.Lock()
	if b.lastSeen["k"] != 2 {
		t.Errorf("version = %d, want 2", b.lastSeen["k"])
	}
	b.mu.Unlock()
}

func TestRedisChangedKey(t *testing.T) {
	b := NewRedisBackend(nil, nil)
	own := fmt.Sprintf(`{"key":"weather-app-favorites","origin":%q}`, b.origin)
	if got := b.changedKey("weather-app-favorites:changes", own); got != "" {
		t.Fatalf("own write reported as %q", got)
	}
	if got := b.changedKey("weather-app-favorites:changes", `{"origin":"other"}`); got != "weather-app-favorites" {
		t.Fatalf("got %q", got)
	}
	if got := b.changedKey("x:changes", `garbage`); got != "" {
		t.Fatalf("malformed payload reported as %q", got)
	}
}
