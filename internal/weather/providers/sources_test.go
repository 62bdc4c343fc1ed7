package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/kelvins/geocoder"
	"golang.org/x/text/language"

	"github.com/i474232898/weather-now/internal/geo"
	"github.com/i474232898/weather-now/internal/weather"
)

var seoul = geo.Coordinates{Lat: 37.5665, Lon: 126.978}

const owCurrentBody = `{
  "coord": {"lat": 37.5665, "lon": 126.978},
  "weather": [{"id": 800, "main": "Clear", "description": "맑음", "icon": "01d"}],
  "main": {"temp": 21.3, "feels_like": 20.8, "temp_min": 19, "temp_max": 23, "humidity": 40},
  "wind": {"speed": 3.6},
  "dt": 1714532400,
  "timezone": 32400,
  "name": "Seoul"
}`

const owForecastBody = `{
  "list": [
    {"dt": 1714543200, "main": {"temp": 22.1, "humidity": 38}, "weather": [{"id": 801, "description": "구름 조금", "icon": "02d"}], "wind": {"speed": 3}},
    {"dt": 1714554000, "main": {"temp": 18.4, "humidity": 50}, "weather": [{"id": 800, "description": "맑음", "icon": "01n"}], "wind": {"speed": 2}}
  ],
  "city": {"name": "Seoul", "timezone": 32400}
}`

func TestOpenWeatherSourceFetch(t *testing.T) {
	var (
		mu    sync.Mutex
		paths = map[string]url.Values{}
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths[r.URL.Path] = r.URL.Query()
		mu.Unlock()
		switch r.URL.Path {
		case "/data/2.5/weather":
			_, _ = w.Write([]byte(owCurrentBody))
		case "/data/2.5/forecast":
			_, _ = w.Write([]byte(owForecastBody))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	src := NewOpenWeatherSource(NewOpenWeatherClient(ClientConfig{BaseURL: srv.URL, APIKey: "k"}), language.Korean)
	p, err := src.Fetch(context.Background(), seoul)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ow, ok := p.(weather.OpenWeatherPayload)
	if !ok {
		t.Fatalf("unexpected payload type %T", p)
	}
	if *ow.Current.Main.Temp != 21.3 || len(ow.Forecast.List) != 2 {
		t.Fatalf("payload not decoded: %+v", ow)
	}

	q := paths["/data/2.5/forecast"]
	if q.Get("units") != "metric" || q.Get("lang") != "kr" || q.Get("lat") != "37.5665" || q.Get("lon") != "126.9780" {
		t.Fatalf("unexpected query %v", q)
	}
	if paths["/data/2.5/weather"].Get("appid") != "k" {
		t.Fatal("appid missing on current weather request")
	}
}

func TestOpenWeatherSourceFailsWhenOneCallFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/data/2.5/forecast" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(owCurrentBody))
	}))
	defer srv.Close()

	src := NewOpenWeatherSource(NewOpenWeatherClient(ClientConfig{BaseURL: srv.URL, APIKey: "k"}), language.English)
	if _, err := src.Fetch(context.Background(), seoul); !errors.Is(err, weather.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

const omBody = `{
  "latitude": 37.55, "longitude": 127.0, "utc_offset_seconds": 32400, "timezone": "Asia/Seoul",
  "current_weather": {"temperature": 20.4, "windspeed": 3.1, "weathercode": 0, "time": "2024-05-01T12:00"},
  "hourly": {
    "time": ["2024-05-01T00:00", "2024-05-01T01:00"],
    "temperature_2m": [12.0, 11.5],
    "apparent_temperature": [10.9, 10.2],
    "weathercode": [0, 1],
    "relativehumidity_2m": [70, 72],
    "windspeed_10m": [1.2, 1.4]
  },
  "daily": {"time": ["2024-05-01"], "temperature_2m_max": [24.6], "temperature_2m_min": [11.2]}
}`

func TestOpenMeteoSourceFetch(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/forecast" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		got = r.URL.Query()
		_, _ = w.Write([]byte(omBody))
	}))
	defer srv.Close()

	src := NewOpenMeteoSource(NewOpenMeteoClient(ClientConfig{BaseURL: srv.URL}))
	p, err := src.Fetch(context.Background(), seoul)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	om, ok := p.(weather.OpenMeteoPayload)
	if !ok || om.CurrentWeather == nil || len(om.Hourly.Time) != 2 {
		t.Fatalf("unexpected payload %+v", p)
	}
	for k, want := range map[string]string{"timezone": "auto", "windspeed_unit": "ms", "current_weather": "true"} {
		if got.Get(k) != want {
			t.Errorf("%s = %q, want %q", k, got.Get(k), want)
		}
	}
	if got.Get("appid") != "" {
		t.Error("open-meteo requests must not carry a key")
	}
}

func TestOpenMeteoSourceRejectsMismatchedSeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"hourly": {"time": ["2024-05-01T00:00"], "temperature_2m": [], "weathercode": [0],
			"relativehumidity_2m": [50], "windspeed_10m": [1]}, "daily": {"time": [], "temperature_2m_max": [], "temperature_2m_min": []}}`))
	}))
	defer srv.Close()

	src := NewOpenMeteoSource(NewOpenMeteoClient(ClientConfig{BaseURL: srv.URL}))
	var se *weather.SchemaError
	if _, err := src.Fetch(context.Background(), seoul); !errors.As(err, &se) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
}

func TestNominatimReverseName(t *testing.T) {
	var ua, lang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		lang = r.URL.Query().Get("accept-language")
		_, _ = w.Write([]byte(`{"display_name": "명동, 중구, 서울특별시",
			"address": {"city": "서울특별시", "borough": "중구", "suburb": "명동"}}`))
	}))
	defer srv.Close()

	g := NewNominatimGeocoder(NewNominatimClient(ClientConfig{BaseURL: srv.URL}), language.Korean)
	name, err := g.ReverseGeocode(context.Background(), seoul)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "서울특별시 중구 명동" {
		t.Fatalf("name = %q", name)
	}
	if ua == "" || lang != "ko" {
		t.Fatalf("user-agent %q, accept-language %q", ua, lang)
	}
}

func TestNominatimForward(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "nowhere" {
			_, _ = w.Write([]byte(`[]`))
			return
		}
		_, _ = w.Write([]byte(`[{"lat": "35.1796", "lon": "129.0756", "display_name": "부산광역시"}]`))
	}))
	defer srv.Close()

	g := NewNominatimGeocoder(NewNominatimClient(ClientConfig{BaseURL: srv.URL}), language.Korean)
	c, err := g.Geocode(context.Background(), "부산")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c != (geo.Coordinates{Lat: 35.1796, Lon: 129.0756}) {
		t.Fatalf("got %+v", c)
	}
	if _, err := g.Geocode(context.Background(), "nowhere"); !errors.Is(err, weather.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOpenWeatherGeocoder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/geo/1.0/reverse":
			_, _ = w.Write([]byte(`[{"name": "Jung-gu", "local_names": {"ko": "중구", "en": "Jung-gu"},
				"lat": 37.56, "lon": 126.99, "country": "KR", "state": "Seoul"}]`))
		case "/geo/1.0/direct":
			_, _ = w.Write([]byte(`[]`))
		}
	}))
	defer srv.Close()

	client := NewOpenWeatherClient(ClientConfig{BaseURL: srv.URL, APIKey: "k"})

	name, err := NewOpenWeatherGeocoder(client, language.Korean).ReverseGeocode(context.Background(), seoul)
	if err != nil || name != "중구" {
		t.Fatalf("got %q, %v", name, err)
	}
	name, err = NewOpenWeatherGeocoder(client, language.Japanese).ReverseGeocode(context.Background(), seoul)
	if err != nil || name != "Seoul" {
		t.Fatalf("KR result without local name should use state, got %q, %v", name, err)
	}

	if _, err := NewOpenWeatherGeocoder(client, language.English).Geocode(context.Background(), "Atlantis"); !errors.Is(err, weather.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGoogleGeocoder(t *testing.T) {
	g := NewGoogleGeocoder("", nil, nil)
	if _, err := g.ReverseGeocode(context.Background(), seoul); !errors.Is(err, weather.ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}

	g = NewGoogleGeocoder("key", nil, nil)
	g.reverse = func(loc geocoder.Location) ([]geocoder.Address, error) {
		if loc.Latitude != seoul.Lat {
			t.Errorf("latitude %v", loc.Latitude)
		}
		return []geocoder.Address{{City: "Seoul", State: "Seoul", FormattedAddress: "Seoul, South Korea"}}, nil
	}
	name, err := g.ReverseGeocode(context.Background(), seoul)
	if err != nil || name != "Seoul" {
		t.Fatalf("got %q, %v", name, err)
	}

	g.reverse = func(geocoder.Location) ([]geocoder.Address, error) { return nil, errors.New("REQUEST_DENIED") }
	if _, err := g.ReverseGeocode(context.Background(), seoul); !errors.Is(err, weather.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
