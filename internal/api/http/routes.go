package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/i474232898/weather-now/internal/favorites"
	"github.com/i474232898/weather-now/internal/geo"
	"github.com/i474232898/weather-now/internal/store"
	"github.com/i474232898/weather-now/internal/weather"
)

var validate = validator.New()

// WeatherService is the weather facade as seen by the HTTP layer.
type WeatherService interface {
	GetWeatherData(ctx context.Context, c geo.Coordinates, nameHint string) (weather.WeatherSnapshot, error)
	Geocode(ctx context.Context, query string) (geo.Coordinates, error)
}

// SnapshotCache is the snapshot store used for cache-first reads.
type SnapshotCache interface {
	SaveSnapshot(weather.WeatherSnapshot)
	GetFresh(c geo.Coordinates, maxAge time.Duration) (weather.WeatherSnapshot, error)
	GetRange(c geo.Coordinates, from, to time.Time) ([]weather.WeatherSnapshot, error)
}

// Deps are the collaborators of the HTTP routes.
type Deps struct {
	Weather   WeatherService
	Cache     SnapshotCache
	CacheTTL  time.Duration
	Favorites *favorites.Store
	Locator   geo.Locator
	Logger    *zap.Logger

	// Done ends open event streams, e.g. on shutdown.
	Done <-chan struct{}
	// KeepAlive is the comment interval on event streams. Zero means 15s.
	KeepAlive time.Duration
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, d Deps) {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.KeepAlive <= 0 {
		d.KeepAlive = 15 * time.Second
	}
	h := &handlers{Deps: d}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-now",
		})
	})

	v1 := app.Group("/api/v1")
	v1.Get("/weather", h.weather)
	v1.Get("/weather/history", h.history)
	v1.Get("/geocode", h.geocode)
	v1.Get("/locate", h.locate)

	fav := v1.Group("/favorites")
	fav.Get("/", h.listFavorites)
	fav.Post("/", h.addFavorite)
	fav.Get("/events", h.favoriteEvents)
	fav.Delete("/:id", h.removeFavorite)
	fav.Patch("/:id/alias", h.setAlias)
	fav.Put("/:id/coordinates", h.setCoordinates)
}

type handlers struct {
	Deps
}

// coordsQuery holds the lat/lon query parameters.
type coordsQuery struct {
	Lat *float64 `query:"lat" validate:"required,gte=-90,lte=90"`
	Lon *float64 `query:"lon" validate:"required,gte=-180,lte=180"`
}

func (q coordsQuery) coordinates() geo.Coordinates {
	return geo.Coordinates{Lat: *q.Lat, Lon: *q.Lon}.Round()
}

func parseCoords(c *fiber.Ctx) (geo.Coordinates, error) {
	var q coordsQuery
	if err := c.QueryParser(&q); err != nil {
		return geo.Coordinates{}, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(q); err != nil {
		return geo.Coordinates{}, err
	}
	return q.coordinates(), nil
}

// weather serves cache-first. Cached snapshots always carry the resolved
// place name; a name hint only changes the response it came with.
func (h *handlers) weather(c *fiber.Ctx) error {
	coords, err := parseCoords(c)
	if err != nil {
		return err
	}
	name := c.Query("name")
	hinted := strings.TrimSpace(name) != ""

	if h.Cache != nil && h.CacheTTL > 0 {
		if snap, err := h.Cache.GetFresh(coords, h.CacheTTL); err == nil {
			if hinted {
				snap.Location = name
			}
			c.Set("X-Cache", "hit")
			return c.JSON(snap)
		}
	}

	snap, err := h.Weather.GetWeatherData(c.UserContext(), coords, name)
	if err != nil {
		return err
	}
	if h.Cache != nil && !hinted {
		h.Cache.SaveSnapshot(snap)
	}
	c.Set("X-Cache", "miss")
	return c.JSON(snap)
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	Coordinates geo.Coordinates
	From        time.Time `validate:"required"`
	To          time.Time `validate:"required,gtefield=From"`
}

func (q *historyQuery) bind(c *fiber.Ctx) error {
	coords, err := parseCoords(c)
	if err != nil {
		return err
	}
	q.Coordinates = coords

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return fiber.NewError(fiber.StatusBadRequest, "from and to query parameters are required")
	}

	if q.From, err = parseTime(fromStr); err != nil {
		return err
	}
	if q.To, err = parseTime(toStr); err != nil {
		return err
	}
	return validate.Struct(q)
}

func (h *handlers) history(c *fiber.Ctx) error {
	if h.Cache == nil {
		return store.ErrNotFound
	}
	var q historyQuery
	if err := q.bind(c); err != nil {
		return err
	}

	snapshots, err := h.Cache.GetRange(q.Coordinates, q.From, q.To)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"coordinates": q.Coordinates,
		"from":        q.From,
		"to":          q.To,
		"snapshots":   snapshots,
	})
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, fiber.NewError(fiber.StatusBadRequest, "invalid time format; use RFC3339 or unix seconds")
}

func (h *handlers) geocode(c *fiber.Ctx) error {
	q := c.Query("q")
	if err := validate.Var(q, "required,max=200"); err != nil {
		return err
	}
	coords, err := h.Weather.Geocode(c.UserContext(), q)
	if err != nil {
		return err
	}
	return c.JSON(coords)
}

func (h *handlers) locate(c *fiber.Ctx) error {
	if h.Locator == nil {
		return geo.ErrGeolocationUnsupported
	}
	ip := c.IP()
	if ips := c.IPs(); len(ips) > 0 {
		ip = ips[0]
	}
	coords, err := h.Locator.Locate(c.UserContext(), ip)
	if err != nil {
		return err
	}
	return c.JSON(coords)
}

type favoritesResponse struct {
	Favorites  []favorites.Favorite `json:"favorites"`
	Max        int                  `json:"max"`
	CanAddMore bool                 `json:"canAddMore"`
}

func (h *handlers) snapshot() favoritesResponse {
	return favoritesResponse{
		Favorites:  h.Favorites.List(),
		Max:        favorites.MaxFavorites,
		CanAddMore: h.Favorites.CanAddMore(),
	}
}

func (h *handlers) listFavorites(c *fiber.Ctx) error {
	return c.JSON(h.snapshot())
}

type addFavoriteRequest struct {
	FullName    string           `json:"fullName" validate:"required,max=200"`
	DisplayName string           `json:"displayName" validate:"max=200"`
	Coordinates *geo.Coordinates `json:"coordinates"`
}

func (h *handlers) addFavorite(c *fiber.Ctx) error {
	var req addFavoriteRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return err
	}
	f, err := h.Favorites.Add(c.UserContext(), req.FullName, req.DisplayName, req.Coordinates)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(f)
}

func (h *handlers) removeFavorite(c *fiber.Ctx) error {
	if err := h.Favorites.Remove(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type aliasRequest struct {
	Alias *string `json:"alias"`
}

func (h *handlers) setAlias(c *fiber.Ctx) error {
	var req aliasRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	id := c.Params("id")
	if err := h.Favorites.SetAlias(c.UserContext(), id, req.Alias); err != nil {
		return err
	}
	return h.sendFavorite(c, id)
}

func (h *handlers) setCoordinates(c *fiber.Ctx) error {
	var req geo.Coordinates
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return err
	}
	id := c.Params("id")
	if err := h.Favorites.SetCoordinates(c.UserContext(), id, req); err != nil {
		return err
	}
	return h.sendFavorite(c, id)
}

func (h *handlers) sendFavorite(c *fiber.Ctx, id string) error {
	f, ok := h.Favorites.Get(id)
	if !ok {
		return favorites.ErrFavoriteNotFound
	}
	return c.JSON(f)
}

// favoriteEvents streams the collection as server-sent events: one
// "favorites" event on connect and one after every change.
func (h *handlers) favoriteEvents(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	updates := make(chan struct{}, 1)
	unsubscribe := h.Favorites.Subscribe(func([]favorites.Favorite) {
		select {
		case updates <- struct{}{}:
		default:
		}
	})

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer unsubscribe()

		ticker := time.NewTicker(h.KeepAlive)
		defer ticker.Stop()

		if err := h.writeFavoritesEvent(w); err != nil {
			return
		}
		for {
			select {
			case <-h.Done:
				return
			case <-updates:
				if err := h.writeFavoritesEvent(w); err != nil {
					return
				}
			case <-ticker.C:
				if _, err := w.WriteString(": keep-alive\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	}))
	return nil
}

func (h *handlers) writeFavoritesEvent(w *bufio.Writer) error {
	data, err := json.Marshal(h.snapshot())
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: favorites\ndata: %s\n\n", data); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		if !errors.Is(err, context.Canceled) {
			h.Logger.Debug("event stream closed", zap.Error(err))
		}
		return err
	}
	return nil
}
