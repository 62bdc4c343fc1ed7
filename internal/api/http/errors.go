package httpapi

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/i474232898/weather-now/internal/favorites"
	"github.com/i474232898/weather-now/internal/geo"
	"github.com/i474232898/weather-now/internal/i18n"
	"github.com/i474232898/weather-now/internal/store"
	"github.com/i474232898/weather-now/internal/weather"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiError struct {
	status int
	code   string
	key    string
	args   []any
}

// classify maps an error to its HTTP status, machine code and message key.
func classify(err error) apiError {
	var (
		fe     *fiber.Error
		he     *weather.HTTPError
		se     *weather.SchemaError
		verrs  validator.ValidationErrors
		badReq = apiError{fiber.StatusBadRequest, "bad_request", i18n.MsgBadRequest, nil}
	)

	switch {
	case errors.As(err, &verrs),
		errors.Is(err, geo.ErrInvalidCoordinates),
		errors.Is(err, favorites.ErrInvalidFavorite):
		return badReq

	case errors.Is(err, weather.ErrConfig):
		return apiError{fiber.StatusInternalServerError, "config", i18n.MsgConfig, nil}
	case errors.Is(err, weather.ErrRateLimited):
		return apiError{fiber.StatusTooManyRequests, "rate_limited", i18n.MsgRateLimited, nil}
	case errors.Is(err, weather.ErrNotFound), errors.Is(err, store.ErrNotFound):
		return apiError{fiber.StatusNotFound, "not_found", i18n.MsgNotFound, nil}
	case errors.As(err, &he):
		return apiError{fiber.StatusBadGateway, "upstream", i18n.MsgUpstream, []any{he.Status}}
	case errors.As(err, &se):
		return apiError{fiber.StatusBadGateway, "schema", i18n.MsgSchema, nil}
	case errors.Is(err, weather.ErrUnavailable):
		return apiError{fiber.StatusServiceUnavailable, "unavailable", i18n.MsgUnavailable, nil}

	case errors.Is(err, geo.ErrGeolocationDenied):
		return apiError{fiber.StatusForbidden, "geolocation_denied", i18n.MsgGeolocationDenied, nil}
	case errors.Is(err, geo.ErrGeolocationUnavailable):
		return apiError{fiber.StatusServiceUnavailable, "geolocation_unavailable", i18n.MsgGeolocationUnavailable, nil}
	case errors.Is(err, geo.ErrGeolocationUnsupported):
		return apiError{fiber.StatusServiceUnavailable, "geolocation_unsupported", i18n.MsgGeolocationUnsupported, nil}
	case errors.Is(err, geo.ErrGeolocationTimeout):
		return apiError{fiber.StatusGatewayTimeout, "geolocation_timeout", i18n.MsgGeolocationTimeout, nil}

	case errors.Is(err, favorites.ErrFavoritesFull):
		return apiError{fiber.StatusConflict, "favorites_full", i18n.MsgFavoritesFull, []any{favorites.MaxFavorites}}
	case errors.Is(err, favorites.ErrDuplicateFavorite):
		return apiError{fiber.StatusConflict, "favorite_duplicate", i18n.MsgFavoriteDuplicate, nil}
	case errors.Is(err, favorites.ErrFavoriteNotFound):
		return apiError{fiber.StatusNotFound, "favorite_not_found", i18n.MsgFavoriteNotFound, nil}

	case errors.Is(err, context.DeadlineExceeded):
		return apiError{fiber.StatusGatewayTimeout, "timeout", i18n.MsgUnavailable, nil}

	case errors.As(err, &fe):
		switch fe.Code {
		case fiber.StatusBadRequest:
			return badReq
		case fiber.StatusNotFound:
			return apiError{fe.Code, "not_found", i18n.MsgNotFound, nil}
		default:
			return apiError{fe.Code, "http_error", i18n.MsgInternal, nil}
		}
	}
	return apiError{fiber.StatusInternalServerError, "internal", i18n.MsgInternal, nil}
}

// ErrorHandler renders errors as translated JSON using the request's
// Accept-Language header.
func ErrorHandler(defaultLang language.Tag, logger *zap.Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *fiber.Ctx, err error) error {
		e := classify(err)
		if e.status >= fiber.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("path", c.Path()),
				zap.Int("status", e.status),
				zap.Error(err))
		} else {
			logger.Debug("request rejected",
				zap.String("path", c.Path()),
				zap.Int("status", e.status),
				zap.Error(err))
		}

		lang := i18n.Match(c.Get(fiber.HeaderAcceptLanguage), defaultLang)
		return c.Status(e.status).JSON(errorBody{
			Error:   true,
			Code:    e.code,
			Message: i18n.Text(lang, e.key, e.args...),
		})
	}
}
