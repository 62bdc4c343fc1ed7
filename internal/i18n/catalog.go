package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Weather description keys, one per WMO condition group.
const (
	DescClear              = "weather.clear"
	DescMainlyClear        = "weather.mainly_clear"
	DescPartlyCloudy       = "weather.partly_cloudy"
	DescOvercast           = "weather.overcast"
	DescFog                = "weather.fog"
	DescRimeFog            = "weather.rime_fog"
	DescLightDrizzle       = "weather.light_drizzle"
	DescDrizzle            = "weather.drizzle"
	DescDenseDrizzle       = "weather.dense_drizzle"
	DescLightFreezeDrizzle = "weather.light_freezing_drizzle"
	DescFreezeDrizzle      = "weather.freezing_drizzle"
	DescLightRain          = "weather.light_rain"
	DescRain               = "weather.rain"
	DescHeavyRain          = "weather.heavy_rain"
	DescLightFreezeRain    = "weather.light_freezing_rain"
	DescFreezeRain         = "weather.freezing_rain"
	DescLightSnow          = "weather.light_snow"
	DescSnow               = "weather.snow"
	DescHeavySnow          = "weather.heavy_snow"
	DescSnowGrains         = "weather.snow_grains"
	DescLightShowers       = "weather.light_showers"
	DescShowers            = "weather.showers"
	DescHeavyShowers       = "weather.heavy_showers"
	DescLightSnowShowers   = "weather.light_snow_showers"
	DescSnowShowers        = "weather.snow_showers"
	DescThunderstorm       = "weather.thunderstorm"
	DescThunderLightHail   = "weather.thunderstorm_light_hail"
	DescThunderHail        = "weather.thunderstorm_hail"
	DescUnknown            = "weather.unknown"
)

// Error message keys.
const (
	MsgConfig                 = "error.config"
	MsgRateLimited            = "error.rate_limited"
	MsgNotFound               = "error.not_found"
	MsgUpstream               = "error.upstream"
	MsgSchema                 = "error.schema"
	MsgUnavailable            = "error.unavailable"
	MsgGeolocationDenied      = "error.geolocation_denied"
	MsgGeolocationUnavailable = "error.geolocation_unavailable"
	MsgGeolocationTimeout     = "error.geolocation_timeout"
	MsgGeolocationUnsupported = "error.geolocation_unsupported"
	MsgFavoritesFull          = "error.favorites_full"
	MsgFavoriteDuplicate      = "error.favorite_duplicate"
	MsgFavoriteNotFound       = "error.favorite_not_found"
	MsgBadRequest             = "error.bad_request"
	MsgInternal               = "error.internal"
)

var korean = map[string]string{
	DescClear:              "맑음",
	DescMainlyClear:        "대체로 맑음",
	DescPartlyCloudy:       "부분적으로 흐림",
	DescOvercast:           "흐림",
	DescFog:                "안개",
	DescRimeFog:            "서리 안개",
	DescLightDrizzle:       "약한 이슬비",
	DescDrizzle:            "이슬비",
	DescDenseDrizzle:       "강한 이슬비",
	DescLightFreezeDrizzle: "약한 어는 이슬비",
	DescFreezeDrizzle:      "어는 이슬비",
	DescLightRain:          "약한 비",
	DescRain:               "비",
	DescHeavyRain:          "강한 비",
	DescLightFreezeRain:    "약한 어는 비",
	DescFreezeRain:         "어는 비",
	DescLightSnow:          "약한 눈",
	DescSnow:               "눈",
	DescHeavySnow:          "강한 눈",
	DescSnowGrains:         "싸락눈",
	DescLightShowers:       "약한 소나기",
	DescShowers:            "소나기",
	DescHeavyShowers:       "강한 소나기",
	DescLightSnowShowers:   "약한 눈보라",
	DescSnowShowers:        "눈보라",
	DescThunderstorm:       "천둥번개",
	DescThunderLightHail:   "약한 우박을 동반한 천둥번개",
	DescThunderHail:        "우박을 동반한 천둥번개",
	DescUnknown:            "알 수 없음",

	MsgConfig:                 "날씨 API 키가 설정되지 않았습니다.",
	MsgRateLimited:            "API 호출 한도를 초과했습니다. 잠시 후 다시 시도해주세요.",
	MsgNotFound:               "해당 장소의 정보가 제공되지 않습니다.",
	MsgUpstream:               "날씨 정보를 가져오는데 실패했습니다. (%d)",
	MsgSchema:                 "API 응답 형식이 올바르지 않습니다.",
	MsgUnavailable:            "날씨 서비스를 일시적으로 사용할 수 없습니다.",
	MsgGeolocationDenied:      "위치 정보 접근이 거부되었습니다. 위치 권한을 허용해주세요.",
	MsgGeolocationUnavailable: "위치 정보를 사용할 수 없습니다.",
	MsgGeolocationTimeout:     "위치 정보 요청 시간이 초과되었습니다.",
	MsgGeolocationUnsupported: "위치 정보를 지원하지 않습니다.",
	MsgFavoritesFull:          "즐겨찾기는 최대 %d개까지 추가할 수 있습니다.",
	MsgFavoriteDuplicate:      "이미 즐겨찾기에 추가된 장소입니다.",
	MsgFavoriteNotFound:       "즐겨찾기를 찾을 수 없습니다.",
	MsgBadRequest:             "잘못된 요청입니다.",
	MsgInternal:               "일시적인 오류가 발생했습니다.",
}

var english = map[string]string{
	DescClear:              "Clear sky",
	DescMainlyClear:        "Mainly clear",
	DescPartlyCloudy:       "Partly cloudy",
	DescOvercast:           "Overcast",
	DescFog:                "Fog",
	DescRimeFog:            "Depositing rime fog",
	DescLightDrizzle:       "Light drizzle",
	DescDrizzle:            "Drizzle",
	DescDenseDrizzle:       "Dense drizzle",
	DescLightFreezeDrizzle: "Light freezing drizzle",
	DescFreezeDrizzle:      "Freezing drizzle",
	DescLightRain:          "Slight rain",
	DescRain:               "Rain",
	DescHeavyRain:          "Heavy rain",
	DescLightFreezeRain:    "Light freezing rain",
	DescFreezeRain:         "Freezing rain",
	DescLightSnow:          "Slight snow",
	DescSnow:               "Snow",
	DescHeavySnow:          "Heavy snow",
	DescSnowGrains:         "Snow grains",
	DescLightShowers:       "Slight rain showers",
	DescShowers:            "Rain showers",
	DescHeavyShowers:       "Violent rain showers",
	DescLightSnowShowers:   "Slight snow showers",
	DescSnowShowers:        "Heavy snow showers",
	DescThunderstorm:       "Thunderstorm",
	DescThunderLightHail:   "Thunderstorm with slight hail",
	DescThunderHail:        "Thunderstorm with heavy hail",
	DescUnknown:            "Unknown",

	MsgConfig:                 "The weather API key is not configured.",
	MsgRateLimited:            "Too many requests. Please try again shortly.",
	MsgNotFound:               "No information is available for this place.",
	MsgUpstream:               "Failed to load weather data. (%d)",
	MsgSchema:                 "The weather service returned an unexpected response.",
	MsgUnavailable:            "The weather service is temporarily unavailable.",
	MsgGeolocationDenied:      "Location access was denied. Please allow location permission.",
	MsgGeolocationUnavailable: "Your location is unavailable.",
	MsgGeolocationTimeout:     "The location request timed out.",
	MsgGeolocationUnsupported: "Location lookup is not supported.",
	MsgFavoritesFull:          "You can save up to %d favorites.",
	MsgFavoriteDuplicate:      "This place is already a favorite.",
	MsgFavoriteNotFound:       "Favorite not found.",
	MsgBadRequest:             "Invalid request.",
	MsgInternal:               "Something went wrong. Please try again.",
}

func init() {
	register(language.Korean, korean)
	register(language.English, english)
}

func register(tag language.Tag, entries map[string]string) {
	for key, msg := range entries {
		if err := message.SetString(tag, key, msg); err != nil {
			panic(err)
		}
	}
}
