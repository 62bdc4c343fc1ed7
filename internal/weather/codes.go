package weather

import "github.com/i474232898/weather-now/internal/i18n"

type codeInfo struct {
	icon string
	desc string
}

// wmoCodes maps WMO weather interpretation codes to an icon prefix and a
// description key. Codes not listed get the clear sky icon and the unknown
// description.
var wmoCodes = map[int]codeInfo{
	0:  {"01", i18n.DescClear},
	1:  {"02", i18n.DescMainlyClear},
	2:  {"03", i18n.DescPartlyCloudy},
	3:  {"04", i18n.DescOvercast},
	45: {"50", i18n.DescFog},
	48: {"50", i18n.DescRimeFog},
	51: {"09", i18n.DescLightDrizzle},
	53: {"09", i18n.DescDrizzle},
	55: {"09", i18n.DescDenseDrizzle},
	56: {"09", i18n.DescLightFreezeDrizzle},
	57: {"09", i18n.DescFreezeDrizzle},
	61: {"10", i18n.DescLightRain},
	63: {"10", i18n.DescRain},
	65: {"10", i18n.DescHeavyRain},
	66: {"10", i18n.DescLightFreezeRain},
	67: {"10", i18n.DescFreezeRain},
	71: {"13", i18n.DescLightSnow},
	73: {"13", i18n.DescSnow},
	75: {"13", i18n.DescHeavySnow},
	77: {"13", i18n.DescSnowGrains},
	80: {"09", i18n.DescLightShowers},
	81: {"09", i18n.DescShowers},
	82: {"09", i18n.DescHeavyShowers},
	85: {"13", i18n.DescLightSnowShowers},
	86: {"13", i18n.DescSnowShowers},
	95: {"11", i18n.DescThunderstorm},
	96: {"11", i18n.DescThunderLightHail},
	99: {"11", i18n.DescThunderHail},
}

// IsNight reports whether a local hour falls in the night band [18, 6).
func IsNight(hour int) bool {
	return hour >= 18 || hour < 6
}

// IconForCode returns the OpenWeather-style icon ("01d", "10n", ...) for a WMO
// code at the given local hour.
func IconForCode(code, hour int) string {
	prefix := "01"
	if info, ok := wmoCodes[code]; ok {
		prefix = info.icon
	}
	if IsNight(hour) {
		return prefix + "n"
	}
	return prefix + "d"
}

// DescriptionKeyForCode returns the i18n key describing a WMO code.
func DescriptionKeyForCode(code int) string {
	if info, ok := wmoCodes[code]; ok {
		return info.desc
	}
	return i18n.DescUnknown
}
