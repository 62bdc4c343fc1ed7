package weather

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/i474232898/weather-now/internal/common"
	"github.com/i474232898/weather-now/internal/geo"
	"github.com/i474232898/weather-now/internal/i18n"
)

// NormalizeOptions carries the request context a payload is normalized in.
type NormalizeOptions struct {
	Now         time.Time
	Lang        language.Tag
	Hourly      HourlyPolicy
	Coordinates geo.Coordinates
	// Name is the already-resolved place name (hint or reverse geocode).
	// When empty the provider-reported name is used, then the coordinates.
	Name string
}

// Normalize maps a validated provider payload onto the canonical snapshot.
func Normalize(p Payload, opts NormalizeOptions) (WeatherSnapshot, error) {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if opts.Lang == (language.Tag{}) {
		opts.Lang = i18n.Default
	}

	switch v := p.(type) {
	case OpenWeatherPayload:
		return normalizeOpenWeather(v, opts), nil
	case *OpenWeatherPayload:
		return normalizeOpenWeather(*v, opts), nil
	case OpenMeteoPayload:
		return normalizeOpenMeteo(v, opts)
	case *OpenMeteoPayload:
		return normalizeOpenMeteo(*v, opts)
	default:
		return WeatherSnapshot{}, fmt.Errorf("%w: unsupported payload %T", ErrConfig, p)
	}
}

func clearDescription(lang language.Tag) string {
	return i18n.Text(lang, i18n.DescClear)
}

func owCondition(conds []OWCondition, lang language.Tag) (icon, desc string) {
	icon, desc = DefaultIcon, clearDescription(lang)
	if len(conds) == 0 {
		return icon, desc
	}
	if conds[0].Icon != "" {
		icon = conds[0].Icon
	}
	if conds[0].Description != "" {
		desc = conds[0].Description
	}
	return icon, desc
}

func clampHumidity(v float64) int {
	h := roundTemp(v)
	switch {
	case h < 0:
		return 0
	case h > 100:
		return 100
	}
	return h
}

func normalizeOpenWeather(p OpenWeatherPayload, opts NormalizeOptions) WeatherSnapshot {
	offset := p.Current.Timezone
	if offset == 0 {
		offset = p.Forecast.City.Timezone
	}
	zone := time.FixedZone("", offset)
	now := opts.Now.In(zone)

	temp := *p.Current.Main.Temp
	feels, hasFeels := temp, p.Current.Main.FeelsLike != nil
	if hasFeels {
		feels = *p.Current.Main.FeelsLike
	}
	icon, desc := owCondition(p.Current.Weather, opts.Lang)

	forecast := make([]sample, 0, len(p.Forecast.List))
	for _, item := range p.Forecast.List {
		fi, fd := owCondition(item.Weather, opts.Lang)
		forecast = append(forecast, sample{
			At:          time.Unix(item.Dt, 0).In(zone),
			Temp:        *item.Main.Temp,
			Icon:        fi,
			Description: fd,
		})
	}

	observed := append([]sample{{
		At:   time.Unix(p.Current.Dt, 0).In(zone),
		Temp: temp,
	}}, forecast...)
	bounds := resolveDailyBounds(now, nil, observed, temp)

	return WeatherSnapshot{
		Location:    placeName(opts, p.Current.Name, p.Forecast.City.Name),
		Coordinates: opts.Coordinates.Round(),
		Current: Current{
			Temp:        roundTemp(temp),
			FeelsLike:   roundTemp(feels),
			TempMin:     roundTemp(bounds.Min),
			TempMax:     roundTemp(bounds.Max),
			Humidity:    clampHumidity(p.Current.Main.Humidity),
			Description: desc,
			Icon:        icon,
			WindSpeed:   p.Current.Wind.Speed,
		},
		HourlyForecast: buildHourly(opts.Hourly.resolve(HourlyFromNow), forecast, now),
		Provider:       p.providerName(),
		Capabilities:   Capabilities{FeelsLike: hasFeels},
		Timestamp:      opts.Now.UTC(),
	}
}

const openMeteoTimeLayout = "2006-01-02T15:04"

func normalizeOpenMeteo(p OpenMeteoPayload, opts NormalizeOptions) (WeatherSnapshot, error) {
	zone := time.FixedZone(p.Timezone, p.UTCOffsetSeconds)
	now := opts.Now.In(zone)
	h := p.Hourly

	samples := make([]sample, len(h.Time))
	for i, ts := range h.Time {
		at, err := time.ParseInLocation(openMeteoTimeLayout, ts, zone)
		if err != nil {
			return WeatherSnapshot{}, &SchemaError{Provider: p.providerName(), Details: fmt.Sprintf("hourly.time[%d]: %v", i, err)}
		}
		samples[i] = sample{
			At:          at,
			Temp:        h.Temperature[i],
			Icon:        IconForCode(h.WeatherCode[i], at.Hour()),
			Description: i18n.Text(opts.Lang, DescriptionKeyForCode(h.WeatherCode[i])),
		}
	}

	idx := nearestIndex(samples, now)
	temp := h.Temperature[idx]
	code := h.WeatherCode[idx]
	wind := h.WindSpeed[idx]
	hour := now.Hour()
	if cw := p.CurrentWeather; cw != nil {
		temp, code, wind = cw.Temperature, cw.WeatherCode, cw.WindSpeed
		if at, err := time.ParseInLocation(openMeteoTimeLayout, cw.Time, zone); err == nil {
			hour = at.Hour()
		}
	}

	feels, hasFeels := temp, len(h.ApparentTemperature) == len(h.Time)
	if hasFeels {
		feels = h.ApparentTemperature[idx]
	}

	native := make([]dailyAggregate, 0, len(p.Daily.Time))
	for i, d := range p.Daily.Time {
		native = append(native, dailyAggregate{Date: d, Min: p.Daily.TemperatureMin[i], Max: p.Daily.TemperatureMax[i]})
	}
	bounds := resolveDailyBounds(now, native, samples, temp)

	return WeatherSnapshot{
		Location:    placeName(opts),
		Coordinates: opts.Coordinates.Round(),
		Current: Current{
			Temp:        roundTemp(temp),
			FeelsLike:   roundTemp(feels),
			TempMin:     roundTemp(bounds.Min),
			TempMax:     roundTemp(bounds.Max),
			Humidity:    clampHumidity(h.RelativeHumidity[idx]),
			Description: i18n.Text(opts.Lang, DescriptionKeyForCode(code)),
			Icon:        IconForCode(code, hour),
			WindSpeed:   wind,
		},
		HourlyForecast: buildHourly(opts.Hourly.resolve(HourlySynoptic), samples, now),
		Provider:       p.providerName(),
		Capabilities:   Capabilities{FeelsLike: hasFeels},
		Timestamp:      opts.Now.UTC(),
	}, nil
}

func nearestIndex(samples []sample, t time.Time) int {
	best := 0
	for i := 1; i < len(samples); i++ {
		d, bd := absDuration(samples[i].At.Sub(t)), absDuration(samples[best].At.Sub(t))
		if d < bd {
			best = i
		}
	}
	return best
}

// placeName resolves the display name: caller-supplied name, then names the
// provider reported, then the coordinate string.
func placeName(opts NormalizeOptions, providerNames ...string) string {
	if strings.TrimSpace(opts.Name) != "" {
		return opts.Name
	}
	names := append([]string(nil), providerNames...)
	names = append(names, opts.Coordinates.Round().String())
	return common.FirstNonEmpty(names...)
}
