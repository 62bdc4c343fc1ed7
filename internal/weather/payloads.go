package weather

import "fmt"

// OpenWeatherMap shapes (data/2.5 weather + forecast, units=metric).

type OWCondition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon" validate:"omitempty,iconcode"`
}

type OWMain struct {
	Temp      *float64 `json:"temp" validate:"required"`
	FeelsLike *float64 `json:"feels_like"`
	TempMin   *float64 `json:"temp_min"`
	TempMax   *float64 `json:"temp_max"`
	Humidity  float64  `json:"humidity" validate:"gte=0,lte=100"`
}

type OWCoord struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `json:"lon" validate:"gte=-180,lte=180"`
}

type OWWind struct {
	Speed float64 `json:"speed" validate:"gte=0"`
}

type OWCurrent struct {
	Coord    OWCoord       `json:"coord"`
	Weather  []OWCondition `json:"weather" validate:"dive"`
	Main     OWMain        `json:"main"`
	Wind     OWWind        `json:"wind"`
	Dt       int64         `json:"dt" validate:"required"`
	Timezone int           `json:"timezone"`
	Name     string        `json:"name"`
}

type OWForecastItem struct {
	Dt      int64         `json:"dt" validate:"required"`
	Main    OWMain        `json:"main"`
	Weather []OWCondition `json:"weather" validate:"dive"`
	Wind    OWWind        `json:"wind"`
}

type OWCity struct {
	Name     string `json:"name"`
	Timezone int    `json:"timezone"`
}

type OWForecast struct {
	List []OWForecastItem `json:"list" validate:"required,dive"`
	City OWCity           `json:"city"`
}

// OpenWeatherPayload joins the current-conditions and forecast responses.
type OpenWeatherPayload struct {
	Current  OWCurrent
	Forecast OWForecast
}

func (OpenWeatherPayload) providerName() string { return "openweathermap" }

// Open-Meteo shapes (/v1/forecast, timezone=auto, windspeed_unit=ms).

type OMHourly struct {
	Time                []string  `json:"time" validate:"required,min=1"`
	Temperature         []float64 `json:"temperature_2m" validate:"required"`
	ApparentTemperature []float64 `json:"apparent_temperature"`
	WeatherCode         []int     `json:"weathercode" validate:"required"`
	RelativeHumidity    []float64 `json:"relativehumidity_2m" validate:"required,dive,gte=0,lte=100"`
	WindSpeed           []float64 `json:"windspeed_10m" validate:"required"`
}

// Check verifies that the parallel hourly arrays line up.
func (h OMHourly) Check() error {
	n := len(h.Time)
	if len(h.Temperature) != n || len(h.WeatherCode) != n ||
		len(h.RelativeHumidity) != n || len(h.WindSpeed) != n {
		return fmt.Errorf("hourly arrays have mismatched lengths")
	}
	if h.ApparentTemperature != nil && len(h.ApparentTemperature) != n {
		return fmt.Errorf("hourly apparent_temperature has %d entries, want %d", len(h.ApparentTemperature), n)
	}
	return nil
}

type OMDaily struct {
	Time           []string  `json:"time" validate:"required"`
	TemperatureMax []float64 `json:"temperature_2m_max" validate:"required"`
	TemperatureMin []float64 `json:"temperature_2m_min" validate:"required"`
}

// Check verifies that the parallel daily arrays line up.
func (d OMDaily) Check() error {
	if len(d.TemperatureMax) != len(d.Time) || len(d.TemperatureMin) != len(d.Time) {
		return fmt.Errorf("daily arrays have mismatched lengths")
	}
	return nil
}

type OMCurrentWeather struct {
	Temperature float64 `json:"temperature"`
	WindSpeed   float64 `json:"windspeed" validate:"gte=0"`
	WeatherCode int     `json:"weathercode"`
	Time        string  `json:"time"`
}

// OpenMeteoPayload is the combined hourly + daily forecast response.
type OpenMeteoPayload struct {
	Latitude         float64           `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude        float64           `json:"longitude" validate:"gte=-180,lte=180"`
	UTCOffsetSeconds int               `json:"utc_offset_seconds"`
	Timezone         string            `json:"timezone"`
	CurrentWeather   *OMCurrentWeather `json:"current_weather"`
	Hourly           OMHourly          `json:"hourly"`
	Daily            OMDaily           `json:"daily"`
}

// Check runs the cross-field checks of the nested series.
func (p OpenMeteoPayload) Check() error {
	if err := p.Hourly.Check(); err != nil {
		return err
	}
	return p.Daily.Check()
}

func (OpenMeteoPayload) providerName() string { return "openmeteo" }
