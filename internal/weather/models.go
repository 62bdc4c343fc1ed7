package weather

import (
	"time"

	"github.com/i474232898/weather-now/internal/geo"
)

// DefaultIcon is the canonical clear-day icon used when a provider gives none.
const DefaultIcon = "01d"

// MaxHourlyPoints bounds the hourly series of a snapshot.
const MaxHourlyPoints = 8

// Current holds the normalized present conditions. Temperatures are whole
// degrees Celsius, wind speed is m/s.
type Current struct {
	Temp        int     `json:"temp"`
	FeelsLike   int     `json:"feelsLike"`
	TempMin     int     `json:"tempMin"`
	TempMax     int     `json:"tempMax"`
	Humidity    int     `json:"humidity" validate:"gte=0,lte=100"`
	Description string  `json:"description" validate:"required"`
	Icon        string  `json:"icon" validate:"required,iconcode"`
	WindSpeed   float64 `json:"windSpeed" validate:"gte=0"`
}

// HourlyPoint is one entry of the short-term series. Time is local "HH:mm".
type HourlyPoint struct {
	Time        string `json:"time" validate:"required,len=5"`
	Temp        int    `json:"temp"`
	Icon        string `json:"icon" validate:"required,iconcode"`
	Description string `json:"description" validate:"required"`
}

// Capabilities records which fields the provider actually reported.
// FeelsLike=false means Current.FeelsLike is a copy of Current.Temp.
type Capabilities struct {
	FeelsLike bool `json:"feelsLike"`
}

// WeatherSnapshot is the canonical weather record, independent of the
// provider that produced it.
type WeatherSnapshot struct {
	Location       string          `json:"location" validate:"required"`
	Coordinates    geo.Coordinates `json:"coordinates"`
	Current        Current         `json:"current"`
	HourlyForecast []HourlyPoint   `json:"hourlyForecast" validate:"max=8,dive"`

	Provider     string       `json:"provider"`
	Capabilities Capabilities `json:"capabilities"`
	Timestamp    time.Time    `json:"timestamp"` // always UTC
}
