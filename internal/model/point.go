package model

import "time"

// Source identifies the upstream weather data provider.
type Source string

const (
	SourceAEMET   Source = "aemet"
	SourceGrafcan Source = "grafcan"
)

// Canonical metric names. Every provider's normalizer maps its native field
// names into this set; each metric becomes a measurement in the store.
const (
	MetricTemperature   = "temperature"
	MetricHumidity      = "humidity"
	MetricWindSpeed     = "wind_speed"
	MetricWindDirection = "wind_direction"
	MetricPrecipitation = "precipitation"
	MetricPressure      = "pressure"
)

// ObservationPoint is one normalized weather reading, ready to be written to
// the time-series store. Points are write-once: the pipeline never mutates or
// deletes them after creation.
type ObservationPoint struct {
	Source     Source    `json:"source"`
	StationID  string    `json:"stationId"`
	MeasuredAt time.Time `json:"measuredAt"` // always UTC
	Metric     string    `json:"metric"`
	Value      float64   `json:"value"`
	Unit       string    `json:"unit"`
}
