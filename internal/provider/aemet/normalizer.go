package aemet

import (
	"time"

	"github.com/climacan/climacan/internal/ingest"
	"github.com/climacan/climacan/internal/model"
)

// metricField maps one AEMET payload field to the canonical metric schema.
type metricField struct {
	metric string
	unit   string
	value  func(Observation) *float64
}

// fieldTable drives normalization. Supporting another AEMET field means
// adding a row here, not new control flow.
var fieldTable = []metricField{
	{model.MetricTemperature, "celsius", func(o Observation) *float64 { return o.Temperature }},
	{model.MetricHumidity, "percent", func(o Observation) *float64 { return o.Humidity }},
	{model.MetricWindSpeed, "m_s", func(o Observation) *float64 { return o.WindSpeed }},
	{model.MetricWindDirection, "degrees", func(o Observation) *float64 { return o.WindDirection }},
	{model.MetricPrecipitation, "mm", func(o Observation) *float64 { return o.Precipitation }},
	{model.MetricPressure, "hpa", func(o Observation) *float64 { return o.Pressure }},
}

// observedLayout is the timestamp format of the fint field, a naive UTC time.
const observedLayout = "2006-01-02T15:04:05"

// Normalize turns a raw observations payload into canonical points. Records
// missing the station id or carrying an unparsable timestamp are skipped and
// counted; absent measurement fields simply yield no point for that metric.
func (c *Client) Normalize(p Payload) ingest.NormalizeResult {
	var res ingest.NormalizeResult

	for _, rec := range p.Observations {
		if rec.IDEMA == "" {
			res.Skipped++
			continue
		}

		ts, err := parseObserved(rec.Observed)
		if err != nil {
			res.Skipped++
			continue
		}

		for _, f := range fieldTable {
			v := f.value(rec)
			if v == nil {
				continue
			}
			res.Points = append(res.Points, model.ObservationPoint{
				Source:     model.SourceAEMET,
				StationID:  rec.IDEMA,
				MeasuredAt: ts,
				Metric:     f.metric,
				Value:      *v,
				Unit:       f.unit,
			})
		}
	}

	return res
}

func parseObserved(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts.UTC(), nil
	}
	ts, err := time.Parse(observedLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return ts.UTC(), nil
}
