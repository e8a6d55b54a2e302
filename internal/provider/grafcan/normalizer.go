package grafcan

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/climacan/climacan/internal/common"
	"github.com/climacan/climacan/internal/ingest"
	"github.com/climacan/climacan/internal/model"
)

// metricSpec names the canonical metric and unit for one Grafcan observation.
type metricSpec struct {
	metric string
	unit   string
}

// metricsByName drives normalization; the lookup key is the observation name
// after common.CleanName. Grafcan names the same quantity differently across
// station models, hence the aliases. Supporting a new measurement means a new
// row here, not new control flow.
var metricsByName = map[string]metricSpec{
	"air_temperature":      {model.MetricTemperature, "celsius"},
	"temperature":          {model.MetricTemperature, "celsius"},
	"relative_humidity":    {model.MetricHumidity, "percent"},
	"humidity":             {model.MetricHumidity, "percent"},
	"wind_speed":           {model.MetricWindSpeed, "m_s"},
	"wind_direction":       {model.MetricWindDirection, "degrees"},
	"precipitation":        {model.MetricPrecipitation, "mm"},
	"rainfall":             {model.MetricPrecipitation, "mm"},
	"atmospheric_pressure": {model.MetricPressure, "hpa"},
	"barometric_pressure":  {model.MetricPressure, "hpa"},
	"pressure":             {model.MetricPressure, "hpa"},
}

// Normalize turns the per-station observation sets into canonical points.
// Observations with an unknown name, an unparsable timestamp, or a value that
// is not a number are skipped and counted.
func (c *Client) Normalize(p Payload) ingest.NormalizeResult {
	var res ingest.NormalizeResult

	for _, st := range p.Stations {
		stationID := strconv.Itoa(st.Station.ID)

		for _, obs := range st.Observations {
			spec, ok := metricsByName[common.CleanName(obs.Name)]
			if !ok {
				res.Skipped++
				continue
			}

			ts, err := time.Parse(time.RFC3339, obs.ResultTime)
			if err != nil {
				res.Skipped++
				continue
			}

			value, ok := numericValue(obs.Value)
			if !ok {
				res.Skipped++
				continue
			}

			res.Points = append(res.Points, model.ObservationPoint{
				Source:     model.SourceGrafcan,
				StationID:  stationID,
				MeasuredAt: ts.UTC(),
				Metric:     spec.metric,
				Value:      value,
				Unit:       spec.unit,
			})
		}
	}

	return res
}

// numericValue coerces the loosely typed observation value into a float64.
func numericValue(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(val, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
