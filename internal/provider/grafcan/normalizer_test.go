package grafcan

import (
	"net/http"
	"reflect"
	"testing"
	"time"

	"github.com/climacan/climacan/internal/model"
)

func testPayload() Payload {
	return Payload{Stations: []StationObservations{
		{
			Station: Station{ID: 12, Name: "Izaña"},
			Observations: []Observation{
				{Name: "Air temperature", Value: 14.2, Unit: "ºC", ResultTime: "2024-03-01T10:10:00Z"},
				{Name: "Relative humidity", Value: 55.0, Unit: "%", ResultTime: "2024-03-01T10:10:00Z"},
			},
		},
		{
			Station: Station{ID: 31, Name: "La Palma Este"},
			Observations: []Observation{
				{Name: "Wind speed", Value: 7.8, Unit: "m/s", ResultTime: "2024-03-01T10:10:00Z"},
			},
		},
	}}
}

func TestNormalizeDeterministic(t *testing.T) {
	c := NewClient(&http.Client{}, "token")

	first := c.Normalize(testPayload())
	second := c.Normalize(testPayload())

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("normalize is not deterministic:\nfirst:  %+v\nsecond: %+v", first, second)
	}
	if len(first.Points) != 3 || first.Skipped != 0 {
		t.Fatalf("expected 3 points and 0 skipped, got %d points, %d skipped",
			len(first.Points), first.Skipped)
	}
}

func TestNormalizePointShape(t *testing.T) {
	c := NewClient(&http.Client{}, "token")

	res := c.Normalize(testPayload())
	p := res.Points[0]

	if p.Source != model.SourceGrafcan {
		t.Errorf("expected source %q, got %q", model.SourceGrafcan, p.Source)
	}
	if p.StationID != "12" {
		t.Errorf("expected station 12, got %q", p.StationID)
	}
	if p.Metric != model.MetricTemperature || p.Unit != "celsius" {
		t.Errorf("expected temperature/celsius, got %s/%s", p.Metric, p.Unit)
	}
	want := time.Date(2024, 3, 1, 10, 10, 0, 0, time.UTC)
	if !p.MeasuredAt.Equal(want) {
		t.Errorf("expected timestamp %s, got %s", want, p.MeasuredAt)
	}
}

func TestNormalizeSkipsStationWithMalformedTemperature(t *testing.T) {
	c := NewClient(&http.Client{}, "token")

	payload := Payload{Stations: []StationObservations{
		{
			Station: Station{ID: 12},
			Observations: []Observation{
				{Name: "Air temperature", Value: 14.2, ResultTime: "2024-03-01T10:10:00Z"},
				{Name: "Relative humidity", Value: 55.0, ResultTime: "2024-03-01T10:10:00Z"},
			},
		},
		{
			Station: Station{ID: 31},
			Observations: []Observation{
				// Temperature present but unusable: no numeric value.
				{Name: "Air temperature", Value: nil, ResultTime: "2024-03-01T10:10:00Z"},
			},
		},
	}}

	res := c.Normalize(payload)
	if res.Skipped != 1 {
		t.Fatalf("expected 1 skipped entry, got %d", res.Skipped)
	}
	if len(res.Points) != 2 {
		t.Fatalf("expected 2 points from the valid station, got %d", len(res.Points))
	}
	for _, p := range res.Points {
		if p.StationID != "12" {
			t.Fatalf("expected all points from station 12, got %+v", p)
		}
	}
}

func TestNormalizeSkipsUnknownMeasurement(t *testing.T) {
	c := NewClient(&http.Client{}, "token")

	payload := Payload{Stations: []StationObservations{
		{
			Station: Station{ID: 12},
			Observations: []Observation{
				{Name: "Soil salinity", Value: 1.1, ResultTime: "2024-03-01T10:10:00Z"},
			},
		},
	}}

	res := c.Normalize(payload)
	if res.Skipped != 1 || len(res.Points) != 0 {
		t.Fatalf("expected 1 skipped and 0 points, got %d skipped, %d points",
			res.Skipped, len(res.Points))
	}
}

func TestNormalizeSkipsBadResultTime(t *testing.T) {
	c := NewClient(&http.Client{}, "token")

	payload := Payload{Stations: []StationObservations{
		{
			Station: Station{ID: 12},
			Observations: []Observation{
				{Name: "Air temperature", Value: 14.2, ResultTime: "10:10"},
			},
		},
	}}

	res := c.Normalize(payload)
	if res.Skipped != 1 || len(res.Points) != 0 {
		t.Fatalf("expected 1 skipped and 0 points, got %d skipped, %d points",
			res.Skipped, len(res.Points))
	}
}

func TestNumericValueCoercion(t *testing.T) {
	cases := []struct {
		in   any
		want float64
		ok   bool
	}{
		{14.2, 14.2, true},
		{"7.5", 7.5, true},
		{"n/a", 0, false},
		{nil, 0, false},
		{true, 0, false},
	}

	for _, tc := range cases {
		got, ok := numericValue(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("numericValue(%v) = %v, %v; want %v, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
