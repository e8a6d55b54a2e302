package aemet

import (
	"net/http"
	"reflect"
	"testing"
	"time"

	"github.com/climacan/climacan/internal/model"
)

func fptr(v float64) *float64 {
	return &v
}

func TestNormalizeDeterministic(t *testing.T) {
	c := NewClient(&http.Client{}, "token")

	payload := Payload{Observations: []Observation{
		{
			IDEMA:         "C449E",
			Station:       "SANTA CRUZ DE TENERIFE",
			Observed:      "2024-03-01T10:00:00",
			Temperature:   fptr(21.4),
			Humidity:      fptr(64),
			WindSpeed:     fptr(3.2),
			WindDirection: fptr(270),
		},
		{
			IDEMA:         "C029O",
			Station:       "ARRECIFE",
			Observed:      "2024-03-01T10:00:00",
			Temperature:   fptr(23.1),
			Precipitation: fptr(0),
		},
	}}

	first := c.Normalize(payload)
	second := c.Normalize(payload)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("normalize is not deterministic:\nfirst:  %+v\nsecond: %+v", first, second)
	}
	if first.Skipped != 0 {
		t.Fatalf("expected no skipped entries, got %d", first.Skipped)
	}
	if len(first.Points) != 6 {
		t.Fatalf("expected 6 points, got %d", len(first.Points))
	}
}

func TestNormalizePointShape(t *testing.T) {
	c := NewClient(&http.Client{}, "token")

	payload := Payload{Observations: []Observation{
		{IDEMA: "C449E", Observed: "2024-03-01T10:00:00", Temperature: fptr(21.4)},
	}}

	res := c.Normalize(payload)
	if len(res.Points) != 1 {
		t.Fatalf("expected 1 point, got %d", len(res.Points))
	}

	p := res.Points[0]
	if p.Source != model.SourceAEMET {
		t.Errorf("expected source %q, got %q", model.SourceAEMET, p.Source)
	}
	if p.StationID != "C449E" {
		t.Errorf("expected station C449E, got %q", p.StationID)
	}
	if p.Metric != model.MetricTemperature || p.Unit != "celsius" {
		t.Errorf("expected temperature/celsius, got %s/%s", p.Metric, p.Unit)
	}
	if p.Value != 21.4 {
		t.Errorf("expected value 21.4, got %f", p.Value)
	}
	want := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	if !p.MeasuredAt.Equal(want) {
		t.Errorf("expected timestamp %s, got %s", want, p.MeasuredAt)
	}
	if p.MeasuredAt.Location() != time.UTC {
		t.Errorf("expected UTC timestamp, got %s", p.MeasuredAt.Location())
	}
}

func TestNormalizeSkipsMalformedEntries(t *testing.T) {
	c := NewClient(&http.Client{}, "token")

	payload := Payload{Observations: []Observation{
		{IDEMA: "C449E", Observed: "2024-03-01T10:00:00", Temperature: fptr(21.4)},
		{IDEMA: "", Observed: "2024-03-01T10:00:00", Temperature: fptr(18.0)}, // no station id
		{IDEMA: "C029O", Observed: "2024-03-01T10:00:00", Humidity: fptr(70)},
	}}

	res := c.Normalize(payload)
	if res.Skipped != 1 {
		t.Fatalf("expected 1 skipped entry, got %d", res.Skipped)
	}
	if len(res.Points) != 2 {
		t.Fatalf("expected 2 points from the valid entries, got %d", len(res.Points))
	}
}

func TestNormalizeSkipsBadTimestamp(t *testing.T) {
	c := NewClient(&http.Client{}, "token")

	payload := Payload{Observations: []Observation{
		{IDEMA: "C449E", Observed: "yesterday", Temperature: fptr(21.4)},
	}}

	res := c.Normalize(payload)
	if res.Skipped != 1 || len(res.Points) != 0 {
		t.Fatalf("expected 1 skipped and 0 points, got %d skipped, %d points", res.Skipped, len(res.Points))
	}
}

func TestNormalizeAbsentFieldsAreNotSkipped(t *testing.T) {
	c := NewClient(&http.Client{}, "token")

	// A station that reports nothing we map is valid, just empty.
	payload := Payload{Observations: []Observation{
		{IDEMA: "C449E", Observed: "2024-03-01T10:00:00"},
	}}

	res := c.Normalize(payload)
	if res.Skipped != 0 {
		t.Fatalf("expected 0 skipped, got %d", res.Skipped)
	}
	if len(res.Points) != 0 {
		t.Fatalf("expected 0 points, got %d", len(res.Points))
	}
}

func TestParseObservedAcceptsRFC3339(t *testing.T) {
	ts, err := parseObserved("2024-03-01T10:00:00+00:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	if !ts.Equal(want) {
		t.Fatalf("expected %s, got %s", want, ts)
	}
}
