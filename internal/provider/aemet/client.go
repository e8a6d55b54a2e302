package aemet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/climacan/climacan/internal/ingest"
	"github.com/climacan/climacan/internal/model"
	"github.com/sony/gobreaker"
)

const defaultBaseURL = "https://opendata.aemet.es/opendata"

// Endpoint paths of the AEMET OpenData API.
const (
	observationsAllPath = "/api/observacion/convencional/todas"
)

// Canary Islands bounding box; the nationwide observations payload is
// filtered down to stations whose idema starts with "C" or whose coordinates
// fall inside it.
const (
	canaryLatMin = 27.0
	canaryLatMax = 29.0
	canaryLonMin = -19.0
	canaryLonMax = -13.0
)

// handshake is the envelope AEMET returns first; the observation data itself
// must be fetched with a second request to the Datos URL.
type handshake struct {
	Estado      int    `json:"estado"`
	Descripcion string `json:"descripcion"`
	Datos       string `json:"datos"`
}

// Observation is one station record from the conventional observations
// endpoint. Measurement fields are pointers because AEMET omits whatever a
// station does not measure.
type Observation struct {
	IDEMA    string  `json:"idema"`
	Station  string  `json:"ubi"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Observed string  `json:"fint"`

	Temperature   *float64 `json:"ta"`
	Humidity      *float64 `json:"hr"`
	WindSpeed     *float64 `json:"vv"`
	WindDirection *float64 `json:"dv"`
	Precipitation *float64 `json:"prec"`
	Pressure      *float64 `json:"pres"`
}

// Payload holds the Canary Islands subset of one observations fetch.
type Payload struct {
	Observations []Observation
}

// Client fetches conventional observations from the AEMET OpenData API.
type Client struct {
	name    string
	token   string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewClient(client *http.Client, token string) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "aemet",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		name:    "aemet",
		token:   token,
		baseURL: defaultBaseURL,
		client:  client,
		circuit: cb,
	}
}

func (c *Client) Name() string {
	return c.name
}

func (c *Client) Source() model.Source {
	return model.SourceAEMET
}

// Fetch retrieves the latest conventional observations for all stations and
// keeps only the Canary Islands ones. AEMET answers in two steps: a handshake
// envelope pointing at a data URL, then the data itself.
func (c *Client) Fetch(ctx context.Context) (Payload, error) {
	var hs handshake
	if err := c.getJSON(ctx, c.baseURL+observationsAllPath, &hs); err != nil {
		return Payload{}, err
	}
	if hs.Estado != http.StatusOK {
		return Payload{}, ingest.NewFetchError(ingest.ClassifyStatus(hs.Estado),
			fmt.Errorf("aemet handshake estado %d: %s", hs.Estado, hs.Descripcion))
	}
	if hs.Datos == "" {
		return Payload{}, ingest.NewFetchError(ingest.FetchErrParse,
			errors.New("aemet handshake has no datos url"))
	}

	var records []Observation
	if err := c.getJSON(ctx, hs.Datos, &records); err != nil {
		return Payload{}, err
	}

	canary := make([]Observation, 0, len(records))
	for _, rec := range records {
		if isCanary(rec) {
			canary = append(canary, rec)
		}
	}

	return Payload{Observations: canary}, nil
}

// getJSON issues one authenticated GET through the circuit breaker and
// decodes the body into out.
func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ingest.NewFetchError(ingest.FetchErrNetwork, err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	result, err := c.circuit.Execute(func() (interface{}, error) {
		resp, execErr := c.client.Do(req)
		if execErr != nil {
			return nil, ingest.NewFetchError(ingest.FetchErrNetwork, execErr)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			io.Copy(io.Discard, resp.Body)
			return nil, ingest.NewFetchError(ingest.ClassifyStatus(resp.StatusCode),
				fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url))
		}

		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, ingest.NewFetchError(ingest.FetchErrNetwork, readErr)
		}
		return body, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return ingest.NewFetchError(ingest.FetchErrNetwork, err)
		}
		return err
	}

	if err := json.Unmarshal(result.([]byte), out); err != nil {
		return ingest.NewFetchError(ingest.FetchErrParse, err)
	}
	return nil
}

func isCanary(o Observation) bool {
	if len(o.IDEMA) > 0 && o.IDEMA[0] == 'C' {
		return true
	}
	return o.Lat >= canaryLatMin && o.Lat <= canaryLatMax &&
		o.Lon >= canaryLonMin && o.Lon <= canaryLonMax
}
