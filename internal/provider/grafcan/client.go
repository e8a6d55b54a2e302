package grafcan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/climacan/climacan/internal/ingest"
	"github.com/climacan/climacan/internal/model"
	"github.com/sony/gobreaker"
)

const defaultBaseURL = "https://sensores.grafcan.es/api/v1.0"

// Endpoint paths of the Grafcan SensorThings API.
const (
	observationsLastPath = "/observations_last/"
	thingsPath           = "/things/"
)

// Observation is one reading from the observations_last endpoint. Value is
// left untyped here; the normalizer validates it, skipping entries that do
// not carry a usable number.
type Observation struct {
	Name       string `json:"name"`
	Value      any    `json:"value"`
	Unit       string `json:"unitOfMeasurement"`
	ResultTime string `json:"resultTime"`
}

// observationsEnvelope is the response body of observations_last.
type observationsEnvelope struct {
	Observations []Observation `json:"observations"`
}

// StationObservations pairs a station with its most recent readings.
type StationObservations struct {
	Station      Station
	Observations []Observation
}

// Payload groups the latest observations of every registered station fetched
// in one poll cycle.
type Payload struct {
	Stations []StationObservations
}

// Client fetches the latest observations from the Grafcan sensor network.
type Client struct {
	name     string
	token    string
	baseURL  string
	client   *http.Client
	circuit  *gobreaker.CircuitBreaker
	registry *Registry
}

func NewClient(client *http.Client, token string) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "grafcan",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		name:     "grafcan",
		token:    token,
		baseURL:  defaultBaseURL,
		client:   client,
		circuit:  cb,
		registry: &Registry{},
	}
}

func (c *Client) Name() string {
	return c.name
}

func (c *Client) Source() model.Source {
	return model.SourceGrafcan
}

// Fetch retrieves the last observation set of every station in the registry,
// one call per station. Stations that fail individually are skipped; the
// fetch as a whole fails only when no station could be read.
func (c *Client) Fetch(ctx context.Context) (Payload, error) {
	stations := c.registry.List()
	if len(stations) == 0 {
		if err := c.RefreshStations(ctx); err != nil {
			return Payload{}, err
		}
		stations = c.registry.List()
	}

	var payload Payload
	var firstErr error
	for _, st := range stations {
		if ctx.Err() != nil {
			return Payload{}, ingest.NewFetchError(ingest.FetchErrNetwork, ctx.Err())
		}

		url := c.baseURL + observationsLastPath + "?thing=" + strconv.Itoa(st.ID)
		var env observationsEnvelope
		if err := c.getJSON(ctx, url, &env); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if len(env.Observations) == 0 {
			continue
		}
		payload.Stations = append(payload.Stations, StationObservations{
			Station:      st,
			Observations: env.Observations,
		})
	}

	if len(payload.Stations) == 0 && firstErr != nil {
		return Payload{}, firstErr
	}
	return payload, nil
}

// getJSON issues one authenticated GET through the circuit breaker and
// decodes the body into out.
func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ingest.NewFetchError(ingest.FetchErrNetwork, err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("Authorization", "Api-Key "+c.token)

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
