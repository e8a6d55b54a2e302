package grafcan

import (
	"context"
	"fmt"
	"sync"

	"github.com/climacan/climacan/internal/ingest"
)

// Station is one Grafcan sensor platform ("thing") from the metadata API.
type Station struct {
	ID          int
	Name        string
	Description string
}

// Registry holds the station list the client polls observations for. It is
// loaded at startup and refreshed on a cron; reads and writes may come from
// different goroutines.
type Registry struct {
	mu       sync.RWMutex
	stations []Station
}

func (r *Registry) set(stations []Station) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stations = stations
}

// List returns a copy of the current station list.
func (r *Registry) List() []Station {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Station, len(r.stations))
	copy(out, r.stations)
	return out
}

// thingsPage is one page of the /things/ listing.
type thingsPage struct {
	Count   int           `json:"count"`
	Next    *string       `json:"next"`
	Results []thingRecord `json:"results"`
}

type thingRecord struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// RefreshStations reloads the station registry from the metadata API,
// following pagination. The previous registry is kept on failure.
func (c *Client) RefreshStations(ctx context.Context) error {
	url := c.baseURL + thingsPath

	var stations []Station
	for url != "" {
		var page thingsPage
		if err := c.getJSON(ctx, url, &page); err != nil {
			return err
		}
		for _, rec := range page.Results {
			if rec.ID == 0 {
				continue
			}
			stations = append(stations, Station{
				ID:          rec.ID,
				Name:        rec.Name,
				Description: rec.Description,
			})
		}
		if page.Next == nil {
			break
		}
		url = *page.Next
	}

	if len(stations) == 0 {
		return ingest.NewFetchError(ingest.FetchErrParse,
			fmt.Errorf("grafcan station listing returned no stations"))
	}

	c.registry.set(stations)
	return nil
}
