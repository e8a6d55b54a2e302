package ingest

import (
	"context"

	"github.com/climacan/climacan/internal/model"
)

// NormalizeResult carries the points produced from one raw payload together
// with the number of malformed entries that were skipped instead of aborting
// the batch.
type NormalizeResult struct {
	Points  []model.ObservationPoint
	Skipped int
}

// Provider is the per-source capability set the collector loop drives. The
// payload type is provider-specific. Fetch performs one logical fetch per
// invocation and never retries on its own; retry policy belongs to the
// collector loop. Normalize must be deterministic and free of I/O so it can
// be unit tested without network access.
type Provider[P any] interface {
	Name() string
	Source() model.Source
	Fetch(ctx context.Context) (P, error)
	Normalize(payload P) NormalizeResult
}
