// Package repository defines the projection cache interface and errors.
package repository

import (
	"context"

	"github.com/okian/peakline/internal/domain/model"
)

// Cache provides read/write access to recently computed projections.
// The engine is deterministic, so a chart cached under its canonical
// request fingerprint can be replayed for any identical request.
type Cache interface {
	// Put stores a computed chart under its request fingerprint.
	Put(ctx context.Context, fingerprint string, chart model.ProjectionChart)

	// Get returns the chart cached for a request fingerprint.
	Get(ctx context.Context, fingerprint string) (model.ProjectionChart, bool)

	// ByID returns the cached chart with the given projection id.
	// Returns ErrNotFound if the id is unknown or already evicted.
	ByID(ctx context.Context, id string) (model.ProjectionChart, error)

	// Size returns the number of cached projections.
	Size() int
}
