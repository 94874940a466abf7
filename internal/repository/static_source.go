package repository

import (
	"context"

	"github.com/crescendo-hq/lifecycle-api/internal/models"
)

// StaticSource serves a fixed set of row batches from memory. It stands in
// for the spreadsheet source in tests and local development.
type StaticSource struct {
	Batches []models.RowBatch
}

// NewStaticSource constructs a StaticSource.
func NewStaticSource(batches ...models.RowBatch) *StaticSource {
	return &StaticSource{Batches: batches}
}

// FetchBatches returns the configured batches unchanged.
func (s *StaticSource) FetchBatches(ctx context.Context) ([]models.RowBatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Batches, nil
}
