package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/crescendo-hq/lifecycle-api/internal/ingest"
	"github.com/crescendo-hq/lifecycle-api/internal/models"
)

// RowSource produces raw row batches tagged with their provenance.
type RowSource interface {
	FetchBatches(ctx context.Context) ([]models.RowBatch, error)
}

// DatasetService owns the current in-memory dataset snapshot. Refresh
// replaces the snapshot wholesale; readers always see a complete, immutable
// dataset. Nothing is persisted.
type DatasetService struct {
	source      RowSource
	normalizer  *ingest.Normalizer
	cache       *CacheService
	instruments *InstrumentService
	logger      *zap.Logger
	now         func() time.Time

	current atomic.Pointer[models.Dataset]
}

// NewDatasetService constructs a DatasetService holding an empty dataset.
func NewDatasetService(source RowSource, cache *CacheService, instruments *InstrumentService, logger *zap.Logger) *DatasetService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &DatasetService{
		source:      source,
		normalizer:  ingest.NewNormalizer(),
		cache:       cache,
		instruments: instruments,
		logger:      logger,
		now:         time.Now,
	}
	s.current.Store(&models.Dataset{Version: "empty"})
	return s
}

// Dataset returns the current snapshot. It is never nil; before the first
// refresh it is empty, which the aggregator turns into zeroed metrics.
func (s *DatasetService) Dataset() *models.Dataset {
	return s.current.Load()
}

// Diagnostics returns parse/merge diagnostics for the current snapshot.
func (s *DatasetService) Diagnostics() models.Diagnostics {
	return s.current.Load().Diagnostics
}

// Refresh fetches all configured row batches, normalizes them, and swaps in
// a fresh dataset snapshot. Computed-metric caches for older snapshots are
// invalidated.
func (s *DatasetService) Refresh(ctx context.Context) (*models.Dataset, error) {
	batches, err := s.source.FetchBatches(ctx)
	if err != nil {
		s.instruments.RecordRefresh(err)
		return nil, fmt.Errorf("fetch row batches: %w", err)
	}

	ds := &models.Dataset{
		Version:   uuid.NewString(),
		FetchedAt: s.now().UTC(),
	}
	for _, batch := range batches {
		normalized, diag := s.normalizer.Normalize(batch)
		ds.Enrollments = append(ds.Enrollments, normalized.Enrollments...)
		ds.Renewals = append(ds.Renewals, normalized.Renewals...)
		ds.Diagnostics.Add(diag)

		parsed := len(normalized.Enrollments) + len(normalized.Renewals)
		s.instruments.RecordBatch(string(batch.Source), parsed, diag.InvalidRows)
	}

	s.current.Store(ds)
	s.instruments.RecordRefresh(nil)
	if s.cache.Enabled() {
		if err := s.cache.Invalidate(ctx, "lifecycle:*"); err != nil {
			s.logger.Warn("metric cache invalidation failed", zap.Error(err))
		}
	}

	s.logger.Info("dataset refreshed",
		zap.String("version", ds.Version),
		zap.Int("enrollments", len(ds.Enrollments)),
		zap.Int("renewals", len(ds.Renewals)),
		zap.Int("invalid_rows", ds.Diagnostics.InvalidRows),
		zap.Int("missing_ids", ds.Diagnostics.MissingIDs),
	)
	return ds, nil
}
