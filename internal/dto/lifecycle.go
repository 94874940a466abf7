package dto

import (
	"time"

	"github.com/crescendo-hq/lifecycle-api/internal/models"
)

// DatasetInfo identifies the dataset version a response was computed from.
type DatasetInfo struct {
	Version   string    `json:"version"`
	FetchedAt time.Time `json:"fetched_at"`
}

// SnapshotResponse wraps the headline metrics for a date range.
type SnapshotResponse struct {
	Dataset DatasetInfo            `json:"dataset"`
	Metrics *models.UnifiedMetrics `json:"metrics"`
}

// SeriesResponse carries the month-by-month trend for a date range.
type SeriesResponse struct {
	Dataset DatasetInfo             `json:"dataset"`
	Months  []models.MonthlyMetrics `json:"months"`
}

// BreakdownResponse carries per-category counts ordered by enrollment volume.
type BreakdownResponse struct {
	Dataset    DatasetInfo              `json:"dataset"`
	Categories []models.CategoryMetrics `json:"categories"`
}

// DrillDownResponse lists the students behind one headline metric.
type DrillDownResponse struct {
	Dataset  DatasetInfo             `json:"dataset"`
	Metric   string                  `json:"metric"`
	Count    int                     `json:"count"`
	Students []models.StudentWithLTV `json:"students"`
}

// RefreshResponse reports the outcome of a dataset refresh.
type RefreshResponse struct {
	Dataset     DatasetInfo        `json:"dataset"`
	Enrollments int                `json:"enrollments"`
	Renewals    int                `json:"renewals"`
	Diagnostics models.Diagnostics `json:"diagnostics"`
}

// DiagnosticsResponse exposes row-level quality counters for the current dataset.
type DiagnosticsResponse struct {
	Dataset     DatasetInfo        `json:"dataset"`
	Diagnostics models.Diagnostics `json:"diagnostics"`
}

// NewDatasetInfo extracts the identifying fields from a dataset.
func NewDatasetInfo(ds *models.Dataset) DatasetInfo {
	if ds == nil {
		return DatasetInfo{}
	}
	return DatasetInfo{Version: ds.Version, FetchedAt: ds.FetchedAt}
}
