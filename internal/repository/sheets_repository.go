package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/crescendo-hq/lifecycle-api/internal/models"
)

// TabMapping binds one spreadsheet tab to the provenance source its rows
// carry through normalization.
type TabMapping struct {
	Tab    string
	Source models.Source
}

// SheetsConfig configures the spreadsheet row source.
type SheetsConfig struct {
	SpreadsheetID   string
	APIKey          string
	CredentialsFile string
	Tabs            []TabMapping
	MaxRetries      int
	RetryDelay      time.Duration
}

// SheetsRepository pulls raw rows from a Google Sheets document. Each
// configured tab becomes one RowBatch tagged with its source; the positional
// cell layout is mapped to named fields here so nothing downstream indexes
// into untyped arrays.
type SheetsRepository struct {
	svc    *sheets.Service
	cfg    SheetsConfig
	logger *zap.Logger
}

// NewSheetsRepository builds the sheets client. Credentials resolve in
// order: service-account file, then API key.
func NewSheetsRepository(ctx context.Context, cfg SheetsConfig, logger *zap.Logger) (*SheetsRepository, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("sheets: spreadsheet id is required")
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts, err := clientOptions(ctx, cfg)
	if err != nil {
		return nil, err
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets: build service: %w", err)
	}
	return &SheetsRepository{svc: svc, cfg: cfg, logger: logger}, nil
}

func clientOptions(ctx context.Context, cfg SheetsConfig) ([]option.ClientOption, error) {
	if cfg.CredentialsFile != "" {
		raw, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("sheets: read credentials: %w", err)
		}
		creds, err := google.CredentialsFromJSON(ctx, raw, sheets.SpreadsheetsReadonlyScope)
		if err != nil {
			return nil, fmt.Errorf("sheets: parse credentials: %w", err)
		}
		return []option.ClientOption{option.WithCredentials(creds)}, nil
	}
	if cfg.APIKey != "" {
		return []option.ClientOption{option.WithAPIKey(cfg.APIKey)}, nil
	}
	return nil, fmt.Errorf("sheets: either credentials file or api key is required")
}

// FetchBatches reads every configured tab and returns one batch per tab.
// A single failing tab fails the whole fetch: partial datasets would skew
// every downstream metric.
func (r *SheetsRepository) FetchBatches(ctx context.Context) ([]models.RowBatch, error) {
	batches := make([]models.RowBatch, 0, len(r.cfg.Tabs))
	for _, mapping := range r.cfg.Tabs {
		rows, err := r.fetchTab(ctx, mapping.Tab)
		if err != nil {
			return nil, fmt.Errorf("fetch tab %q: %w", mapping.Tab, err)
		}
		r.logger.Debug("tab fetched",
			zap.String("tab", mapping.Tab),
			zap.String("source", string(mapping.Source)),
			zap.Int("rows", len(rows)),
		)
		batches = append(batches, models.RowBatch{Source: mapping.Source, Rows: rows})
	}
	return batches, nil
}

// fetchTab reads the tab's data range, retrying transient upstream errors
// with exponential backoff.
func (r *SheetsRepository) fetchTab(ctx context.Context, tab string) ([]models.RawRow, error) {
	readRange := fmt.Sprintf("%s!A2:K", tab)

	var lastErr error
	for attempt := 0; attempt <= r.cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := r.svc.Spreadsheets.Values.Get(r.cfg.SpreadsheetID, readRange).Context(ctx).Do()
		if err == nil {
			return rawRowsFromValues(resp.Values), nil
		}
		if !retryable(err) {
			return nil, err
		}
		lastErr = err

		if attempt < r.cfg.MaxRetries {
			delay := r.cfg.RetryDelay * time.Duration(1<<attempt)
			r.logger.Warn("sheets fetch failed, retrying",
				zap.String("tab", tab),
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", delay),
				zap.Error(err),
			)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, fmt.Errorf("after %d attempts: %w", r.cfg.MaxRetries+1, lastErr)
}

func retryable(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		// Network-level errors are worth retrying.
		return true
	}
	return apiErr.Code == 429 || apiErr.Code >= 500
}

// rawRowsFromValues maps the fixed column layout (name, email, phone,
// activities, start date, package, fees, notes, end date, external id,
// status) onto named fields.
func rawRowsFromValues(values [][]interface{}) []models.RawRow {
	rows := make([]models.RawRow, 0, len(values))
	for _, cells := range values {
		rows = append(rows, models.RawRow{
			Name:       cellString(cells, 0),
			Email:      cellString(cells, 1),
			Phone:      cellString(cells, 2),
			Activities: cellString(cells, 3),
			StartDate:  cellString(cells, 4),
			Package:    cellString(cells, 5),
			Fees:       cellString(cells, 6),
			Notes:      cellString(cells, 7),
			EndDate:    cellString(cells, 8),
			ExternalID: cellString(cells, 9),
			Status:     cellString(cells, 10),
		})
	}
	return rows
}

func cellString(cells []interface{}, idx int) string {
	if idx >= len(cells) || cells[idx] == nil {
		return ""
	}
	if s, ok := cells[idx].(string); ok {
		return s
	}
	return fmt.Sprint(cells[idx])
}
