package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/crescendo-hq/lifecycle-api/internal/models"
)

func TestStaticSourceReturnsBatches(t *testing.T) {
	batch := models.RowBatch{
		Source: models.SourcePrimaryForm,
		Rows:   []models.RawRow{{Name: "Jane Doe"}},
	}
	src := NewStaticSource(batch)

	got, err := src.FetchBatches(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, batch.Source, got[0].Source)
	assert.Equal(t, "Jane Doe", got[0].Rows[0].Name)
}

func TestStaticSourceHonorsContext(t *testing.T) {
	src := NewStaticSource()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := src.FetchBatches(ctx)
	assert.Error(t, err)
}

func TestRawRowsFromValues(t *testing.T) {
	values := [][]interface{}{
		{"Jane Doe", "jane@example.com", "555-0101", "Keyboard, Vocals", "2024-01-15", "Quarterly", "₹12,000", "note", "2024-04-15", "IN-KB-100-JDOE", "active"},
		{"Short Row"},
		{nil, nil, nil, nil, 44927},
	}

	rows := rawRowsFromValues(values)
	require.Len(t, rows, 3)

	assert.Equal(t, "Jane Doe", rows[0].Name)
	assert.Equal(t, "jane@example.com", rows[0].Email)
	assert.Equal(t, "Keyboard, Vocals", rows[0].Activities)
	assert.Equal(t, "2024-01-15", rows[0].StartDate)
	assert.Equal(t, "₹12,000", rows[0].Fees)
	assert.Equal(t, "2024-04-15", rows[0].EndDate)
	assert.Equal(t, "IN-KB-100-JDOE", rows[0].ExternalID)
	assert.Equal(t, "active", rows[0].Status)

	assert.Equal(t, "Short Row", rows[1].Name)
	assert.Empty(t, rows[1].ExternalID)

	// Non-string cells stringify; serial dates survive for the parser.
	assert.Equal(t, "44927", rows[2].StartDate)
	assert.Empty(t, rows[2].Name)
}

func TestRetryable(t *testing.T) {
	// Plain network errors are retried; API errors only for throttling and
	// server faults.
	assert.True(t, retryable(assert.AnError))
	assert.True(t, retryable(&googleapi.Error{Code: 429}))
	assert.True(t, retryable(&googleapi.Error{Code: 503}))
	assert.False(t, retryable(&googleapi.Error{Code: 404}))
	assert.False(t, retryable(&googleapi.Error{Code: 403}))
}
