package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateSerial(t *testing.T) {
	parsed, ok := ParseDate("44927")
	require.True(t, ok)
	assert.Equal(t, time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC), parsed)

	parsed, ok = ParseDate("1")
	require.True(t, ok)
	assert.Equal(t, time.Date(1899, time.December, 31, 0, 0, 0, 0, time.UTC), parsed)
}

func TestParseDateSerialFraction(t *testing.T) {
	parsed, ok := ParseDate("44927.5")
	require.True(t, ok)
	assert.Equal(t, time.Date(2023, time.January, 1, 12, 0, 0, 0, time.UTC), parsed)
}

func TestParseDateSerialBelowOne(t *testing.T) {
	_, ok := ParseDate("0.5")
	assert.False(t, ok)
}

func TestParseDateLayouts(t *testing.T) {
	cases := []struct {
		raw  string
		want time.Time
	}{
		{"03/15/2024", time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)},
		{"15-03-2024", time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)},
		{"2024-03-15", time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)},
		{"2024-03-15T10:30:00Z", time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC)},
		{"2024-03-15 10:30:00", time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC)},
		{"15 Mar 2024", time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)},
		{"Mar 15, 2024", time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)},
	}

	for _, tc := range cases {
		parsed, ok := ParseDate(tc.raw)
		require.True(t, ok, "raw %q", tc.raw)
		assert.Equal(t, tc.want, parsed, "raw %q", tc.raw)
	}
}

func TestParseDateAmbiguousPrefersMonthFirst(t *testing.T) {
	// Both readings are plausible; the layout priority makes the call.
	parsed, ok := ParseDate("05/04/2024")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, time.May, 4, 0, 0, 0, 0, time.UTC), parsed)
}

func TestParseDateSlashPaddingConsistent(t *testing.T) {
	// Zero-padding must not change which side of the slash is the month.
	padded, ok := ParseDate("03/04/2024")
	require.True(t, ok)
	unpadded, ok := ParseDate("3/4/2024")
	require.True(t, ok)
	assert.Equal(t, padded, unpadded)
	assert.Equal(t, time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC), unpadded)
}

func TestParseDateRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "   ", "not a date", "2024-13-45"} {
		_, ok := ParseDate(raw)
		assert.False(t, ok, "raw %q", raw)
	}
}
