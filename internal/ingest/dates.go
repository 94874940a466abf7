package ingest

import (
	"strconv"
	"strings"
	"time"
)

// serialEpoch is the spreadsheet serial-date origin (day 0 = 1899-12-30).
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// dateLayouts are tried in fixed priority order; the first match wins.
var dateLayouts = []string{
	"01/02/2006",
	"02-01-2006",
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2 Jan 2006",
	"02 Jan 2006",
	"Jan 2, 2006",
	"1/2/2006",
}

// ParseDate resolves a raw cell into a UTC timestamp. Numeric values are
// treated as spreadsheet day serials; anything else is tried against the
// known text layouts. The boolean is false when nothing matches.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}

	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		// Serials below 1 would predate the epoch; real sheets never
		// produce them for dates.
		if serial < 1 {
			return time.Time{}, false
		}
		days := int(serial)
		frac := serial - float64(days)
		t := serialEpoch.AddDate(0, 0, days)
		if frac > 0 {
			t = t.Add(time.Duration(frac * float64(24*time.Hour)))
		}
		return t, true
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
