package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Source identifies which sheet/tab a raw row came from. It is attached to a
// whole batch before normalization so that overlapping sheets are never
// double-counted.
type Source string

// Known provenance tags.
const (
	SourcePrimaryForm       Source = "primary_form"
	SourceLegacyForm        Source = "legacy_form"
	SourceGatewayImport     Source = "gateway_import"
	SourcePrimaryRenewal    Source = "primary_renewal"
	SourceHistoricalRenewal Source = "historical_renewal"
	SourceGatewayRenewal    Source = "gateway_renewal"
)

// IsRenewal reports whether rows from this source describe renewal events
// rather than first enrollments.
func (s Source) IsRenewal() bool {
	switch s {
	case SourcePrimaryRenewal, SourceHistoricalRenewal, SourceGatewayRenewal:
		return true
	}
	return false
}

// ParseSource maps a configured tag to a known Source.
func ParseSource(raw string) (Source, bool) {
	switch Source(raw) {
	case SourcePrimaryForm, SourceLegacyForm, SourceGatewayImport,
		SourcePrimaryRenewal, SourceHistoricalRenewal, SourceGatewayRenewal:
		return Source(raw), true
	}
	return "", false
}

// RawRow is one spreadsheet row lifted out of its positional cell layout into
// named fields. The row source layer performs the positional mapping; from
// here on nothing indexes into untyped arrays.
type RawRow struct {
	Name       string `validate:"required"`
	Email      string `validate:"omitempty,email"`
	Phone      string
	Activities string
	StartDate  string
	Package    string
	Fees       string
	Notes      string
	EndDate    string
	ExternalID string
	Status     string
}

// RowBatch pairs a slice of rows with their provenance tag.
type RowBatch struct {
	Source Source
	Rows   []RawRow
}

// EnrollmentRecord is one normalized row from an enrollment source.
type EnrollmentRecord struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Email          string           `json:"email,omitempty"`
	Phone          string           `json:"phone,omitempty"`
	Activities     []string         `json:"activities"`
	CourseCategory string           `json:"course_category"`
	EnrollmentDate time.Time        `json:"enrollment_date"`
	EndDate        *time.Time       `json:"end_date,omitempty"`
	Fees           *decimal.Decimal `json:"fees,omitempty"`
	Package        string           `json:"package,omitempty"`
	StrikeOff      bool             `json:"strike_off"`
	Source         Source           `json:"source"`
	SyntheticID    bool             `json:"-"`
}

// RenewalRecord is one normalized row from a renewal source. EndDate, when
// present, is the new expiration granted by this renewal.
type RenewalRecord struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Email          string           `json:"email,omitempty"`
	Phone          string           `json:"phone,omitempty"`
	CourseCategory string           `json:"course_category"`
	RenewalDate    *time.Time       `json:"renewal_date,omitempty"`
	EndDate        *time.Time       `json:"end_date,omitempty"`
	Fees           *decimal.Decimal `json:"fees,omitempty"`
	Package        string           `json:"package,omitempty"`
	Source         Source           `json:"source"`
	SyntheticID    bool             `json:"-"`
}

// Diagnostics counts the rows a normalization pass could not fully use. It is
// returned as a value alongside the parsed batch; callers decide whether and
// how to log it.
type Diagnostics struct {
	RowsSeen              int `json:"rows_seen"`
	MissingIDs            int `json:"missing_ids"`
	InvalidDates          int `json:"invalid_dates"`
	InvalidRows           int `json:"invalid_rows"`
	StruckOff             int `json:"struck_off"`
	UnmatchedRenewals     int `json:"unmatched_renewals"`
	DuplicateRenewalDates int `json:"duplicate_renewal_dates"`
}

// Add folds another diagnostics value into this one.
func (d *Diagnostics) Add(other Diagnostics) {
	d.RowsSeen += other.RowsSeen
	d.MissingIDs += other.MissingIDs
	d.InvalidDates += other.InvalidDates
	d.InvalidRows += other.InvalidRows
	d.StruckOff += other.StruckOff
	d.UnmatchedRenewals += other.UnmatchedRenewals
	d.DuplicateRenewalDates += other.DuplicateRenewalDates
}

// Dataset is one immutable in-memory snapshot of normalized records. It is
// rebuilt wholesale on every refresh; nothing mutates it afterwards.
type Dataset struct {
	Version     string             `json:"version"`
	FetchedAt   time.Time          `json:"fetched_at"`
	Enrollments []EnrollmentRecord `json:"-"`
	Renewals    []RenewalRecord    `json:"-"`
	Diagnostics Diagnostics        `json:"diagnostics"`
}
