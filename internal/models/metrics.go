package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateRange bounds a metrics query. Use NewDateRange so that bounds are
// always normalized to start-of-day / end-of-day inclusive instants.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewDateRange normalizes the given bounds to day granularity.
func NewDateRange(start, end time.Time) DateRange {
	return DateRange{Start: StartOfDay(start), End: EndOfDay(end)}
}

// Contains reports whether t falls inside the range (inclusive).
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// StartOfDay truncates t to midnight UTC.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the last instant of t's day in UTC.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).Add(24*time.Hour - time.Nanosecond)
}

// UnifiedMetrics is the point-in-time snapshot for one date range.
type UnifiedMetrics struct {
	Range                 DateRange       `json:"range"`
	NewEnrollments        int             `json:"new_enrollments"`
	EligibleForRenewal    int             `json:"eligible_for_renewal"`
	RenewedStudents       int             `json:"renewed_students"`
	ChurnedStudents       int             `json:"churned_students"`
	InGraceStudents       int             `json:"in_grace_students"`
	MultiActivityStudents int             `json:"multi_activity_students"`
	ActiveAtStart         int             `json:"active_at_start"`
	ActiveAtEnd           int             `json:"active_at_end"`
	RenewalPercentage     float64         `json:"renewal_percentage"`
	ChurnPercentage       float64         `json:"churn_percentage"`
	RetentionPercentage   float64         `json:"retention_percentage"`
	NetGrowthPercentage   float64         `json:"net_growth_percentage"`
	LifetimeValue         decimal.Decimal `json:"lifetime_value"`
}

// MonthlyMetrics is one calendar-month bucket of the trend series. Edge
// buckets may be clipped to the query range and so cover a partial month.
type MonthlyMetrics struct {
	Month          string    `json:"month"`
	PeriodStart    time.Time `json:"period_start"`
	PeriodEnd      time.Time `json:"period_end"`
	ActiveAtStart  int       `json:"active_at_start"`
	NewEnrollments int       `json:"new_enrollments"`
	Renewals       int       `json:"renewals"`
	Churned        int       `json:"churned"`
	ActiveAtEnd    int       `json:"active_at_end"`
	RenewalRate    float64   `json:"renewal_rate"`
	ChurnRate      float64   `json:"churn_rate"`
}

// CategoryMetrics groups the headline counts by course category.
type CategoryMetrics struct {
	Category    string `json:"category"`
	Enrollments int    `json:"enrollments"`
	Renewals    int    `json:"renewals"`
	Churned     int    `json:"churned"`
}
