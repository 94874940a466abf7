package service

import (
	"time"

	"github.com/crescendo-hq/lifecycle-api/internal/models"
)

// LifecycleStatus is the subscription state of a student at a reference date.
type LifecycleStatus string

// Lifecycle states. Renewed is a derived historical label for an expiration
// cycle rescued by a valid renewal, not a live state of its own.
const (
	StatusLifetime LifecycleStatus = "lifetime"
	StatusActive   LifecycleStatus = "active"
	StatusInGrace  LifecycleStatus = "in_grace"
	StatusRenewed  LifecycleStatus = "renewed"
	StatusChurned  LifecycleStatus = "churned"
)

// DefaultGraceDays is the window after expiration during which a late
// renewal still counts as non-churn.
const DefaultGraceDays = 45

// Classification is the outcome of evaluating one student at one date.
type Classification struct {
	Status             LifecycleStatus `json:"status"`
	EligibleForRenewal bool            `json:"eligible_for_renewal"`
}

// Active reports whether the classification counts toward the active
// population. Everything short of churned does.
func (c Classification) Active() bool {
	return c.Status != StatusChurned
}

// GraceEnd returns the inclusive end of the grace window for an expiration.
func GraceEnd(end time.Time, graceDays int) time.Time {
	if graceDays <= 0 {
		graceDays = DefaultGraceDays
	}
	return end.AddDate(0, 0, graceDays)
}

// Classify determines the student's subscription status as of an arbitrary
// reference date. The rules are re-derivable for any historical date:
//
//   - a lifetime package is terminal and unconditional
//   - before expiration the student is active
//   - a student with no expiration cannot be evaluated for churn
//   - between expiration and grace end the student is in grace unless a
//     valid renewal has already landed, in which case the cycle is renewed
//   - past grace end without a valid in-window renewal the student churned
//
// A renewal only counts when dated strictly after the expiration it extends;
// the grace end itself is inclusive.
func Classify(student *models.UnifiedStudent, asOf time.Time, graceDays int) Classification {
	if student.Lifetime {
		return Classification{Status: StatusLifetime}
	}
	if student.EndDate == nil {
		return Classification{Status: StatusActive}
	}

	end := *student.EndDate
	if asOf.Before(end) {
		return Classification{Status: StatusActive}
	}

	grace := GraceEnd(end, graceDays)
	rescue := rescueRenewal(student, end, grace)

	if rescue != nil && !rescue.After(asOf) {
		return Classification{Status: StatusRenewed}
	}
	if asOf.Before(grace) {
		return Classification{Status: StatusInGrace, EligibleForRenewal: true}
	}
	return Classification{Status: StatusChurned}
}

// rescueRenewal returns the earliest renewal dated inside (end, grace] or
// nil when the cycle was never extended in time.
func rescueRenewal(student *models.UnifiedStudent, end, grace time.Time) *time.Time {
	var earliest *time.Time
	for i := range student.RenewalDates {
		r := student.RenewalDates[i]
		if !r.After(end) || r.After(grace) {
			continue
		}
		if earliest == nil || r.Before(*earliest) {
			earliest = &student.RenewalDates[i]
		}
	}
	return earliest
}

// ChurnedInRange reports whether the student's grace window closed inside
// the range without any valid renewal arriving in time.
func ChurnedInRange(student *models.UnifiedStudent, r models.DateRange, graceDays int) bool {
	if student.Lifetime || student.EndDate == nil {
		return false
	}
	grace := GraceEnd(*student.EndDate, graceDays)
	if !r.Contains(grace) {
		return false
	}
	return rescueRenewal(student, *student.EndDate, grace) == nil
}
