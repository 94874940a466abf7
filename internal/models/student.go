package models

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// BaseID strips the category-code infix from a student identity so that
// multi-category enrollments of the same person collapse into one entity.
// An id of the form COUNTRY-CAT-REGION-NAME becomes COUNTRY-REGION-NAME; ids
// with two or fewer segments are already their own base.
func BaseID(id string) string {
	parts := strings.Split(id, "-")
	if len(parts) <= 2 {
		return id
	}
	return strings.Join(append(parts[:1:1], parts[2:]...), "-")
}

// UnifiedStudent is the merged view of every record sharing a base id. It is
// a derived, ephemeral value: rebuilt from scratch on every computation and
// never mutated outside the roster builder.
type UnifiedStudent struct {
	BaseID           string   `json:"base_id"`
	Name             string   `json:"name"`
	Email            string   `json:"email,omitempty"`
	Phone            string   `json:"phone,omitempty"`
	Activities       []string `json:"activities"`
	CourseCategories []string `json:"course_categories"`
	// EnrollmentDate is the earliest across merged records: the original
	// signup, not the most recent one.
	EnrollmentDate time.Time `json:"enrollment_date"`
	// EnrollmentDates keeps every merged record's signup date so that range
	// participation sees a later sibling enrollment, not just the earliest.
	EnrollmentDates []time.Time `json:"enrollment_dates"`
	// EnrollmentEndDate is the latest expiration contributed by enrollment
	// sources alone; renewal validity is judged against it.
	EnrollmentEndDate *time.Time `json:"enrollment_end_date,omitempty"`
	// EndDate is the latest expiration across all merged records, including
	// extensions granted by renewal rows.
	EndDate      *time.Time      `json:"end_date,omitempty"`
	RenewalDates []time.Time     `json:"renewal_dates"`
	Fees         decimal.Decimal `json:"fees"`
	Package      string          `json:"package,omitempty"`
	Lifetime     bool            `json:"lifetime"`
	Synthetic    bool            `json:"synthetic"`
}

// ValidRenewals returns the renewal dates that are genuine extensions:
// strictly after the enrollment-sourced expiration. A student with no
// enrollment expiration cannot have a pre-expiration payment, so every
// renewal counts. Result is ascending.
func (s *UnifiedStudent) ValidRenewals() []time.Time {
	if s.EnrollmentEndDate == nil {
		return s.RenewalDates
	}
	valid := make([]time.Time, 0, len(s.RenewalDates))
	for _, r := range s.RenewalDates {
		if r.After(*s.EnrollmentEndDate) {
			valid = append(valid, r)
		}
	}
	return valid
}

// MultiActivity reports whether the merged identity spans more than one
// activity or course category.
func (s *UnifiedStudent) MultiActivity() bool {
	return len(s.Activities) > 1 || len(s.CourseCategories) > 1
}

// SortSets orders the internal sets so that identical inputs always produce
// byte-identical students regardless of merge order.
func (s *UnifiedStudent) SortSets() {
	sort.Strings(s.Activities)
	sort.Strings(s.CourseCategories)
	sort.Slice(s.EnrollmentDates, func(i, j int) bool { return s.EnrollmentDates[i].Before(s.EnrollmentDates[j]) })
	sort.Slice(s.RenewalDates, func(i, j int) bool { return s.RenewalDates[i].Before(s.RenewalDates[j]) })
}

// EnrolledInRange reports whether any merged enrollment record's signup date
// falls inside the range. Synthetic students carry no enrollment records and
// never match.
func (s *UnifiedStudent) EnrolledInRange(r DateRange) bool {
	for _, d := range s.EnrollmentDates {
		if r.Contains(d) {
			return true
		}
	}
	return false
}

// StudentWithLTV decorates a merged student with its computed lifetime value
// for drill-down views.
type StudentWithLTV struct {
	UnifiedStudent
	LifetimeValue decimal.Decimal `json:"lifetime_value"`
}
