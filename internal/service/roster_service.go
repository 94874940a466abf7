package service

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/crescendo-hq/lifecycle-api/internal/models"
)

// lifetimeMarker inside a package string flags a never-expiring plan.
const lifetimeMarker = "LIFETIME"

// RosterService reconciles fragmented records into one UnifiedStudent per
// base id. Struck-off enrollments are dropped from the population; renewals
// without a matching enrollment are synthesized into minimal students so
// their revenue and counts are never silently lost.
type RosterService struct {
	logger *zap.Logger
}

// NewRosterService constructs a RosterService.
func NewRosterService(logger *zap.Logger) *RosterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{logger: logger}
}

// Build merges the dataset's records into a map keyed by base id. The merge
// is order-independent: activities, categories, and renewal dates are sets,
// dates resolve by min/max, and fees sum.
func (s *RosterService) Build(ds *models.Dataset) (map[string]*models.UnifiedStudent, models.Diagnostics) {
	roster := make(map[string]*models.UnifiedStudent)
	builders := make(map[string]*studentBuilder)
	diag := models.Diagnostics{}

	for i := range ds.Enrollments {
		rec := &ds.Enrollments[i]
		if rec.StrikeOff {
			continue
		}
		key := mergeKey(rec.ID, rec.SyntheticID)
		b, ok := builders[key]
		if !ok {
			b = newStudentBuilder(key, rec.SyntheticID)
			builders[key] = b
		}
		b.addEnrollment(rec)
	}

	for i := range ds.Renewals {
		rec := &ds.Renewals[i]
		key := mergeKey(rec.ID, rec.SyntheticID)
		b, ok := builders[key]
		if !ok {
			// No matching enrollment: keep the renewal as a standalone
			// student with the renewal date standing in for enrollment.
			diag.UnmatchedRenewals++
			b = newStudentBuilder(key, rec.SyntheticID)
			b.synthetic = true
			builders[key] = b
		}
		if dup := b.addRenewal(rec); dup {
			diag.DuplicateRenewalDates++
		}
	}

	for key, b := range builders {
		roster[key] = b.finish()
	}
	return roster, diag
}

func mergeKey(id string, synthetic bool) string {
	if synthetic {
		// Fallback identities are unique by construction and never merge.
		return id
	}
	return models.BaseID(id)
}

// studentBuilder accumulates merge state for one base id.
type studentBuilder struct {
	student      models.UnifiedStudent
	activities   map[string]string
	categories   map[string]struct{}
	enrollments  map[int64]time.Time
	renewals     map[int64]time.Time
	hasEnrolled  bool
	synthetic    bool
	surrogateDay *time.Time
}

func newStudentBuilder(baseID string, synthetic bool) *studentBuilder {
	return &studentBuilder{
		student:     models.UnifiedStudent{BaseID: baseID},
		activities:  make(map[string]string),
		categories:  make(map[string]struct{}),
		enrollments: make(map[int64]time.Time),
		renewals:    make(map[int64]time.Time),
		synthetic:   synthetic,
	}
}

func (b *studentBuilder) addEnrollment(rec *models.EnrollmentRecord) {
	st := &b.student
	if !b.hasEnrolled || rec.EnrollmentDate.Before(st.EnrollmentDate) {
		st.EnrollmentDate = rec.EnrollmentDate
	}
	// Every merged record's own date survives alongside the min so that
	// a later sibling enrollment still counts inside its own period.
	b.enrollments[rec.EnrollmentDate.UnixNano()] = rec.EnrollmentDate
	b.hasEnrolled = true

	b.overwriteContact(rec.Name, rec.Email, rec.Phone)
	for _, act := range rec.Activities {
		b.addActivity(act)
	}
	b.addCategory(rec.CourseCategory)

	if rec.EndDate != nil {
		if st.EnrollmentEndDate == nil || rec.EndDate.After(*st.EnrollmentEndDate) {
			end := *rec.EndDate
			st.EnrollmentEndDate = &end
		}
		b.extendEndDate(*rec.EndDate)
	}
	if rec.Fees != nil {
		st.Fees = st.Fees.Add(*rec.Fees)
	}
	b.adoptPackage(rec.Package)
}

// addRenewal folds a renewal event in. It reports whether the renewal date
// was already present (deduplicated by exact timestamp).
func (b *studentBuilder) addRenewal(rec *models.RenewalRecord) bool {
	st := &b.student
	b.overwriteContact(rec.Name, rec.Email, rec.Phone)
	b.addCategory(rec.CourseCategory)

	dup := false
	if rec.RenewalDate != nil {
		ts := rec.RenewalDate.UnixNano()
		if _, dup = b.renewals[ts]; !dup {
			b.renewals[ts] = *rec.RenewalDate
		}
		if b.surrogateDay == nil || rec.RenewalDate.Before(*b.surrogateDay) {
			d := *rec.RenewalDate
			b.surrogateDay = &d
		}
	}
	if rec.EndDate != nil {
		b.extendEndDate(*rec.EndDate)
	}
	if rec.Fees != nil {
		st.Fees = st.Fees.Add(*rec.Fees)
	}
	b.adoptPackage(rec.Package)
	return dup
}

func (b *studentBuilder) overwriteContact(name, email, phone string) {
	if name != "" {
		b.student.Name = name
	}
	if email != "" {
		b.student.Email = email
	}
	if phone != "" {
		b.student.Phone = phone
	}
}

func (b *studentBuilder) addActivity(act string) {
	key := strings.ToLower(act)
	if _, ok := b.activities[key]; !ok {
		b.activities[key] = act
	}
}

func (b *studentBuilder) addCategory(cat string) {
	if cat == "" {
		return
	}
	b.categories[cat] = struct{}{}
}

func (b *studentBuilder) extendEndDate(end time.Time) {
	st := &b.student
	if st.EndDate == nil || end.After(*st.EndDate) {
		e := end
		st.EndDate = &e
	}
}

// adoptPackage keeps the latest non-empty package string and makes the
// lifetime flag sticky: once any merged record carries the marker the
// student holds it permanently.
func (b *studentBuilder) adoptPackage(pkg string) {
	if pkg == "" {
		return
	}
	b.student.Package = pkg
	if strings.Contains(strings.ToUpper(pkg), lifetimeMarker) {
		b.student.Lifetime = true
	}
}

func (b *studentBuilder) finish() *models.UnifiedStudent {
	st := b.student
	if !b.hasEnrolled {
		st.Synthetic = true
		if b.surrogateDay != nil {
			st.EnrollmentDate = *b.surrogateDay
		}
	}
	for _, act := range b.activities {
		st.Activities = append(st.Activities, act)
	}
	for cat := range b.categories {
		st.CourseCategories = append(st.CourseCategories, cat)
	}
	for _, d := range b.enrollments {
		st.EnrollmentDates = append(st.EnrollmentDates, d)
	}
	for _, r := range b.renewals {
		st.RenewalDates = append(st.RenewalDates, r)
	}
	st.SortSets()
	return &st
}
