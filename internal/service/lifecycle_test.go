package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/crescendo-hq/lifecycle-api/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func expiringStudent(end time.Time, renewals ...time.Time) *models.UnifiedStudent {
	return &models.UnifiedStudent{
		BaseID:            "IN-100-JDOE",
		EnrollmentDate:    day(2024, time.January, 1),
		EnrollmentEndDate: &end,
		EndDate:           &end,
		RenewalDates:      renewals,
	}
}

func TestClassifyActiveBeforeExpiration(t *testing.T) {
	st := expiringStudent(day(2024, time.March, 25))
	got := Classify(st, day(2024, time.February, 1), DefaultGraceDays)
	assert.Equal(t, StatusActive, got.Status)
	assert.True(t, got.Active())
}

func TestClassifyInGraceAfterExpiration(t *testing.T) {
	st := expiringStudent(day(2024, time.March, 25))
	got := Classify(st, day(2024, time.April, 1), DefaultGraceDays)
	assert.Equal(t, StatusInGrace, got.Status)
	assert.True(t, got.EligibleForRenewal)
	assert.True(t, got.Active())
}

func TestClassifyChurnedPastGrace(t *testing.T) {
	st := expiringStudent(day(2024, time.March, 25))
	got := Classify(st, day(2024, time.June, 1), DefaultGraceDays)
	assert.Equal(t, StatusChurned, got.Status)
	assert.False(t, got.Active())
}

func TestClassifyChurnedExactlyAtGraceEnd(t *testing.T) {
	end := day(2024, time.March, 25)
	st := expiringStudent(end)
	got := Classify(st, GraceEnd(end, DefaultGraceDays), DefaultGraceDays)
	assert.Equal(t, StatusChurned, got.Status)
}

func TestClassifyRenewalRescuesCycle(t *testing.T) {
	st := expiringStudent(day(2024, time.March, 25), day(2024, time.April, 10))
	got := Classify(st, day(2024, time.June, 1), DefaultGraceDays)
	assert.Equal(t, StatusRenewed, got.Status)
	assert.True(t, got.Active())
}

func TestClassifyRenewalNotYetLanded(t *testing.T) {
	// Re-deriving status for a date before the renewal happened must not
	// see into the future.
	st := expiringStudent(day(2024, time.March, 25), day(2024, time.April, 10))
	got := Classify(st, day(2024, time.April, 5), DefaultGraceDays)
	assert.Equal(t, StatusInGrace, got.Status)
}

func TestClassifyRenewalOnGraceEndStillCounts(t *testing.T) {
	end := day(2024, time.March, 25)
	grace := GraceEnd(end, DefaultGraceDays)
	st := expiringStudent(end, grace)
	got := Classify(st, grace, DefaultGraceDays)
	assert.Equal(t, StatusRenewed, got.Status)
}

func TestClassifyRenewalPastGraceIgnored(t *testing.T) {
	end := day(2024, time.March, 25)
	late := GraceEnd(end, DefaultGraceDays).AddDate(0, 0, 1)
	st := expiringStudent(end, late)
	got := Classify(st, day(2024, time.June, 1), DefaultGraceDays)
	assert.Equal(t, StatusChurned, got.Status)
}

func TestClassifyRenewalOnExpirationDayIgnored(t *testing.T) {
	// A payment dated on the expiration itself is a pre-expiration payment,
	// not an extension.
	end := day(2024, time.March, 25)
	st := expiringStudent(end, end)
	got := Classify(st, day(2024, time.June, 1), DefaultGraceDays)
	assert.Equal(t, StatusChurned, got.Status)
}

func TestClassifyLifetimeIsTerminal(t *testing.T) {
	end := day(2020, time.January, 1)
	st := expiringStudent(end)
	st.Lifetime = true
	got := Classify(st, day(2026, time.January, 1), DefaultGraceDays)
	assert.Equal(t, StatusLifetime, got.Status)
	assert.True(t, got.Active())
}

func TestClassifyNoExpirationStaysActive(t *testing.T) {
	st := &models.UnifiedStudent{EnrollmentDate: day(2024, time.January, 1)}
	got := Classify(st, day(2030, time.January, 1), DefaultGraceDays)
	assert.Equal(t, StatusActive, got.Status)
}

func TestGraceEndDefaultWindow(t *testing.T) {
	end := day(2024, time.March, 25)
	assert.Equal(t, day(2024, time.May, 9), GraceEnd(end, 0))
	assert.Equal(t, day(2024, time.April, 4), GraceEnd(end, 10))
}

func TestChurnedInRange(t *testing.T) {
	end := day(2024, time.March, 25)
	st := expiringStudent(end)
	mayRange := models.NewDateRange(day(2024, time.May, 1), day(2024, time.May, 31))
	juneRange := models.NewDateRange(day(2024, time.June, 1), day(2024, time.June, 30))

	// Grace closes 2024-05-09: churn lands in the May bucket, not June.
	assert.True(t, ChurnedInRange(st, mayRange, DefaultGraceDays))
	assert.False(t, ChurnedInRange(st, juneRange, DefaultGraceDays))
}

func TestChurnedInRangeRescued(t *testing.T) {
	end := day(2024, time.March, 25)
	st := expiringStudent(end, day(2024, time.April, 10))
	mayRange := models.NewDateRange(day(2024, time.May, 1), day(2024, time.May, 31))
	assert.False(t, ChurnedInRange(st, mayRange, DefaultGraceDays))
}
