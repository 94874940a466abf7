package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crescendo-hq/lifecycle-api/internal/models"
)

func money(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func datePtr(t time.Time) *time.Time {
	return &t
}

func TestBuildMergesCategorySiblings(t *testing.T) {
	svc := NewRosterService(nil)
	ds := &models.Dataset{
		Enrollments: []models.EnrollmentRecord{
			{
				ID:             "IN-KB-100-JDOE",
				Name:           "Jane Doe",
				Activities:     []string{"Keyboard"},
				CourseCategory: "Keyboard",
				EnrollmentDate: day(2024, time.January, 1),
				EndDate:        datePtr(day(2024, time.March, 25)),
				Fees:           money("5000"),
			},
			{
				ID:             "IN-PN-100-JDOE",
				Name:           "Jane Doe",
				Email:          "jane@example.com",
				Activities:     []string{"Piano"},
				CourseCategory: "Piano",
				EnrollmentDate: day(2024, time.February, 1),
				EndDate:        datePtr(day(2024, time.May, 1)),
				Fees:           money("4000"),
			},
		},
	}

	roster, diag := svc.Build(ds)
	require.Len(t, roster, 1)
	assert.Zero(t, diag.UnmatchedRenewals)

	st, ok := roster["IN-100-JDOE"]
	require.True(t, ok)
	assert.Equal(t, "Jane Doe", st.Name)
	assert.Equal(t, "jane@example.com", st.Email)
	assert.Equal(t, []string{"Keyboard", "Piano"}, st.Activities)
	assert.Equal(t, []string{"Keyboard", "Piano"}, st.CourseCategories)
	assert.Equal(t, day(2024, time.January, 1), st.EnrollmentDate)
	assert.Equal(t, []time.Time{day(2024, time.January, 1), day(2024, time.February, 1)}, st.EnrollmentDates)
	require.NotNil(t, st.EndDate)
	assert.Equal(t, day(2024, time.May, 1), *st.EndDate)
	assert.Equal(t, "9000", st.Fees.String())
	assert.True(t, st.MultiActivity())
}

func TestBuildIsOrderIndependent(t *testing.T) {
	svc := NewRosterService(nil)
	a := models.EnrollmentRecord{
		ID: "IN-KB-7-ALIN", Name: "A Lin", Activities: []string{"Keyboard"},
		CourseCategory: "Keyboard", EnrollmentDate: day(2024, time.January, 5),
		EndDate: datePtr(day(2024, time.April, 5)), Fees: money("100"),
	}
	b := models.EnrollmentRecord{
		ID: "IN-VO-7-ALIN", Name: "A Lin", Activities: []string{"Vocals"},
		CourseCategory: "Vocals", EnrollmentDate: day(2024, time.March, 5),
		EndDate: datePtr(day(2024, time.June, 5)), Fees: money("200"),
	}

	forward, _ := svc.Build(&models.Dataset{Enrollments: []models.EnrollmentRecord{a, b}})
	reverse, _ := svc.Build(&models.Dataset{Enrollments: []models.EnrollmentRecord{b, a}})

	require.Len(t, forward, 1)
	require.Len(t, reverse, 1)
	fst := forward["IN-7-ALIN"]
	rst := reverse["IN-7-ALIN"]
	require.NotNil(t, fst)
	require.NotNil(t, rst)

	assert.Equal(t, fst.EnrollmentDate, rst.EnrollmentDate)
	assert.Equal(t, fst.EnrollmentDates, rst.EnrollmentDates)
	assert.Equal(t, fst.EndDate, rst.EndDate)
	assert.Equal(t, fst.Activities, rst.Activities)
	assert.Equal(t, fst.CourseCategories, rst.CourseCategories)
	assert.Equal(t, fst.RenewalDates, rst.RenewalDates)
	assert.True(t, fst.Fees.Equal(rst.Fees))
}

func TestBuildSkipsStruckOffEnrollments(t *testing.T) {
	svc := NewRosterService(nil)
	roster, _ := svc.Build(&models.Dataset{
		Enrollments: []models.EnrollmentRecord{{
			ID: "IN-GT-3-GONE", Name: "Gone", CourseCategory: "Guitar",
			EnrollmentDate: day(2024, time.January, 1), StrikeOff: true,
		}},
	})
	assert.Empty(t, roster)
}

func TestBuildSynthesizesUnmatchedRenewal(t *testing.T) {
	svc := NewRosterService(nil)
	roster, diag := svc.Build(&models.Dataset{
		Renewals: []models.RenewalRecord{{
			ID: "IN-KB-42-NOON", Name: "No One", CourseCategory: "Keyboard",
			RenewalDate: datePtr(day(2024, time.February, 14)),
			Fees:        money("1500"),
		}},
	})

	assert.Equal(t, 1, diag.UnmatchedRenewals)
	st, ok := roster["IN-42-NOON"]
	require.True(t, ok)
	assert.True(t, st.Synthetic)
	assert.Equal(t, day(2024, time.February, 14), st.EnrollmentDate)
	assert.Equal(t, []time.Time{day(2024, time.February, 14)}, st.RenewalDates)
	assert.Equal(t, "1500", st.Fees.String())
}

func TestBuildDeduplicatesRenewalDates(t *testing.T) {
	svc := NewRosterService(nil)
	renewal := models.RenewalRecord{
		ID: "IN-KB-100-JDOE", Name: "Jane Doe", CourseCategory: "Keyboard",
		RenewalDate: datePtr(day(2024, time.April, 10)), Fees: money("1000"),
	}
	roster, diag := svc.Build(&models.Dataset{
		Enrollments: []models.EnrollmentRecord{{
			ID: "IN-KB-100-JDOE", Name: "Jane Doe", CourseCategory: "Keyboard",
			EnrollmentDate: day(2024, time.January, 1),
		}},
		Renewals: []models.RenewalRecord{renewal, renewal},
	})

	assert.Equal(t, 1, diag.DuplicateRenewalDates)
	st := roster["IN-100-JDOE"]
	require.NotNil(t, st)
	require.Len(t, st.RenewalDates, 1)
	// Duplicate fees still sum; only the date set deduplicates.
	assert.Equal(t, "2000", st.Fees.String())
}

func TestBuildLifetimeFlagIsSticky(t *testing.T) {
	svc := NewRosterService(nil)
	roster, _ := svc.Build(&models.Dataset{
		Enrollments: []models.EnrollmentRecord{
			{
				ID: "IN-FL-5-EVER", Name: "Ever", CourseCategory: "Flute",
				EnrollmentDate: day(2023, time.June, 1), Package: "Lifetime Gold",
			},
			{
				ID: "IN-UK-5-EVER", Name: "Ever", CourseCategory: "Ukulele",
				EnrollmentDate: day(2024, time.January, 1), Package: "Quarterly",
			},
		},
	})

	st := roster["IN-5-EVER"]
	require.NotNil(t, st)
	assert.True(t, st.Lifetime)
	assert.Equal(t, "Quarterly", st.Package)
}

func TestBuildTracksEnrollmentEndSeparately(t *testing.T) {
	svc := NewRosterService(nil)
	roster, _ := svc.Build(&models.Dataset{
		Enrollments: []models.EnrollmentRecord{{
			ID: "IN-KB-100-JDOE", Name: "Jane Doe", CourseCategory: "Keyboard",
			EnrollmentDate: day(2024, time.January, 1),
			EndDate:        datePtr(day(2024, time.March, 25)),
		}},
		Renewals: []models.RenewalRecord{{
			ID: "IN-KB-100-JDOE", Name: "Jane Doe", CourseCategory: "Keyboard",
			RenewalDate: datePtr(day(2024, time.April, 10)),
			EndDate:     datePtr(day(2024, time.July, 10)),
		}},
	})

	st := roster["IN-100-JDOE"]
	require.NotNil(t, st)
	require.NotNil(t, st.EnrollmentEndDate)
	assert.Equal(t, day(2024, time.March, 25), *st.EnrollmentEndDate)
	require.NotNil(t, st.EndDate)
	assert.Equal(t, day(2024, time.July, 10), *st.EndDate)
	assert.Equal(t, []time.Time{day(2024, time.April, 10)}, st.ValidRenewals())
}

func TestBuildSyntheticIdentitiesNeverMerge(t *testing.T) {
	svc := NewRosterService(nil)
	roster, _ := svc.Build(&models.Dataset{
		Enrollments: []models.EnrollmentRecord{
			{
				ID: "JANE_DOE#primary_form#0", Name: "Jane Doe", CourseCategory: "Other",
				EnrollmentDate: day(2024, time.January, 1), SyntheticID: true,
			},
			{
				ID: "JANE_DOE#legacy_form#4", Name: "Jane Doe", CourseCategory: "Other",
				EnrollmentDate: day(2024, time.February, 1), SyntheticID: true,
			},
		},
	})
	assert.Len(t, roster, 2)
}
