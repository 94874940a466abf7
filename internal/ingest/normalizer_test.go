package ingest

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crescendo-hq/lifecycle-api/internal/models"
)

func TestNormalizeEnrollmentRow(t *testing.T) {
	n := NewNormalizer()
	batch := models.RowBatch{
		Source: models.SourcePrimaryForm,
		Rows: []models.RawRow{{
			Name:       "Jane Doe",
			Email:      "jane@example.com",
			Phone:      "555-0101",
			Activities: "Keyboard, Vocals",
			StartDate:  "2024-01-15",
			Package:    "Quarterly",
			Fees:       "₹12,000",
			EndDate:    "2024-04-15",
			ExternalID: "in-kb-100-jdoe",
		}},
	}

	out, diag := n.Normalize(batch)
	require.Len(t, out.Enrollments, 1)
	assert.Empty(t, out.Renewals)
	assert.Equal(t, 1, diag.RowsSeen)
	assert.Zero(t, diag.InvalidRows)

	rec := out.Enrollments[0]
	assert.Equal(t, "IN-KB-100-JDOE", rec.ID)
	assert.False(t, rec.SyntheticID)
	assert.Equal(t, "Keyboard", rec.CourseCategory)
	assert.Equal(t, []string{"Keyboard", "Vocals"}, rec.Activities)
	assert.Equal(t, time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC), rec.EnrollmentDate)
	require.NotNil(t, rec.EndDate)
	assert.Equal(t, time.Date(2024, time.April, 15, 0, 0, 0, 0, time.UTC), *rec.EndDate)
	require.NotNil(t, rec.Fees)
	assert.Equal(t, "12000", rec.Fees.String())
	assert.False(t, rec.StrikeOff)
}

func TestNormalizeMissingNameRejectsRow(t *testing.T) {
	n := NewNormalizer()
	out, diag := n.Normalize(models.RowBatch{
		Source: models.SourcePrimaryForm,
		Rows:   []models.RawRow{{StartDate: "2024-01-15", ExternalID: "IN-KB-1-X"}},
	})

	assert.Empty(t, out.Enrollments)
	assert.Equal(t, 1, diag.InvalidRows)
}

func TestNormalizeBadEmailSurvives(t *testing.T) {
	n := NewNormalizer()
	out, diag := n.Normalize(models.RowBatch{
		Source: models.SourceLegacyForm,
		Rows: []models.RawRow{{
			Name:       "Sam Lee",
			Email:      "not-an-email",
			StartDate:  "2024-02-01",
			ExternalID: "IN-GT-55-SLEE",
		}},
	})

	require.Len(t, out.Enrollments, 1)
	assert.Empty(t, out.Enrollments[0].Email)
	assert.Zero(t, diag.InvalidRows)
}

func TestNormalizeMissingIDSynthesizesNonMergeableKey(t *testing.T) {
	n := NewNormalizer()
	out, diag := n.Normalize(models.RowBatch{
		Source: models.SourceGatewayImport,
		Rows: []models.RawRow{{
			Name:      "Ana Roy",
			StartDate: "2024-03-01",
		}},
	})

	require.Len(t, out.Enrollments, 1)
	assert.Equal(t, 1, diag.MissingIDs)

	rec := out.Enrollments[0]
	assert.True(t, rec.SyntheticID)
	assert.NotContains(t, rec.ID, "-")
	assert.Contains(t, rec.ID, "ANA_ROY")
	assert.Equal(t, CategoryOther, rec.CourseCategory)
}

func TestNormalizeInvalidStartDateSkipsRow(t *testing.T) {
	n := NewNormalizer()
	out, diag := n.Normalize(models.RowBatch{
		Source: models.SourcePrimaryForm,
		Rows: []models.RawRow{{
			Name:       "Bad Date",
			StartDate:  "someday",
			ExternalID: "IN-PN-9-BDATE",
		}},
	})

	assert.Empty(t, out.Enrollments)
	assert.Equal(t, 1, diag.InvalidDates)
}

func TestNormalizeBadEndDateKeepsRow(t *testing.T) {
	n := NewNormalizer()
	out, diag := n.Normalize(models.RowBatch{
		Source: models.SourcePrimaryForm,
		Rows: []models.RawRow{{
			Name:       "Open End",
			StartDate:  "2024-01-01",
			EndDate:    "tbd",
			ExternalID: "IN-PN-9-OEND",
		}},
	})

	require.Len(t, out.Enrollments, 1)
	assert.Nil(t, out.Enrollments[0].EndDate)
	assert.Equal(t, 1, diag.InvalidDates)
}

func TestNormalizeStrikeOffStatus(t *testing.T) {
	n := NewNormalizer()
	out, diag := n.Normalize(models.RowBatch{
		Source: models.SourceLegacyForm,
		Rows: []models.RawRow{
			{Name: "Struck", StartDate: "2024-01-01", ExternalID: "IN-DR-7-STRK", Status: "strike"},
			{Name: "Dormant", StartDate: "2024-01-01", ExternalID: "IN-DR-8-DORM", Status: "Inactive"},
			{Name: "Fine", StartDate: "2024-01-01", ExternalID: "IN-DR-9-FINE", Status: "active"},
		},
	})

	require.Len(t, out.Enrollments, 3)
	assert.Equal(t, 2, diag.StruckOff)
	assert.True(t, out.Enrollments[0].StrikeOff)
	assert.True(t, out.Enrollments[1].StrikeOff)
	assert.False(t, out.Enrollments[2].StrikeOff)
}

func TestNormalizeRenewalRow(t *testing.T) {
	n := NewNormalizer()
	out, diag := n.Normalize(models.RowBatch{
		Source: models.SourcePrimaryRenewal,
		Rows: []models.RawRow{{
			Name:       "Jane Doe",
			StartDate:  "2024-04-10",
			EndDate:    "2024-07-10",
			Fees:       "3,000",
			Package:    "Quarterly",
			ExternalID: "IN-KB-100-JDOE",
		}},
	})

	require.Len(t, out.Renewals, 1)
	assert.Empty(t, out.Enrollments)
	assert.Zero(t, diag.InvalidRows)

	rec := out.Renewals[0]
	require.NotNil(t, rec.RenewalDate)
	assert.Equal(t, time.Date(2024, time.April, 10, 0, 0, 0, 0, time.UTC), *rec.RenewalDate)
	require.NotNil(t, rec.EndDate)
	require.NotNil(t, rec.Fees)
	assert.Equal(t, "3000", rec.Fees.String())
	assert.Equal(t, "Keyboard", rec.CourseCategory)
}

func TestCategoryFor(t *testing.T) {
	assert.Equal(t, "Keyboard", CategoryFor("IN-KB-100-JDOE", false))
	assert.Equal(t, "Guitar", CategoryFor("in-gt-2-x", false))
	assert.Equal(t, CategoryOther, CategoryFor("IN-ZZ-1-X", false))
	assert.Equal(t, CategoryOther, CategoryFor("IN-100", false))
	assert.Equal(t, CategoryOther, CategoryFor("IN-KB-100-JDOE", true))
}

func TestSplitActivities(t *testing.T) {
	assert.Equal(t, []string{"Keyboard", "Vocals", "Guitar"}, SplitActivities("Keyboard, Vocals; Guitar | KEYBOARD"))
	assert.Empty(t, SplitActivities("  "))
	assert.Equal(t, []string{"Piano"}, SplitActivities("Piano/piano"))
}

func TestSplitActivitiesPreservesFirstSeenCasing(t *testing.T) {
	got := SplitActivities(strings.Join([]string{"Drums", "drums", "Flute"}, ","))
	assert.Equal(t, []string{"Drums", "Flute"}, got)
}
