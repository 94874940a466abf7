package ingest

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/crescendo-hq/lifecycle-api/internal/models"
)

// CategoryOther is the bucket for identity codes missing from the table.
const CategoryOther = "Other"

// categoryByCode maps the hyphen-delimited code embedded in a student id to
// its course category.
var categoryByCode = map[string]string{
	"KB": "Keyboard",
	"PN": "Piano",
	"GT": "Guitar",
	"VO": "Vocals",
	"VL": "Violin",
	"DR": "Drums",
	"FL": "Flute",
	"UK": "Ukulele",
}

// statuses that mark a record administratively dropped.
var strikeStatuses = map[string]struct{}{
	"STRIKE":   {},
	"INACTIVE": {},
}

// NormalizedBatch holds the typed records produced from one row batch.
type NormalizedBatch struct {
	Enrollments []models.EnrollmentRecord
	Renewals    []models.RenewalRecord
}

// Normalizer turns raw tabular rows into typed enrollment and renewal
// records. Bad rows never abort a batch; they are counted in the returned
// diagnostics instead.
type Normalizer struct {
	validate *validator.Validate
}

// NewNormalizer constructs a Normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{validate: validator.New()}
}

// Normalize processes every row of the batch according to its source tag.
func (n *Normalizer) Normalize(batch models.RowBatch) (NormalizedBatch, models.Diagnostics) {
	out := NormalizedBatch{}
	diag := models.Diagnostics{}

	for idx, row := range batch.Rows {
		diag.RowsSeen++
		row = trimRow(row)

		if !n.rowConforms(row, &diag) {
			continue
		}

		id, synthetic := n.resolveIdentity(row, batch.Source, idx, &diag)

		if batch.Source.IsRenewal() {
			rec := n.buildRenewal(row, batch.Source, id, synthetic, &diag)
			out.Renewals = append(out.Renewals, rec)
			continue
		}

		rec, ok := n.buildEnrollment(row, batch.Source, id, synthetic, &diag)
		if !ok {
			continue
		}
		out.Enrollments = append(out.Enrollments, rec)
	}

	return out, diag
}

// rowConforms runs schema validation. A row without a usable name is
// rejected outright; a malformed email is blanked but the row survives.
func (n *Normalizer) rowConforms(row models.RawRow, diag *models.Diagnostics) bool {
	err := n.validate.Struct(row)
	if err == nil {
		return true
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		diag.InvalidRows++
		return false
	}
	for _, fieldErr := range errs {
		if fieldErr.Field() == "Name" {
			diag.InvalidRows++
			return false
		}
	}
	return true
}

func (n *Normalizer) resolveIdentity(row models.RawRow, source models.Source, idx int, diag *models.Diagnostics) (string, bool) {
	if row.ExternalID != "" {
		return strings.ToUpper(row.ExternalID), false
	}
	diag.MissingIDs++
	// The fallback key deliberately avoids hyphens so it can never be
	// mistaken for a coded identity and merged with another student.
	slug := strings.ToUpper(strings.Join(strings.Fields(row.Name), "_"))
	return fmt.Sprintf("%s#%s#%d", slug, source, idx), true
}

func (n *Normalizer) buildEnrollment(row models.RawRow, source models.Source, id string, synthetic bool, diag *models.Diagnostics) (models.EnrollmentRecord, bool) {
	enrolled, ok := ParseDate(row.StartDate)
	if !ok {
		diag.InvalidDates++
		return models.EnrollmentRecord{}, false
	}

	rec := models.EnrollmentRecord{
		ID:             id,
		Name:           row.Name,
		Email:          sanitizedEmail(n.validate, row.Email),
		Phone:          row.Phone,
		Activities:     SplitActivities(row.Activities),
		CourseCategory: CategoryFor(id, synthetic),
		EnrollmentDate: enrolled,
		Fees:           ParseMoney(row.Fees),
		Package:        row.Package,
		Source:         source,
		SyntheticID:    synthetic,
	}

	if row.EndDate != "" {
		if end, ok := ParseDate(row.EndDate); ok {
			rec.EndDate = &end
		} else {
			diag.InvalidDates++
		}
	}

	if _, struck := strikeStatuses[strings.ToUpper(row.Status)]; struck {
		rec.StrikeOff = true
		diag.StruckOff++
	}

	return rec, true
}

func (n *Normalizer) buildRenewal(row models.RawRow, source models.Source, id string, synthetic bool, diag *models.Diagnostics) models.RenewalRecord {
	rec := models.RenewalRecord{
		ID:             id,
		Name:           row.Name,
		Email:          sanitizedEmail(n.validate, row.Email),
		Phone:          row.Phone,
		CourseCategory: CategoryFor(id, synthetic),
		Fees:           ParseMoney(row.Fees),
		Package:        row.Package,
		Source:         source,
		SyntheticID:    synthetic,
	}

	if row.StartDate != "" {
		if renewed, ok := ParseDate(row.StartDate); ok {
			rec.RenewalDate = &renewed
		} else {
			diag.InvalidDates++
		}
	}
	if row.EndDate != "" {
		if end, ok := ParseDate(row.EndDate); ok {
			rec.EndDate = &end
		} else {
			diag.InvalidDates++
		}
	}

	return rec
}

// CategoryFor extracts the second hyphen-delimited segment of the identity
// and looks it up in the code table. Synthetic identities and codeless ids
// map to Other.
func CategoryFor(id string, synthetic bool) string {
	if synthetic {
		return CategoryOther
	}
	parts := strings.Split(id, "-")
	if len(parts) < 3 {
		return CategoryOther
	}
	if category, ok := categoryByCode[strings.ToUpper(parts[1])]; ok {
		return category
	}
	return CategoryOther
}

// SplitActivities parses the delimited activities cell into a deduplicated
// list, preserving first-seen order.
func SplitActivities(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == '|' || r == '/'
	})
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		key := strings.ToLower(f)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, f)
	}
	return out
}

func sanitizedEmail(v *validator.Validate, email string) string {
	if email == "" {
		return ""
	}
	if err := v.Var(email, "email"); err != nil {
		return ""
	}
	return email
}

func trimRow(row models.RawRow) models.RawRow {
	row.Name = strings.TrimSpace(row.Name)
	row.Email = strings.TrimSpace(row.Email)
	row.Phone = strings.TrimSpace(row.Phone)
	row.Activities = strings.TrimSpace(row.Activities)
	row.StartDate = strings.TrimSpace(row.StartDate)
	row.Package = strings.TrimSpace(row.Package)
	row.Fees = strings.TrimSpace(row.Fees)
	row.Notes = strings.TrimSpace(row.Notes)
	row.EndDate = strings.TrimSpace(row.EndDate)
	row.ExternalID = strings.TrimSpace(row.ExternalID)
	row.Status = strings.TrimSpace(row.Status)
	return row
}
