package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/crescendo-hq/lifecycle-api/internal/models"
	appErrors "github.com/crescendo-hq/lifecycle-api/pkg/errors"
	"github.com/crescendo-hq/lifecycle-api/pkg/export"
)

type snapshotSource interface {
	Snapshot(ctx context.Context, r models.DateRange) (*models.UnifiedMetrics, bool, error)
	CategoryBreakdown(ctx context.Context, r models.DateRange, topN int) ([]models.CategoryMetrics, bool, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// Export formats.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

// ExportResult is a rendered report ready to stream to the caller. Nothing
// is written to disk; reports are recomputed on demand.
type ExportResult struct {
	Content     []byte
	ContentType string
	Filename    string
}

// ExportService renders lifecycle metrics into downloadable reports.
type ExportService struct {
	analytics snapshotSource
	csv       csvRenderer
	pdf       pdfRenderer
	logger    *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(analytics snapshotSource, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{analytics: analytics, csv: csv, pdf: pdf, logger: logger}
}

// Generate renders the snapshot plus category breakdown for the range.
func (s *ExportService) Generate(ctx context.Context, r models.DateRange, format string) (*ExportResult, error) {
	snapshot, _, err := s.analytics.Snapshot(ctx, r)
	if err != nil {
		return nil, err
	}
	categories, _, err := s.analytics.CategoryBreakdown(ctx, r, 0)
	if err != nil {
		return nil, err
	}

	data := buildReportDataset(snapshot, categories)
	stamp := r.Start.Format("20060102") + "-" + r.End.Format("20060102")

	switch format {
	case FormatCSV:
		content, err := s.csv.Render(data)
		if err != nil {
			return nil, fmt.Errorf("render csv report: %w", err)
		}
		return &ExportResult{
			Content:     content,
			ContentType: "text/csv",
			Filename:    fmt.Sprintf("lifecycle-report-%s.csv", stamp),
		}, nil
	case FormatPDF:
		content, err := s.pdf.Render(data, "Student Lifecycle Report")
		if err != nil {
			return nil, fmt.Errorf("render pdf report: %w", err)
		}
		return &ExportResult{
			Content:     content,
			ContentType: "application/pdf",
			Filename:    fmt.Sprintf("lifecycle-report-%s.pdf", stamp),
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func buildReportDataset(snapshot *models.UnifiedMetrics, categories []models.CategoryMetrics) export.Dataset {
	data := export.Dataset{Headers: []string{"Metric", "Value"}}
	addRow := func(metric, value string) {
		data.Rows = append(data.Rows, map[string]string{"Metric": metric, "Value": value})
	}

	addRow("Period", snapshot.Range.Start.Format("2006-01-02")+" to "+snapshot.Range.End.Format("2006-01-02"))
	addRow("New Enrollments", strconv.Itoa(snapshot.NewEnrollments))
	addRow("Eligible For Renewal", strconv.Itoa(snapshot.EligibleForRenewal))
	addRow("Renewed", strconv.Itoa(snapshot.RenewedStudents))
	addRow("Churned", strconv.Itoa(snapshot.ChurnedStudents))
	addRow("In Grace", strconv.Itoa(snapshot.InGraceStudents))
	addRow("Multi Activity", strconv.Itoa(snapshot.MultiActivityStudents))
	addRow("Renewal %", formatRate(snapshot.RenewalPercentage))
	addRow("Churn %", formatRate(snapshot.ChurnPercentage))
	addRow("Retention %", formatRate(snapshot.RetentionPercentage))
	addRow("Net Growth %", formatRate(snapshot.NetGrowthPercentage))
	addRow("Lifetime Value", snapshot.LifetimeValue.StringFixed(2))
	for _, cat := range categories {
		addRow(
			"Category: "+cat.Category,
			fmt.Sprintf("enrollments=%d renewals=%d churned=%d", cat.Enrollments, cat.Renewals, cat.Churned),
		)
	}
	return data
}

func formatRate(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64) + "%"
}
