package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/crescendo-hq/lifecycle-api/internal/models"
	appErrors "github.com/crescendo-hq/lifecycle-api/pkg/errors"
)

type datasetProvider interface {
	Dataset() *models.Dataset
}

type rosterBuilder interface {
	Build(*models.Dataset) (map[string]*models.UnifiedStudent, models.Diagnostics)
}

// AnalyticsConfig tunes aggregation behaviour.
type AnalyticsConfig struct {
	GraceDays   int
	DefaultTopN int
	CacheTTL    time.Duration
}

// AnalyticsService computes population-level lifecycle metrics: point-in-time
// snapshots, monthly trend series, per-category breakdowns, and drill-down
// student lists. Computations are pure over the current dataset snapshot and
// idempotent; results are optionally cached keyed by dataset version.
type AnalyticsService struct {
	data        datasetProvider
	roster      rosterBuilder
	cache       *CacheService
	instruments *InstrumentService
	logger      *zap.Logger
	now         func() time.Time
	cfg         AnalyticsConfig
}

// NewAnalyticsService constructs an analytics service with sane defaults.
func NewAnalyticsService(data datasetProvider, roster rosterBuilder, cache *CacheService, instruments *InstrumentService, logger *zap.Logger, cfg AnalyticsConfig) *AnalyticsService {
	if cfg.GraceDays <= 0 {
		cfg.GraceDays = DefaultGraceDays
	}
	if cfg.DefaultTopN <= 0 {
		cfg.DefaultTopN = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{
		data:        data,
		roster:      roster,
		cache:       cache,
		instruments: instruments,
		logger:      logger,
		now:         time.Now,
		cfg:         cfg,
	}
}

// Snapshot returns the unified metrics for the range. The boolean indicates
// whether the payload came from cache.
func (s *AnalyticsService) Snapshot(ctx context.Context, r models.DateRange) (*models.UnifiedMetrics, bool, error) {
	ds := s.data.Dataset()
	key := s.cacheKey("snapshot", ds.Version, r)

	var cached models.UnifiedMetrics
	if hit, err := s.tryCache(ctx, key, &cached); err != nil {
		return nil, false, err
	} else if hit {
		return &cached, true, nil
	}

	start := time.Now()
	roster, _ := s.roster.Build(ds)
	metrics := s.computeSnapshot(ds, roster, r)
	s.observe("snapshot", time.Since(start))

	s.persistCache(ctx, key, metrics)
	return metrics, false, nil
}

// MonthlySeries returns one bucket per calendar month spanning the range,
// ordered ascending. Edge buckets are clipped to the range boundaries.
func (s *AnalyticsService) MonthlySeries(ctx context.Context, r models.DateRange) ([]models.MonthlyMetrics, bool, error) {
	ds := s.data.Dataset()
	key := s.cacheKey("monthly", ds.Version, r)

	var cached []models.MonthlyMetrics
	if hit, err := s.tryCache(ctx, key, &cached); err != nil {
		return nil, false, err
	} else if hit {
		return cached, true, nil
	}

	start := time.Now()
	roster, _ := s.roster.Build(ds)
	series := s.computeMonthlySeries(ds, roster, r)
	s.observe("monthly_series", time.Since(start))

	s.persistCache(ctx, key, series)
	return series, false, nil
}

// CategoryBreakdown groups the headline counts by course category, sorted
// descending by enrollments with encounter order preserved on ties, sliced
// to topN (0 means the configured default).
func (s *AnalyticsService) CategoryBreakdown(ctx context.Context, r models.DateRange, topN int) ([]models.CategoryMetrics, bool, error) {
	if topN <= 0 {
		topN = s.cfg.DefaultTopN
	}
	ds := s.data.Dataset()
	key := s.cacheKey("categories", ds.Version, r, fmt.Sprintf("top%d", topN))

	var cached []models.CategoryMetrics
	if hit, err := s.tryCache(ctx, key, &cached); err != nil {
		return nil, false, err
	} else if hit {
		return cached, true, nil
	}

	start := time.Now()
	roster, _ := s.roster.Build(ds)
	breakdown := s.computeCategoryBreakdown(ds, roster, r, topN)
	s.observe("category_breakdown", time.Since(start))

	s.persistCache(ctx, key, breakdown)
	return breakdown, false, nil
}

// Drill-down metric keys.
const (
	MetricNewEnrollments = "new_enrollments"
	MetricEligible       = "eligible"
	MetricRenewed        = "renewed"
	MetricChurned        = "churned"
	MetricInGrace        = "in_grace"
	MetricMultiActivity  = "multi_activity"
)

// DrillDown lists the students behind one snapshot metric for detail views.
func (s *AnalyticsService) DrillDown(ctx context.Context, r models.DateRange, metric string) ([]models.StudentWithLTV, error) {
	ds := s.data.Dataset()
	roster, _ := s.roster.Build(ds)

	var match func(st *models.UnifiedStudent) bool
	switch metric {
	case MetricNewEnrollments:
		match = func(st *models.UnifiedStudent) bool { return st.EnrolledInRange(r) }
	case MetricEligible:
		match = func(st *models.UnifiedStudent) bool { return expirationInRange(st, r) }
	case MetricRenewed:
		match = func(st *models.UnifiedStudent) bool {
			for _, renewed := range st.ValidRenewals() {
				if r.Contains(renewed) {
					return true
				}
			}
			return false
		}
	case MetricChurned:
		match = func(st *models.UnifiedStudent) bool { return ChurnedInRange(st, r, s.cfg.GraceDays) }
	case MetricInGrace:
		now := s.now().UTC()
		match = func(st *models.UnifiedStudent) bool {
			return st.EndDate != nil && r.Contains(*st.EndDate) &&
				Classify(st, now, s.cfg.GraceDays).Status == StatusInGrace
		}
	case MetricMultiActivity:
		match = func(st *models.UnifiedStudent) bool {
			return st.MultiActivity() && participatesInRange(st, r)
		}
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown metric %q", metric))
	}

	out := make([]models.StudentWithLTV, 0)
	for _, st := range roster {
		if match(st) {
			out = append(out, models.StudentWithLTV{UnifiedStudent: *st, LifetimeValue: st.Fees})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BaseID < out[j].BaseID })
	return out, nil
}

func (s *AnalyticsService) computeSnapshot(ds *models.Dataset, roster map[string]*models.UnifiedStudent, r models.DateRange) *models.UnifiedMetrics {
	m := &models.UnifiedMetrics{Range: r, LifetimeValue: decimal.Zero}

	for i := range ds.Enrollments {
		rec := &ds.Enrollments[i]
		if rec.StrikeOff {
			continue
		}
		if r.Contains(rec.EnrollmentDate) {
			m.NewEnrollments++
		}
		// Expirations from original enrollments and from chained renewals
		// each contribute an eligible-for-renewal instance independently.
		if rec.EndDate != nil && r.Contains(*rec.EndDate) {
			m.EligibleForRenewal++
		}
	}
	for i := range ds.Renewals {
		rec := &ds.Renewals[i]
		if rec.EndDate != nil && r.Contains(*rec.EndDate) {
			m.EligibleForRenewal++
		}
	}

	now := s.now().UTC()
	for _, st := range roster {
		for _, renewed := range st.ValidRenewals() {
			if r.Contains(renewed) {
				m.RenewedStudents++
			}
		}
		if ChurnedInRange(st, r, s.cfg.GraceDays) {
			m.ChurnedStudents++
		}
		if st.EndDate != nil && r.Contains(*st.EndDate) &&
			Classify(st, now, s.cfg.GraceDays).Status == StatusInGrace {
			m.InGraceStudents++
		}
		if st.MultiActivity() && participatesInRange(st, r) {
			m.MultiActivityStudents++
		}
		if participatesInRange(st, r) {
			m.LifetimeValue = m.LifetimeValue.Add(st.Fees)
		}
		if !st.EnrollmentDate.After(r.Start) && Classify(st, r.Start, s.cfg.GraceDays).Active() {
			m.ActiveAtStart++
		}
	}

	m.ActiveAtEnd = m.ActiveAtStart + m.NewEnrollments - m.ChurnedStudents
	m.RenewalPercentage = percentage(m.RenewedStudents, m.EligibleForRenewal)
	m.ChurnPercentage = percentage(m.ChurnedStudents, m.ActiveAtStart)
	if m.ActiveAtStart > 0 {
		m.RetentionPercentage = 100 - m.ChurnPercentage
		m.NetGrowthPercentage = float64(m.ActiveAtEnd-m.ActiveAtStart) / float64(m.ActiveAtStart) * 100
	}
	return m
}

func (s *AnalyticsService) computeMonthlySeries(ds *models.Dataset, roster map[string]*models.UnifiedStudent, r models.DateRange) []models.MonthlyMetrics {
	series := make([]models.MonthlyMetrics, 0, 12)

	cursor := time.Date(r.Start.Year(), r.Start.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !cursor.After(r.End) {
		monthEnd := cursor.AddDate(0, 1, 0).Add(-time.Nanosecond)
		bucket := models.DateRange{Start: maxTime(cursor, r.Start), End: minTime(monthEnd, r.End)}

		entry := models.MonthlyMetrics{
			Month:       cursor.Format("2006-01"),
			PeriodStart: bucket.Start,
			PeriodEnd:   bucket.End,
		}

		// Active population is measured the instant before the bucket
		// opens, i.e. the previous month end.
		asOf := bucket.Start.Add(-time.Nanosecond)
		eligible := 0
		for _, st := range roster {
			if !st.EnrollmentDate.After(asOf) && Classify(st, asOf, s.cfg.GraceDays).Active() {
				entry.ActiveAtStart++
			}
			for _, renewed := range st.ValidRenewals() {
				if bucket.Contains(renewed) {
					entry.Renewals++
				}
			}
			if ChurnedInRange(st, bucket, s.cfg.GraceDays) {
				entry.Churned++
			}
		}
		for i := range ds.Enrollments {
			rec := &ds.Enrollments[i]
			if rec.StrikeOff {
				continue
			}
			if bucket.Contains(rec.EnrollmentDate) {
				entry.NewEnrollments++
			}
			if rec.EndDate != nil && bucket.Contains(*rec.EndDate) {
				eligible++
			}
		}
		for i := range ds.Renewals {
			rec := &ds.Renewals[i]
			if rec.EndDate != nil && bucket.Contains(*rec.EndDate) {
				eligible++
			}
		}

		entry.ActiveAtEnd = entry.ActiveAtStart + entry.NewEnrollments - entry.Churned
		entry.RenewalRate = percentage(entry.Renewals, eligible)
		entry.ChurnRate = percentage(entry.Churned, entry.ActiveAtStart)
		series = append(series, entry)

		cursor = cursor.AddDate(0, 1, 0)
	}
	return series
}

func (s *AnalyticsService) computeCategoryBreakdown(ds *models.Dataset, roster map[string]*models.UnifiedStudent, r models.DateRange, topN int) []models.CategoryMetrics {
	byCategory := make(map[string]*models.CategoryMetrics)
	order := make([]string, 0)

	bucket := func(category string) *models.CategoryMetrics {
		if category == "" {
			category = "Other"
		}
		entry, ok := byCategory[category]
		if !ok {
			entry = &models.CategoryMetrics{Category: category}
			byCategory[category] = entry
			order = append(order, category)
		}
		return entry
	}

	for i := range ds.Enrollments {
		rec := &ds.Enrollments[i]
		if rec.StrikeOff {
			continue
		}
		if r.Contains(rec.EnrollmentDate) {
			bucket(rec.CourseCategory).Enrollments++
		}
	}
	for i := range ds.Renewals {
		rec := &ds.Renewals[i]
		if rec.RenewalDate == nil || !r.Contains(*rec.RenewalDate) {
			continue
		}
		if st, ok := roster[mergeKey(rec.ID, rec.SyntheticID)]; ok && !renewalIsValid(st, *rec.RenewalDate) {
			continue
		}
		bucket(rec.CourseCategory).Renewals++
	}
	for _, st := range roster {
		if !ChurnedInRange(st, r, s.cfg.GraceDays) {
			continue
		}
		for _, category := range st.CourseCategories {
			bucket(category).Churned++
		}
	}

	out := make([]models.CategoryMetrics, 0, len(order))
	for _, category := range order {
		out = append(out, *byCategory[category])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Enrollments > out[j].Enrollments })
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

func renewalIsValid(st *models.UnifiedStudent, renewed time.Time) bool {
	if st.EnrollmentEndDate == nil {
		return true
	}
	return renewed.After(*st.EnrollmentEndDate)
}

// participatesInRange reports whether the student has any enrollment or
// renewal event inside the range. Every merged enrollment record counts,
// not only the earliest; synthetic students participate through their
// renewal dates.
func participatesInRange(st *models.UnifiedStudent, r models.DateRange) bool {
	if st.EnrolledInRange(r) {
		return true
	}
	for _, renewed := range st.RenewalDates {
		if r.Contains(renewed) {
			return true
		}
	}
	return false
}

// percentage divides defensively: a zero denominator yields 0, never NaN.
func percentage(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den) * 100
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

func (s *AnalyticsService) cacheKey(kind, version string, r models.DateRange, extra ...string) string {
	parts := []string{"lifecycle", kind, version, r.Start.Format("20060102"), r.End.Format("20060102")}
	parts = append(parts, extra...)
	return strings.Join(parts, ":")
}

func (s *AnalyticsService) tryCache(ctx context.Context, key string, dest interface{}) (bool, error) {
	if s.cache == nil {
		return false, nil
	}
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		return false, fmt.Errorf("get analytics cache: %w", err)
	}
	return hit, nil
}

func (s *AnalyticsService) persistCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("analytics cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *AnalyticsService) observe(kind string, elapsed time.Duration) {
	if s.instruments != nil {
		s.instruments.ObserveAggregation(kind, elapsed)
	}
}

func expirationInRange(st *models.UnifiedStudent, r models.DateRange) bool {
	if st.EnrollmentEndDate != nil && r.Contains(*st.EnrollmentEndDate) {
		return true
	}
	return st.EndDate != nil && r.Contains(*st.EndDate)
}
