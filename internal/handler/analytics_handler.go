package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/crescendo-hq/lifecycle-api/internal/dto"
	"github.com/crescendo-hq/lifecycle-api/internal/middleware"
	"github.com/crescendo-hq/lifecycle-api/internal/models"
	"github.com/crescendo-hq/lifecycle-api/internal/service"
	appErrors "github.com/crescendo-hq/lifecycle-api/pkg/errors"
	"github.com/crescendo-hq/lifecycle-api/pkg/response"
)

// AnalyticsHandler exposes the lifecycle metrics endpoints.
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
	data      *service.DatasetService
}

// NewAnalyticsHandler constructs the analytics handler.
func NewAnalyticsHandler(analytics *service.AnalyticsService, data *service.DatasetService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics, data: data}
}

// Snapshot godoc
// @Summary Headline lifecycle metrics for a date range
// @Tags Metrics
// @Produce json
// @Param from query string true "Range start (YYYY-MM-DD)"
// @Param to query string true "Range end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /metrics/snapshot [get]
func (h *AnalyticsHandler) Snapshot(c *gin.Context) {
	if h.analytics == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	dateRange, err := parseDateRange(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	start := time.Now()
	metrics, cacheHit, err := h.analytics.Snapshot(c.Request.Context(), dateRange)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	payload := dto.SnapshotResponse{Dataset: dto.NewDatasetInfo(h.data.Dataset()), Metrics: metrics}
	response.JSON(c, http.StatusOK, payload, timingMeta(c, start))
}

// Monthly godoc
// @Summary Month-by-month lifecycle trend for a date range
// @Tags Metrics
// @Produce json
// @Param from query string true "Range start (YYYY-MM-DD)"
// @Param to query string true "Range end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /metrics/monthly [get]
func (h *AnalyticsHandler) Monthly(c *gin.Context) {
	if h.analytics == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	dateRange, err := parseDateRange(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	start := time.Now()
	months, cacheHit, err := h.analytics.MonthlySeries(c.Request.Context(), dateRange)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	payload := dto.SeriesResponse{Dataset: dto.NewDatasetInfo(h.data.Dataset()), Months: months}
	response.JSON(c, http.StatusOK, payload, timingMeta(c, start))
}

// Categories godoc
// @Summary Per-category enrollment, renewal and churn counts
// @Tags Metrics
// @Produce json
// @Param from query string true "Range start (YYYY-MM-DD)"
// @Param to query string true "Range end (YYYY-MM-DD)"
// @Param top query int false "Maximum categories to return"
// @Success 200 {object} response.Envelope
// @Router /metrics/categories [get]
func (h *AnalyticsHandler) Categories(c *gin.Context) {
	if h.analytics == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	dateRange, err := parseDateRange(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	topN := 0
	if raw := c.Query("top"); raw != "" {
		parsed, convErr := strconv.Atoi(raw)
		if convErr != nil || parsed < 1 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid top parameter"))
			return
		}
		topN = parsed
	}
	start := time.Now()
	categories, cacheHit, err := h.analytics.CategoryBreakdown(c.Request.Context(), dateRange, topN)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	payload := dto.BreakdownResponse{Dataset: dto.NewDatasetInfo(h.data.Dataset()), Categories: categories}
	response.JSON(c, http.StatusOK, payload, timingMeta(c, start))
}

// Students godoc
// @Summary Students behind one headline metric
// @Tags Metrics
// @Produce json
// @Param from query string true "Range start (YYYY-MM-DD)"
// @Param to query string true "Range end (YYYY-MM-DD)"
// @Param metric query string true "Metric key (new_enrollments, eligible, renewed, churned, in_grace, multi_activity)"
// @Success 200 {object} response.Envelope
// @Router /metrics/students [get]
func (h *AnalyticsHandler) Students(c *gin.Context) {
	if h.analytics == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	dateRange, err := parseDateRange(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	metric := c.Query("metric")
	if metric == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "metric parameter is required"))
		return
	}
	start := time.Now()
	students, err := h.analytics.DrillDown(c.Request.Context(), dateRange, metric)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, false)
	payload := dto.DrillDownResponse{
		Dataset:  dto.NewDatasetInfo(h.data.Dataset()),
		Metric:   metric,
		Count:    len(students),
		Students: students,
	}
	response.JSON(c, http.StatusOK, payload, timingMeta(c, start))
}

// parseDateRange reads the from/to query parameters. Both are required and
// accept either a plain date or an RFC3339 timestamp.
func parseDateRange(c *gin.Context) (models.DateRange, error) {
	from, err := parseDateParam(c.Query("from"), "from")
	if err != nil {
		return models.DateRange{}, err
	}
	to, err := parseDateParam(c.Query("to"), "to")
	if err != nil {
		return models.DateRange{}, err
	}
	if to.Before(from) {
		return models.DateRange{}, appErrors.Clone(appErrors.ErrValidation, "to must not precede from")
	}
	return models.NewDateRange(from, to), nil
}

func parseDateParam(raw, name string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, name+" parameter is required")
	}
	if parsed, err := time.Parse("2006-01-02", raw); err == nil {
		return parsed, nil
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed, nil
	}
	return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "invalid "+name+" parameter")
}

func timingMeta(c *gin.Context, start time.Time) map[string]interface{} {
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = make(map[string]interface{})
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	return meta
}
