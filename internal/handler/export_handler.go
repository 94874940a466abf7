package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/crescendo-hq/lifecycle-api/internal/service"
	appErrors "github.com/crescendo-hq/lifecycle-api/pkg/errors"
	"github.com/crescendo-hq/lifecycle-api/pkg/response"
)

// ExportHandler streams generated lifecycle reports.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs the export handler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Report godoc
// @Summary Download the lifecycle report for a date range
// @Tags Reports
// @Produce octet-stream
// @Param from query string true "Range start (YYYY-MM-DD)"
// @Param to query string true "Range end (YYYY-MM-DD)"
// @Param format query string false "Report format (csv or pdf, default csv)"
// @Success 200 {file} byte
// @Router /reports/export [get]
func (h *ExportHandler) Report(c *gin.Context) {
	if h.exports == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	dateRange, err := parseDateRange(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	format := c.DefaultQuery("format", service.FormatCSV)
	result, err := h.exports.Generate(c.Request.Context(), dateRange, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Content)
}
