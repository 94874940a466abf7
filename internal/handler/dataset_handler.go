package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/crescendo-hq/lifecycle-api/internal/dto"
	"github.com/crescendo-hq/lifecycle-api/internal/service"
	appErrors "github.com/crescendo-hq/lifecycle-api/pkg/errors"
	"github.com/crescendo-hq/lifecycle-api/pkg/response"
)

// DatasetHandler manages the in-memory dataset lifecycle.
type DatasetHandler struct {
	data *service.DatasetService
}

// NewDatasetHandler constructs the dataset handler.
func NewDatasetHandler(data *service.DatasetService) *DatasetHandler {
	return &DatasetHandler{data: data}
}

// Refresh godoc
// @Summary Re-fetch all source tabs and rebuild the dataset
// @Tags Dataset
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dataset/refresh [post]
func (h *DatasetHandler) Refresh(c *gin.Context) {
	if h.data == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	ds, err := h.data.Refresh(c.Request.Context())
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUpstream, "dataset refresh failed"))
		return
	}
	payload := dto.RefreshResponse{
		Dataset:     dto.NewDatasetInfo(ds),
		Enrollments: len(ds.Enrollments),
		Renewals:    len(ds.Renewals),
		Diagnostics: ds.Diagnostics,
	}
	response.JSON(c, http.StatusOK, payload)
}

// Diagnostics godoc
// @Summary Row-level quality counters for the current dataset
// @Tags Dataset
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dataset/diagnostics [get]
func (h *DatasetHandler) Diagnostics(c *gin.Context) {
	if h.data == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	payload := dto.DiagnosticsResponse{
		Dataset:     dto.NewDatasetInfo(h.data.Dataset()),
		Diagnostics: h.data.Diagnostics(),
	}
	response.JSON(c, http.StatusOK, payload)
}
