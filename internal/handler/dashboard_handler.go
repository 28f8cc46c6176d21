package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fitdesk/coach-api/internal/middleware"
	"github.com/fitdesk/coach-api/internal/service"
	"github.com/fitdesk/coach-api/pkg/response"
)

// DashboardHandler serves the aggregated dashboard endpoints.
type DashboardHandler struct {
	dashboard *service.DashboardService
}

// NewDashboardHandler constructs a DashboardHandler.
func NewDashboardHandler(dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Stats godoc
// @Summary Aggregated dashboard counters for the current coach
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/stats [get]
func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, err := h.dashboard.Stats(c.Request.Context(), coachIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, stats.ServedFromCache)
	response.JSON(c, http.StatusOK, stats, nil, middleware.ExtractMeta(c))
}

// Metrics godoc
// @Summary Runtime metrics snapshot
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/metrics [get]
func (h *DashboardHandler) Metrics(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.dashboard.Metrics(), nil)
}
