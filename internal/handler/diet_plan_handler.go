package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fitdesk/coach-api/internal/models"
	"github.com/fitdesk/coach-api/internal/service"
	appErrors "github.com/fitdesk/coach-api/pkg/errors"
	"github.com/fitdesk/coach-api/pkg/response"
)

// DietPlanHandler wires diet plan endpoints to the diet plan service.
type DietPlanHandler struct {
	plans   *service.DietPlanService
	exports *service.ExportService
}

// NewDietPlanHandler constructs a DietPlanHandler.
func NewDietPlanHandler(plans *service.DietPlanService, exports *service.ExportService) *DietPlanHandler {
	return &DietPlanHandler{plans: plans, exports: exports}
}

// List godoc
// @Summary List diet plans
// @Tags Diet Plans
// @Produce json
// @Param search query string false "Search by name"
// @Param goal query string false "Filter by goal"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /diet-plans [get]
func (h *DietPlanHandler) List(c *gin.Context) {
	filter := models.DietPlanFilter{
		Search:    strings.TrimSpace(c.Query("search")),
		Goal:      c.Query("goal"),
		SortBy:    c.Query("sort"),
		SortOrder: c.Query("order"),
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	plans, pagination, err := h.plans.List(c.Request.Context(), coachIDFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plans, pagination)
}

// Get godoc
// @Summary Get diet plan detail with assigned students
// @Tags Diet Plans
// @Produce json
// @Param id path string true "Diet plan ID"
// @Success 200 {object} response.Envelope
// @Router /diet-plans/{id} [get]
func (h *DietPlanHandler) Get(c *gin.Context) {
	plan, err := h.plans.Get(c.Request.Context(), coachIDFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan, nil)
}

// Create godoc
// @Summary Create diet plan
// @Tags Diet Plans
// @Accept json
// @Produce json
// @Param payload body service.CreateDietPlanRequest true "Diet plan payload"
// @Success 201 {object} response.Envelope
// @Router /diet-plans [post]
func (h *DietPlanHandler) Create(c *gin.Context) {
	var req service.CreateDietPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid diet plan payload"))
		return
	}
	plan, err := h.plans.Create(c.Request.Context(), coachIDFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, plan)
}

// Update godoc
// @Summary Update diet plan
// @Tags Diet Plans
// @Accept json
// @Produce json
// @Param id path string true "Diet plan ID"
// @Param payload body service.UpdateDietPlanRequest true "Diet plan payload"
// @Success 200 {object} response.Envelope
// @Router /diet-plans/{id} [put]
func (h *DietPlanHandler) Update(c *gin.Context) {
	var req service.UpdateDietPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid diet plan payload"))
		return
	}
	plan, err := h.plans.Update(c.Request.Context(), coachIDFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan, nil)
}

// Delete godoc
// @Summary Delete diet plan
// @Tags Diet Plans
// @Param id path string true "Diet plan ID"
// @Success 204
// @Router /diet-plans/{id} [delete]
func (h *DietPlanHandler) Delete(c *gin.Context) {
	if err := h.plans.Delete(c.Request.Context(), coachIDFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Assign godoc
// @Summary Assign diet plan to a student
// @Tags Diet Plans
// @Accept json
// @Produce json
// @Param id path string true "Diet plan ID"
// @Success 200 {object} response.Envelope
// @Router /diet-plans/{id}/assign [post]
func (h *DietPlanHandler) Assign(c *gin.Context) {
	var payload struct {
		StudentID string `json:"student_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "student_id required"))
		return
	}
	members, err := h.plans.AssignToStudent(c.Request.Context(), coachIDFromContext(c), c.Param("id"), payload.StudentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"assigned_student_ids": members}, nil)
}

// Unassign godoc
// @Summary Unassign diet plan from a student
// @Tags Diet Plans
// @Accept json
// @Produce json
// @Param id path string true "Diet plan ID"
// @Success 200 {object} response.Envelope
// @Router /diet-plans/{id}/unassign [post]
func (h *DietPlanHandler) Unassign(c *gin.Context) {
	var payload struct {
		StudentID string `json:"student_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "student_id required"))
		return
	}
	members, err := h.plans.UnassignFromStudent(c.Request.Context(), coachIDFromContext(c), c.Param("id"), payload.StudentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"assigned_student_ids": members}, nil)
}

// Export godoc
// @Summary Export diet plan detail as PDF or CSV
// @Tags Diet Plans
// @Produce json
// @Param id path string true "Diet plan ID"
// @Param format query string false "pdf or csv"
// @Success 200 {object} response.Envelope
// @Router /diet-plans/{id}/export [post]
func (h *DietPlanHandler) Export(c *gin.Context) {
	result, err := h.exports.ExportDietPlan(c.Request.Context(), coachIDFromContext(c), c.Param("id"), c.DefaultQuery("format", "pdf"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
