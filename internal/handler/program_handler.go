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

// ProgramHandler wires program endpoints to the program service.
type ProgramHandler struct {
	programs *service.ProgramService
	exports  *service.ExportService
}

// NewProgramHandler constructs a ProgramHandler.
func NewProgramHandler(programs *service.ProgramService, exports *service.ExportService) *ProgramHandler {
	return &ProgramHandler{programs: programs, exports: exports}
}

func coachIDFromContext(c *gin.Context) string {
	claims := claimsFromContext(c)
	if claims == nil {
		return ""
	}
	return claims.UserID
}

// List godoc
// @Summary List programs
// @Tags Programs
// @Produce json
// @Param search query string false "Search by name"
// @Param goal query string false "Filter by goal"
// @Param level query string false "Filter by level"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /programs [get]
func (h *ProgramHandler) List(c *gin.Context) {
	filter := models.ProgramFilter{
		Search:    strings.TrimSpace(c.Query("search")),
		Goal:      c.Query("goal"),
		Level:     c.Query("level"),
		SortBy:    c.Query("sort"),
		SortOrder: c.Query("order"),
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	programs, pagination, err := h.programs.List(c.Request.Context(), coachIDFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, programs, pagination)
}

// Get godoc
// @Summary Get program detail with assigned students
// @Tags Programs
// @Produce json
// @Param id path string true "Program ID"
// @Success 200 {object} response.Envelope
// @Router /programs/{id} [get]
func (h *ProgramHandler) Get(c *gin.Context) {
	program, err := h.programs.Get(c.Request.Context(), coachIDFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, program, nil)
}

// Create godoc
// @Summary Create program
// @Tags Programs
// @Accept json
// @Produce json
// @Param payload body service.CreateProgramRequest true "Program payload"
// @Success 201 {object} response.Envelope
// @Router /programs [post]
func (h *ProgramHandler) Create(c *gin.Context) {
	var req service.CreateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid program payload"))
		return
	}
	program, err := h.programs.Create(c.Request.Context(), coachIDFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, program)
}

// Update godoc
// @Summary Update program
// @Tags Programs
// @Accept json
// @Produce json
// @Param id path string true "Program ID"
// @Param payload body service.UpdateProgramRequest true "Program payload"
// @Success 200 {object} response.Envelope
// @Router /programs/{id} [put]
func (h *ProgramHandler) Update(c *gin.Context) {
	var req service.UpdateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid program payload"))
		return
	}
	program, err := h.programs.Update(c.Request.Context(), coachIDFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, program, nil)
}

// Delete godoc
// @Summary Delete program
// @Tags Programs
// @Param id path string true "Program ID"
// @Success 204
// @Router /programs/{id} [delete]
func (h *ProgramHandler) Delete(c *gin.Context) {
	if err := h.programs.Delete(c.Request.Context(), coachIDFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Assign godoc
// @Summary Assign program to a student
// @Tags Programs
// @Accept json
// @Produce json
// @Param id path string true "Program ID"
// @Success 200 {object} response.Envelope
// @Router /programs/{id}/assign [post]
func (h *ProgramHandler) Assign(c *gin.Context) {
	var payload struct {
		StudentID string `json:"student_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "student_id required"))
		return
	}
	members, err := h.programs.AssignToStudent(c.Request.Context(), coachIDFromContext(c), c.Param("id"), payload.StudentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"assigned_student_ids": members}, nil)
}

// Unassign godoc
// @Summary Unassign program from a student
// @Tags Programs
// @Accept json
// @Produce json
// @Param id path string true "Program ID"
// @Success 200 {object} response.Envelope
// @Router /programs/{id}/unassign [post]
func (h *ProgramHandler) Unassign(c *gin.Context) {
	var payload struct {
		StudentID string `json:"student_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "student_id required"))
		return
	}
	members, err := h.programs.UnassignFromStudent(c.Request.Context(), coachIDFromContext(c), c.Param("id"), payload.StudentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"assigned_student_ids": members}, nil)
}

// Export godoc
// @Summary Export program detail as PDF or CSV
// @Tags Programs
// @Produce json
// @Param id path string true "Program ID"
// @Param format query string false "pdf or csv"
// @Success 200 {object} response.Envelope
// @Router /programs/{id}/export [post]
func (h *ProgramHandler) Export(c *gin.Context) {
	result, err := h.exports.ExportProgram(c.Request.Context(), coachIDFromContext(c), c.Param("id"), c.DefaultQuery("format", "pdf"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
