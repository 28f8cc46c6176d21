package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fitdesk/coach-api/internal/models"
	"github.com/fitdesk/coach-api/internal/service"
	appErrors "github.com/fitdesk/coach-api/pkg/errors"
	"github.com/fitdesk/coach-api/pkg/response"
)

// CalendarHandler exposes the coaching calendar endpoints.
type CalendarHandler struct {
	calendar *service.CalendarService
}

// NewCalendarHandler constructs a CalendarHandler.
func NewCalendarHandler(calendar *service.CalendarService) *CalendarHandler {
	return &CalendarHandler{calendar: calendar}
}

// List godoc
// @Summary List calendar events in a window
// @Tags Calendar
// @Produce json
// @Param from query string false "RFC3339 window start"
// @Param to query string false "RFC3339 window end"
// @Param student_id query string false "Filter by student"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /calendar [get]
func (h *CalendarHandler) List(c *gin.Context) {
	filter := models.CalendarFilter{StudentID: c.Query("student_id")}
	if from := c.Query("from"); from != "" {
		ts, err := time.Parse(time.RFC3339, from)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid from timestamp"))
			return
		}
		filter.From = &ts
	}
	if to := c.Query("to"); to != "" {
		ts, err := time.Parse(time.RFC3339, to)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid to timestamp"))
			return
		}
		filter.To = &ts
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.PageSize = size
	}

	events, pagination, err := h.calendar.List(c.Request.Context(), coachIDFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, pagination)
}

// Get godoc
// @Summary Get a calendar event
// @Tags Calendar
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /calendar/{id} [get]
func (h *CalendarHandler) Get(c *gin.Context) {
	event, err := h.calendar.Get(c.Request.Context(), coachIDFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// Create godoc
// @Summary Schedule a calendar event
// @Tags Calendar
// @Accept json
// @Produce json
// @Param payload body service.CreateEventRequest true "Event payload"
// @Success 201 {object} response.Envelope
// @Router /calendar [post]
func (h *CalendarHandler) Create(c *gin.Context) {
	var req service.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid event payload"))
		return
	}
	event, err := h.calendar.Create(c.Request.Context(), coachIDFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}

// Update godoc
// @Summary Update a calendar event
// @Tags Calendar
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param payload body service.UpdateEventRequest true "Event payload"
// @Success 200 {object} response.Envelope
// @Router /calendar/{id} [put]
func (h *CalendarHandler) Update(c *gin.Context) {
	var req service.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid event payload"))
		return
	}
	event, err := h.calendar.Update(c.Request.Context(), coachIDFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// Delete godoc
// @Summary Delete a calendar event
// @Tags Calendar
// @Param id path string true "Event ID"
// @Success 204
// @Router /calendar/{id} [delete]
func (h *CalendarHandler) Delete(c *gin.Context) {
	if err := h.calendar.Delete(c.Request.Context(), coachIDFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
