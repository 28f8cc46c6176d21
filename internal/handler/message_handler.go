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

// MessageHandler exposes the coach/student messaging endpoints.
type MessageHandler struct {
	messages *service.MessageService
}

// NewMessageHandler constructs a MessageHandler.
func NewMessageHandler(messages *service.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

// Conversations godoc
// @Summary List conversation summaries with unread counts
// @Tags Messages
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /messages [get]
func (h *MessageHandler) Conversations(c *gin.Context) {
	conversations, err := h.messages.Conversations(c.Request.Context(), coachIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, conversations, nil)
}

// Conversation godoc
// @Summary Get the message thread with a student
// @Tags Messages
// @Produce json
// @Param studentID path string true "Student ID"
// @Param before query string false "RFC3339 cursor, messages strictly before"
// @Param limit query int false "Max messages to return"
// @Success 200 {object} response.Envelope
// @Router /messages/{studentID} [get]
func (h *MessageHandler) Conversation(c *gin.Context) {
	filter := models.MessageFilter{StudentID: c.Param("studentID")}
	if cursor := c.Query("before"); cursor != "" {
		ts, err := time.Parse(time.RFC3339, cursor)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid before cursor"))
			return
		}
		filter.Before = &ts
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.Limit = limit
	}

	messages, err := h.messages.Conversation(c.Request.Context(), coachIDFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, messages, nil)
}

// Send godoc
// @Summary Send a message to a student
// @Tags Messages
// @Accept json
// @Produce json
// @Param payload body service.SendMessageRequest true "Message payload"
// @Success 201 {object} response.Envelope
// @Router /messages [post]
func (h *MessageHandler) Send(c *gin.Context) {
	var req service.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid message payload"))
		return
	}
	message, err := h.messages.Send(c.Request.Context(), coachIDFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, message)
}

// MarkRead godoc
// @Summary Mark all messages from a student as read
// @Tags Messages
// @Param studentID path string true "Student ID"
// @Success 204
// @Router /messages/{studentID}/read [post]
func (h *MessageHandler) MarkRead(c *gin.Context) {
	if err := h.messages.MarkRead(c.Request.Context(), coachIDFromContext(c), c.Param("studentID")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UnreadCount godoc
// @Summary Total unread messages across all conversations
// @Tags Messages
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /messages/unread-count [get]
func (h *MessageHandler) UnreadCount(c *gin.Context) {
	count, err := h.messages.UnreadCount(c.Request.Context(), coachIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"unread": count}, nil)
}
