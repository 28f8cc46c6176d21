package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitdesk/coach-api/internal/middleware"
	"github.com/fitdesk/coach-api/internal/models"
)

func TestAuthHandlerMeWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAuthHandler(nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/auth/me", nil)

	handler.Me(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandlerMeReturnsClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAuthHandler(nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{
		UserID:   "coach-1",
		Email:    "coach@fitdesk.io",
		FullName: "Jamie Doe",
		Role:     models.RoleCoach,
	})

	handler.Me(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data models.UserInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "coach-1", envelope.Data.ID)
	assert.Equal(t, models.RoleCoach, envelope.Data.Role)
}
