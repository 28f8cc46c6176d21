package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitdesk/coach-api/internal/middleware"
	"github.com/fitdesk/coach-api/internal/models"
	"github.com/fitdesk/coach-api/internal/service"
)

type settingsRepoFake struct {
	stored map[string]*models.CoachSettings
}

func (f *settingsRepoFake) Get(_ context.Context, coachID string) (*models.CoachSettings, error) {
	if settings, ok := f.stored[coachID]; ok {
		return settings, nil
	}
	return nil, sql.ErrNoRows
}

func (f *settingsRepoFake) Upsert(_ context.Context, settings *models.CoachSettings) error {
	if f.stored == nil {
		f.stored = map[string]*models.CoachSettings{}
	}
	f.stored[settings.CoachID] = settings
	return nil
}

func newSettingsTestContext(t *testing.T, method, path string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	c.Request = httptest.NewRequest(method, path, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "coach-1", Role: models.RoleCoach})
	return c, rec
}

func TestSettingsHandlerGetFallsBackToDefaults(t *testing.T) {
	handler := NewSettingsHandler(service.NewSettingsService(&settingsRepoFake{}, nil, nil, true))

	c, rec := newSettingsTestContext(t, http.MethodGet, "/settings", nil)
	handler.Get(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data models.CoachSettings `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "coach-1", envelope.Data.CoachID)
	assert.Equal(t, "metric", envelope.Data.Units)
}

func TestSettingsHandlerUpdatePersists(t *testing.T) {
	repo := &settingsRepoFake{}
	handler := NewSettingsHandler(service.NewSettingsService(repo, nil, nil, true))

	c, rec := newSettingsTestContext(t, http.MethodPut, "/settings", service.UpdateSettingsRequest{
		Locale:            "en",
		Units:             "imperial",
		PushNotifications: true,
	})
	handler.Update(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, repo.stored["coach-1"])
	assert.Equal(t, "imperial", repo.stored["coach-1"].Units)
}

func TestSettingsHandlerUpdateRejectsBadUnits(t *testing.T) {
	repo := &settingsRepoFake{}
	handler := NewSettingsHandler(service.NewSettingsService(repo, nil, nil, true))

	c, rec := newSettingsTestContext(t, http.MethodPut, "/settings", map[string]string{
		"locale": "en",
		"units":  "stone",
	})
	handler.Update(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, repo.stored)
}
