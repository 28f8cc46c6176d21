package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fitdesk/coach-api/internal/models"
)

type settingsRepoStub struct {
	stored *models.CoachSettings
}

func (s *settingsRepoStub) Get(ctx context.Context, coachID string) (*models.CoachSettings, error) {
	if s.stored == nil {
		return nil, sql.ErrNoRows
	}
	cp := *s.stored
	return &cp, nil
}

func (s *settingsRepoStub) Upsert(ctx context.Context, settings *models.CoachSettings) error {
	cp := *settings
	s.stored = &cp
	return nil
}

func TestSettingsServiceGetFallsBackToDefaults(t *testing.T) {
	svc := NewSettingsService(&settingsRepoStub{}, validator.New(), zap.NewNop(), true)

	settings, err := svc.Get(context.Background(), "coach-1")
	require.NoError(t, err)
	assert.Equal(t, "coach-1", settings.CoachID)
	assert.Equal(t, "en", settings.Locale)
	assert.Equal(t, "metric", settings.Units)
	assert.True(t, settings.EmailNotifications)
}

func TestSettingsServiceUpdateCreatesRow(t *testing.T) {
	repo := &settingsRepoStub{}
	svc := NewSettingsService(repo, validator.New(), zap.NewNop(), true)

	settings, err := svc.Update(context.Background(), "coach-1", UpdateSettingsRequest{
		Locale:             "de",
		Units:              "imperial",
		EmailNotifications: false,
		PushNotifications:  true,
		WeeklyDigest:       true,
	})
	require.NoError(t, err)
	assert.Equal(t, "de", settings.Locale)
	require.NotNil(t, repo.stored)
	assert.Equal(t, "imperial", repo.stored.Units)

	stored, err := svc.Get(context.Background(), "coach-1")
	require.NoError(t, err)
	assert.True(t, stored.WeeklyDigest)
}

func TestSettingsServiceUpdateValidatesUnits(t *testing.T) {
	svc := NewSettingsService(&settingsRepoStub{}, validator.New(), zap.NewNop(), true)

	_, err := svc.Update(context.Background(), "coach-1", UpdateSettingsRequest{Locale: "en", Units: "stone"})
	require.Error(t, err)
}

func TestSettingsServiceRejectsMissingCoach(t *testing.T) {
	svc := NewSettingsService(&settingsRepoStub{}, validator.New(), zap.NewNop(), true)

	_, err := svc.Get(context.Background(), "")
	require.Error(t, err)
	_, err = svc.Update(context.Background(), "", UpdateSettingsRequest{Locale: "en", Units: "metric"})
	require.Error(t, err)
}
