package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fitdesk/coach-api/internal/models"
	appErrors "github.com/fitdesk/coach-api/pkg/errors"
)

type settingsRepository interface {
	Get(ctx context.Context, coachID string) (*models.CoachSettings, error)
	Upsert(ctx context.Context, settings *models.CoachSettings) error
}

// UpdateSettingsRequest carries coach preference changes.
type UpdateSettingsRequest struct {
	Locale             string `json:"locale" validate:"required,bcp47_language_tag"`
	Units              string `json:"units" validate:"required,oneof=metric imperial"`
	EmailNotifications bool   `json:"email_notifications"`
	PushNotifications  bool   `json:"push_notifications"`
	WeeklyDigest       bool   `json:"weekly_digest"`
}

// SettingsService manages per-coach preferences.
type SettingsService struct {
	repo      settingsRepository
	validator *validator.Validate
	logger    *zap.Logger
	reconcile bool
}

// NewSettingsService constructs a SettingsService. The reconcile flag is
// surfaced read-only on every settings payload.
func NewSettingsService(repo settingsRepository, validate *validator.Validate, logger *zap.Logger, reconcile bool) *SettingsService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{repo: repo, validator: validate, logger: logger, reconcile: reconcile}
}

// Get returns the coach's settings, falling back to defaults before the
// first save.
func (s *SettingsService) Get(ctx context.Context, coachID string) (*models.CoachSettings, error) {
	if coachID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing coach identity")
	}
	settings, err := s.repo.Get(ctx, coachID)
	if err != nil {
		if err == sql.ErrNoRows {
			defaults := models.DefaultCoachSettings(coachID)
			defaults.ReconcileAfterWrite = s.reconcile
			return &defaults, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load settings")
	}
	settings.ReconcileAfterWrite = s.reconcile
	return settings, nil
}

// Update persists settings, creating the row on first save.
func (s *SettingsService) Update(ctx context.Context, coachID string, req UpdateSettingsRequest) (*models.CoachSettings, error) {
	if coachID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing coach identity")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid settings payload")
	}
	settings := &models.CoachSettings{
		CoachID:             coachID,
		Locale:              req.Locale,
		Units:               req.Units,
		EmailNotifications:  req.EmailNotifications,
		PushNotifications:   req.PushNotifications,
		WeeklyDigest:        req.WeeklyDigest,
		UpdatedAt:           time.Now().UTC(),
		ReconcileAfterWrite: s.reconcile,
	}
	if err := s.repo.Upsert(ctx, settings); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save settings")
	}
	return settings, nil
}
