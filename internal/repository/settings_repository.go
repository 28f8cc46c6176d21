package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fitdesk/coach-api/internal/models"
)

// SettingsRepository persists per-coach dashboard preferences.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository constructs the repository.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the coach settings row.
func (r *SettingsRepository) Get(ctx context.Context, coachID string) (*models.CoachSettings, error) {
	const query = `SELECT coach_id, locale, units, email_notifications, push_notifications, weekly_digest, updated_at
FROM coach_settings WHERE coach_id = $1`
	var settings models.CoachSettings
	if err := r.db.GetContext(ctx, &settings, query, coachID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get coach settings: %w", err)
	}
	return &settings, nil
}

// Upsert writes the settings row, inserting on first save.
func (r *SettingsRepository) Upsert(ctx context.Context, settings *models.CoachSettings) error {
	settings.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO coach_settings (coach_id, locale, units, email_notifications, push_notifications, weekly_digest, updated_at)
VALUES (:coach_id, :locale, :units, :email_notifications, :push_notifications, :weekly_digest, :updated_at)
ON CONFLICT (coach_id)
DO UPDATE SET locale = EXCLUDED.locale, units = EXCLUDED.units, email_notifications = EXCLUDED.email_notifications,
push_notifications = EXCLUDED.push_notifications, weekly_digest = EXCLUDED.weekly_digest, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, settings); err != nil {
		return fmt.Errorf("upsert coach settings: %w", err)
	}
	return nil
}
