package models

import "time"

// CoachSettings stores per-coach dashboard preferences.
type CoachSettings struct {
	CoachID            string    `db:"coach_id" json:"coach_id"`
	Locale             string    `db:"locale" json:"locale"`
	Units              string    `db:"units" json:"units"`
	EmailNotifications bool      `db:"email_notifications" json:"email_notifications"`
	PushNotifications  bool      `db:"push_notifications" json:"push_notifications"`
	WeeklyDigest       bool      `db:"weekly_digest" json:"weekly_digest"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`

	// ReconcileAfterWrite reports the server-wide membership policy.
	// Read-only, populated from config, never persisted.
	ReconcileAfterWrite bool `db:"-" json:"reconcile_after_write"`
}

// DefaultCoachSettings returns the settings applied before a coach has
// saved any preference.
func DefaultCoachSettings(coachID string) CoachSettings {
	return CoachSettings{
		CoachID:            coachID,
		Locale:             "en",
		Units:              "metric",
		EmailNotifications: true,
		PushNotifications:  true,
		WeeklyDigest:       false,
	}
}
