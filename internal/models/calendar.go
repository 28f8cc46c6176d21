package models

import "time"

// CalendarEvent represents a coach calendar entry such as a training
// session or a check-in with a student.
type CalendarEvent struct {
	ID          string     `db:"id" json:"id"`
	CoachID     string     `db:"coach_id" json:"coach_id"`
	StudentID   *string    `db:"student_id" json:"student_id,omitempty"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description"`
	EventType   string     `db:"event_type" json:"event_type"`
	StartsAt    time.Time  `db:"starts_at" json:"starts_at"`
	EndsAt      time.Time  `db:"ends_at" json:"ends_at"`
	Location    *string    `db:"location" json:"location,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// CalendarFilter narrows down events to a window.
type CalendarFilter struct {
	From      *time.Time
	To        *time.Time
	StudentID string
	Page      int
	PageSize  int
}
