package models

import "time"

// NotificationKind categorises dashboard notifications.
type NotificationKind string

const (
	NotificationAssignment NotificationKind = "ASSIGNMENT"
	NotificationMessage    NotificationKind = "MESSAGE"
	NotificationCalendar   NotificationKind = "CALENDAR"
	NotificationSystem     NotificationKind = "SYSTEM"
)

// Notification is a per-user dashboard notification row.
type Notification struct {
	ID        string           `db:"id" json:"id"`
	UserID    string           `db:"user_id" json:"user_id"`
	Kind      NotificationKind `db:"kind" json:"kind"`
	Title     string           `db:"title" json:"title"`
	Body      string           `db:"body" json:"body"`
	Read      bool             `db:"read" json:"read"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}

// NotificationFilter narrows down notification listings.
type NotificationFilter struct {
	UnreadOnly bool
	Kind       *NotificationKind
	Page       int
	PageSize   int
}
