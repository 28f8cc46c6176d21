package models

import "time"

// SenderRole identifies which side of a conversation authored a message.
type SenderRole string

const (
	SenderCoach   SenderRole = "COACH"
	SenderStudent SenderRole = "STUDENT"
)

// Message is one entry in a coach-student conversation.
type Message struct {
	ID        string     `db:"id" json:"id"`
	CoachID   string     `db:"coach_id" json:"coach_id"`
	StudentID string     `db:"student_id" json:"student_id"`
	Sender    SenderRole `db:"sender" json:"sender"`
	Body      string     `db:"body" json:"body"`
	ReadAt    *time.Time `db:"read_at" json:"read_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// ConversationSummary describes one student thread in the coach's inbox.
type ConversationSummary struct {
	StudentID     string     `db:"student_id" json:"student_id"`
	StudentName   string     `db:"student_name" json:"student_name"`
	LastBody      string     `db:"last_body" json:"last_body"`
	LastCreatedAt time.Time  `db:"last_created_at" json:"last_created_at"`
	LastSender    SenderRole `db:"last_sender" json:"last_sender"`
	UnreadCount   int        `db:"unread_count" json:"unread_count"`
}

// MessageFilter paginates a single conversation.
type MessageFilter struct {
	StudentID string
	Before    *time.Time
	Limit     int
}
