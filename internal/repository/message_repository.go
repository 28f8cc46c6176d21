package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fitdesk/coach-api/internal/models"
)

// MessageRepository persists coach-student conversations.
type MessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository constructs the repository.
func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// ListConversation returns messages for one thread, newest first.
func (r *MessageRepository) ListConversation(ctx context.Context, coachID string, filter models.MessageFilter) ([]models.Message, error) {
	base := `SELECT id, coach_id, student_id, sender, body, read_at, created_at
FROM messages WHERE coach_id = $1 AND student_id = $2`
	args := []interface{}{coachID, filter.StudentID}
	if filter.Before != nil {
		base += fmt.Sprintf(" AND created_at < $%d", len(args)+1)
		args = append(args, *filter.Before)
	}
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := fmt.Sprintf("%s ORDER BY created_at DESC LIMIT %d", base, limit)
	var messages []models.Message
	if err := r.db.SelectContext(ctx, &messages, query, args...); err != nil {
		return nil, fmt.Errorf("list conversation: %w", err)
	}
	return messages, nil
}

// ListConversations summarises every student thread for the coach inbox.
func (r *MessageRepository) ListConversations(ctx context.Context, coachID string) ([]models.ConversationSummary, error) {
	const query = `SELECT m.student_id,
       s.full_name AS student_name,
       m.body AS last_body,
       m.created_at AS last_created_at,
       m.sender AS last_sender,
       (SELECT COUNT(*) FROM messages u WHERE u.coach_id = m.coach_id AND u.student_id = m.student_id AND u.sender = 'STUDENT' AND u.read_at IS NULL) AS unread_count
FROM messages m
JOIN students s ON s.id = m.student_id
WHERE m.coach_id = $1
  AND m.created_at = (SELECT MAX(created_at) FROM messages l WHERE l.coach_id = m.coach_id AND l.student_id = m.student_id)
ORDER BY m.created_at DESC`
	var summaries []models.ConversationSummary
	if err := r.db.SelectContext(ctx, &summaries, query, coachID); err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return summaries, nil
}

// Create inserts a message.
func (r *MessageRepository) Create(ctx context.Context, message *models.Message) error {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO messages (id, coach_id, student_id, sender, body, read_at, created_at)
VALUES (:id, :coach_id, :student_id, :sender, :body, :read_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, message); err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

// MarkConversationRead stamps unread student messages in one thread.
func (r *MessageRepository) MarkConversationRead(ctx context.Context, coachID, studentID string, ts time.Time) error {
	const query = `UPDATE messages SET read_at = $3
WHERE coach_id = $1 AND student_id = $2 AND sender = 'STUDENT' AND read_at IS NULL`
	if _, err := r.db.ExecContext(ctx, query, coachID, studentID, ts); err != nil {
		return fmt.Errorf("mark conversation read: %w", err)
	}
	return nil
}

// CountUnread counts unread student messages across threads.
func (r *MessageRepository) CountUnread(ctx context.Context, coachID string) (int, error) {
	const query = `SELECT COUNT(*) FROM messages
WHERE coach_id = $1 AND sender = 'STUDENT' AND read_at IS NULL`
	var count int
	if err := r.db.GetContext(ctx, &count, query, coachID); err != nil {
		return 0, fmt.Errorf("count unread messages: %w", err)
	}
	return count, nil
}
