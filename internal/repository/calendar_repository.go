package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fitdesk/coach-api/internal/models"
)

// CalendarRepository persists coach calendar events.
type CalendarRepository struct {
	db *sqlx.DB
}

// NewCalendarRepository constructs a calendar repository.
func NewCalendarRepository(db *sqlx.DB) *CalendarRepository {
	return &CalendarRepository{db: db}
}

// List returns calendar events matching filters.
func (r *CalendarRepository) List(ctx context.Context, coachID string, filter models.CalendarFilter) ([]models.CalendarEvent, int, error) {
	base := "FROM calendar_events"
	where := []string{"coach_id = $1"}
	args := []interface{}{coachID}
	if filter.From != nil {
		where = append(where, fmt.Sprintf("ends_at >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		where = append(where, fmt.Sprintf("starts_at <= $%d", len(args)+1))
		args = append(args, *filter.To)
	}
	if filter.StudentID != "" {
		where = append(where, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT id, coach_id, student_id, title, description, event_type, starts_at, ends_at, location, created_at, updated_at
%s WHERE %s ORDER BY starts_at ASC LIMIT %d OFFSET %d`, base, whereClause, size, offset)
	var events []models.CalendarEvent
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list calendar events: %w", err)
	}
	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count calendar events: %w", err)
	}
	return events, total, nil
}

// GetByID fetches a calendar event verifying ownership.
func (r *CalendarRepository) GetByID(ctx context.Context, coachID, id string) (*models.CalendarEvent, error) {
	const query = `SELECT id, coach_id, student_id, title, description, event_type, starts_at, ends_at, location, created_at, updated_at
FROM calendar_events WHERE id = $1 AND coach_id = $2`
	var event models.CalendarEvent
	if err := r.db.GetContext(ctx, &event, query, id, coachID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get calendar event: %w", err)
	}
	return &event, nil
}

// Create inserts a calendar event.
func (r *CalendarRepository) Create(ctx context.Context, event *models.CalendarEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now
	const query = `INSERT INTO calendar_events (id, coach_id, student_id, title, description, event_type, starts_at, ends_at, location, created_at, updated_at)
VALUES (:id, :coach_id, :student_id, :title, :description, :event_type, :starts_at, :ends_at, :location, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("create calendar event: %w", err)
	}
	return nil
}

// Update modifies an event.
func (r *CalendarRepository) Update(ctx context.Context, event *models.CalendarEvent) error {
	event.UpdatedAt = time.Now().UTC()
	const query = `UPDATE calendar_events SET student_id = :student_id, title = :title, description = :description, event_type = :event_type,
starts_at = :starts_at, ends_at = :ends_at, location = :location, updated_at = :updated_at
WHERE id = :id AND coach_id = :coach_id`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("update calendar event: %w", err)
	}
	return nil
}

// Delete removes an event verifying ownership.
func (r *CalendarRepository) Delete(ctx context.Context, coachID, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM calendar_events WHERE id = $1 AND coach_id = $2", id, coachID); err != nil {
		return fmt.Errorf("delete calendar event: %w", err)
	}
	return nil
}

// CountUpcoming counts events starting within the window.
func (r *CalendarRepository) CountUpcoming(ctx context.Context, coachID string, from, to time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM calendar_events WHERE coach_id = $1 AND starts_at >= $2 AND starts_at < $3`
	var count int
	if err := r.db.GetContext(ctx, &count, query, coachID, from, to); err != nil {
		return 0, fmt.Errorf("count upcoming events: %w", err)
	}
	return count, nil
}
