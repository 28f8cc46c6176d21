package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// StatsRepository computes the dashboard headline aggregates in a single
// round trip.
type StatsRepository struct {
	db *sqlx.DB
}

// NewStatsRepository constructs the repository.
func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

type statsRow struct {
	ActiveStudents    int `db:"active_students"`
	Programs          int `db:"programs"`
	DietPlans         int `db:"diet_plans"`
	ActiveAssignments int `db:"active_assignments"`
	UnreadMessages    int `db:"unread_messages"`
	UpcomingEvents    int `db:"upcoming_events"`
}

// Counts gathers the per-coach aggregates used by the dashboard.
func (r *StatsRepository) Counts(ctx context.Context, coachID string, upcomingUntil time.Time) (activeStudents, programs, dietPlans, activeAssignments, unreadMessages, upcomingEvents int, err error) {
	const query = `SELECT
  (SELECT COUNT(*) FROM students WHERE coach_id = $1 AND active = true) AS active_students,
  (SELECT COUNT(*) FROM programs WHERE created_by = $1) AS programs,
  (SELECT COUNT(*) FROM diet_plans WHERE created_by = $1) AS diet_plans,
  (SELECT COUNT(*) FROM assignments WHERE coach_id = $1 AND (program_status = 'ACTIVE' OR diet_status = 'ACTIVE')) AS active_assignments,
  (SELECT COUNT(*) FROM messages WHERE coach_id = $1 AND sender = 'STUDENT' AND read_at IS NULL) AS unread_messages,
  (SELECT COUNT(*) FROM calendar_events WHERE coach_id = $1 AND starts_at >= NOW() AND starts_at < $2) AS upcoming_events`
	var row statsRow
	if err = r.db.GetContext(ctx, &row, query, coachID, upcomingUntil); err != nil {
		err = fmt.Errorf("dashboard counts: %w", err)
		return
	}
	return row.ActiveStudents, row.Programs, row.DietPlans, row.ActiveAssignments, row.UnreadMessages, row.UpcomingEvents, nil
}
