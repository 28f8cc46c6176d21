package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fitdesk/coach-api/internal/models"
)

// AssignmentRepository persists the coach-student assignment rows that
// carry both the program and diet relations. All writes go through
// upserts keyed on (coach_id, student_id) so concurrent assigns cannot
// produce duplicate rows for the same pair.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// GetByPair returns the single assignment row for a coach-student pair.
func (r *AssignmentRepository) GetByPair(ctx context.Context, coachID, studentID string) (*models.Assignment, error) {
	const query = `SELECT id, coach_id, student_id, program_id, program_status, diet_plan_id, diet_status, created_at, updated_at
FROM assignments WHERE coach_id = $1 AND student_id = $2 LIMIT 1`
	var assignment models.Assignment
	if err := r.db.GetContext(ctx, &assignment, query, coachID, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	return &assignment, nil
}

// UpsertProgram activates the program relation for the pair, inserting
// the row when the pair has never been assigned anything before.
func (r *AssignmentRepository) UpsertProgram(ctx context.Context, coachID, studentID, programID string) error {
	now := time.Now().UTC()
	const query = `INSERT INTO assignments (id, coach_id, student_id, program_id, program_status, diet_status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
ON CONFLICT (coach_id, student_id)
DO UPDATE SET program_id = EXCLUDED.program_id, program_status = EXCLUDED.program_status, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, uuid.NewString(), coachID, studentID, programID, models.RelationActive, models.RelationPaused, now); err != nil {
		return fmt.Errorf("upsert program assignment: %w", err)
	}
	return nil
}

// UpsertDietPlan activates the diet relation for the pair.
func (r *AssignmentRepository) UpsertDietPlan(ctx context.Context, coachID, studentID, dietPlanID string) error {
	now := time.Now().UTC()
	const query = `INSERT INTO assignments (id, coach_id, student_id, diet_plan_id, diet_status, program_status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
ON CONFLICT (coach_id, student_id)
DO UPDATE SET diet_plan_id = EXCLUDED.diet_plan_id, diet_status = EXCLUDED.diet_status, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, uuid.NewString(), coachID, studentID, dietPlanID, models.RelationActive, models.RelationPaused, now); err != nil {
		return fmt.Errorf("upsert diet assignment: %w", err)
	}
	return nil
}

// PauseProgram flips the program relation to PAUSED, keeping the foreign
// key so history survives. The update is filtered by the program id as
// well as the pair, so a pause aimed at one program never touches a
// relation holding another. Zero affected rows is not an error: pausing
// a relation that was never assigned is a reported no-op.
func (r *AssignmentRepository) PauseProgram(ctx context.Context, coachID, studentID, programID string) error {
	const query = `UPDATE assignments SET program_status = $4, updated_at = $5
WHERE coach_id = $1 AND student_id = $2 AND program_id = $3`
	if _, err := r.db.ExecContext(ctx, query, coachID, studentID, programID, models.RelationPaused, time.Now().UTC()); err != nil {
		return fmt.Errorf("pause program assignment: %w", err)
	}
	return nil
}

// PauseDietPlan flips the diet relation to PAUSED, filtered by the diet
// plan id as well as the pair.
func (r *AssignmentRepository) PauseDietPlan(ctx context.Context, coachID, studentID, dietPlanID string) error {
	const query = `UPDATE assignments SET diet_status = $4, updated_at = $5
WHERE coach_id = $1 AND student_id = $2 AND diet_plan_id = $3`
	if _, err := r.db.ExecContext(ctx, query, coachID, studentID, dietPlanID, models.RelationPaused, time.Now().UTC()); err != nil {
		return fmt.Errorf("pause diet assignment: %w", err)
	}
	return nil
}

// PauseAllForStudent pauses both relations, used when a student is
// deactivated.
func (r *AssignmentRepository) PauseAllForStudent(ctx context.Context, coachID, studentID string) error {
	const query = `UPDATE assignments SET program_status = $3, diet_status = $3, updated_at = $4 WHERE coach_id = $1 AND student_id = $2`
	if _, err := r.db.ExecContext(ctx, query, coachID, studentID, models.RelationPaused, time.Now().UTC()); err != nil {
		return fmt.Errorf("pause assignments for student: %w", err)
	}
	return nil
}

// ListByCoach returns every assignment row owned by the coach. Derived
// membership fields are reconstructed from this result set, never read
// from entity rows.
func (r *AssignmentRepository) ListByCoach(ctx context.Context, coachID string) ([]models.Assignment, error) {
	const query = `SELECT id, coach_id, student_id, program_id, program_status, diet_plan_id, diet_status, created_at, updated_at
FROM assignments WHERE coach_id = $1 ORDER BY created_at ASC`
	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query, coachID); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return assignments, nil
}

// ListStudentIDsByProgram returns the active membership for one program.
func (r *AssignmentRepository) ListStudentIDsByProgram(ctx context.Context, coachID, programID string) ([]string, error) {
	const query = `SELECT student_id FROM assignments
WHERE coach_id = $1 AND program_id = $2 AND program_status = $3 ORDER BY student_id ASC`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, coachID, programID, models.RelationActive); err != nil {
		return nil, fmt.Errorf("list program members: %w", err)
	}
	return ids, nil
}

// ListStudentIDsByDietPlan returns the active membership for one diet plan.
func (r *AssignmentRepository) ListStudentIDsByDietPlan(ctx context.Context, coachID, dietPlanID string) ([]string, error) {
	const query = `SELECT student_id FROM assignments
WHERE coach_id = $1 AND diet_plan_id = $2 AND diet_status = $3 ORDER BY student_id ASC`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, coachID, dietPlanID, models.RelationActive); err != nil {
		return nil, fmt.Errorf("list diet plan members: %w", err)
	}
	return ids, nil
}

// CountActiveByCoach counts relations currently active for the coach.
func (r *AssignmentRepository) CountActiveByCoach(ctx context.Context, coachID string) (int, error) {
	const query = `SELECT COUNT(*) FROM assignments
WHERE coach_id = $1 AND (program_status = $2 OR diet_status = $2)`
	var count int
	if err := r.db.GetContext(ctx, &count, query, coachID, models.RelationActive); err != nil {
		return 0, fmt.Errorf("count active assignments: %w", err)
	}
	return count, nil
}
