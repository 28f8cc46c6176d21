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

// StudentRepository manages persistence for a coach's roster.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// Detail queries join the assignment row so the reciprocal assigned ids
// are derived at fetch time, the only point where they are guaranteed
// consistent with the assignments relation.
const studentDetailColumns = `s.id, s.coach_id, s.full_name, s.email, s.phone, s.goal, s.birth_date, s.active, s.created_at, s.updated_at,
CASE WHEN a.program_status = 'ACTIVE' THEN a.program_id END AS assigned_program_id,
CASE WHEN a.program_status = 'ACTIVE' THEN p.name END AS assigned_program_name,
CASE WHEN a.diet_status = 'ACTIVE' THEN a.diet_plan_id END AS assigned_diet_plan_id,
CASE WHEN a.diet_status = 'ACTIVE' THEN d.name END AS assigned_diet_plan_name`

const studentDetailJoins = `FROM students s
LEFT JOIN assignments a ON a.student_id = s.id AND a.coach_id = s.coach_id
LEFT JOIN programs p ON p.id = a.program_id
LEFT JOIN diet_plans d ON d.id = a.diet_plan_id`

// List returns the coach's students matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, coachID string, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	base := studentDetailJoins + " WHERE s.coach_id = $1"
	args := []interface{}{coachID}

	if filter.Active != nil {
		base += fmt.Sprintf(" AND s.active = $%d", len(args)+1)
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		base += fmt.Sprintf(" AND (LOWER(s.full_name) LIKE $%d OR LOWER(s.email) LIKE $%d)", len(args)+1, len(args)+1)
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"full_name":  "s.full_name",
		"created_at": "s.created_at",
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "s.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", studentDetailColumns, base, column, order, size, offset)
	var students []models.StudentDetail
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(DISTINCT s.id) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID fetches a student detail verifying coach ownership.
func (r *StudentRepository) FindByID(ctx context.Context, coachID, id string) (*models.StudentDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE s.id = $1 AND s.coach_id = $2", studentDetailColumns, studentDetailJoins)
	var detail models.StudentDetail
	if err := r.db.GetContext(ctx, &detail, query, id, coachID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &detail, nil
}

// ExistsByEmail checks if the coach already has a student with the email.
func (r *StudentRepository) ExistsByEmail(ctx context.Context, coachID, email, excludeID string) (bool, error) {
	query := "SELECT 1 FROM students WHERE coach_id = $1 AND LOWER(email) = LOWER($2)"
	args := []interface{}{coachID, email}
	if excludeID != "" {
		query += " AND id <> $3"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check student email: %w", err)
	}
	return true, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, coach_id, full_name, email, phone, goal, birth_date, active, created_at, updated_at)
VALUES (:id, :coach_id, :full_name, :email, :phone, :goal, :birth_date, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update modifies an existing student.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET full_name = :full_name, email = :email, phone = :phone, goal = :goal, birth_date = :birth_date, active = :active, updated_at = :updated_at
WHERE id = :id AND coach_id = :coach_id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// Deactivate marks a student as inactive.
func (r *StudentRepository) Deactivate(ctx context.Context, coachID, id string) error {
	const query = `UPDATE students SET active = false, updated_at = $3 WHERE id = $1 AND coach_id = $2`
	if _, err := r.db.ExecContext(ctx, query, id, coachID, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate student: %w", err)
	}
	return nil
}

// CountActiveByCoach returns the coach's active roster size.
func (r *StudentRepository) CountActiveByCoach(ctx context.Context, coachID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM students WHERE coach_id = $1 AND active = true", coachID); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return count, nil
}
