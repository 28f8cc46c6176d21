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

// ProgramRepository manages persistence for workout programs.
type ProgramRepository struct {
	db *sqlx.DB
}

// NewProgramRepository constructs a ProgramRepository.
func NewProgramRepository(db *sqlx.DB) *ProgramRepository {
	return &ProgramRepository{db: db}
}

// List returns the coach's programs matching the provided filters.
func (r *ProgramRepository) List(ctx context.Context, coachID string, filter models.ProgramFilter) ([]models.Program, int, error) {
	base := "FROM programs WHERE created_by = $1"
	args := []interface{}{coachID}

	if filter.Goal != "" {
		base += fmt.Sprintf(" AND goal = $%d", len(args)+1)
		args = append(args, filter.Goal)
	}
	if filter.Level != "" {
		base += fmt.Sprintf(" AND level = $%d", len(args)+1)
		args = append(args, filter.Level)
	}
	if filter.Search != "" {
		base += fmt.Sprintf(" AND LOWER(name) LIKE $%d", len(args)+1)
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{"name": true, "created_at": true, "updated_at": true}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
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

	query := fmt.Sprintf(`SELECT id, created_by, name, goal, level, weeks, days_per_week, notes, created_at, updated_at
%s ORDER BY %s %s LIMIT %d OFFSET %d`, base, sortBy, order, size, offset)
	var programs []models.Program
	if err := r.db.SelectContext(ctx, &programs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list programs: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count programs: %w", err)
	}
	return programs, total, nil
}

// FindByID fetches a program verifying coach ownership.
func (r *ProgramRepository) FindByID(ctx context.Context, coachID, id string) (*models.Program, error) {
	const query = `SELECT id, created_by, name, goal, level, weeks, days_per_week, notes, created_at, updated_at
FROM programs WHERE id = $1 AND created_by = $2`
	var program models.Program
	if err := r.db.GetContext(ctx, &program, query, id, coachID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find program: %w", err)
	}
	return &program, nil
}

// Create inserts a new program.
func (r *ProgramRepository) Create(ctx context.Context, program *models.Program) error {
	if program.ID == "" {
		program.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if program.CreatedAt.IsZero() {
		program.CreatedAt = now
	}
	program.UpdatedAt = now
	const query = `INSERT INTO programs (id, created_by, name, goal, level, weeks, days_per_week, notes, created_at, updated_at)
VALUES (:id, :created_by, :name, :goal, :level, :weeks, :days_per_week, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, program); err != nil {
		return fmt.Errorf("create program: %w", err)
	}
	return nil
}

// Update modifies an existing program.
func (r *ProgramRepository) Update(ctx context.Context, program *models.Program) error {
	program.UpdatedAt = time.Now().UTC()
	const query = `UPDATE programs SET name = :name, goal = :goal, level = :level, weeks = :weeks, days_per_week = :days_per_week, notes = :notes, updated_at = :updated_at
WHERE id = :id AND created_by = :created_by`
	if _, err := r.db.NamedExecContext(ctx, query, program); err != nil {
		return fmt.Errorf("update program: %w", err)
	}
	return nil
}

// Delete removes a program verifying ownership.
func (r *ProgramRepository) Delete(ctx context.Context, coachID, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM programs WHERE id = $1 AND created_by = $2", id, coachID)
	if err != nil {
		return fmt.Errorf("delete program: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deleted program rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountByCoach returns the number of programs owned by the coach.
func (r *ProgramRepository) CountByCoach(ctx context.Context, coachID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM programs WHERE created_by = $1", coachID); err != nil {
		return 0, fmt.Errorf("count programs: %w", err)
	}
	return count, nil
}
