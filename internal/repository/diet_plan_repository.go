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

// DietPlanRepository manages persistence for nutrition plans.
type DietPlanRepository struct {
	db *sqlx.DB
}

// NewDietPlanRepository constructs a DietPlanRepository.
func NewDietPlanRepository(db *sqlx.DB) *DietPlanRepository {
	return &DietPlanRepository{db: db}
}

// List returns the coach's diet plans matching the provided filters.
func (r *DietPlanRepository) List(ctx context.Context, coachID string, filter models.DietPlanFilter) ([]models.DietPlan, int, error) {
	base := "FROM diet_plans WHERE created_by = $1"
	args := []interface{}{coachID}

	if filter.Goal != "" {
		base += fmt.Sprintf(" AND goal = $%d", len(args)+1)
		args = append(args, filter.Goal)
	}
	if filter.Search != "" {
		base += fmt.Sprintf(" AND LOWER(name) LIKE $%d", len(args)+1)
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{"name": true, "calories": true, "created_at": true}
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

	query := fmt.Sprintf(`SELECT id, created_by, name, goal, calories, protein_grams, carbs_grams, fat_grams, meals_per_day, notes, created_at, updated_at
%s ORDER BY %s %s LIMIT %d OFFSET %d`, base, sortBy, order, size, offset)
	var plans []models.DietPlan
	if err := r.db.SelectContext(ctx, &plans, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list diet plans: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count diet plans: %w", err)
	}
	return plans, total, nil
}

// FindByID fetches a diet plan verifying coach ownership.
func (r *DietPlanRepository) FindByID(ctx context.Context, coachID, id string) (*models.DietPlan, error) {
	const query = `SELECT id, created_by, name, goal, calories, protein_grams, carbs_grams, fat_grams, meals_per_day, notes, created_at, updated_at
FROM diet_plans WHERE id = $1 AND created_by = $2`
	var plan models.DietPlan
	if err := r.db.GetContext(ctx, &plan, query, id, coachID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find diet plan: %w", err)
	}
	return &plan, nil
}

// Create inserts a new diet plan.
func (r *DietPlanRepository) Create(ctx context.Context, plan *models.DietPlan) error {
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = now
	}
	plan.UpdatedAt = now
	const query = `INSERT INTO diet_plans (id, created_by, name, goal, calories, protein_grams, carbs_grams, fat_grams, meals_per_day, notes, created_at, updated_at)
VALUES (:id, :created_by, :name, :goal, :calories, :protein_grams, :carbs_grams, :fat_grams, :meals_per_day, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, plan); err != nil {
		return fmt.Errorf("create diet plan: %w", err)
	}
	return nil
}

// Update modifies an existing diet plan.
func (r *DietPlanRepository) Update(ctx context.Context, plan *models.DietPlan) error {
	plan.UpdatedAt = time.Now().UTC()
	const query = `UPDATE diet_plans SET name = :name, goal = :goal, calories = :calories, protein_grams = :protein_grams, carbs_grams = :carbs_grams, fat_grams = :fat_grams, meals_per_day = :meals_per_day, notes = :notes, updated_at = :updated_at
WHERE id = :id AND created_by = :created_by`
	if _, err := r.db.NamedExecContext(ctx, query, plan); err != nil {
		return fmt.Errorf("update diet plan: %w", err)
	}
	return nil
}

// Delete removes a diet plan verifying ownership.
func (r *DietPlanRepository) Delete(ctx context.Context, coachID, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM diet_plans WHERE id = $1 AND created_by = $2", id, coachID)
	if err != nil {
		return fmt.Errorf("delete diet plan: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deleted diet plan rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountByCoach returns the number of diet plans owned by the coach.
func (r *DietPlanRepository) CountByCoach(ctx context.Context, coachID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM diet_plans WHERE created_by = $1", coachID); err != nil {
		return 0, fmt.Errorf("count diet plans: %w", err)
	}
	return count, nil
}
