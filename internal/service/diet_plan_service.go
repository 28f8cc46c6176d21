package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fitdesk/coach-api/internal/models"
	appErrors "github.com/fitdesk/coach-api/pkg/errors"
)

type dietPlanRepository interface {
	List(ctx context.Context, coachID string, filter models.DietPlanFilter) ([]models.DietPlan, int, error)
	FindByID(ctx context.Context, coachID, id string) (*models.DietPlan, error)
	Create(ctx context.Context, plan *models.DietPlan) error
	Update(ctx context.Context, plan *models.DietPlan) error
	Delete(ctx context.Context, coachID, id string) error
}

type dietPlanAssignments interface {
	AssignDietPlan(ctx context.Context, coachID, studentID, dietPlanID string) ([]string, error)
	UnassignDietPlan(ctx context.Context, coachID, studentID, dietPlanID string) ([]string, error)
	DietPlanMembers(ctx context.Context, coachID, dietPlanID string) ([]string, error)
	Membership(ctx context.Context, coachID string) (*models.Membership, error)
}

// CreateDietPlanRequest represents payload for creating diet plans.
type CreateDietPlanRequest struct {
	Name         string  `json:"name" validate:"required,max=200"`
	Goal         string  `json:"goal" validate:"omitempty,max=200"`
	Calories     int     `json:"calories" validate:"omitempty,min=0,max=20000"`
	ProteinGrams float64 `json:"protein_grams" validate:"omitempty,min=0"`
	CarbsGrams   float64 `json:"carbs_grams" validate:"omitempty,min=0"`
	FatGrams     float64 `json:"fat_grams" validate:"omitempty,min=0"`
	MealsPerDay  int     `json:"meals_per_day" validate:"omitempty,min=1,max=12"`
	Notes        string  `json:"notes" validate:"omitempty,max=2000"`
}

// UpdateDietPlanRequest represents payload for updating diet plans.
type UpdateDietPlanRequest struct {
	Name         string  `json:"name" validate:"required,max=200"`
	Goal         string  `json:"goal" validate:"omitempty,max=200"`
	Calories     int     `json:"calories" validate:"omitempty,min=0,max=20000"`
	ProteinGrams float64 `json:"protein_grams" validate:"omitempty,min=0"`
	CarbsGrams   float64 `json:"carbs_grams" validate:"omitempty,min=0"`
	FatGrams     float64 `json:"fat_grams" validate:"omitempty,min=0"`
	MealsPerDay  int     `json:"meals_per_day" validate:"omitempty,min=1,max=12"`
	Notes        string  `json:"notes" validate:"omitempty,max=2000"`
}

// DietPlanService orchestrates nutrition plan operations for a coach.
type DietPlanService struct {
	repo        dietPlanRepository
	assignments dietPlanAssignments
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewDietPlanService constructs a DietPlanService.
func NewDietPlanService(repo dietPlanRepository, assignments dietPlanAssignments, validate *validator.Validate, logger *zap.Logger) *DietPlanService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DietPlanService{repo: repo, assignments: assignments, validator: validate, logger: logger}
}

// List returns the coach's diet plans with derived membership attached.
func (s *DietPlanService) List(ctx context.Context, coachID string, filter models.DietPlanFilter) ([]models.DietPlanDetail, *models.Pagination, error) {
	if coachID == "" {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing coach identity")
	}
	plans, total, err := s.repo.List(ctx, coachID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list diet plans")
	}
	membership, err := s.assignments.Membership(ctx, coachID)
	if err != nil {
		return nil, nil, err
	}
	details := make([]models.DietPlanDetail, 0, len(plans))
	for _, plan := range plans {
		members := membership.DietPlanStudents[plan.ID]
		if members == nil {
			members = []string{}
		}
		details = append(details, models.DietPlanDetail{DietPlan: plan, AssignedStudentIDs: members})
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return details, pagination, nil
}

// Get returns a single diet plan with derived membership.
func (s *DietPlanService) Get(ctx context.Context, coachID, id string) (*models.DietPlanDetail, error) {
	if coachID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing coach identity")
	}
	plan, err := s.repo.FindByID(ctx, coachID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "diet plan not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load diet plan")
	}
	members, err := s.assignments.DietPlanMembers(ctx, coachID, id)
	if err != nil {
		return nil, err
	}
	if members == nil {
		members = []string{}
	}
	return &models.DietPlanDetail{DietPlan: *plan, AssignedStudentIDs: members}, nil
}

// Create persists a new diet plan owned by the coach.
func (s *DietPlanService) Create(ctx context.Context, coachID string, req CreateDietPlanRequest) (*models.DietPlan, error) {
	if coachID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing coach identity")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid diet plan payload")
	}
	now := time.Now().UTC()
	plan := &models.DietPlan{
		ID:           uuid.NewString(),
		CreatedBy:    coachID,
		Name:         req.Name,
		Goal:         req.Goal,
		Calories:     req.Calories,
		ProteinGrams: req.ProteinGrams,
		CarbsGrams:   req.CarbsGrams,
		FatGrams:     req.FatGrams,
		MealsPerDay:  req.MealsPerDay,
		Notes:        req.Notes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, plan); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create diet plan")
	}
	return plan, nil
}

// Update modifies an existing diet plan owned by the coach.
func (s *DietPlanService) Update(ctx context.Context, coachID, id string, req UpdateDietPlanRequest) (*models.DietPlan, error) {
	if coachID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing coach identity")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid diet plan payload")
	}
	plan, err := s.repo.FindByID(ctx, coachID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "diet plan not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load diet plan")
	}
	plan.Name = req.Name
	plan.Goal = req.Goal
	plan.Calories = req.Calories
	plan.ProteinGrams = req.ProteinGrams
	plan.CarbsGrams = req.CarbsGrams
	plan.FatGrams = req.FatGrams
	plan.MealsPerDay = req.MealsPerDay
	plan.Notes = req.Notes
	plan.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, plan); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update diet plan")
	}
	return plan, nil
}

// Delete removes a diet plan after pausing its active relations.
func (s *DietPlanService) Delete(ctx context.Context, coachID, id string) error {
	if coachID == "" {
		return appErrors.Clone(appErrors.ErrUnauthorized, "missing coach identity")
	}
	members, err := s.assignments.DietPlanMembers(ctx, coachID, id)
	if err != nil {
		return err
	}
	for _, studentID := range members {
		if _, err := s.assignments.UnassignDietPlan(ctx, coachID, studentID, id); err != nil {
			return err
		}
	}
	if err := s.repo.Delete(ctx, coachID, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "diet plan not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete diet plan")
	}
	return nil
}

// AssignToStudent links the diet plan to one of the coach's students.
func (s *DietPlanService) AssignToStudent(ctx context.Context, coachID, id, studentID string) ([]string, error) {
	if coachID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing coach identity")
	}
	if _, err := s.repo.FindByID(ctx, coachID, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "diet plan not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load diet plan")
	}
	return s.assignments.AssignDietPlan(ctx, coachID, studentID, id)
}

// UnassignFromStudent pauses the diet relation for the student.
func (s *DietPlanService) UnassignFromStudent(ctx context.Context, coachID, id, studentID string) ([]string, error) {
	if coachID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing coach identity")
	}
	if _, err := s.repo.FindByID(ctx, coachID, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "diet plan not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load diet plan")
	}
	return s.assignments.UnassignDietPlan(ctx, coachID, studentID, id)
}
