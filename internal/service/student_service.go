package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fitdesk/coach-api/internal/models"
	appErrors "github.com/fitdesk/coach-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, coachID string, filter models.StudentFilter) ([]models.StudentDetail, int, error)
	FindByID(ctx context.Context, coachID, id string) (*models.StudentDetail, error)
	ExistsByEmail(ctx context.Context, coachID, email, excludeID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Deactivate(ctx context.Context, coachID, id string) error
}

type studentAssignments interface {
	AssignProgram(ctx context.Context, coachID, studentID, programID string) ([]string, error)
	UnassignProgram(ctx context.Context, coachID, studentID, programID string) ([]string, error)
	AssignDietPlan(ctx context.Context, coachID, studentID, dietPlanID string) ([]string, error)
	UnassignDietPlan(ctx context.Context, coachID, studentID, dietPlanID string) ([]string, error)
	PauseAll(ctx context.Context, coachID, studentID string) error
	Relations(ctx context.Context, coachID, studentID string) (*models.StudentRelations, error)
}

// CreateStudentRequest represents payload for creating roster entries.
type CreateStudentRequest struct {
	FullName  string     `json:"full_name" validate:"required,max=200"`
	Email     string     `json:"email" validate:"required,email"`
	Phone     string     `json:"phone" validate:"omitempty,max=50"`
	Goal      string     `json:"goal" validate:"omitempty,max=200"`
	BirthDate *time.Time `json:"birth_date"`
}

// UpdateStudentRequest represents payload for updating roster entries.
type UpdateStudentRequest struct {
	FullName  string     `json:"full_name" validate:"required,max=200"`
	Email     string     `json:"email" validate:"required,email"`
	Phone     string     `json:"phone" validate:"omitempty,max=50"`
	Goal      string     `json:"goal" validate:"omitempty,max=200"`
	BirthDate *time.Time `json:"birth_date"`
	Active    *bool      `json:"active"`
}

// AssignEntityRequest carries the student-side assignment payload. A
// nil entity id pauses the relation instead of clearing its key.
type AssignEntityRequest struct {
	EntityID *string `json:"entity_id"`
}

// StudentService orchestrates roster operations for a coach.
type StudentService struct {
	repo        studentRepository
	assignments studentAssignments
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewStudentService constructs a StudentService.
func NewStudentService(repo studentRepository, assignments studentAssignments, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, assignments: assignments, validator: validate, logger: logger}
}

// List returns the coach's roster with derived assignment columns.
func (s *StudentService) List(ctx context.Context, coachID string, filter models.StudentFilter) ([]models.StudentDetail, *models.Pagination, error) {
	if coachID == "" {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing coach identity")
	}
	students, total, err := s.repo.List(ctx, coachID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
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
	return students, pagination, nil
}

// Get returns a single roster entry.
func (s *StudentService) Get(ctx context.Context, coachID, id string) (*models.StudentDetail, error) {
	if coachID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing coach identity")
	}
	student, err := s.repo.FindByID(ctx, coachID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Create adds a student to the coach's roster.
func (s *StudentService) Create(ctx context.Context, coachID string, req CreateStudentRequest) (*models.Student, error) {
	if coachID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing coach identity")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	exists, err := s.repo.ExistsByEmail(ctx, coachID, email, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student email")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a student with this email already exists")
	}
	now := time.Now().UTC()
	student := &models.Student{
		ID:        uuid.NewString(),
		CoachID:   coachID,
		FullName:  req.FullName,
		Email:     email,
		Phone:     req.Phone,
		Goal:      req.Goal,
		BirthDate: req.BirthDate,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return student, nil
}

// Update modifies a roster entry.
func (s *StudentService) Update(ctx context.Context, coachID, id string, req UpdateStudentRequest) (*models.StudentDetail, error) {
	if coachID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing coach identity")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	detail, err := s.repo.FindByID(ctx, coachID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	exists, err := s.repo.ExistsByEmail(ctx, coachID, email, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student email")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a student with this email already exists")
	}
	detail.FullName = req.FullName
	detail.Email = email
	detail.Phone = req.Phone
	detail.Goal = req.Goal
	detail.BirthDate = req.BirthDate
	if req.Active != nil {
		detail.Active = *req.Active
	}
	detail.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, &detail.Student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return detail, nil
}

// Deactivate soft-deletes the roster entry and pauses both of its
// assignment relations. The assignment row keeps its keys for history.
func (s *StudentService) Deactivate(ctx context.Context, coachID, id string) error {
	if coachID == "" {
		return appErrors.Clone(appErrors.ErrUnauthorized, "missing coach identity")
	}
	if err := s.repo.Deactivate(ctx, coachID, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate student")
	}
	return s.assignments.PauseAll(ctx, coachID, id)
}

// AssignProgram sets or pauses the student's program relation. A nil
// entity id pauses the relation; the diet relation is never touched.
func (s *StudentService) AssignProgram(ctx context.Context, coachID, id string, req AssignEntityRequest) (*models.StudentRelations, error) {
	if coachID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing coach identity")
	}
	student, err := s.Get(ctx, coachID, id)
	if err != nil {
		return nil, err
	}
	if req.EntityID == nil {
		programID := ""
		if student.AssignedProgramID != nil {
			programID = *student.AssignedProgramID
		}
		if _, err := s.assignments.UnassignProgram(ctx, coachID, id, programID); err != nil {
			return nil, err
		}
	} else {
		if _, err := s.assignments.AssignProgram(ctx, coachID, id, *req.EntityID); err != nil {
			return nil, err
		}
	}
	return s.assignments.Relations(ctx, coachID, id)
}

// AssignDiet sets or pauses the student's diet relation, symmetric to
// AssignProgram.
func (s *StudentService) AssignDiet(ctx context.Context, coachID, id string, req AssignEntityRequest) (*models.StudentRelations, error) {
	if coachID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing coach identity")
	}
	student, err := s.Get(ctx, coachID, id)
	if err != nil {
		return nil, err
	}
	if req.EntityID == nil {
		dietPlanID := ""
		if student.AssignedDietPlanID != nil {
			dietPlanID = *student.AssignedDietPlanID
		}
		if _, err := s.assignments.UnassignDietPlan(ctx, coachID, id, dietPlanID); err != nil {
			return nil, err
		}
	} else {
		if _, err := s.assignments.AssignDietPlan(ctx, coachID, id, *req.EntityID); err != nil {
			return nil, err
		}
	}
	return s.assignments.Relations(ctx, coachID, id)
}
