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

type programRepository interface {
	List(ctx context.Context, coachID string, filter models.ProgramFilter) ([]models.Program, int, error)
	FindByID(ctx context.Context, coachID, id string) (*models.Program, error)
	Create(ctx context.Context, program *models.Program) error
	Update(ctx context.Context, program *models.Program) error
	Delete(ctx context.Context, coachID, id string) error
}

type programAssignments interface {
	AssignProgram(ctx context.Context, coachID, studentID, programID string) ([]string, error)
	UnassignProgram(ctx context.Context, coachID, studentID, programID string) ([]string, error)
	ProgramMembers(ctx context.Context, coachID, programID string) ([]string, error)
	Membership(ctx context.Context, coachID string) (*models.Membership, error)
}

// CreateProgramRequest represents payload for creating programs.
type CreateProgramRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Goal        string `json:"goal" validate:"omitempty,max=200"`
	Level       string `json:"level" validate:"omitempty,oneof=BEGINNER INTERMEDIATE ADVANCED"`
	Weeks       int    `json:"weeks" validate:"omitempty,min=1,max=104"`
	DaysPerWeek int    `json:"days_per_week" validate:"omitempty,min=1,max=7"`
	Notes       string `json:"notes" validate:"omitempty,max=2000"`
}

// UpdateProgramRequest represents payload for updating programs.
type UpdateProgramRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Goal        string `json:"goal" validate:"omitempty,max=200"`
	Level       string `json:"level" validate:"omitempty,oneof=BEGINNER INTERMEDIATE ADVANCED"`
	Weeks       int    `json:"weeks" validate:"omitempty,min=1,max=104"`
	DaysPerWeek int    `json:"days_per_week" validate:"omitempty,min=1,max=7"`
	Notes       string `json:"notes" validate:"omitempty,max=2000"`
}

// ProgramService orchestrates workout program operations for a coach.
type ProgramService struct {
	repo        programRepository
	assignments programAssignments
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewProgramService constructs a ProgramService.
func NewProgramService(repo programRepository, assignments programAssignments, validate *validator.Validate, logger *zap.Logger) *ProgramService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgramService{repo: repo, assignments: assignments, validator: validate, logger: logger}
}

// List returns the coach's programs with derived membership attached.
func (s *ProgramService) List(ctx context.Context, coachID string, filter models.ProgramFilter) ([]models.ProgramDetail, *models.Pagination, error) {
	if coachID == "" {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing coach identity")
	}
	programs, total, err := s.repo.List(ctx, coachID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list programs")
	}
	membership, err := s.assignments.Membership(ctx, coachID)
	if err != nil {
		return nil, nil, err
	}
	details := make([]models.ProgramDetail, 0, len(programs))
	for _, program := range programs {
		members := membership.ProgramStudents[program.ID]
		if members == nil {
			members = []string{}
		}
		details = append(details, models.ProgramDetail{Program: program, AssignedStudentIDs: members})
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

// Get returns a single program with derived membership.
func (s *ProgramService) Get(ctx context.Context, coachID, id string) (*models.ProgramDetail, error) {
	if coachID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing coach identity")
	}
	program, err := s.repo.FindByID(ctx, coachID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}
	members, err := s.assignments.ProgramMembers(ctx, coachID, id)
	if err != nil {
		return nil, err
	}
	if members == nil {
		members = []string{}
	}
	return &models.ProgramDetail{Program: *program, AssignedStudentIDs: members}, nil
}

// Create persists a new program owned by the coach.
func (s *ProgramService) Create(ctx context.Context, coachID string, req CreateProgramRequest) (*models.Program, error) {
	if coachID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing coach identity")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid program payload")
	}
	now := time.Now().UTC()
	program := &models.Program{
		ID:          uuid.NewString(),
		CreatedBy:   coachID,
		Name:        req.Name,
		Goal:        req.Goal,
		Level:       req.Level,
		Weeks:       req.Weeks,
		DaysPerWeek: req.DaysPerWeek,
		Notes:       req.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, program); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create program")
	}
	return program, nil
}

// Update modifies an existing program owned by the coach.
func (s *ProgramService) Update(ctx context.Context, coachID, id string, req UpdateProgramRequest) (*models.Program, error) {
	if coachID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing coach identity")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid program payload")
	}
	program, err := s.repo.FindByID(ctx, coachID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}
	program.Name = req.Name
	program.Goal = req.Goal
	program.Level = req.Level
	program.Weeks = req.Weeks
	program.DaysPerWeek = req.DaysPerWeek
	program.Notes = req.Notes
	program.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, program); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update program")
	}
	return program, nil
}

// Delete removes a program. Assignment rows keep their program_id for
// history; their relation is paused first so derived membership drops
// the program immediately.
func (s *ProgramService) Delete(ctx context.Context, coachID, id string) error {
	if coachID == "" {
		return appErrors.Clone(appErrors.ErrUnauthorized, "missing coach identity")
	}
	members, err := s.assignments.ProgramMembers(ctx, coachID, id)
	if err != nil {
		return err
	}
	for _, studentID := range members {
		if _, err := s.assignments.UnassignProgram(ctx, coachID, studentID, id); err != nil {
			return err
		}
	}
	if err := s.repo.Delete(ctx, coachID, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete program")
	}
	return nil
}

// AssignToStudent links the program to one of the coach's students.
func (s *ProgramService) AssignToStudent(ctx context.Context, coachID, id, studentID string) ([]string, error) {
	if coachID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing coach identity")
	}
	if _, err := s.repo.FindByID(ctx, coachID, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}
	return s.assignments.AssignProgram(ctx, coachID, studentID, id)
}

// UnassignFromStudent pauses the program relation for the student.
func (s *ProgramService) UnassignFromStudent(ctx context.Context, coachID, id, studentID string) ([]string, error) {
	if coachID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing coach identity")
	}
	if _, err := s.repo.FindByID(ctx, coachID, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}
	return s.assignments.UnassignProgram(ctx, coachID, studentID, id)
}
