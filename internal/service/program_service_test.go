package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fitdesk/coach-api/internal/models"
)

type programRepoStub struct {
	items   map[string]*models.Program
	deleted []string
	calls   int
}

func (s *programRepoStub) List(ctx context.Context, coachID string, filter models.ProgramFilter) ([]models.Program, int, error) {
	s.calls++
	var out []models.Program
	for _, item := range s.items {
		out = append(out, *item)
	}
	return out, len(out), nil
}

func (s *programRepoStub) FindByID(ctx context.Context, coachID, id string) (*models.Program, error) {
	s.calls++
	if item, ok := s.items[id]; ok {
		cp := *item
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *programRepoStub) Create(ctx context.Context, program *models.Program) error {
	s.calls++
	if s.items == nil {
		s.items = map[string]*models.Program{}
	}
	s.items[program.ID] = program
	return nil
}

func (s *programRepoStub) Update(ctx context.Context, program *models.Program) error {
	s.calls++
	s.items[program.ID] = program
	return nil
}

func (s *programRepoStub) Delete(ctx context.Context, coachID, id string) error {
	s.calls++
	if _, ok := s.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.items, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func newProgramFixture(store *assignmentStoreStub) (*ProgramService, *programRepoStub) {
	repo := &programRepoStub{items: map[string]*models.Program{
		"program-1": {ID: "program-1", CreatedBy: "coach-1", Name: "Hypertrophy Block", Level: "INTERMEDIATE", Weeks: 8, DaysPerWeek: 4},
	}}
	return NewProgramService(repo, newAssignmentService(store, true), validator.New(), zap.NewNop()), repo
}

func TestProgramServiceGetDerivesMembership(t *testing.T) {
	store := &assignmentStoreStub{}
	svc, _ := newProgramFixture(store)
	ctx := context.Background()

	_, err := svc.AssignToStudent(ctx, "coach-1", "program-1", "student-1")
	require.NoError(t, err)
	_, err = svc.AssignToStudent(ctx, "coach-1", "program-1", "student-2")
	require.NoError(t, err)

	detail, err := svc.Get(ctx, "coach-1", "program-1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"student-1", "student-2"}, detail.AssignedStudentIDs)
}

func TestProgramServiceAssignToStudentChecksOwnership(t *testing.T) {
	store := &assignmentStoreStub{}
	svc, _ := newProgramFixture(store)

	_, err := svc.AssignToStudent(context.Background(), "coach-1", "program-404", "student-1")
	require.Error(t, err)
	assert.Zero(t, store.upsertProgramCalls)
}

func TestProgramServiceUnassignIdempotent(t *testing.T) {
	store := &assignmentStoreStub{}
	svc, _ := newProgramFixture(store)
	ctx := context.Background()

	_, err := svc.AssignToStudent(ctx, "coach-1", "program-1", "student-1")
	require.NoError(t, err)

	members, err := svc.UnassignFromStudent(ctx, "coach-1", "program-1", "student-1")
	require.NoError(t, err)
	assert.Empty(t, members)

	members, err = svc.UnassignFromStudent(ctx, "coach-1", "program-1", "student-1")
	require.NoError(t, err)
	assert.Empty(t, members)
	assert.Equal(t, 2, store.pauseProgramCalls)
}

func TestProgramServiceUnassignChecksOwnership(t *testing.T) {
	store := &assignmentStoreStub{}
	svc, _ := newProgramFixture(store)

	_, err := svc.UnassignFromStudent(context.Background(), "coach-1", "program-404", "student-1")
	require.Error(t, err)
	assert.Zero(t, store.pauseProgramCalls)
}

func TestProgramServiceDeletePausesRelationsFirst(t *testing.T) {
	store := &assignmentStoreStub{}
	svc, repo := newProgramFixture(store)
	ctx := context.Background()

	_, err := svc.AssignToStudent(ctx, "coach-1", "program-1", "student-1")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "coach-1", "program-1"))
	assert.Equal(t, []string{"program-1"}, repo.deleted)
	assert.Equal(t, 1, store.pauseProgramCalls)
}

func TestProgramServiceCreateValidatesPayload(t *testing.T) {
	store := &assignmentStoreStub{}
	svc, _ := newProgramFixture(store)

	_, err := svc.Create(context.Background(), "coach-1", CreateProgramRequest{Name: ""})
	require.Error(t, err)

	program, err := svc.Create(context.Background(), "coach-1", CreateProgramRequest{
		Name:        "Cut Prep",
		Goal:        "fat loss",
		Level:       "ADVANCED",
		Weeks:       12,
		DaysPerWeek: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, "coach-1", program.CreatedBy)
	assert.NotEmpty(t, program.ID)
}

func TestProgramServiceRejectsMissingCoach(t *testing.T) {
	store := &assignmentStoreStub{}
	repo := &programRepoStub{}
	svc := NewProgramService(repo, newAssignmentService(store, true), validator.New(), zap.NewNop())
	ctx := context.Background()

	_, _, err := svc.List(ctx, "", models.ProgramFilter{})
	require.Error(t, err)
	_, err = svc.Create(ctx, "", CreateProgramRequest{Name: "X"})
	require.Error(t, err)
	_, err = svc.AssignToStudent(ctx, "", "program-1", "student-1")
	require.Error(t, err)

	assert.Zero(t, repo.calls)
	assert.Zero(t, store.totalCalls)
}
