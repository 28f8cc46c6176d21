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

type studentRepoStub struct {
	items       map[string]*models.StudentDetail
	deactivated []string
	emailTaken  bool
	calls       int
}

func (s *studentRepoStub) List(ctx context.Context, coachID string, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	s.calls++
	var out []models.StudentDetail
	for _, item := range s.items {
		out = append(out, *item)
	}
	return out, len(out), nil
}

func (s *studentRepoStub) FindByID(ctx context.Context, coachID, id string) (*models.StudentDetail, error) {
	s.calls++
	if item, ok := s.items[id]; ok {
		cp := *item
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *studentRepoStub) ExistsByEmail(ctx context.Context, coachID, email, excludeID string) (bool, error) {
	s.calls++
	return s.emailTaken, nil
}

func (s *studentRepoStub) Create(ctx context.Context, student *models.Student) error {
	s.calls++
	if s.items == nil {
		s.items = map[string]*models.StudentDetail{}
	}
	s.items[student.ID] = &models.StudentDetail{Student: *student}
	return nil
}

func (s *studentRepoStub) Update(ctx context.Context, student *models.Student) error {
	s.calls++
	if item, ok := s.items[student.ID]; ok {
		item.Student = *student
	}
	return nil
}

func (s *studentRepoStub) Deactivate(ctx context.Context, coachID, id string) error {
	s.calls++
	if _, ok := s.items[id]; !ok {
		return sql.ErrNoRows
	}
	s.deactivated = append(s.deactivated, id)
	return nil
}

func strPtr(v string) *string { return &v }

func newStudentFixture(store *assignmentStoreStub) (*StudentService, *studentRepoStub) {
	repo := &studentRepoStub{items: map[string]*models.StudentDetail{
		"student-1": {
			Student:            models.Student{ID: "student-1", CoachID: "coach-1", FullName: "Lena Ortiz", Email: "lena@example.com", Active: true},
			AssignedProgramID:  strPtr("program-1"),
			AssignedDietPlanID: strPtr("diet-1"),
		},
	}}
	core := newAssignmentService(store, true)
	return NewStudentService(repo, core, validator.New(), zap.NewNop()), repo
}

func TestStudentServiceAssignProgramNilPausesOnlyProgram(t *testing.T) {
	store := &assignmentStoreStub{}
	svc, _ := newStudentFixture(store)
	ctx := context.Background()

	core := newAssignmentService(store, true)
	_, err := core.AssignProgram(ctx, "coach-1", "student-1", "program-1")
	require.NoError(t, err)
	_, err = core.AssignDietPlan(ctx, "coach-1", "student-1", "diet-1")
	require.NoError(t, err)

	relations, err := svc.AssignProgram(ctx, "coach-1", "student-1", AssignEntityRequest{EntityID: nil})
	require.NoError(t, err)

	assert.Nil(t, relations.ProgramID)
	require.NotNil(t, relations.DietPlanID)
	assert.Equal(t, "diet-1", *relations.DietPlanID)
	assert.Equal(t, 1, store.pauseProgramCalls)
	assert.Zero(t, store.pauseDietCalls)
}

func TestStudentServiceAssignProgramSetsRelation(t *testing.T) {
	store := &assignmentStoreStub{}
	svc, _ := newStudentFixture(store)

	relations, err := svc.AssignProgram(context.Background(), "coach-1", "student-1", AssignEntityRequest{EntityID: strPtr("program-2")})
	require.NoError(t, err)

	require.NotNil(t, relations.ProgramID)
	assert.Equal(t, "program-2", *relations.ProgramID)
	assert.Equal(t, 1, store.upsertProgramCalls)
}

func TestStudentServiceDeactivatePausesBothRelations(t *testing.T) {
	store := &assignmentStoreStub{}
	svc, repo := newStudentFixture(store)
	ctx := context.Background()

	core := newAssignmentService(store, true)
	_, err := core.AssignProgram(ctx, "coach-1", "student-1", "program-1")
	require.NoError(t, err)
	_, err = core.AssignDietPlan(ctx, "coach-1", "student-1", "diet-1")
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(ctx, "coach-1", "student-1"))

	assert.Equal(t, []string{"student-1"}, repo.deactivated)
	assert.Equal(t, 1, store.pauseAllCalls)
	row := store.rows[pairKey("coach-1", "student-1")]
	require.NotNil(t, row)
	assert.Equal(t, models.RelationPaused, row.ProgramStatus)
	assert.Equal(t, models.RelationPaused, row.DietStatus)
	require.NotNil(t, row.ProgramID)
	assert.Equal(t, "program-1", *row.ProgramID)
}

func TestStudentServiceCreateRejectsDuplicateEmail(t *testing.T) {
	store := &assignmentStoreStub{}
	repo := &studentRepoStub{emailTaken: true}
	svc := NewStudentService(repo, newAssignmentService(store, true), validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), "coach-1", CreateStudentRequest{
		FullName: "Marco Diaz",
		Email:    "marco@example.com",
	})
	require.Error(t, err)
}

func TestStudentServiceRejectsMissingCoach(t *testing.T) {
	store := &assignmentStoreStub{}
	repo := &studentRepoStub{}
	svc := NewStudentService(repo, newAssignmentService(store, true), validator.New(), zap.NewNop())
	ctx := context.Background()

	_, _, err := svc.List(ctx, "", models.StudentFilter{})
	require.Error(t, err)
	_, err = svc.Create(ctx, "", CreateStudentRequest{FullName: "X", Email: "x@example.com"})
	require.Error(t, err)
	_, err = svc.AssignProgram(ctx, "", "student-1", AssignEntityRequest{})
	require.Error(t, err)
	require.Error(t, svc.Deactivate(ctx, "", "student-1"))

	assert.Zero(t, repo.calls)
	assert.Zero(t, store.totalCalls)
}
