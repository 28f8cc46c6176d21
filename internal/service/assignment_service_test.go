package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fitdesk/coach-api/internal/models"
	"github.com/fitdesk/coach-api/pkg/config"
	appErrors "github.com/fitdesk/coach-api/pkg/errors"
)

type assignmentStoreStub struct {
	rows map[string]*models.Assignment

	programMembers  map[string][]string
	dietPlanMembers map[string][]string

	upsertProgramCalls  int
	upsertDietCalls     int
	pauseProgramCalls   int
	pauseDietCalls      int
	pauseAllCalls       int
	totalCalls          int
	lastPausedStudentID string
}

func pairKey(coachID, studentID string) string { return coachID + "|" + studentID }

func (s *assignmentStoreStub) GetByPair(ctx context.Context, coachID, studentID string) (*models.Assignment, error) {
	s.totalCalls++
	if row, ok := s.rows[pairKey(coachID, studentID)]; ok {
		cp := *row
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *assignmentStoreStub) UpsertProgram(ctx context.Context, coachID, studentID, programID string) error {
	s.totalCalls++
	s.upsertProgramCalls++
	if s.rows == nil {
		s.rows = map[string]*models.Assignment{}
	}
	key := pairKey(coachID, studentID)
	row, ok := s.rows[key]
	if !ok {
		row = &models.Assignment{CoachID: coachID, StudentID: studentID, ProgramStatus: models.RelationPaused, DietStatus: models.RelationPaused}
		s.rows[key] = row
	}
	row.ProgramID = &programID
	row.ProgramStatus = models.RelationActive
	s.rebuild()
	return nil
}

func (s *assignmentStoreStub) UpsertDietPlan(ctx context.Context, coachID, studentID, dietPlanID string) error {
	s.totalCalls++
	s.upsertDietCalls++
	if s.rows == nil {
		s.rows = map[string]*models.Assignment{}
	}
	key := pairKey(coachID, studentID)
	row, ok := s.rows[key]
	if !ok {
		row = &models.Assignment{CoachID: coachID, StudentID: studentID, ProgramStatus: models.RelationPaused, DietStatus: models.RelationPaused}
		s.rows[key] = row
	}
	row.DietPlanID = &dietPlanID
	row.DietStatus = models.RelationActive
	s.rebuild()
	return nil
}

func (s *assignmentStoreStub) PauseProgram(ctx context.Context, coachID, studentID, programID string) error {
	s.totalCalls++
	s.pauseProgramCalls++
	s.lastPausedStudentID = studentID
	// mirrors the SQL filter: the update lands only when the row holds
	// the named program
	if row, ok := s.rows[pairKey(coachID, studentID)]; ok && row.ProgramID != nil && *row.ProgramID == programID {
		row.ProgramStatus = models.RelationPaused
	}
	s.rebuild()
	return nil
}

func (s *assignmentStoreStub) PauseDietPlan(ctx context.Context, coachID, studentID, dietPlanID string) error {
	s.totalCalls++
	s.pauseDietCalls++
	s.lastPausedStudentID = studentID
	if row, ok := s.rows[pairKey(coachID, studentID)]; ok && row.DietPlanID != nil && *row.DietPlanID == dietPlanID {
		row.DietStatus = models.RelationPaused
	}
	s.rebuild()
	return nil
}

func (s *assignmentStoreStub) PauseAllForStudent(ctx context.Context, coachID, studentID string) error {
	s.totalCalls++
	s.pauseAllCalls++
	if row, ok := s.rows[pairKey(coachID, studentID)]; ok {
		row.ProgramStatus = models.RelationPaused
		row.DietStatus = models.RelationPaused
	}
	s.rebuild()
	return nil
}

func (s *assignmentStoreStub) ListByCoach(ctx context.Context, coachID string) ([]models.Assignment, error) {
	s.totalCalls++
	var out []models.Assignment
	for _, row := range s.rows {
		if row.CoachID == coachID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (s *assignmentStoreStub) ListStudentIDsByProgram(ctx context.Context, coachID, programID string) ([]string, error) {
	s.totalCalls++
	return append([]string(nil), s.programMembers[programID]...), nil
}

func (s *assignmentStoreStub) ListStudentIDsByDietPlan(ctx context.Context, coachID, dietPlanID string) ([]string, error) {
	s.totalCalls++
	return append([]string(nil), s.dietPlanMembers[dietPlanID]...), nil
}

// rebuild recomputes the derived membership maps from the rows, the
// same reconstruction the SQL layer performs with a filtered select.
func (s *assignmentStoreStub) rebuild() {
	s.programMembers = map[string][]string{}
	s.dietPlanMembers = map[string][]string{}
	for _, row := range s.rows {
		if row.ProgramActive() {
			s.programMembers[*row.ProgramID] = append(s.programMembers[*row.ProgramID], row.StudentID)
		}
		if row.DietActive() {
			s.dietPlanMembers[*row.DietPlanID] = append(s.dietPlanMembers[*row.DietPlanID], row.StudentID)
		}
	}
}

func newAssignmentService(store *assignmentStoreStub, reconcile bool) *AssignmentService {
	cfg := config.AssignmentsConfig{ReconcileAfterWrite: reconcile}
	return NewAssignmentService(store, nil, nil, cfg, zap.NewNop())
}

func TestAssignmentServiceAssignTwiceKeepsSingleMembership(t *testing.T) {
	store := &assignmentStoreStub{}
	svc := newAssignmentService(store, true)

	first, err := svc.AssignProgram(context.Background(), "coach-1", "student-1", "program-1")
	require.NoError(t, err)
	second, err := svc.AssignProgram(context.Background(), "coach-1", "student-1", "program-1")
	require.NoError(t, err)

	assert.Equal(t, 2, store.upsertProgramCalls)
	assert.Equal(t, []string{"student-1"}, first)
	assert.Equal(t, []string{"student-1"}, second)
}

func TestAssignmentServiceReassignMovesMembership(t *testing.T) {
	store := &assignmentStoreStub{}
	svc := newAssignmentService(store, true)

	_, err := svc.AssignProgram(context.Background(), "coach-1", "student-1", "program-1")
	require.NoError(t, err)
	members, err := svc.AssignProgram(context.Background(), "coach-1", "student-1", "program-2")
	require.NoError(t, err)

	assert.Equal(t, []string{"student-1"}, members)
	oldMembers, err := svc.ProgramMembers(context.Background(), "coach-1", "program-1")
	require.NoError(t, err)
	assert.Empty(t, oldMembers)
}

func TestAssignmentServiceUnassignPausesNotDeletes(t *testing.T) {
	store := &assignmentStoreStub{}
	svc := newAssignmentService(store, true)

	_, err := svc.AssignProgram(context.Background(), "coach-1", "student-1", "program-1")
	require.NoError(t, err)
	_, err = svc.AssignDietPlan(context.Background(), "coach-1", "student-1", "diet-1")
	require.NoError(t, err)

	members, err := svc.UnassignProgram(context.Background(), "coach-1", "student-1", "program-1")
	require.NoError(t, err)
	assert.Empty(t, members)
	assert.Equal(t, 1, store.pauseProgramCalls)

	// the row survives with its program key intact and the diet
	// relation untouched
	row := store.rows[pairKey("coach-1", "student-1")]
	require.NotNil(t, row)
	require.NotNil(t, row.ProgramID)
	assert.Equal(t, "program-1", *row.ProgramID)
	assert.Equal(t, models.RelationPaused, row.ProgramStatus)
	assert.Equal(t, models.RelationActive, row.DietStatus)
}

func TestAssignmentServiceUnassignNeverAssignedSucceeds(t *testing.T) {
	store := &assignmentStoreStub{}
	svc := newAssignmentService(store, true)

	members, err := svc.UnassignProgram(context.Background(), "coach-1", "student-9", "program-1")
	require.NoError(t, err)
	assert.Empty(t, members)
	assert.Equal(t, 1, store.pauseProgramCalls)
}

func TestAssignmentServiceUnassignOtherProgramLeavesRelationActive(t *testing.T) {
	store := &assignmentStoreStub{}
	svc := newAssignmentService(store, true)

	_, err := svc.AssignProgram(context.Background(), "coach-1", "student-1", "program-2")
	require.NoError(t, err)

	// aimed at a program the pair never held, the unassign pauses
	// nothing
	_, err = svc.UnassignProgram(context.Background(), "coach-1", "student-1", "program-1")
	require.NoError(t, err)

	row := store.rows[pairKey("coach-1", "student-1")]
	require.NotNil(t, row)
	assert.Equal(t, models.RelationActive, row.ProgramStatus)
	members, err := svc.ProgramMembers(context.Background(), "coach-1", "program-2")
	require.NoError(t, err)
	assert.Equal(t, []string{"student-1"}, members)
}

func TestAssignmentServiceRejectsMissingCoach(t *testing.T) {
	store := &assignmentStoreStub{}
	svc := newAssignmentService(store, true)
	ctx := context.Background()

	_, err := svc.AssignProgram(ctx, "", "student-1", "program-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)

	_, err = svc.UnassignProgram(ctx, "", "student-1", "program-1")
	require.Error(t, err)
	_, err = svc.AssignDietPlan(ctx, "", "student-1", "diet-1")
	require.Error(t, err)
	_, err = svc.UnassignDietPlan(ctx, "", "student-1", "diet-1")
	require.Error(t, err)
	require.Error(t, svc.PauseAll(ctx, "", "student-1"))
	_, err = svc.ProgramMembers(ctx, "", "program-1")
	require.Error(t, err)
	_, err = svc.Relations(ctx, "", "student-1")
	require.Error(t, err)

	assert.Zero(t, store.totalCalls, "repository must not be touched without a coach identity")
}

func TestAssignmentServicePauseAllPausesBothRelations(t *testing.T) {
	store := &assignmentStoreStub{}
	svc := newAssignmentService(store, true)

	_, err := svc.AssignProgram(context.Background(), "coach-1", "student-1", "program-1")
	require.NoError(t, err)
	_, err = svc.AssignDietPlan(context.Background(), "coach-1", "student-1", "diet-1")
	require.NoError(t, err)

	require.NoError(t, svc.PauseAll(context.Background(), "coach-1", "student-1"))

	relations, err := svc.Relations(context.Background(), "coach-1", "student-1")
	require.NoError(t, err)
	assert.Nil(t, relations.ProgramID)
	assert.Nil(t, relations.DietPlanID)
}

func TestAssignmentServiceRelationsForUnknownPair(t *testing.T) {
	store := &assignmentStoreStub{}
	svc := newAssignmentService(store, true)

	relations, err := svc.Relations(context.Background(), "coach-1", "student-404")
	require.NoError(t, err)
	assert.Nil(t, relations.ProgramID)
	assert.Nil(t, relations.DietPlanID)
}

func TestAssignmentServicePatchedMembershipWithoutReconcile(t *testing.T) {
	store := &assignmentStoreStub{}
	svc := newAssignmentService(store, false)

	members, err := svc.AssignProgram(context.Background(), "coach-1", "student-1", "program-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"student-1"}, members)

	members, err = svc.AssignProgram(context.Background(), "coach-1", "student-2", "program-1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"student-1", "student-2"}, members)

	members, err = svc.UnassignProgram(context.Background(), "coach-1", "student-1", "program-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"student-2"}, members)
}

func TestAssignmentServiceMembershipGroupsPerEntity(t *testing.T) {
	store := &assignmentStoreStub{}
	svc := newAssignmentService(store, true)

	_, err := svc.AssignProgram(context.Background(), "coach-1", "student-1", "program-1")
	require.NoError(t, err)
	_, err = svc.AssignProgram(context.Background(), "coach-1", "student-2", "program-1")
	require.NoError(t, err)
	_, err = svc.AssignDietPlan(context.Background(), "coach-1", "student-1", "diet-1")
	require.NoError(t, err)

	membership, err := svc.Membership(context.Background(), "coach-1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"student-1", "student-2"}, membership.ProgramStudents["program-1"])
	assert.Equal(t, []string{"student-1"}, membership.DietPlanStudents["diet-1"])
}
