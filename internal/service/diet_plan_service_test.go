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

type dietPlanRepoStub struct {
	items map[string]*models.DietPlan
	calls int
}

func (s *dietPlanRepoStub) List(ctx context.Context, coachID string, filter models.DietPlanFilter) ([]models.DietPlan, int, error) {
	s.calls++
	var out []models.DietPlan
	for _, item := range s.items {
		out = append(out, *item)
	}
	return out, len(out), nil
}

func (s *dietPlanRepoStub) FindByID(ctx context.Context, coachID, id string) (*models.DietPlan, error) {
	s.calls++
	if item, ok := s.items[id]; ok {
		cp := *item
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *dietPlanRepoStub) Create(ctx context.Context, plan *models.DietPlan) error {
	s.calls++
	if s.items == nil {
		s.items = map[string]*models.DietPlan{}
	}
	s.items[plan.ID] = plan
	return nil
}

func (s *dietPlanRepoStub) Update(ctx context.Context, plan *models.DietPlan) error {
	s.calls++
	s.items[plan.ID] = plan
	return nil
}

func (s *dietPlanRepoStub) Delete(ctx context.Context, coachID, id string) error {
	s.calls++
	if _, ok := s.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.items, id)
	return nil
}

func newDietPlanFixture(store *assignmentStoreStub) (*DietPlanService, *dietPlanRepoStub) {
	repo := &dietPlanRepoStub{items: map[string]*models.DietPlan{
		"diet-1": {ID: "diet-1", CreatedBy: "coach-1", Name: "Lean Bulk", Calories: 3200, MealsPerDay: 5},
	}}
	return NewDietPlanService(repo, newAssignmentService(store, true), validator.New(), zap.NewNop()), repo
}

func TestDietPlanServiceGetDerivesMembership(t *testing.T) {
	store := &assignmentStoreStub{}
	svc, _ := newDietPlanFixture(store)
	ctx := context.Background()

	_, err := svc.AssignToStudent(ctx, "coach-1", "diet-1", "student-1")
	require.NoError(t, err)

	detail, err := svc.Get(ctx, "coach-1", "diet-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"student-1"}, detail.AssignedStudentIDs)
}

func TestDietPlanServiceAssignToStudentChecksOwnership(t *testing.T) {
	store := &assignmentStoreStub{}
	svc, _ := newDietPlanFixture(store)

	_, err := svc.AssignToStudent(context.Background(), "coach-1", "diet-404", "student-1")
	require.Error(t, err)
	assert.Zero(t, store.upsertDietCalls)
}

func TestDietPlanServiceUnassignChecksOwnership(t *testing.T) {
	store := &assignmentStoreStub{}
	svc, _ := newDietPlanFixture(store)

	_, err := svc.UnassignFromStudent(context.Background(), "coach-1", "diet-404", "student-1")
	require.Error(t, err)
	assert.Zero(t, store.pauseDietCalls)
}
