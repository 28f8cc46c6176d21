package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fitdesk/coach-api/internal/models"
	"github.com/fitdesk/coach-api/pkg/export"
	"github.com/fitdesk/coach-api/pkg/storage"
)

type dietPlanReaderStub struct {
	items map[string]*models.DietPlan
}

func (s *dietPlanReaderStub) FindByID(ctx context.Context, coachID, id string) (*models.DietPlan, error) {
	if item, ok := s.items[id]; ok {
		cp := *item
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func newExportFixture(t *testing.T) (*ExportService, *assignmentStoreStub) {
	t.Helper()
	store := &assignmentStoreStub{}
	programs := &programRepoStub{items: map[string]*models.Program{
		"program-1": {ID: "program-1", CreatedBy: "coach-1", Name: "Strength Base", Goal: "strength", Level: "BEGINNER", Weeks: 6, DaysPerWeek: 3},
	}}
	dietPlans := &dietPlanReaderStub{items: map[string]*models.DietPlan{
		"diet-1": {ID: "diet-1", CreatedBy: "coach-1", Name: "Lean Bulk", Calories: 3100, ProteinGrams: 180, CarbsGrams: 360, FatGrams: 90, MealsPerDay: 4},
	}}
	students := &studentRepoStub{items: map[string]*models.StudentDetail{
		"student-1": {Student: models.Student{ID: "student-1", CoachID: "coach-1", FullName: "Lena Ortiz", Email: "lena@example.com", Goal: "strength"}},
	}}
	localStorage, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	svc := NewExportService(
		programs,
		dietPlans,
		students,
		newAssignmentService(store, true),
		localStorage,
		signer,
		export.NewCSVExporter(),
		export.NewPDFExporter(),
		zap.NewNop(),
	)
	return svc, store
}

func TestExportServiceProgramCSV(t *testing.T) {
	svc, store := newExportFixture(t)
	ctx := context.Background()
	store.programMembers = map[string][]string{"program-1": {"student-1"}}

	result, err := svc.ExportProgram(ctx, "coach-1", "program-1", "csv")
	require.NoError(t, err)
	assert.Equal(t, "csv", result.Format)
	assert.True(t, strings.HasSuffix(result.Filename, ".csv"))
	assert.NotEmpty(t, result.Token)

	exportID, relPath, _, err := svc.ParseToken(result.Token, false)
	require.NoError(t, err)
	assert.Equal(t, result.ID, exportID)

	file, err := svc.Open(relPath)
	require.NoError(t, err)
	require.NoError(t, file.Close())
}

func TestExportServiceDietPlanPDF(t *testing.T) {
	svc, store := newExportFixture(t)
	store.dietPlanMembers = map[string][]string{"diet-1": {"student-1"}}

	result, err := svc.ExportDietPlan(context.Background(), "coach-1", "diet-1", "pdf")
	require.NoError(t, err)
	assert.Equal(t, "pdf", result.Format)
	assert.True(t, strings.HasSuffix(result.Filename, ".pdf"))
}

func TestExportServiceUnknownEntity(t *testing.T) {
	svc, _ := newExportFixture(t)

	_, err := svc.ExportProgram(context.Background(), "coach-1", "program-404", "csv")
	require.Error(t, err)
}

func TestExportServiceRejectsUnknownFormat(t *testing.T) {
	svc, _ := newExportFixture(t)

	_, err := svc.ExportProgram(context.Background(), "coach-1", "program-1", "xlsx")
	require.Error(t, err)
}

func TestExportServiceRejectsMissingCoach(t *testing.T) {
	svc, _ := newExportFixture(t)

	_, err := svc.ExportProgram(context.Background(), "", "program-1", "csv")
	require.Error(t, err)
	_, err = svc.ExportDietPlan(context.Background(), "", "diet-1", "pdf")
	require.Error(t, err)
}
