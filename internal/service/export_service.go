package service

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fitdesk/coach-api/internal/models"
	appErrors "github.com/fitdesk/coach-api/pkg/errors"
	"github.com/fitdesk/coach-api/pkg/export"
	"github.com/fitdesk/coach-api/pkg/storage"
)

type exportProgramReader interface {
	FindByID(ctx context.Context, coachID, id string) (*models.Program, error)
}

type exportDietPlanReader interface {
	FindByID(ctx context.Context, coachID, id string) (*models.DietPlan, error)
}

type exportStudentReader interface {
	FindByID(ctx context.Context, coachID, id string) (*models.StudentDetail, error)
}

type exportMembership interface {
	ProgramMembers(ctx context.Context, coachID, programID string) ([]string, error)
	DietPlanMembers(ctx context.Context, coachID, dietPlanID string) ([]string, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportResult describes a generated artifact and its signed download
// token.
type ExportResult struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	Format    string    `json:"format"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ExportService renders program and diet plan details to PDF or CSV
// artifacts served through signed URLs.
type ExportService struct {
	programs    exportProgramReader
	dietPlans   exportDietPlanReader
	students    exportStudentReader
	assignments exportMembership
	storage     fileStorage
	signer      *storage.SignedURLSigner
	csv         csvRenderer
	pdf         pdfRenderer
	logger      *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(
	programs exportProgramReader,
	dietPlans exportDietPlanReader,
	students exportStudentReader,
	assignments exportMembership,
	store fileStorage,
	signer *storage.SignedURLSigner,
	csv csvRenderer,
	pdf pdfRenderer,
	logger *zap.Logger,
) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		programs:    programs,
		dietPlans:   dietPlans,
		students:    students,
		assignments: assignments,
		storage:     store,
		signer:      signer,
		csv:         csv,
		pdf:         pdf,
		logger:      logger,
	}
}

// ExportProgram renders one program with its assigned roster.
func (s *ExportService) ExportProgram(ctx context.Context, coachID, programID, format string) (*ExportResult, error) {
	if coachID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing coach identity")
	}
	program, err := s.programs.FindByID(ctx, coachID, programID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}
	members, err := s.assignments.ProgramMembers(ctx, coachID, programID)
	if err != nil {
		return nil, err
	}
	dataset := export.Dataset{
		Summary: [][2]string{
			{"Program", program.Name},
			{"Goal", program.Goal},
			{"Level", program.Level},
			{"Duration", fmt.Sprintf("%d weeks, %d days/week", program.Weeks, program.DaysPerWeek)},
			{"Notes", program.Notes},
		},
		Headers: []string{"Student", "Email", "Goal"},
	}
	if err := s.appendStudentRows(ctx, coachID, members, &dataset); err != nil {
		return nil, err
	}
	return s.render(program.Name, "program", programID, format, dataset)
}

// ExportDietPlan renders one diet plan with its assigned roster.
func (s *ExportService) ExportDietPlan(ctx context.Context, coachID, dietPlanID, format string) (*ExportResult, error) {
	if coachID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing coach identity")
	}
	plan, err := s.dietPlans.FindByID(ctx, coachID, dietPlanID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "diet plan not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load diet plan")
	}
	members, err := s.assignments.DietPlanMembers(ctx, coachID, dietPlanID)
	if err != nil {
		return nil, err
	}
	dataset := export.Dataset{
		Summary: [][2]string{
			{"Diet plan", plan.Name},
			{"Goal", plan.Goal},
			{"Calories", strconv.Itoa(plan.Calories)},
			{"Macros", fmt.Sprintf("P %.0fg / C %.0fg / F %.0fg", plan.ProteinGrams, plan.CarbsGrams, plan.FatGrams)},
			{"Meals per day", strconv.Itoa(plan.MealsPerDay)},
			{"Notes", plan.Notes},
		},
		Headers: []string{"Student", "Email", "Goal"},
	}
	if err := s.appendStudentRows(ctx, coachID, members, &dataset); err != nil {
		return nil, err
	}
	return s.render(plan.Name, "diet-plan", dietPlanID, format, dataset)
}

// ParseToken validates a signed download token.
func (s *ExportService) ParseToken(token string, allowExpired bool) (exportID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns the artifact file for streaming.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Cleanup purges artifacts older than the TTL.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	return s.storage.CleanupOlderThan(ttl)
}

// StartCleanup boots a goroutine purging expired artifacts periodically.
func (s *ExportService) StartCleanup(ctx context.Context, interval, ttl time.Duration) {
	if interval <= 0 || ttl <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed, err := s.Cleanup(ttl); err != nil {
					s.logger.Warn("export cleanup failed", zap.Error(err))
				} else if len(removed) > 0 {
					s.logger.Info("expired exports removed", zap.Int("count", len(removed)))
				}
			}
		}
	}()
}

func (s *ExportService) appendStudentRows(ctx context.Context, coachID string, members []string, dataset *export.Dataset) error {
	for _, studentID := range members {
		student, err := s.students.FindByID(ctx, coachID, studentID)
		if err != nil {
			if err == sql.ErrNoRows {
				continue
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Student": student.FullName,
			"Email":   student.Email,
			"Goal":    student.Goal,
		})
	}
	return nil
}

func (s *ExportService) render(title, kind, entityID, format string, dataset export.Dataset) (*ExportResult, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "pdf"
	}

	var payload []byte
	var err error
	switch format {
	case "csv":
		payload, err = s.csv.Render(dataset)
	case "pdf":
		payload, err = s.pdf.Render(dataset, title)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be pdf or csv")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	exportID := uuid.NewString()
	filename := fmt.Sprintf("%s-%s-%s.%s", kind, sanitizeFilename(title), exportID[:8], format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}

	token, expiresAt, err := s.signer.Generate(exportID, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign export url")
	}

	return &ExportResult{
		ID:        exportID,
		Filename:  filename,
		Format:    format,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

func sanitizeFilename(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_':
			return r
		case r == ' ':
			return '-'
		default:
			return -1
		}
	}, raw)
	cleaned = strings.Trim(cleaned, "-")
	if cleaned == "" {
		cleaned = "export"
	}
	return strings.ToLower(cleaned)
}
