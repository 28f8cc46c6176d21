package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fitdesk/coach-api/internal/models"
	"github.com/fitdesk/coach-api/pkg/config"
	appErrors "github.com/fitdesk/coach-api/pkg/errors"
)

type assignmentStore interface {
	GetByPair(ctx context.Context, coachID, studentID string) (*models.Assignment, error)
	UpsertProgram(ctx context.Context, coachID, studentID, programID string) error
	UpsertDietPlan(ctx context.Context, coachID, studentID, dietPlanID string) error
	PauseProgram(ctx context.Context, coachID, studentID, programID string) error
	PauseDietPlan(ctx context.Context, coachID, studentID, dietPlanID string) error
	PauseAllForStudent(ctx context.Context, coachID, studentID string) error
	ListByCoach(ctx context.Context, coachID string) ([]models.Assignment, error)
	ListStudentIDsByProgram(ctx context.Context, coachID, programID string) ([]string, error)
	ListStudentIDsByDietPlan(ctx context.Context, coachID, dietPlanID string) ([]string, error)
}

// AssignmentService is the shared synchronization core behind program,
// diet plan and student mutations. Every write goes through an atomic
// upsert or a status-preserving pause, the membership cache for the
// coach is invalidated afterwards, and when ReconcileAfterWrite is on
// the returned membership is re-derived from the store instead of
// patched from the pre-write snapshot.
type AssignmentService struct {
	repo     assignmentStore
	cache    *CacheService
	notifier assignmentNotifier
	cfg      config.AssignmentsConfig
	logger   *zap.Logger
}

type assignmentNotifier interface {
	Dispatch(ctx context.Context, userID string, kind models.NotificationKind, title, body string) error
}

// NewAssignmentService constructs the synchronization core. The
// notifier is optional; when nil no notifications are dispatched.
func NewAssignmentService(repo assignmentStore, cache *CacheService, notifier assignmentNotifier, cfg config.AssignmentsConfig, logger *zap.Logger) *AssignmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{repo: repo, cache: cache, notifier: notifier, cfg: cfg, logger: logger}
}

func (s *AssignmentService) notify(ctx context.Context, studentID, title, body string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Dispatch(ctx, studentID, models.NotificationAssignment, title, body); err != nil {
		s.logger.Warn("assignment notification dispatch failed", zap.String("student_id", studentID), zap.Error(err))
	}
}

func membershipCacheKey(coachID, kind, entityID string) string {
	return fmt.Sprintf("membership:%s:%s:%s", coachID, kind, entityID)
}

func (s *AssignmentService) requireCoach(coachID string) error {
	if coachID == "" {
		return appErrors.Clone(appErrors.ErrUnauthorized, "missing coach identity")
	}
	return nil
}

// AssignProgram links a student to a program, replacing any previous
// program relation on the pair. Returns the program's membership after
// the write.
func (s *AssignmentService) AssignProgram(ctx context.Context, coachID, studentID, programID string) ([]string, error) {
	if err := s.requireCoach(coachID); err != nil {
		return nil, err
	}
	if studentID == "" || programID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student and program ids are required")
	}
	before, err := s.programMembersFresh(ctx, coachID, programID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpsertProgram(ctx, coachID, studentID, programID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign program")
	}
	s.invalidateCoach(ctx, coachID)
	s.notify(ctx, studentID, "New training program", "Your coach assigned you a new training program.")
	return s.membershipAfterWrite(ctx, coachID, "program", programID, appendUnique(before, studentID))
}

// UnassignProgram pauses the program relation for the pair. The pause
// only lands when the pair's relation holds the named program; a pair
// that was never assigned it pauses zero rows and still succeeds.
func (s *AssignmentService) UnassignProgram(ctx context.Context, coachID, studentID, programID string) ([]string, error) {
	if err := s.requireCoach(coachID); err != nil {
		return nil, err
	}
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}
	before, err := s.programMembersFresh(ctx, coachID, programID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.PauseProgram(ctx, coachID, studentID, programID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unassign program")
	}
	s.invalidateCoach(ctx, coachID)
	return s.membershipAfterWrite(ctx, coachID, "program", programID, remove(before, studentID))
}

// AssignDietPlan links a student to a diet plan on the same pair row.
func (s *AssignmentService) AssignDietPlan(ctx context.Context, coachID, studentID, dietPlanID string) ([]string, error) {
	if err := s.requireCoach(coachID); err != nil {
		return nil, err
	}
	if studentID == "" || dietPlanID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student and diet plan ids are required")
	}
	before, err := s.dietPlanMembersFresh(ctx, coachID, dietPlanID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpsertDietPlan(ctx, coachID, studentID, dietPlanID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign diet plan")
	}
	s.invalidateCoach(ctx, coachID)
	s.notify(ctx, studentID, "New diet plan", "Your coach assigned you a new diet plan.")
	return s.membershipAfterWrite(ctx, coachID, "diet", dietPlanID, appendUnique(before, studentID))
}

// UnassignDietPlan pauses the diet relation for the pair.
func (s *AssignmentService) UnassignDietPlan(ctx context.Context, coachID, studentID, dietPlanID string) ([]string, error) {
	if err := s.requireCoach(coachID); err != nil {
		return nil, err
	}
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}
	before, err := s.dietPlanMembersFresh(ctx, coachID, dietPlanID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.PauseDietPlan(ctx, coachID, studentID, dietPlanID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unassign diet plan")
	}
	s.invalidateCoach(ctx, coachID)
	return s.membershipAfterWrite(ctx, coachID, "diet", dietPlanID, remove(before, studentID))
}

// PauseAll pauses both relations for the student, used on roster
// deactivation. The student row itself is untouched here.
func (s *AssignmentService) PauseAll(ctx context.Context, coachID, studentID string) error {
	if err := s.requireCoach(coachID); err != nil {
		return err
	}
	if studentID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}
	if err := s.repo.PauseAllForStudent(ctx, coachID, studentID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to pause assignments")
	}
	s.invalidateCoach(ctx, coachID)
	return nil
}

// ProgramMembers returns the derived student ids for a program,
// served from the membership cache when warm.
func (s *AssignmentService) ProgramMembers(ctx context.Context, coachID, programID string) ([]string, error) {
	if err := s.requireCoach(coachID); err != nil {
		return nil, err
	}
	key := membershipCacheKey(coachID, "program", programID)
	if members, hit := s.tryCache(ctx, key); hit {
		return members, nil
	}
	members, err := s.programMembersFresh(ctx, coachID, programID)
	if err != nil {
		return nil, err
	}
	s.persistCache(ctx, key, members)
	return members, nil
}

// DietPlanMembers returns the derived student ids for a diet plan.
func (s *AssignmentService) DietPlanMembers(ctx context.Context, coachID, dietPlanID string) ([]string, error) {
	if err := s.requireCoach(coachID); err != nil {
		return nil, err
	}
	key := membershipCacheKey(coachID, "diet", dietPlanID)
	if members, hit := s.tryCache(ctx, key); hit {
		return members, nil
	}
	members, err := s.dietPlanMembersFresh(ctx, coachID, dietPlanID)
	if err != nil {
		return nil, err
	}
	s.persistCache(ctx, key, members)
	return members, nil
}

// Relations returns the student-side derived view of the pair row.
// Paused relations surface as nil ids.
func (s *AssignmentService) Relations(ctx context.Context, coachID, studentID string) (*models.StudentRelations, error) {
	if err := s.requireCoach(coachID); err != nil {
		return nil, err
	}
	relations := &models.StudentRelations{}
	row, err := s.repo.GetByPair(ctx, coachID, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return relations, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	if row.ProgramActive() {
		relations.ProgramID = row.ProgramID
	}
	if row.DietActive() {
		relations.DietPlanID = row.DietPlanID
	}
	return relations, nil
}

// Membership reconstructs the full per-entity membership map for the
// coach in one pass over assignment rows.
func (s *AssignmentService) Membership(ctx context.Context, coachID string) (*models.Membership, error) {
	if err := s.requireCoach(coachID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByCoach(ctx, coachID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	membership := &models.Membership{
		ProgramStudents:  make(map[string][]string),
		DietPlanStudents: make(map[string][]string),
	}
	for _, row := range rows {
		if row.ProgramActive() {
			membership.ProgramStudents[*row.ProgramID] = append(membership.ProgramStudents[*row.ProgramID], row.StudentID)
		}
		if row.DietActive() {
			membership.DietPlanStudents[*row.DietPlanID] = append(membership.DietPlanStudents[*row.DietPlanID], row.StudentID)
		}
	}
	return membership, nil
}

func (s *AssignmentService) programMembersFresh(ctx context.Context, coachID, programID string) ([]string, error) {
	members, err := s.repo.ListStudentIDsByProgram(ctx, coachID, programID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to derive program membership")
	}
	return members, nil
}

func (s *AssignmentService) dietPlanMembersFresh(ctx context.Context, coachID, dietPlanID string) ([]string, error) {
	members, err := s.repo.ListStudentIDsByDietPlan(ctx, coachID, dietPlanID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to derive diet plan membership")
	}
	return members, nil
}

// membershipAfterWrite applies the post-write policy: re-derive from
// the store under ReconcileAfterWrite, otherwise keep the patched
// pre-write snapshot. Either result re-warms the cache.
func (s *AssignmentService) membershipAfterWrite(ctx context.Context, coachID, kind, entityID string, patched []string) ([]string, error) {
	members := patched
	if s.cfg.ReconcileAfterWrite {
		var err error
		switch kind {
		case "program":
			members, err = s.programMembersFresh(ctx, coachID, entityID)
		default:
			members, err = s.dietPlanMembersFresh(ctx, coachID, entityID)
		}
		if err != nil {
			return nil, err
		}
	}
	s.persistCache(ctx, membershipCacheKey(coachID, kind, entityID), members)
	return members, nil
}

func (s *AssignmentService) tryCache(ctx context.Context, key string) ([]string, bool) {
	if s.cache == nil || !s.cache.Enabled() {
		return nil, false
	}
	var cached []string
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.logger.Warn("membership cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if !hit {
		return nil, false
	}
	return cached, true
}

func (s *AssignmentService) persistCache(ctx context.Context, key string, members []string) {
	if s.cache == nil || !s.cache.Enabled() {
		return
	}
	ttl := s.cfg.MembershipCacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if err := s.cache.Set(ctx, key, members, ttl); err != nil {
		s.logger.Warn("membership cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// invalidateCoach drops every derived view for the coach so fetch-time
// reconstruction starts from the store.
func (s *AssignmentService) invalidateCoach(ctx context.Context, coachID string) {
	if s.cache == nil || !s.cache.Enabled() {
		return
	}
	for _, pattern := range []string{
		fmt.Sprintf("membership:%s:*", coachID),
		fmt.Sprintf("dash:coach:%s", coachID),
	} {
		if err := s.cache.Invalidate(ctx, pattern); err != nil {
			s.logger.Warn("cache invalidation failed", zap.String("pattern", pattern), zap.Error(err))
		}
	}
}

func appendUnique(members []string, id string) []string {
	for _, existing := range members {
		if existing == id {
			return members
		}
	}
	return append(members, id)
}

func remove(members []string, id string) []string {
	out := members[:0]
	for _, existing := range members {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}
