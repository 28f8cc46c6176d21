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

type calendarRepository interface {
	List(ctx context.Context, coachID string, filter models.CalendarFilter) ([]models.CalendarEvent, int, error)
	GetByID(ctx context.Context, coachID, id string) (*models.CalendarEvent, error)
	Create(ctx context.Context, event *models.CalendarEvent) error
	Update(ctx context.Context, event *models.CalendarEvent) error
	Delete(ctx context.Context, coachID, id string) error
}

type calendarNotifier interface {
	Dispatch(ctx context.Context, userID string, kind models.NotificationKind, title, body string) error
}

// CreateEventRequest is the payload for new calendar events.
type CreateEventRequest struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description" validate:"omitempty,max=2000"`
	EventType   string    `json:"event_type" validate:"required,oneof=SESSION CHECKIN ASSESSMENT OTHER"`
	StartsAt    time.Time `json:"starts_at" validate:"required"`
	EndsAt      time.Time `json:"ends_at" validate:"required"`
	StudentID   *string   `json:"student_id"`
	Location    *string   `json:"location"`
}

// UpdateEventRequest is the payload for modifying calendar events.
type UpdateEventRequest struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description" validate:"omitempty,max=2000"`
	EventType   string    `json:"event_type" validate:"required,oneof=SESSION CHECKIN ASSESSMENT OTHER"`
	StartsAt    time.Time `json:"starts_at" validate:"required"`
	EndsAt      time.Time `json:"ends_at" validate:"required"`
	StudentID   *string   `json:"student_id"`
	Location    *string   `json:"location"`
}

// CalendarService manages the coach's session calendar.
type CalendarService struct {
	repo      calendarRepository
	notifier  calendarNotifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCalendarService constructs a CalendarService. The notifier is
// optional.
func NewCalendarService(repo calendarRepository, notifier calendarNotifier, validate *validator.Validate, logger *zap.Logger) *CalendarService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarService{repo: repo, notifier: notifier, validator: validate, logger: logger}
}

// List returns events in the requested window.
func (s *CalendarService) List(ctx context.Context, coachID string, filter models.CalendarFilter) ([]models.CalendarEvent, *models.Pagination, error) {
	if coachID == "" {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing coach identity")
	}
	events, total, err := s.repo.List(ctx, coachID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return events, pagination, nil
}

// Get returns a single event.
func (s *CalendarService) Get(ctx context.Context, coachID, id string) (*models.CalendarEvent, error) {
	if coachID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing coach identity")
	}
	event, err := s.repo.GetByID(ctx, coachID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	return event, nil
}

// Create schedules a new event and notifies the linked student.
func (s *CalendarService) Create(ctx context.Context, coachID string, req CreateEventRequest) (*models.CalendarEvent, error) {
	if coachID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing coach identity")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	if !req.EndsAt.After(req.StartsAt) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "event must end after it starts")
	}
	now := time.Now().UTC()
	event := &models.CalendarEvent{
		ID:          uuid.NewString(),
		CoachID:     coachID,
		StudentID:   req.StudentID,
		Title:       req.Title,
		Description: req.Description,
		EventType:   req.EventType,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		Location:    req.Location,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}
	if s.notifier != nil && event.StudentID != nil {
		if err := s.notifier.Dispatch(ctx, *event.StudentID, models.NotificationCalendar, "New session scheduled", event.Title); err != nil {
			s.logger.Warn("calendar notification dispatch failed", zap.String("event_id", event.ID), zap.Error(err))
		}
	}
	return event, nil
}

// Update modifies an existing event.
func (s *CalendarService) Update(ctx context.Context, coachID, id string, req UpdateEventRequest) (*models.CalendarEvent, error) {
	if coachID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing coach identity")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	if !req.EndsAt.After(req.StartsAt) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "event must end after it starts")
	}
	event, err := s.repo.GetByID(ctx, coachID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	event.Title = req.Title
	event.Description = req.Description
	event.EventType = req.EventType
	event.StartsAt = req.StartsAt
	event.EndsAt = req.EndsAt
	event.StudentID = req.StudentID
	event.Location = req.Location
	event.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update event")
	}
	return event, nil
}

// Delete removes an event.
func (s *CalendarService) Delete(ctx context.Context, coachID, id string) error {
	if coachID == "" {
		return appErrors.Clone(appErrors.ErrUnauthorized, "missing coach identity")
	}
	if err := s.repo.Delete(ctx, coachID, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete event")
	}
	return nil
}
