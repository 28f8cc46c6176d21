package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fitdesk/coach-api/internal/models"
	appErrors "github.com/fitdesk/coach-api/pkg/errors"
	"github.com/fitdesk/coach-api/pkg/jobs"
)

type notificationRepository interface {
	List(ctx context.Context, userID string, filter models.NotificationFilter) ([]models.Notification, int, error)
	Create(ctx context.Context, notification *models.Notification) error
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) error
	CountUnread(ctx context.Context, userID string) (int, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type eventPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// NotificationService persists notifications asynchronously through the
// job queue and announces each one on a Redis channel so other
// instances can push it to connected clients.
type NotificationService struct {
	repo      notificationRepository
	queue     jobDispatcher
	publisher eventPublisher
	channel   string
	logger    *zap.Logger
}

// NewNotificationService constructs a NotificationService. The queue is
// attached after construction because its handler is this service.
func NewNotificationService(repo notificationRepository, publisher eventPublisher, channel string, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, publisher: publisher, channel: channel, logger: logger}
}

// AttachQueue binds the background queue used by Dispatch.
func (s *NotificationService) AttachQueue(queue jobDispatcher) {
	s.queue = queue
}

// Dispatch enqueues a notification for asynchronous persistence. With
// no queue attached it falls back to writing synchronously.
func (s *NotificationService) Dispatch(ctx context.Context, userID string, kind models.NotificationKind, title, body string) error {
	notification := models.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Kind:      kind,
		Title:     title,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	if s.queue == nil {
		return s.deliver(ctx, notification)
	}
	if err := s.queue.Enqueue(jobs.Job{ID: notification.ID, Type: "notification", Payload: notification}); err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}
	return nil
}

// HandleJob is the queue handler persisting and publishing one
// notification.
func (s *NotificationService) HandleJob(ctx context.Context, job jobs.Job) error {
	notification, ok := job.Payload.(models.Notification)
	if !ok {
		return fmt.Errorf("unexpected notification payload type %T", job.Payload)
	}
	return s.deliver(ctx, notification)
}

func (s *NotificationService) deliver(ctx context.Context, notification models.Notification) error {
	if err := s.repo.Create(ctx, &notification); err != nil {
		return fmt.Errorf("persist notification: %w", err)
	}
	s.publish(ctx, notification)
	return nil
}

func (s *NotificationService) publish(ctx context.Context, notification models.Notification) {
	if s.publisher == nil || s.channel == "" {
		return
	}
	payload, err := json.Marshal(notification)
	if err != nil {
		s.logger.Warn("failed to encode notification event", zap.Error(err))
		return
	}
	if err := s.publisher.Publish(ctx, s.channel, payload).Err(); err != nil {
		s.logger.Warn("failed to publish notification event", zap.String("channel", s.channel), zap.Error(err))
	}
}

// List returns the user's notifications.
func (s *NotificationService) List(ctx context.Context, userID string, filter models.NotificationFilter) ([]models.Notification, *models.Pagination, error) {
	if userID == "" {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing user identity")
	}
	notifications, total, err := s.repo.List(ctx, userID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
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
	return notifications, pagination, nil
}

// MarkRead marks one notification as read.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	if userID == "" {
		return appErrors.Clone(appErrors.ErrUnauthorized, "missing user identity")
	}
	if err := s.repo.MarkRead(ctx, userID, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	return nil
}

// MarkAllRead marks every unread notification as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	if userID == "" {
		return appErrors.Clone(appErrors.ErrUnauthorized, "missing user identity")
	}
	if err := s.repo.MarkAllRead(ctx, userID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notifications read")
	}
	return nil
}

// UnreadCount returns the user's unread notification count.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, appErrors.Clone(appErrors.ErrUnauthorized, "missing user identity")
	}
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count unread notifications")
	}
	return count, nil
}
