package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fitdesk/coach-api/internal/models"
	"github.com/fitdesk/coach-api/pkg/jobs"
)

type notificationRepoStub struct {
	items []models.Notification
	read  []string
}

func (s *notificationRepoStub) List(ctx context.Context, userID string, filter models.NotificationFilter) ([]models.Notification, int, error) {
	return s.items, len(s.items), nil
}

func (s *notificationRepoStub) Create(ctx context.Context, notification *models.Notification) error {
	s.items = append(s.items, *notification)
	return nil
}

func (s *notificationRepoStub) MarkRead(ctx context.Context, userID, id string) error {
	s.read = append(s.read, id)
	return nil
}

func (s *notificationRepoStub) MarkAllRead(ctx context.Context, userID string) error {
	s.read = append(s.read, "*")
	return nil
}

func (s *notificationRepoStub) CountUnread(ctx context.Context, userID string) (int, error) {
	return len(s.items), nil
}

type queueStub struct {
	jobs []jobs.Job
	err  error
}

func (s *queueStub) Enqueue(job jobs.Job) error {
	if s.err != nil {
		return s.err
	}
	s.jobs = append(s.jobs, job)
	return nil
}

func TestNotificationServiceDispatchEnqueues(t *testing.T) {
	repo := &notificationRepoStub{}
	queue := &queueStub{}
	svc := NewNotificationService(repo, nil, "", zap.NewNop())
	svc.AttachQueue(queue)

	err := svc.Dispatch(context.Background(), "student-1", models.NotificationAssignment, "New training program", "body")
	require.NoError(t, err)

	require.Len(t, queue.jobs, 1)
	assert.Equal(t, "notification", queue.jobs[0].Type)
	assert.Empty(t, repo.items, "persistence happens in the worker, not inline")

	require.NoError(t, svc.HandleJob(context.Background(), queue.jobs[0]))
	require.Len(t, repo.items, 1)
	assert.Equal(t, "student-1", repo.items[0].UserID)
	assert.Equal(t, models.NotificationAssignment, repo.items[0].Kind)
}

func TestNotificationServiceDispatchWithoutQueueWritesInline(t *testing.T) {
	repo := &notificationRepoStub{}
	svc := NewNotificationService(repo, nil, "", zap.NewNop())

	err := svc.Dispatch(context.Background(), "student-1", models.NotificationMessage, "New message", "body")
	require.NoError(t, err)
	require.Len(t, repo.items, 1)
}

func TestNotificationServiceHandleJobRejectsForeignPayload(t *testing.T) {
	repo := &notificationRepoStub{}
	svc := NewNotificationService(repo, nil, "", zap.NewNop())

	err := svc.HandleJob(context.Background(), jobs.Job{ID: "j1", Type: "notification", Payload: "nope"})
	require.Error(t, err)
}

func TestNotificationServiceListRequiresUser(t *testing.T) {
	svc := NewNotificationService(&notificationRepoStub{}, nil, "", zap.NewNop())
	_, _, err := svc.List(context.Background(), "", models.NotificationFilter{})
	require.Error(t, err)
}
