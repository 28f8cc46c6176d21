package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fitdesk/coach-api/internal/models"
)

type messageRepoStub struct {
	messages []models.Message
	marked   []string
	calls    int
}

func (s *messageRepoStub) ListConversation(ctx context.Context, coachID string, filter models.MessageFilter) ([]models.Message, error) {
	s.calls++
	return s.messages, nil
}

func (s *messageRepoStub) ListConversations(ctx context.Context, coachID string) ([]models.ConversationSummary, error) {
	s.calls++
	return nil, nil
}

func (s *messageRepoStub) Create(ctx context.Context, message *models.Message) error {
	s.calls++
	s.messages = append(s.messages, *message)
	return nil
}

func (s *messageRepoStub) MarkConversationRead(ctx context.Context, coachID, studentID string, ts time.Time) error {
	s.calls++
	s.marked = append(s.marked, studentID)
	return nil
}

func (s *messageRepoStub) CountUnread(ctx context.Context, coachID string) (int, error) {
	s.calls++
	return len(s.messages), nil
}

type dispatchRecorder struct {
	dispatched []string
}

func (d *dispatchRecorder) Dispatch(ctx context.Context, userID string, kind models.NotificationKind, title, body string) error {
	d.dispatched = append(d.dispatched, userID)
	return nil
}

func TestMessageServiceSendNotifiesStudent(t *testing.T) {
	repo := &messageRepoStub{}
	notifier := &dispatchRecorder{}
	svc := NewMessageService(repo, notifier, validator.New(), zap.NewNop())

	message, err := svc.Send(context.Background(), "coach-1", SendMessageRequest{StudentID: "student-1", Body: "Great session today"})
	require.NoError(t, err)

	assert.Equal(t, models.SenderCoach, message.Sender)
	assert.Equal(t, []string{"student-1"}, notifier.dispatched)
	require.Len(t, repo.messages, 1)
}

func TestMessageServiceSendValidatesBody(t *testing.T) {
	svc := NewMessageService(&messageRepoStub{}, nil, validator.New(), zap.NewNop())

	_, err := svc.Send(context.Background(), "coach-1", SendMessageRequest{StudentID: "student-1", Body: ""})
	require.Error(t, err)
}

func TestMessageServiceMarkRead(t *testing.T) {
	repo := &messageRepoStub{}
	svc := NewMessageService(repo, nil, validator.New(), zap.NewNop())

	require.NoError(t, svc.MarkRead(context.Background(), "coach-1", "student-1"))
	assert.Equal(t, []string{"student-1"}, repo.marked)
}

func TestMessageServiceRejectsMissingCoach(t *testing.T) {
	repo := &messageRepoStub{}
	svc := NewMessageService(repo, nil, validator.New(), zap.NewNop())
	ctx := context.Background()

	_, err := svc.Conversations(ctx, "")
	require.Error(t, err)
	_, err = svc.Send(ctx, "", SendMessageRequest{StudentID: "student-1", Body: "hi"})
	require.Error(t, err)
	require.Error(t, svc.MarkRead(ctx, "", "student-1"))

	assert.Zero(t, repo.calls)
}
