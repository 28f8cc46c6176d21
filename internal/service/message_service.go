package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fitdesk/coach-api/internal/models"
	appErrors "github.com/fitdesk/coach-api/pkg/errors"
)

type messageRepository interface {
	ListConversation(ctx context.Context, coachID string, filter models.MessageFilter) ([]models.Message, error)
	ListConversations(ctx context.Context, coachID string) ([]models.ConversationSummary, error)
	Create(ctx context.Context, message *models.Message) error
	MarkConversationRead(ctx context.Context, coachID, studentID string, ts time.Time) error
	CountUnread(ctx context.Context, coachID string) (int, error)
}

type messageNotifier interface {
	Dispatch(ctx context.Context, userID string, kind models.NotificationKind, title, body string) error
}

// SendMessageRequest carries a new conversation entry.
type SendMessageRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	Body      string `json:"body" validate:"required,max=4000"`
}

// MessageService handles coach-student conversations.
type MessageService struct {
	repo      messageRepository
	notifier  messageNotifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMessageService constructs a MessageService. The notifier is
// optional.
func NewMessageService(repo messageRepository, notifier messageNotifier, validate *validator.Validate, logger *zap.Logger) *MessageService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MessageService{repo: repo, notifier: notifier, validator: validate, logger: logger}
}

// Conversations lists the coach's inbox threads with unread counts.
func (s *MessageService) Conversations(ctx context.Context, coachID string) ([]models.ConversationSummary, error) {
	if coachID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing coach identity")
	}
	summaries, err := s.repo.ListConversations(ctx, coachID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list conversations")
	}
	return summaries, nil
}

// Conversation returns one thread, newest first.
func (s *MessageService) Conversation(ctx context.Context, coachID string, filter models.MessageFilter) ([]models.Message, error) {
	if coachID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing coach identity")
	}
	if filter.StudentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}
	messages, err := s.repo.ListConversation(ctx, coachID, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load conversation")
	}
	return messages, nil
}

// Send appends a coach message to the thread and notifies the student.
func (s *MessageService) Send(ctx context.Context, coachID string, req SendMessageRequest) (*models.Message, error) {
	if coachID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing coach identity")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid message payload")
	}
	message := &models.Message{
		ID:        uuid.NewString(),
		CoachID:   coachID,
		StudentID: req.StudentID,
		Sender:    models.SenderCoach,
		Body:      req.Body,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, message); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to send message")
	}
	if s.notifier != nil {
		if err := s.notifier.Dispatch(ctx, req.StudentID, models.NotificationMessage, "New message", "Your coach sent you a message."); err != nil {
			s.logger.Warn("message notification dispatch failed", zap.String("student_id", req.StudentID), zap.Error(err))
		}
	}
	return message, nil
}

// MarkRead marks every student-sent message in the thread as read.
func (s *MessageService) MarkRead(ctx context.Context, coachID, studentID string) error {
	if coachID == "" {
		return appErrors.Clone(appErrors.ErrUnauthorized, "missing coach identity")
	}
	if studentID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}
	if err := s.repo.MarkConversationRead(ctx, coachID, studentID, time.Now().UTC()); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark conversation read")
	}
	return nil
}

// UnreadCount returns the total unread messages across threads.
func (s *MessageService) UnreadCount(ctx context.Context, coachID string) (int, error) {
	if coachID == "" {
		return 0, appErrors.Clone(appErrors.ErrUnauthorized, "missing coach identity")
	}
	count, err := s.repo.CountUnread(ctx, coachID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count unread messages")
	}
	return count, nil
}
