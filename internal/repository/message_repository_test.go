package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitdesk/coach-api/internal/models"
)

func newMessageMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestMessageRepositoryListConversation(t *testing.T) {
	db, mock, cleanup := newMessageMock(t)
	defer cleanup()
	repo := NewMessageRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "coach_id", "student_id", "sender", "body", "read_at", "created_at"}).
		AddRow("m-1", "coach-1", "student-1", "COACH", "how was the session?", nil, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM messages WHERE coach_id = $1 AND student_id = $2 ORDER BY created_at DESC LIMIT 50")).
		WithArgs("coach-1", "student-1").
		WillReturnRows(rows)

	messages, err := repo.ListConversation(context.Background(), "coach-1", models.MessageFilter{StudentID: "student-1"})
	require.NoError(t, err)
	assert.Len(t, messages, 1)
	assert.Equal(t, models.SenderCoach, messages[0].Sender)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRepositoryMarkConversationRead(t *testing.T) {
	db, mock, cleanup := newMessageMock(t)
	defer cleanup()
	repo := NewMessageRepository(db)

	ts := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE messages SET read_at = $3")).
		WithArgs("coach-1", "student-1", ts).
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := repo.MarkConversationRead(context.Background(), "coach-1", "student-1", ts)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRepositoryCountUnread(t *testing.T) {
	db, mock, cleanup := newMessageMock(t)
	defer cleanup()
	repo := NewMessageRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM messages")).
		WithArgs("coach-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountUnread(context.Background(), "coach-1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
