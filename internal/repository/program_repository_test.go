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

func newProgramMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestProgramRepositoryList(t *testing.T) {
	db, mock, cleanup := newProgramMock(t)
	defer cleanup()
	repo := NewProgramRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "created_by", "name", "goal", "level", "weeks", "days_per_week", "notes", "created_at", "updated_at"}).
		AddRow("program-1", "coach-1", "Hypertrophy Block", "muscle_gain", "intermediate", 8, 4, "", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM programs WHERE created_by = $1 ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs("coach-1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM programs WHERE created_by = $1")).
		WithArgs("coach-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	programs, total, err := repo.List(context.Background(), "coach-1", models.ProgramFilter{})
	require.NoError(t, err)
	assert.Len(t, programs, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProgramRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newProgramMock(t)
	defer cleanup()
	repo := NewProgramRepository(db)

	mock.ExpectExec("INSERT INTO programs").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	program := &models.Program{CreatedBy: "coach-1", Name: "Cut Block", Goal: "fat_loss", Level: "beginner", Weeks: 6, DaysPerWeek: 3}
	err := repo.Create(context.Background(), program)
	require.NoError(t, err)
	assert.NotEmpty(t, program.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProgramRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newProgramMock(t)
	defer cleanup()
	repo := NewProgramRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM programs WHERE id = $1 AND created_by = $2")).
		WithArgs("program-x", "coach-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "coach-1", "program-x")
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
