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

func newAssignmentMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAssignmentRepositoryUpsertProgramUsesConflictKey(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (coach_id, student_id)")).
		WithArgs(sqlmock.AnyArg(), "coach-1", "student-1", "program-1", models.RelationActive, models.RelationPaused, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpsertProgram(context.Background(), "coach-1", "student-1", "program-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Concurrent assigns for the same pair both issue upserts against the
// same conflict key; the single-row invariant is enforced by the
// database, not by a read-then-write sequence in the client.
func TestAssignmentRepositoryUpsertProgramTwice(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	for i := 0; i < 2; i++ {
		mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (coach_id, student_id)")).
			WithArgs(sqlmock.AnyArg(), "coach-1", "student-1", "program-1", models.RelationActive, models.RelationPaused, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}

	require.NoError(t, repo.UpsertProgram(context.Background(), "coach-1", "student-1", "program-1"))
	require.NoError(t, repo.UpsertProgram(context.Background(), "coach-1", "student-1", "program-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryPauseProgramIsUpdateNotDelete(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE assignments SET program_status = $4, updated_at = $5 WHERE coach_id = $1 AND student_id = $2 AND program_id = $3")).
		WithArgs("coach-1", "student-1", "program-1", models.RelationPaused, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.PauseProgram(context.Background(), "coach-1", "student-1", "program-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Pausing a relation that has no row matches zero rows and must still
// report success.
func TestAssignmentRepositoryPauseProgramNoRow(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("AND program_id = $3")).
		WithArgs("coach-1", "student-unknown", "program-1", models.RelationPaused, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.PauseProgram(context.Background(), "coach-1", "student-unknown", "program-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryListStudentIDsByProgram(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	rows := sqlmock.NewRows([]string{"student_id"}).AddRow("student-1").AddRow("student-2")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT student_id FROM assignments")).
		WithArgs("coach-1", "program-1", models.RelationActive).
		WillReturnRows(rows)

	ids, err := repo.ListStudentIDsByProgram(context.Background(), "coach-1", "program-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"student-1", "student-2"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryListByCoach(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	now := time.Now().UTC()
	programID := "program-1"
	rows := sqlmock.NewRows([]string{"id", "coach_id", "student_id", "program_id", "program_status", "diet_plan_id", "diet_status", "created_at", "updated_at"}).
		AddRow("a-1", "coach-1", "student-1", programID, "ACTIVE", nil, "PAUSED", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM assignments WHERE coach_id = $1")).
		WithArgs("coach-1").
		WillReturnRows(rows)

	assignments, err := repo.ListByCoach(context.Background(), "coach-1")
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.True(t, assignments[0].ProgramActive())
	assert.False(t, assignments[0].DietActive())
	assert.NoError(t, mock.ExpectationsWereMet())
}
