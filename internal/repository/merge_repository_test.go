package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pps-admin-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestMergeRepositoryRecordIntent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewMergeRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO merge_intents")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	intent := &models.MergeIntent{
		ID:         "intent-1",
		Legajo:     "10234",
		SurvivorID: "real-row",
		LoserIDs:   []string{"ghost-1", "ghost-2"},
		State:      models.IntentStatePending,
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, repo.RecordIntent(context.Background(), intent))
	require.Equal(t, "ghost-1,ghost-2", intent.LoserCSV)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMergeRepositoryExecuteCascadeOrder(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewMergeRepository(db)

	// Rewrites run in a fixed order inside one transaction, losers are
	// deleted last, then the transaction commits.
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollment_requests SET student_id")).
		WithArgs("real-row", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE completion_requests SET student_id")).
		WithArgs("real-row", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE practices SET student_id")).
		WithArgs("real-row", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE pps_requests SET student_id")).
		WithArgs("real-row", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM students WHERE id")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := repo.ExecuteCascade(context.Background(), "real-row", []string{"ghost-1"})
	require.NoError(t, err)
	require.Equal(t, int64(2), result.RewrittenEnrollment)
	require.Equal(t, int64(1), result.RewrittenCompletion)
	require.Equal(t, int64(3), result.RewrittenPractices)
	require.Equal(t, int64(0), result.RewrittenPPS)
	require.Equal(t, int64(1), result.DeletedStudents)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMergeRepositoryExecuteCascadeRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewMergeRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollment_requests SET student_id")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE completion_requests SET student_id")).
		WillReturnError(errors.New("deadlock detected"))
	mock.ExpectRollback()

	_, err := repo.ExecuteCascade(context.Background(), "real-row", []string{"ghost-1"})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMergeRepositoryPendingIntents(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewMergeRepository(db)
	rows := sqlmock.NewRows([]string{"id", "legajo", "survivor_id", "loser_ids", "state", "created_at"}).
		AddRow("intent-1", "10234", "real-row", "ghost-1,ghost-2", models.IntentStatePending, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, legajo, survivor_id, loser_ids, state, created_at")).
		WithArgs(models.IntentStatePending).
		WillReturnRows(rows)

	intents, err := repo.PendingIntents(context.Background())
	require.NoError(t, err)
	require.Len(t, intents, 1)
	require.Equal(t, []string{"ghost-1", "ghost-2"}, intents[0].LoserIDs)
	require.NoError(t, mock.ExpectationsWereMet())
}
