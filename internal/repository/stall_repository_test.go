package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/stall-rental/internal/model"
)

func newStallRepo(t *testing.T) (*StallRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStallRepo(db), mock
}

func TestStallSetStatus(t *testing.T) {
	repo, mock := newStallRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE stalls SET status=? WHERE id=? AND status=?")).
		WithArgs(model.StallOccupied, uint64(5), model.StallVacant).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetStatus(context.Background(), 5, model.StallVacant, model.StallOccupied))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStallSetStatusLostRace(t *testing.T) {
	repo, mock := newStallRepo(t)

	// Zero matched rows means the precondition no longer held: somebody
	// else moved the stall first.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE stalls SET status=? WHERE id=? AND status=?")).
		WithArgs(model.StallAuction, uint64(5), model.StallVacant).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetStatus(context.Background(), 5, model.StallVacant, model.StallAuction)
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStallSetStatusTx(t *testing.T) {
	repo, mock := newStallRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE stalls SET status=? WHERE id=? AND status=?")).
		WithArgs(model.StallVacant, uint64(9), model.StallAuction).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := repo.db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, repo.SetStatusTx(context.Background(), tx, 9, model.StallAuction, model.StallVacant))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}
