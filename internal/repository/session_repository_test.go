package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/stall-rental/internal/model"
)

func newSessionRepo(t *testing.T) (*SessionRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSessionRepo(db), mock
}

func TestSessionCreateAndGet(t *testing.T) {
	repo, mock := newSessionRepo(t)
	now := time.Now().UTC().Truncate(time.Second)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sessions")).
		WithArgs("sess-1", uint64(7), "applicant", now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), model.Session{
		ID: "sess-1", UserID: 7, Role: model.RoleApplicant,
		LoginTime: now, LastActivity: now, Active: true,
	})
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("FROM sessions WHERE id=?")).
		WithArgs("sess-1").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "user_id", "role", "login_time", "last_activity", "active", "logout_time"}).
			AddRow("sess-1", 7, "applicant", now, now, true, nil))

	s, err := repo.Get(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), s.UserID)
	assert.Equal(t, model.RoleApplicant, s.Role)
	assert.True(t, s.Active)
	assert.Nil(t, s.LogoutTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionTouchOnlyActiveRows(t *testing.T) {
	repo, mock := newSessionRepo(t)
	at := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE sessions SET last_activity=? WHERE id=? AND active=1")).
		WithArgs(at, "sess-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Touch(context.Background(), "sess-1", at))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionEndIdempotentStatement(t *testing.T) {
	repo, mock := newSessionRepo(t)
	at := time.Now().UTC()

	// Ending an already-ended session matches zero rows and is still a
	// successful call.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE sessions SET active=0, logout_time=? WHERE id=? AND active=1")).
		WithArgs(at, "sess-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.End(context.Background(), "sess-1", at))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionExpireStaleCount(t *testing.T) {
	repo, mock := newSessionRepo(t)
	cutoff := time.Now().UTC().Add(-15 * time.Minute)

	mock.ExpectExec(regexp.QuoteMeta("WHERE active=1 AND last_activity < ?")).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.ExpireStale(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
