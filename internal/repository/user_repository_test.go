package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/stall-rental/internal/model"
)

func newUserRepo(t *testing.T) (*UserRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewUserRepo(db), mock
}

func userColumns() []string {
	return []string{"id", "username", "password_hash", "role", "branch_id", "is_active", "last_login_at", "created_at", "updated_at"}
}

func TestUserCreate(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("alice", sqlmock.AnyArg(), "stallholder", uint64(0)).
		WillReturnResult(sqlmock.NewResult(7, 1))

	id, err := repo.Create(context.Background(), "  Alice ", "pw", model.RoleStallholder, 0, bcrypt.MinCost)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreateDuplicateUsername(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'alice-stallholder'"))

	_, err := repo.Create(context.Background(), "alice", "pw", model.RoleStallholder, 0, bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrUsernameExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserGetByUsernameAndRole(t *testing.T) {
	repo, mock := newUserRepo(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE username=? AND role=?")).
		WithArgs("alice", "stallholder").
		WillReturnRows(sqlmock.NewRows(userColumns()).
			AddRow(7, "alice", "$2a$10$hash", "stallholder", 3, true, nil, now, now))

	u, err := repo.GetByUsernameAndRole(context.Background(), "Alice", model.RoleStallholder)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), u.ID)
	assert.Equal(t, model.RoleStallholder, u.Role)
	assert.Equal(t, uint64(3), u.BranchID)
	assert.True(t, u.IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserGetByUsernameAndRoleMiss(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE username=? AND role=?")).
		WithArgs("ghost", "applicant").
		WillReturnRows(sqlmock.NewRows(userColumns()))

	_, err := repo.GetByUsernameAndRole(context.Background(), "ghost", model.RoleApplicant)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserListByRoleClearsHashes(t *testing.T) {
	repo, mock := newUserRepo(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE role=? AND branch_id=?")).
		WithArgs("collector", uint64(2)).
		WillReturnRows(sqlmock.NewRows(userColumns()).
			AddRow(4, "carol", "$2a$10$hash", "collector", 2, true, nil, now, now))

	out, err := repo.ListByRole(context.Background(), model.RoleCollector, 2)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Empty(t, out[0].PasswordHash)
	assert.NoError(t, mock.ExpectationsWereMet())
}
