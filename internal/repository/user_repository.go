package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/stall-rental/internal/model"
	"github.com/iliyamo/stall-rental/internal/utils"
)

// UserRepo is the credential store contract over the 'users' table.  The
// legacy system kept one table per role with its logic inside stored
// procedures; here the same call surface (lookup, create, record login,
// deactivate) runs against a single role-tagged table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a credential and returns its ID.  Username uniqueness is
// per role namespace, enforced by the (role, username) unique key.
func (r *UserRepo) Create(ctx context.Context, username, password string, role model.Role, branchID uint64, cost int) (uint64, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, role, branch_id) VALUES (?,?,?,?)",
		username, hash, role.String(), branchID)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrUsernameExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByUsernameAndRole fetches a credential inside one role namespace.  The
// caller gets sql.ErrNoRows for a miss and must fold that into the same
// "invalid credentials" answer as a password mismatch.
func (r *UserRepo) GetByUsernameAndRole(ctx context.Context, username string, role model.Role) (model.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	var u model.User
	var roleStr string
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,username,password_hash,role,branch_id,is_active,last_login_at,created_at,updated_at FROM users WHERE username=? AND role=? LIMIT 1",
		username, role.String()).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &roleStr, &u.BranchID, &u.IsActive, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt)
	u.Role = model.Role(roleStr)
	return u, err
}

// GetByID fetches a credential by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	var roleStr string
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,username,password_hash,role,branch_id,is_active,last_login_at,created_at,updated_at FROM users WHERE id=? LIMIT 1",
		id).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &roleStr, &u.BranchID, &u.IsActive, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt)
	u.Role = model.Role(roleStr)
	return u, err
}

// TouchLastLogin records the moment of a successful login.
func (r *UserRepo) TouchLastLogin(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET last_login_at=NOW() WHERE id=?", id)
	return err
}

// SetRole reassigns a credential's role.  Only the administrator handlers
// call this; everywhere else the role is immutable.
func (r *UserRepo) SetRole(ctx context.Context, id uint64, role model.Role) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET role=? WHERE id=?", role.String(), id)
	return err
}

// Deactivate soft-deletes a credential.  Rows are never physically removed;
// an inactive account simply can no longer log in.
func (r *UserRepo) Deactivate(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET is_active=0 WHERE id=?", id)
	return err
}

// ListByRole returns credentials with the given role, optionally scoped to a
// branch (branchID 0 means all branches).  Password hashes are cleared
// before the rows leave the repository.
func (r *UserRepo) ListByRole(ctx context.Context, role model.Role, branchID uint64) ([]model.User, error) {
	q := "SELECT id,username,password_hash,role,branch_id,is_active,last_login_at,created_at,updated_at FROM users WHERE role=?"
	args := []any{role.String()}
	if branchID != 0 {
		q += " AND branch_id=?"
		args = append(args, branchID)
	}
	q += " ORDER BY username"
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		var u model.User
		var roleStr string
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &roleStr, &u.BranchID, &u.IsActive, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		u.Role = model.Role(roleStr)
		u.PasswordHash = ""
		out = append(out, u)
	}
	return out, rows.Err()
}
