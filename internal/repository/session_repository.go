package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/stall-rental/internal/model"
)

// SessionRepo is the MySQL backing store for the session tracker.  It keeps
// the 'sessions' table dumb on purpose: liveness policy (staleness window,
// lazy expiry) lives in the tracker, this type only reads and writes rows.
type SessionRepo struct{ DB *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{DB: db} }

// Create inserts a new active session row.
func (r *SessionRepo) Create(ctx context.Context, s model.Session) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO sessions (id, user_id, role, login_time, last_activity, active) VALUES (?,?,?,?,?,1)",
		s.ID, s.UserID, s.Role.String(), s.LoginTime, s.LastActivity)
	return err
}

// Get fetches one session by id.  Missing rows surface as sql.ErrNoRows.
func (r *SessionRepo) Get(ctx context.Context, id string) (model.Session, error) {
	var s model.Session
	var roleStr string
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, role, login_time, last_activity, active, logout_time FROM sessions WHERE id=? LIMIT 1",
		id).Scan(&s.ID, &s.UserID, &roleStr, &s.LoginTime, &s.LastActivity, &s.Active, &s.LogoutTime)
	s.Role = model.Role(roleStr)
	return s, err
}

// Touch bumps last_activity, but only while the session is still active.
// Concurrent touches race harmlessly: each write carries its own wall-clock
// timestamp and the last writer wins.
func (r *SessionRepo) Touch(ctx context.Context, id string, at time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE sessions SET last_activity=? WHERE id=? AND active=1",
		at, id)
	return err
}

// End closes a session.  The guard on active=1 makes the statement
// idempotent: ending an already ended session updates zero rows and keeps
// the original logout_time.
func (r *SessionRepo) End(ctx context.Context, id string, at time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE sessions SET active=0, logout_time=? WHERE id=? AND active=1",
		at, id)
	return err
}

// ExpireStale closes every active session whose last activity is older than
// the cutoff and returns how many were closed.  The sweeper and the lazy
// per-request check both derive their cutoff from the same configured
// threshold so the two mechanisms agree on what "active" means.
func (r *SessionRepo) ExpireStale(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE sessions SET active=0, logout_time=NOW() WHERE active=1 AND last_activity < ?",
		cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
