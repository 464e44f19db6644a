package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/stall-rental/internal/model"
)

// ErrStallNotFound is returned when a stall cannot be found in the DB.
var ErrStallNotFound = errors.New("stall not found")

const stallColumns = "id, branch_id, code, section, area_sqm, monthly_rate_cents, status, created_at, updated_at"

// StallRepo encapsulates all database queries related to stalls.  Status
// transitions that span multiple tables (awarding a lease, opening an
// auction) run inside transactions owned by the caller via the Tx variants.
type StallRepo struct {
	db *sql.DB
}

// NewStallRepo constructs a StallRepo with the provided DB handle.
func NewStallRepo(db *sql.DB) *StallRepo { return &StallRepo{db: db} }

func scanStall(row interface{ Scan(...any) error }) (model.Stall, error) {
	var s model.Stall
	err := row.Scan(&s.ID, &s.BranchID, &s.Code, &s.Section, &s.AreaSqm, &s.MonthlyRateCents, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// Create inserts a stall in VACANT status.  A duplicate (branch, code) pair
// maps to ErrConflict.
func (r *StallRepo) Create(ctx context.Context, s *model.Stall) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO stalls (branch_id, code, section, area_sqm, monthly_rate_cents, status) VALUES (?,?,?,?,?,?)",
		s.BranchID, s.Code, s.Section, s.AreaSqm, s.MonthlyRateCents, model.StallVacant)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	got, err := r.GetByID(ctx, s.ID)
	if err != nil {
		return err
	}
	*s = *got
	return nil
}

// GetByID fetches a stall by id.  Returns ErrStallNotFound for a miss.
func (r *StallRepo) GetByID(ctx context.Context, id uint64) (*model.Stall, error) {
	s, err := scanStall(r.db.QueryRowContext(ctx, "SELECT "+stallColumns+" FROM stalls WHERE id=?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStallNotFound
		}
		return nil, err
	}
	return &s, nil
}

// ListByBranch returns stalls of a branch, optionally filtered by status
// (empty status means all).
func (r *StallRepo) ListByBranch(ctx context.Context, branchID uint64, status string) ([]model.Stall, error) {
	q := "SELECT " + stallColumns + " FROM stalls WHERE branch_id=?"
	args := []any{branchID}
	if status != "" {
		q += " AND status=?"
		args = append(args, status)
	}
	q += " ORDER BY code"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Stall
	for rows.Next() {
		s, err := scanStall(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Update changes descriptive fields (section, area, rate).  Status is not
// touched here; it only moves through the transition methods below.
func (r *StallRepo) Update(ctx context.Context, id uint64, section string, areaSqm float64, rateCents uint64) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE stalls SET section=?, area_sqm=?, monthly_rate_cents=? WHERE id=?",
		section, areaSqm, rateCents, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetStatus moves a stall from one status to another.  The compare-and-swap
// WHERE clause is what enforces the state machine: a transition whose
// precondition no longer holds (someone else moved the stall first) updates
// zero rows and surfaces as ErrConflict.
func (r *StallRepo) SetStatus(ctx context.Context, id uint64, from, to string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE stalls SET status=? WHERE id=? AND status=?", to, id, from)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

// SetStatusTx is SetStatus inside a caller-owned transaction, used by the
// application-approval and auction-close flows.
func (r *StallRepo) SetStatusTx(ctx context.Context, tx *sql.Tx, id uint64, from, to string) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE stalls SET status=? WHERE id=? AND status=?", to, id, from)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}
