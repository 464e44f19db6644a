package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/stall-rental/internal/model"
)

// ErrApplicationNotFound is returned when an application cannot be found.
var ErrApplicationNotFound = errors.New("application not found")

const applicationColumns = "id, applicant_id, stall_id, business_name, business_type, status, remarks, decided_by, decided_at, created_at, updated_at"

// ApplicationRepo manages stall-rental applications.  The status column is a
// small state machine (PENDING to APPROVED/REJECTED/WITHDRAWN) and every
// transition is guarded by a compare-and-swap on the current status so that
// two reviewers racing on the same application cannot both win.
type ApplicationRepo struct {
	db *sql.DB
}

// NewApplicationRepo returns a new ApplicationRepo bound to the given database.
func NewApplicationRepo(db *sql.DB) *ApplicationRepo { return &ApplicationRepo{db: db} }

func scanApplication(row interface{ Scan(...any) error }) (model.Application, error) {
	var a model.Application
	var decidedBy sql.NullInt64
	err := row.Scan(&a.ID, &a.ApplicantID, &a.StallID, &a.BusinessName, &a.BusinessType,
		&a.Status, &a.Remarks, &decidedBy, &a.DecidedAt, &a.CreatedAt, &a.UpdatedAt)
	if decidedBy.Valid {
		a.DecidedBy = uint64(decidedBy.Int64)
	}
	return a, err
}

// Create files a PENDING application.
func (r *ApplicationRepo) Create(ctx context.Context, a *model.Application) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO applications (applicant_id, stall_id, business_name, business_type, status) VALUES (?,?,?,?,?)",
		a.ApplicantID, a.StallID, a.BusinessName, a.BusinessType, model.ApplicationPending)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	got, err := r.GetByID(ctx, a.ID)
	if err != nil {
		return err
	}
	*a = *got
	return nil
}

// GetByID fetches an application.  Returns ErrApplicationNotFound for a miss.
func (r *ApplicationRepo) GetByID(ctx context.Context, id uint64) (*model.Application, error) {
	a, err := scanApplication(r.db.QueryRowContext(ctx,
		"SELECT "+applicationColumns+" FROM applications WHERE id=?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	return &a, nil
}

// HasPendingForStall reports whether the applicant already has a live
// application on this stall, to stop duplicate filings.
func (r *ApplicationRepo) HasPendingForStall(ctx context.Context, applicantID, stallID uint64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM applications WHERE applicant_id=? AND stall_id=? AND status=?",
		applicantID, stallID, model.ApplicationPending).Scan(&n)
	return n > 0, err
}

// ListByApplicant returns the applicant's own filings, newest first.
func (r *ApplicationRepo) ListByApplicant(ctx context.Context, applicantID uint64) ([]model.Application, error) {
	return r.list(ctx,
		"SELECT "+applicationColumns+" FROM applications WHERE applicant_id=? ORDER BY id DESC", applicantID)
}

// ListByBranch returns applications targeting stalls of one branch, with
// pending ones first so reviewers see their queue on top.
func (r *ApplicationRepo) ListByBranch(ctx context.Context, branchID uint64) ([]model.Application, error) {
	return r.list(ctx,
		"SELECT a.id, a.applicant_id, a.stall_id, a.business_name, a.business_type, a.status, a.remarks, a.decided_by, a.decided_at, a.created_at, a.updated_at "+
			"FROM applications a JOIN stalls s ON s.id = a.stall_id WHERE s.branch_id=? "+
			"ORDER BY a.status='PENDING' DESC, a.id DESC", branchID)
}

func (r *ApplicationRepo) list(ctx context.Context, q string, args ...any) ([]model.Application, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Decide moves a PENDING application to a terminal status and records who
// decided and why.  ErrConflict means the application was no longer pending.
func (r *ApplicationRepo) Decide(ctx context.Context, id uint64, status, remarks string, decidedBy uint64) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE applications SET status=?, remarks=?, decided_by=?, decided_at=NOW() WHERE id=? AND status=?",
		status, remarks, decidedBy, id, model.ApplicationPending)
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

// DecideTx is Decide inside a caller-owned transaction; approval couples the
// status flip with the lease insert and the stall transition.
func (r *ApplicationRepo) DecideTx(ctx context.Context, tx *sql.Tx, id uint64, status, remarks string, decidedBy uint64) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE applications SET status=?, remarks=?, decided_by=?, decided_at=NOW() WHERE id=? AND status=?",
		status, remarks, decidedBy, id, model.ApplicationPending)
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

// Withdraw lets an applicant pull their own PENDING filing.  The applicant
// id in the WHERE clause doubles as the ownership check.
func (r *ApplicationRepo) Withdraw(ctx context.Context, id, applicantID uint64) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE applications SET status=? WHERE id=? AND applicant_id=? AND status=?",
		model.ApplicationWithdrawn, id, applicantID, model.ApplicationPending)
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
