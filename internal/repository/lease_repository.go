package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/stall-rental/internal/model"
)

// ErrLeaseNotFound is returned when a lease cannot be found.
var ErrLeaseNotFound = errors.New("lease not found")

const leaseColumns = "id, stall_id, holder_id, monthly_rate_cents, started_at, ended_at, active"

// LeaseRepo manages stall leases.  Leases are only ever created inside the
// approval/auction transactions, so creation is Tx-only.
type LeaseRepo struct {
	db *sql.DB
}

// NewLeaseRepo returns a new LeaseRepo bound to the given database.
func NewLeaseRepo(db *sql.DB) *LeaseRepo { return &LeaseRepo{db: db} }

func scanLease(row interface{ Scan(...any) error }) (model.Lease, error) {
	var l model.Lease
	err := row.Scan(&l.ID, &l.StallID, &l.HolderID, &l.MonthlyRateCents, &l.StartedAt, &l.EndedAt, &l.Active)
	return l, err
}

// CreateTx inserts an active lease within the scope of an existing
// transaction and populates the generated ID.  The caller must commit or
// rollback the transaction.
func (r *LeaseRepo) CreateTx(ctx context.Context, tx *sql.Tx, l *model.Lease) error {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO leases (stall_id, holder_id, monthly_rate_cents, started_at, active) VALUES (?,?,?,NOW(),1)",
		l.StallID, l.HolderID, l.MonthlyRateCents)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	l.ID = uint64(id)
	l.Active = true
	return nil
}

// GetActiveByID fetches a lease that is still running.
func (r *LeaseRepo) GetActiveByID(ctx context.Context, id uint64) (*model.Lease, error) {
	l, err := scanLease(r.db.QueryRowContext(ctx,
		"SELECT "+leaseColumns+" FROM leases WHERE id=? AND active=1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLeaseNotFound
		}
		return nil, err
	}
	return &l, nil
}

// ListByHolder returns a stallholder's leases, active first.
func (r *LeaseRepo) ListByHolder(ctx context.Context, holderID uint64) ([]model.Lease, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+leaseColumns+" FROM leases WHERE holder_id=? ORDER BY active DESC, id DESC", holderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Lease
	for rows.Next() {
		l, err := scanLease(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Terminate ends an active lease; idempotent by the active=1 guard.
func (r *LeaseRepo) Terminate(ctx context.Context, id uint64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE leases SET active=0, ended_at=NOW() WHERE id=? AND active=1", id)
	return err
}
