package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/stall-rental/internal/model"
)

const paymentColumns = "id, lease_id, collector_id, or_number, amount_cents, period, paid_at"

// PaymentRepo records rent collections.  Payments are append-only: a wrong
// entry is corrected by a follow-up adjustment, never by editing history.
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo returns a new PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

func scanPayment(row interface{ Scan(...any) error }) (model.Payment, error) {
	var p model.Payment
	err := row.Scan(&p.ID, &p.LeaseID, &p.CollectorID, &p.ORNumber, &p.AmountCents, &p.Period, &p.PaidAt)
	return p, err
}

// Create records one payment.  A reused OR number trips the unique key and
// maps to ErrConflict.
func (r *PaymentRepo) Create(ctx context.Context, p *model.Payment) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO payments (lease_id, collector_id, or_number, amount_cents, period, paid_at) VALUES (?,?,?,?,?,NOW())",
		p.LeaseID, p.CollectorID, p.ORNumber, p.AmountCents, p.Period)
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
	p.ID = uint64(id)
	got, err := scanPayment(r.db.QueryRowContext(ctx,
		"SELECT "+paymentColumns+" FROM payments WHERE id=?", p.ID))
	if err != nil {
		return err
	}
	*p = got
	return nil
}

// ListByLease returns payments against one lease, newest first.
func (r *PaymentRepo) ListByLease(ctx context.Context, leaseID uint64) ([]model.Payment, error) {
	return r.list(ctx,
		"SELECT "+paymentColumns+" FROM payments WHERE lease_id=? ORDER BY id DESC", leaseID)
}

// ListByHolder returns every payment across the holder's leases.
func (r *PaymentRepo) ListByHolder(ctx context.Context, holderID uint64) ([]model.Payment, error) {
	return r.list(ctx,
		"SELECT p.id, p.lease_id, p.collector_id, p.or_number, p.amount_cents, p.period, p.paid_at "+
			"FROM payments p JOIN leases l ON l.id = p.lease_id WHERE l.holder_id=? ORDER BY p.id DESC", holderID)
}

// ListByBranch returns payments collected in one branch for reporting.
func (r *PaymentRepo) ListByBranch(ctx context.Context, branchID uint64) ([]model.Payment, error) {
	return r.list(ctx,
		"SELECT p.id, p.lease_id, p.collector_id, p.or_number, p.amount_cents, p.period, p.paid_at "+
			"FROM payments p JOIN leases l ON l.id = p.lease_id JOIN stalls s ON s.id = l.stall_id "+
			"WHERE s.branch_id=? ORDER BY p.id DESC", branchID)
}

func (r *PaymentRepo) list(ctx context.Context, q string, args ...any) ([]model.Payment, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
