package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/stall-rental/internal/model"
)

// ErrBranchNotFound is returned when a branch cannot be found in the DB.
var ErrBranchNotFound = errors.New("branch not found")

// BranchRepo encapsulates all database queries related to market branches.
type BranchRepo struct {
	db *sql.DB
}

// NewBranchRepo constructs a BranchRepo with the provided DB handle.
func NewBranchRepo(db *sql.DB) *BranchRepo { return &BranchRepo{db: db} }

// Create inserts a new branch.  On success the branch's ID, CreatedAt and
// UpdatedAt fields are populated from the stored row.
func (r *BranchRepo) Create(ctx context.Context, b *model.Branch) error {
	const qInsert = "INSERT INTO branches (name, address) VALUES (?, ?)"
	res, err := r.db.ExecContext(ctx, qInsert, b.Name, b.Address)
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
	b.ID = uint64(id)

	const qSelect = "SELECT is_active, created_at, updated_at FROM branches WHERE id = ?"
	return r.db.QueryRowContext(ctx, qSelect, b.ID).Scan(&b.IsActive, &b.CreatedAt, &b.UpdatedAt)
}

// GetByID fetches a branch by its ID.  Returns ErrBranchNotFound for a miss.
func (r *BranchRepo) GetByID(ctx context.Context, id uint64) (*model.Branch, error) {
	const q = "SELECT id, name, address, is_active, created_at, updated_at FROM branches WHERE id = ?"
	var b model.Branch
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&b.ID, &b.Name, &b.Address, &b.IsActive, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBranchNotFound
		}
		return nil, err
	}
	return &b, nil
}

// List returns all branches, active first, newest last.
func (r *BranchRepo) List(ctx context.Context) ([]model.Branch, error) {
	const q = "SELECT id, name, address, is_active, created_at, updated_at FROM branches ORDER BY is_active DESC, id"
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Branch
	for rows.Next() {
		var b model.Branch
		if err := rows.Scan(&b.ID, &b.Name, &b.Address, &b.IsActive, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Update renames or re-addresses a branch.  sql.ErrNoRows signals a missing
// row so handlers can answer 404.
func (r *BranchRepo) Update(ctx context.Context, id uint64, name, address string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE branches SET name=?, address=? WHERE id=?", name, address, id)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrConflict
		}
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

// Deactivate soft-closes a branch.  Stalls and accounts under it remain for
// the record but the branch stops showing as active.
func (r *BranchRepo) Deactivate(ctx context.Context, id uint64) error {
	_, err := r.db.ExecContext(ctx, "UPDATE branches SET is_active=0 WHERE id=?", id)
	return err
}
