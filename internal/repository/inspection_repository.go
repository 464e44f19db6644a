package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/stall-rental/internal/model"
)

// InspectionRepo stores stall inspection reports.
type InspectionRepo struct {
	db *sql.DB
}

// NewInspectionRepo returns a new InspectionRepo bound to the given database.
func NewInspectionRepo(db *sql.DB) *InspectionRepo { return &InspectionRepo{db: db} }

// Create files one report.
func (r *InspectionRepo) Create(ctx context.Context, i *model.Inspection) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO inspections (stall_id, inspector_id, result, remarks, filed_at) VALUES (?,?,?,?,NOW())",
		i.StallID, i.InspectorID, i.Result, i.Remarks)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	i.ID = uint64(id)
	return r.db.QueryRowContext(ctx,
		"SELECT filed_at FROM inspections WHERE id=?", i.ID).Scan(&i.FiledAt)
}

// ListByStall returns a stall's reports, newest first.
func (r *InspectionRepo) ListByStall(ctx context.Context, stallID uint64) ([]model.Inspection, error) {
	return r.list(ctx,
		"SELECT id, stall_id, inspector_id, result, remarks, filed_at FROM inspections WHERE stall_id=? ORDER BY id DESC", stallID)
}

// ListByBranch returns reports filed across one branch.
func (r *InspectionRepo) ListByBranch(ctx context.Context, branchID uint64) ([]model.Inspection, error) {
	return r.list(ctx,
		"SELECT i.id, i.stall_id, i.inspector_id, i.result, i.remarks, i.filed_at "+
			"FROM inspections i JOIN stalls s ON s.id = i.stall_id WHERE s.branch_id=? ORDER BY i.id DESC", branchID)
}

func (r *InspectionRepo) list(ctx context.Context, q string, args ...any) ([]model.Inspection, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Inspection
	for rows.Next() {
		var i model.Inspection
		if err := rows.Scan(&i.ID, &i.StallID, &i.InspectorID, &i.Result, &i.Remarks, &i.FiledAt); err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}
