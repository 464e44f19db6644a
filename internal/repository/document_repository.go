package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/stall-rental/internal/model"
)

const documentColumns = "id, owner_id, application_id, kind, filename, stored_path, size_bytes, uploaded_at"

// DocumentRepo stores upload metadata.  File bytes live on disk; the row is
// the source of truth for who uploaded what and where it sits.
type DocumentRepo struct {
	db *sql.DB
}

// NewDocumentRepo returns a new DocumentRepo bound to the given database.
func NewDocumentRepo(db *sql.DB) *DocumentRepo { return &DocumentRepo{db: db} }

// Create records one uploaded file.
func (r *DocumentRepo) Create(ctx context.Context, d *model.Document) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO documents (owner_id, application_id, kind, filename, stored_path, size_bytes, uploaded_at) VALUES (?,?,?,?,?,?,NOW())",
		d.OwnerID, d.ApplicationID, d.Kind, d.Filename, d.StoredPath, d.SizeBytes)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	d.ID = uint64(id)
	return r.db.QueryRowContext(ctx,
		"SELECT uploaded_at FROM documents WHERE id=?", d.ID).Scan(&d.UploadedAt)
}

// ListByApplication returns documents attached to an application.
func (r *DocumentRepo) ListByApplication(ctx context.Context, applicationID uint64) ([]model.Document, error) {
	return r.list(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE application_id=? ORDER BY id", applicationID)
}

// ListByOwner returns everything one user has uploaded.
func (r *DocumentRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Document, error) {
	return r.list(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE owner_id=? ORDER BY id", ownerID)
}

func (r *DocumentRepo) list(ctx context.Context, q string, args ...any) ([]model.Document, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Document
	for rows.Next() {
		var d model.Document
		if err := rows.Scan(&d.ID, &d.OwnerID, &d.ApplicationID, &d.Kind, &d.Filename, &d.StoredPath, &d.SizeBytes, &d.UploadedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
