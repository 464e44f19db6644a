package model

import "time"

// Document kinds accepted on applications and leases.
const (
    DocumentPermit     = "PERMIT"
    DocumentValidID    = "VALID_ID"
    DocumentClearance  = "CLEARANCE"
    DocumentInspection = "INSPECTION"
    DocumentOther      = "OTHER"
)

// Document is the metadata record for one uploaded file.  The bytes live on
// disk under the configured upload directory; only the path is persisted.
type Document struct {
    ID            uint64    `json:"id"`             // documents.id
    OwnerID       uint64    `json:"owner_id"`       // documents.owner_id (uploading user)
    ApplicationID uint64    `json:"application_id"` // documents.application_id (0 when unattached)
    Kind          string    `json:"kind"`           // documents.kind
    Filename      string    `json:"filename"`       // documents.filename (original client name)
    StoredPath    string    `json:"stored_path"`    // documents.stored_path (relative to upload dir)
    SizeBytes     int64     `json:"size_bytes"`     // documents.size_bytes
    UploadedAt    time.Time `json:"uploaded_at"`    // documents.uploaded_at
}
