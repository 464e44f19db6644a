package model

import "time"

// Application status values.  PENDING applications can move to any of the
// three terminal states; nothing moves out of a terminal state.
const (
    ApplicationPending   = "PENDING"
    ApplicationApproved  = "APPROVED"
    ApplicationRejected  = "REJECTED"
    ApplicationWithdrawn = "WITHDRAWN"
)

// Application is an applicant's request to rent a specific vacant stall.
// Approval creates a lease and promotes the applicant to stallholder.
type Application struct {
    ID           uint64     `json:"id"`            // applications.id
    ApplicantID  uint64     `json:"applicant_id"`  // applications.applicant_id
    StallID      uint64     `json:"stall_id"`      // applications.stall_id
    BusinessName string     `json:"business_name"` // applications.business_name
    BusinessType string     `json:"business_type"` // applications.business_type
    Status       string     `json:"status"`        // applications.status
    Remarks      string     `json:"remarks"`       // applications.remarks (reviewer notes)
    DecidedBy    uint64     `json:"decided_by"`    // applications.decided_by (manager user id, 0 while pending)
    DecidedAt    *time.Time `json:"decided_at"`    // applications.decided_at (nullable)
    CreatedAt    time.Time  `json:"created_at"`    // applications.created_at
    UpdatedAt    time.Time  `json:"updated_at"`    // applications.updated_at
}
