package model

import "time"

// Branch is one market location operated by the authority.  Every stall,
// employee account and auction hangs off a branch.
type Branch struct {
    ID        uint64    `json:"id"`         // branches.id
    Name      string    `json:"name"`       // branches.name (unique)
    Address   string    `json:"address"`    // branches.address
    IsActive  bool      `json:"is_active"`  // branches.is_active
    CreatedAt time.Time `json:"created_at"` // branches.created_at
    UpdatedAt time.Time `json:"updated_at"` // branches.updated_at
}
