package model

import "time"

// Stall status values.  A stall is VACANT until an application is approved
// or an auction is won, OCCUPIED while a lease is active, AUCTION while
// bidding is open, and MAINTENANCE when pulled from circulation by the
// branch manager.
const (
    StallVacant      = "VACANT"
    StallOccupied    = "OCCUPIED"
    StallAuction     = "AUCTION"
    StallMaintenance = "MAINTENANCE"
)

// Stall is a rentable unit inside a branch.  Code is unique per branch
// (e.g. "A-12").  MonthlyRateCents is the base rent; auctions may settle
// above it.
type Stall struct {
    ID               uint64    `json:"id"`                 // stalls.id
    BranchID         uint64    `json:"branch_id"`          // stalls.branch_id
    Code             string    `json:"code"`               // stalls.code
    Section          string    `json:"section"`            // stalls.section (e.g. "dry goods", "wet market")
    AreaSqm          float64   `json:"area_sqm"`           // stalls.area_sqm
    MonthlyRateCents uint64    `json:"monthly_rate_cents"` // stalls.monthly_rate_cents
    Status           string    `json:"status"`             // stalls.status
    CreatedAt        time.Time `json:"created_at"`         // stalls.created_at
    UpdatedAt        time.Time `json:"updated_at"`         // stalls.updated_at
}
