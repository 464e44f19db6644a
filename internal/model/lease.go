package model

import "time"

// Lease binds a stallholder to a stall at an agreed monthly rate.  Created
// when an application is approved or an auction is won; terminated when the
// stall is surrendered or repossessed.
type Lease struct {
    ID               uint64     `json:"id"`                 // leases.id
    StallID          uint64     `json:"stall_id"`           // leases.stall_id
    HolderID         uint64     `json:"holder_id"`          // leases.holder_id (user)
    MonthlyRateCents uint64     `json:"monthly_rate_cents"` // leases.monthly_rate_cents
    StartedAt        time.Time  `json:"started_at"`         // leases.started_at
    EndedAt          *time.Time `json:"ended_at"`           // leases.ended_at (null while active)
    Active           bool       `json:"active"`             // leases.active
}
