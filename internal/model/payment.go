package model

import "time"

// Payment is one rent collection against a lease, recorded in the field by a
// collector.  ORNumber is the official receipt number and must be unique.
// Period is the month being paid for in "YYYY-MM" form.
type Payment struct {
    ID          uint64    `json:"id"`           // payments.id
    LeaseID     uint64    `json:"lease_id"`     // payments.lease_id
    CollectorID uint64    `json:"collector_id"` // payments.collector_id (user)
    ORNumber    string    `json:"or_number"`    // payments.or_number (unique)
    AmountCents uint64    `json:"amount_cents"` // payments.amount_cents
    Period      string    `json:"period"`       // payments.period
    PaidAt      time.Time `json:"paid_at"`      // payments.paid_at
}
