// Package queue defines message payloads exchanged over the message broker.
package queue

// PaymentRecordedEvent is published when a collector records a rent payment.
// It carries enough for downstream consumers (ledger, notifications,
// analytics) to act without querying the primary database.
type PaymentRecordedEvent struct {
    PaymentID   uint64 `json:"payment_id"`
    LeaseID     uint64 `json:"lease_id"`
    StallID     uint64 `json:"stall_id"`
    BranchID    uint64 `json:"branch_id"`
    HolderID    uint64 `json:"holder_id"`
    CollectorID uint64 `json:"collector_id"`
    ORNumber    string `json:"or_number"`
    AmountCents uint64 `json:"amount_cents"`
    Period      string `json:"period"`
    PaidAt      string `json:"paid_at"`
}

// AuctionClosedEvent is published when a branch manager closes an auction.
// WinnerID is zero when the auction closed without a single bid.
type AuctionClosedEvent struct {
    AuctionID   uint64 `json:"auction_id"`
    StallID     uint64 `json:"stall_id"`
    StallCode   string `json:"stall_code"`
    BranchID    uint64 `json:"branch_id"`
    WinnerID    uint64 `json:"winner_id"`
    AmountCents uint64 `json:"amount_cents"`
    ClosedAt    string `json:"closed_at"`
}
