package model

import "time"

// Auction status values.
const (
    AuctionOpen      = "OPEN"
    AuctionClosed    = "CLOSED"
    AuctionCancelled = "CANCELLED"
)

// Auction offers a vacant stall to the highest bidder.  While OPEN the
// stall sits in AUCTION status; closing awards a lease to the winning bid
// (or returns the stall to VACANT when nobody bid).
type Auction struct {
    ID               uint64     `json:"id"`                  // auctions.id
    StallID          uint64     `json:"stall_id"`            // auctions.stall_id
    OpenedBy         uint64     `json:"opened_by"`           // auctions.opened_by (manager user id)
    FloorCents       uint64     `json:"floor_cents"`         // auctions.floor_cents (minimum bid)
    Status           string     `json:"status"`              // auctions.status
    WinningBidID     uint64     `json:"winning_bid_id"`      // auctions.winning_bid_id (0 until closed with a winner)
    OpenedAt         time.Time  `json:"opened_at"`           // auctions.opened_at
    ClosedAt         *time.Time `json:"closed_at,omitempty"` // auctions.closed_at (nullable)
}

// Bid is one offer inside an auction.  Bids are append-only and must strictly
// exceed the current best to be accepted.
type Bid struct {
    ID          uint64    `json:"id"`           // bids.id
    AuctionID   uint64    `json:"auction_id"`   // bids.auction_id
    BidderID    uint64    `json:"bidder_id"`    // bids.bidder_id (user)
    AmountCents uint64    `json:"amount_cents"` // bids.amount_cents
    PlacedAt    time.Time `json:"placed_at"`    // bids.placed_at
}
