package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/stall-rental/internal/model"
)

// ErrAuctionNotFound is returned when an auction cannot be found.
var ErrAuctionNotFound = errors.New("auction not found")

// ErrBidTooLow is returned when a bid does not beat the current best (or the
// floor when no bids exist yet).
var ErrBidTooLow = errors.New("bid too low")

const auctionColumns = "id, stall_id, opened_by, floor_cents, status, winning_bid_id, opened_at, closed_at"

// AuctionRepo manages vacant-stall auctions and their bids.  Placing a bid
// and closing an auction both run inside transactions: the highest-bid
// check and the insert (or the status flip and the award) have to be one
// atomic step or two racing bidders could both "win".
type AuctionRepo struct {
	db *sql.DB
}

// NewAuctionRepo returns a new AuctionRepo bound to the given database.
func NewAuctionRepo(db *sql.DB) *AuctionRepo { return &AuctionRepo{db: db} }

func scanAuction(row interface{ Scan(...any) error }) (model.Auction, error) {
	var a model.Auction
	var winning sql.NullInt64
	err := row.Scan(&a.ID, &a.StallID, &a.OpenedBy, &a.FloorCents, &a.Status, &winning, &a.OpenedAt, &a.ClosedAt)
	if winning.Valid {
		a.WinningBidID = uint64(winning.Int64)
	}
	return a, err
}

// CreateTx opens an auction inside a caller-owned transaction (paired with
// the stall's VACANT->AUCTION transition).
func (r *AuctionRepo) CreateTx(ctx context.Context, tx *sql.Tx, a *model.Auction) error {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO auctions (stall_id, opened_by, floor_cents, status, opened_at) VALUES (?,?,?,?,NOW())",
		a.StallID, a.OpenedBy, a.FloorCents, model.AuctionOpen)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	a.Status = model.AuctionOpen
	return nil
}

// GetByID fetches an auction.  Returns ErrAuctionNotFound for a miss.
func (r *AuctionRepo) GetByID(ctx context.Context, id uint64) (*model.Auction, error) {
	a, err := scanAuction(r.db.QueryRowContext(ctx,
		"SELECT "+auctionColumns+" FROM auctions WHERE id=?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAuctionNotFound
		}
		return nil, err
	}
	return &a, nil
}

// ListOpen returns open auctions, optionally scoped to a branch.
func (r *AuctionRepo) ListOpen(ctx context.Context, branchID uint64) ([]model.Auction, error) {
	q := "SELECT a.id, a.stall_id, a.opened_by, a.floor_cents, a.status, a.winning_bid_id, a.opened_at, a.closed_at " +
		"FROM auctions a"
	args := []any{}
	if branchID != 0 {
		q += " JOIN stalls s ON s.id = a.stall_id WHERE a.status=? AND s.branch_id=?"
		args = append(args, model.AuctionOpen, branchID)
	} else {
		q += " WHERE a.status=?"
		args = append(args, model.AuctionOpen)
	}
	q += " ORDER BY a.id DESC"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Auction
	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// PlaceBid appends a bid after verifying the auction is open and the amount
// strictly beats the current best (or meets the floor).  FOR UPDATE pins the
// auction row so concurrent bids serialize.
func (r *AuctionRepo) PlaceBid(ctx context.Context, b *model.Bid) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var status string
	var floor uint64
	err = tx.QueryRowContext(ctx,
		"SELECT status, floor_cents FROM auctions WHERE id=? FOR UPDATE", b.AuctionID).
		Scan(&status, &floor)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrAuctionNotFound
		}
		return err
	}
	if status != model.AuctionOpen {
		return ErrConflict
	}

	var best sql.NullInt64
	if err := tx.QueryRowContext(ctx,
		"SELECT MAX(amount_cents) FROM bids WHERE auction_id=?", b.AuctionID).Scan(&best); err != nil {
		return err
	}
	min := floor
	if best.Valid && uint64(best.Int64) >= min {
		min = uint64(best.Int64) + 1
	}
	if b.AmountCents < min {
		return ErrBidTooLow
	}

	res, err := tx.ExecContext(ctx,
		"INSERT INTO bids (auction_id, bidder_id, amount_cents, placed_at) VALUES (?,?,?,NOW())",
		b.AuctionID, b.BidderID, b.AmountCents)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return tx.Commit()
}

// HighestBidTx returns the top bid of an auction inside a transaction, or
// sql.ErrNoRows when nobody bid.
func (r *AuctionRepo) HighestBidTx(ctx context.Context, tx *sql.Tx, auctionID uint64) (model.Bid, error) {
	var b model.Bid
	err := tx.QueryRowContext(ctx,
		"SELECT id, auction_id, bidder_id, amount_cents, placed_at FROM bids WHERE auction_id=? ORDER BY amount_cents DESC, id ASC LIMIT 1",
		auctionID).Scan(&b.ID, &b.AuctionID, &b.BidderID, &b.AmountCents, &b.PlacedAt)
	return b, err
}

// CloseTx flips an OPEN auction to its terminal status and records the
// winning bid (0 means closed without a winner).  ErrConflict means the
// auction was already closed.
func (r *AuctionRepo) CloseTx(ctx context.Context, tx *sql.Tx, id uint64, status string, winningBidID uint64) error {
	var winner any
	if winningBidID != 0 {
		winner = winningBidID
	}
	res, err := tx.ExecContext(ctx,
		"UPDATE auctions SET status=?, winning_bid_id=?, closed_at=NOW() WHERE id=? AND status=?",
		status, winner, id, model.AuctionOpen)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

// ListBids returns an auction's bids, highest first.
func (r *AuctionRepo) ListBids(ctx context.Context, auctionID uint64) ([]model.Bid, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, auction_id, bidder_id, amount_cents, placed_at FROM bids WHERE auction_id=? ORDER BY amount_cents DESC, id ASC",
		auctionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Bid
	for rows.Next() {
		var b model.Bid
		if err := rows.Scan(&b.ID, &b.AuctionID, &b.BidderID, &b.AmountCents, &b.PlacedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
