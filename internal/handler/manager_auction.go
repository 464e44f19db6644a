package handler

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stall-rental/internal/model"
	"github.com/iliyamo/stall-rental/internal/queue"
	"github.com/iliyamo/stall-rental/internal/repository"
	queue_publisher "github.com/iliyamo/stall-rental/internal/service"
)

// OpenAuction handles POST /v1/manager/auctions.  The stall moves
// VACANT->AUCTION and the auction row is created in the same transaction, so
// a stall can never sit in AUCTION status without an open auction behind it.
func (h *ManagerHandler) OpenAuction(c echo.Context) error {
	branchID, err := h.managerBranch(c)
	if err != nil {
		return fail(c, http.StatusForbidden, "Forbidden")
	}
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "Unauthorized")
	}
	var body struct {
		StallID    uint64 `json:"stall_id"`
		FloorCents uint64 `json:"floor_cents"`
	}
	if err := c.Bind(&body); err != nil || body.StallID == 0 {
		return fail(c, http.StatusBadRequest, "stall_id is required")
	}

	ctx, cancel := opCtx(c)
	defer cancel()

	stall, err := h.Stalls.GetByID(ctx, body.StallID)
	if err != nil {
		if errors.Is(err, repository.ErrStallNotFound) {
			return fail(c, http.StatusNotFound, "Stall not found")
		}
		return storeFail(c, err)
	}
	if stall.BranchID != branchID {
		return fail(c, http.StatusForbidden, "Forbidden")
	}
	floor := body.FloorCents
	if floor == 0 {
		floor = stall.MonthlyRateCents // default floor is the posted rate
	}

	tx, err := h.DB.BeginTx(ctx, nil)
	if err != nil {
		return storeFail(c, err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := h.Stalls.SetStatusTx(ctx, tx, stall.ID, model.StallVacant, model.StallAuction); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return fail(c, http.StatusConflict, "Stall is not vacant")
		}
		return storeFail(c, err)
	}
	a := &model.Auction{StallID: stall.ID, OpenedBy: uid, FloorCents: floor}
	if err := h.Auctions.CreateTx(ctx, tx, a); err != nil {
		return storeFail(c, err)
	}
	if err := tx.Commit(); err != nil {
		return storeFail(c, err)
	}

	h.Broker.Publish("auction.opened", echo.Map{
		"auctionId":  a.ID,
		"stallId":    stall.ID,
		"stallCode":  stall.Code,
		"floorCents": floor,
	})
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "auction": a})
}

// CloseAuction handles POST /v1/manager/auctions/:id/close.  With at least
// one bid the top bid wins: the auction closes, a lease opens at the bid
// amount, the stall moves AUCTION->OCCUPIED and the winner is promoted to
// stallholder if they were still an applicant.  Without bids the auction
// closes empty and the stall returns to VACANT.
func (h *ManagerHandler) CloseAuction(c echo.Context) error {
	branchID, err := h.managerBranch(c)
	if err != nil {
		return fail(c, http.StatusForbidden, "Forbidden")
	}
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid id")
	}

	ctx, cancel := opCtx(c)
	defer cancel()

	a, err := h.Auctions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrAuctionNotFound) {
			return fail(c, http.StatusNotFound, "Auction not found")
		}
		return storeFail(c, err)
	}
	stall, err := h.Stalls.GetByID(ctx, a.StallID)
	if err != nil {
		return storeFail(c, err)
	}
	if stall.BranchID != branchID {
		return fail(c, http.StatusForbidden, "Forbidden")
	}

	tx, err := h.DB.BeginTx(ctx, nil)
	if err != nil {
		return storeFail(c, err)
	}
	defer func() { _ = tx.Rollback() }()

	best, err := h.Auctions.HighestBidTx(ctx, tx, a.ID)
	noBids := errors.Is(err, sql.ErrNoRows)
	if err != nil && !noBids {
		return storeFail(c, err)
	}

	var lease *model.Lease
	if noBids {
		if err := h.Auctions.CloseTx(ctx, tx, a.ID, model.AuctionClosed, 0); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return fail(c, http.StatusConflict, "Auction is not open")
			}
			return storeFail(c, err)
		}
		if err := h.Stalls.SetStatusTx(ctx, tx, stall.ID, model.StallAuction, model.StallVacant); err != nil {
			return storeFail(c, err)
		}
	} else {
		if err := h.Auctions.CloseTx(ctx, tx, a.ID, model.AuctionClosed, best.ID); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return fail(c, http.StatusConflict, "Auction is not open")
			}
			return storeFail(c, err)
		}
		if err := h.Stalls.SetStatusTx(ctx, tx, stall.ID, model.StallAuction, model.StallOccupied); err != nil {
			return storeFail(c, err)
		}
		lease = &model.Lease{StallID: stall.ID, HolderID: best.BidderID, MonthlyRateCents: best.AmountCents}
		if err := h.Leases.CreateTx(ctx, tx, lease); err != nil {
			return storeFail(c, err)
		}
		// Same promotion rule as application approval.
		if _, err := tx.ExecContext(ctx, "UPDATE users SET role=? WHERE id=? AND role=?",
			model.RoleStallholder.String(), best.BidderID, model.RoleApplicant.String()); err != nil {
			return storeFail(c, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return storeFail(c, err)
	}

	event := queue.AuctionClosedEvent{
		AuctionID:   a.ID,
		StallID:     stall.ID,
		StallCode:   stall.Code,
		BranchID:    stall.BranchID,
		WinnerID:    best.BidderID,
		AmountCents: best.AmountCents,
		ClosedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	if err := queue_publisher.PublishAuctionClosed(ctx, event); err != nil {
		// The ledger consumer can recover from the database; do not fail
		// the request over a broker outage.
		log.Printf("queue publish auction.closed: %v", err)
	}
	h.Broker.Publish("auction.closed", event)

	resp := echo.Map{"success": true, "winner_id": best.BidderID}
	if lease != nil {
		resp["lease"] = lease
	}
	return c.JSON(http.StatusOK, resp)
}

// ListBranchAuctions handles GET /v1/manager/auctions: open auctions in the
// manager's branch.
func (h *ManagerHandler) ListBranchAuctions(c echo.Context) error {
	branchID, err := h.managerBranch(c)
	if err != nil {
		return fail(c, http.StatusForbidden, "Forbidden")
	}
	ctx, cancel := opCtx(c)
	defer cancel()
	items, err := h.Auctions.ListOpen(ctx, branchID)
	if err != nil {
		return storeFail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "auctions": items})
}

// ListAuctionBids handles GET /v1/manager/auctions/:id/bids.
func (h *ManagerHandler) ListAuctionBids(c echo.Context) error {
	branchID, err := h.managerBranch(c)
	if err != nil {
		return fail(c, http.StatusForbidden, "Forbidden")
	}
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid id")
	}
	ctx, cancel := opCtx(c)
	defer cancel()
	a, err := h.Auctions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrAuctionNotFound) {
			return fail(c, http.StatusNotFound, "Auction not found")
		}
		return storeFail(c, err)
	}
	stall, err := h.Stalls.GetByID(ctx, a.StallID)
	if err != nil {
		return storeFail(c, err)
	}
	if stall.BranchID != branchID {
		return fail(c, http.StatusForbidden, "Forbidden")
	}
	bids, err := h.Auctions.ListBids(ctx, id)
	if err != nil {
		return storeFail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "bids": bids})
}
