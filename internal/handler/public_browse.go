package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stall-rental/internal/model"
	"github.com/iliyamo/stall-rental/internal/repository"
)

// PublicHandler serves the unauthenticated browse surface.  These routes sit
// behind the response cache and the per-IP rate limiter.
type PublicHandler struct {
	Branches *repository.BranchRepo
	Stalls   *repository.StallRepo
	Auctions *repository.AuctionRepo
}

// ListBranches handles GET /v1/branches.
func (h *PublicHandler) ListBranches(c echo.Context) error {
	ctx, cancel := opCtx(c)
	defer cancel()
	items, err := h.Branches.List(ctx)
	if err != nil {
		return storeFail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "branches": items})
}

var stallStatuses = map[string]struct{}{
	model.StallVacant:      {},
	model.StallOccupied:    {},
	model.StallAuction:     {},
	model.StallMaintenance: {},
}

// ListBranchStalls handles GET /v1/branches/:id/stalls with an optional
// ?status= filter.
func (h *PublicHandler) ListBranchStalls(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid id")
	}
	status := strings.ToUpper(strings.TrimSpace(c.QueryParam("status")))
	if status != "" {
		if _, ok := stallStatuses[status]; !ok {
			return fail(c, http.StatusBadRequest, "Unknown status")
		}
	}
	ctx, cancel := opCtx(c)
	defer cancel()
	if _, err := h.Branches.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrBranchNotFound) {
			return fail(c, http.StatusNotFound, "Branch not found")
		}
		return storeFail(c, err)
	}
	items, err := h.Stalls.ListByBranch(ctx, id, status)
	if err != nil {
		return storeFail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "stalls": items})
}

// GetStall handles GET /v1/stalls/:id.
func (h *PublicHandler) GetStall(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid id")
	}
	ctx, cancel := opCtx(c)
	defer cancel()
	s, err := h.Stalls.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrStallNotFound) {
			return fail(c, http.StatusNotFound, "Stall not found")
		}
		return storeFail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "stall": s})
}

// ListOpenAuctions handles GET /v1/branches/:id/auctions.
func (h *PublicHandler) ListOpenAuctions(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid id")
	}
	ctx, cancel := opCtx(c)
	defer cancel()
	items, err := h.Auctions.ListOpen(ctx, id)
	if err != nil {
		return storeFail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "auctions": items})
}
