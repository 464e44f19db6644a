package handler // handler package contains branch-manager stall handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stall-rental/internal/events"
	"github.com/iliyamo/stall-rental/internal/model"
	"github.com/iliyamo/stall-rental/internal/repository"
)

// ManagerHandler bundles everything the branch-manager surface touches.  DB
// is held directly for the flows that span several repositories in one
// transaction (application approval, auction close).
type ManagerHandler struct {
	DB           *sql.DB
	Users        *repository.UserRepo
	Stalls       *repository.StallRepo
	Applications *repository.ApplicationRepo
	Leases       *repository.LeaseRepo
	Auctions     *repository.AuctionRepo
	Payments     *repository.PaymentRepo
	Inspections  *repository.InspectionRepo
	Broker       *events.Broker
}

// managerBranch resolves the calling manager's branch from their credential
// row.  Every manager operation is scoped to that branch; there is no way
// to name another branch in a request.
func (h *ManagerHandler) managerBranch(c echo.Context) (uint64, error) {
	uid, err := getUserID(c)
	if err != nil {
		return 0, err
	}
	ctx, cancel := opCtx(c)
	defer cancel()
	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return 0, err
	}
	if u.BranchID == 0 {
		return 0, repository.ErrForbidden
	}
	return u.BranchID, nil
}

// CreateStall handles POST /v1/manager/stalls.
func (h *ManagerHandler) CreateStall(c echo.Context) error {
	branchID, err := h.managerBranch(c)
	if err != nil {
		return fail(c, http.StatusForbidden, "Forbidden")
	}
	var body struct {
		Code             string  `json:"code"`
		Section          string  `json:"section"`
		AreaSqm          float64 `json:"area_sqm"`
		MonthlyRateCents uint64  `json:"monthly_rate_cents"`
	}
	if err := c.Bind(&body); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid body")
	}
	code := strings.TrimSpace(body.Code)
	if code == "" || body.MonthlyRateCents == 0 {
		return fail(c, http.StatusBadRequest, "Code and monthly rate are required")
	}

	ctx, cancel := opCtx(c)
	defer cancel()

	s := &model.Stall{
		BranchID:         branchID,
		Code:             code,
		Section:          strings.TrimSpace(body.Section),
		AreaSqm:          body.AreaSqm,
		MonthlyRateCents: body.MonthlyRateCents,
	}
	if err := h.Stalls.Create(ctx, s); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return fail(c, http.StatusConflict, "Stall code already exists in this branch")
		}
		return storeFail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "stall": s})
}

// ListStalls handles GET /v1/manager/stalls?status=.
func (h *ManagerHandler) ListStalls(c echo.Context) error {
	branchID, err := h.managerBranch(c)
	if err != nil {
		return fail(c, http.StatusForbidden, "Forbidden")
	}
	ctx, cancel := opCtx(c)
	defer cancel()
	items, err := h.Stalls.ListByBranch(ctx, branchID, strings.ToUpper(strings.TrimSpace(c.QueryParam("status"))))
	if err != nil {
		return storeFail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "items": items})
}

// UpdateStall handles PUT /v1/manager/stalls/:id (descriptive fields only).
func (h *ManagerHandler) UpdateStall(c echo.Context) error {
	branchID, err := h.managerBranch(c)
	if err != nil {
		return fail(c, http.StatusForbidden, "Forbidden")
	}
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid id")
	}
	var body struct {
		Section          string  `json:"section"`
		AreaSqm          float64 `json:"area_sqm"`
		MonthlyRateCents uint64  `json:"monthly_rate_cents"`
	}
	if err := c.Bind(&body); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid body")
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
	if s.BranchID != branchID {
		return fail(c, http.StatusForbidden, "Forbidden")
	}
	if err := h.Stalls.Update(ctx, id, strings.TrimSpace(body.Section), body.AreaSqm, body.MonthlyRateCents); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fail(c, http.StatusNotFound, "Stall not found")
		}
		return storeFail(c, err)
	}
	updated, err := h.Stalls.GetByID(ctx, id)
	if err != nil {
		return storeFail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "stall": updated})
}

// SetStallMaintenance handles POST /v1/manager/stalls/:id/maintenance with
// body {"enable":bool}.  Only vacant stalls can be pulled; releasing puts
// the stall back to VACANT.
func (h *ManagerHandler) SetStallMaintenance(c echo.Context) error {
	branchID, err := h.managerBranch(c)
	if err != nil {
		return fail(c, http.StatusForbidden, "Forbidden")
	}
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid id")
	}
	var body struct {
		Enable bool `json:"enable"`
	}
	if err := c.Bind(&body); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid body")
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
	if s.BranchID != branchID {
		return fail(c, http.StatusForbidden, "Forbidden")
	}

	from, to := model.StallVacant, model.StallMaintenance
	if !body.Enable {
		from, to = model.StallMaintenance, model.StallVacant
	}
	if err := h.Stalls.SetStatus(ctx, id, from, to); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return fail(c, http.StatusConflict, "Stall is not "+strings.ToLower(from))
		}
		return storeFail(c, err)
	}
	h.Broker.Publish("stall.status", echo.Map{"stallId": id, "status": to})
	return c.JSON(http.StatusOK, echo.Map{"success": true, "status": to})
}
