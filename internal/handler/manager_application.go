package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stall-rental/internal/model"
	"github.com/iliyamo/stall-rental/internal/repository"
)

// ListApplications handles GET /v1/manager/applications: the review queue
// for the manager's branch, pending first.
func (h *ManagerHandler) ListApplications(c echo.Context) error {
	branchID, err := h.managerBranch(c)
	if err != nil {
		return fail(c, http.StatusForbidden, "Forbidden")
	}
	ctx, cancel := opCtx(c)
	defer cancel()
	items, err := h.Applications.ListByBranch(ctx, branchID)
	if err != nil {
		return storeFail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "items": items})
}

// ApproveApplication handles POST /v1/manager/applications/:id/approve.
// Approval is one transaction: flip the application to APPROVED, move the
// stall VACANT->OCCUPIED, open the lease, and promote the applicant to
// stallholder.  Any step losing its race rolls the whole decision back.
func (h *ManagerHandler) ApproveApplication(c echo.Context) error {
	branchID, err := h.managerBranch(c)
	if err != nil {
		return fail(c, http.StatusForbidden, "Forbidden")
	}
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "Unauthorized")
	}
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid id")
	}
	var body struct {
		Remarks string `json:"remarks"`
	}
	_ = c.Bind(&body)

	ctx, cancel := opCtx(c)
	defer cancel()

	app, err := h.Applications.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrApplicationNotFound) {
			return fail(c, http.StatusNotFound, "Application not found")
		}
		return storeFail(c, err)
	}
	stall, err := h.Stalls.GetByID(ctx, app.StallID)
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

	if err := h.Applications.DecideTx(ctx, tx, id, model.ApplicationApproved, strings.TrimSpace(body.Remarks), uid); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return fail(c, http.StatusConflict, "Application is no longer pending")
		}
		return storeFail(c, err)
	}
	if err := h.Stalls.SetStatusTx(ctx, tx, stall.ID, model.StallVacant, model.StallOccupied); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return fail(c, http.StatusConflict, "Stall is no longer vacant")
		}
		return storeFail(c, err)
	}
	lease := &model.Lease{StallID: stall.ID, HolderID: app.ApplicantID, MonthlyRateCents: stall.MonthlyRateCents}
	if err := h.Leases.CreateTx(ctx, tx, lease); err != nil {
		return storeFail(c, err)
	}
	// Promote inside the same transaction so an approved applicant can
	// never end up without the stallholder role.
	if _, err := tx.ExecContext(ctx, "UPDATE users SET role=? WHERE id=? AND role=?",
		model.RoleStallholder.String(), app.ApplicantID, model.RoleApplicant.String()); err != nil {
		return storeFail(c, err)
	}
	if err := tx.Commit(); err != nil {
		return storeFail(c, err)
	}

	h.Broker.Publish("application.approved", echo.Map{
		"applicationId": id,
		"stallId":       stall.ID,
		"leaseId":       lease.ID,
		"holderId":      app.ApplicantID,
	})
	return c.JSON(http.StatusOK, echo.Map{"success": true, "lease": lease})
}

// RejectApplication handles POST /v1/manager/applications/:id/reject.
func (h *ManagerHandler) RejectApplication(c echo.Context) error {
	branchID, err := h.managerBranch(c)
	if err != nil {
		return fail(c, http.StatusForbidden, "Forbidden")
	}
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "Unauthorized")
	}
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid id")
	}
	var body struct {
		Remarks string `json:"remarks"`
	}
	if err := c.Bind(&body); err != nil || strings.TrimSpace(body.Remarks) == "" {
		return fail(c, http.StatusBadRequest, "Remarks are required when rejecting")
	}

	ctx, cancel := opCtx(c)
	defer cancel()

	app, err := h.Applications.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrApplicationNotFound) {
			return fail(c, http.StatusNotFound, "Application not found")
		}
		return storeFail(c, err)
	}
	stall, err := h.Stalls.GetByID(ctx, app.StallID)
	if err != nil {
		return storeFail(c, err)
	}
	if stall.BranchID != branchID {
		return fail(c, http.StatusForbidden, "Forbidden")
	}

	if err := h.Applications.Decide(ctx, id, model.ApplicationRejected, strings.TrimSpace(body.Remarks), uid); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return fail(c, http.StatusConflict, "Application is no longer pending")
		}
		return storeFail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// ListBranchPayments handles GET /v1/manager/payments: the branch revenue
// report.
func (h *ManagerHandler) ListBranchPayments(c echo.Context) error {
	branchID, err := h.managerBranch(c)
	if err != nil {
		return fail(c, http.StatusForbidden, "Forbidden")
	}
	ctx, cancel := opCtx(c)
	defer cancel()
	items, err := h.Payments.ListByBranch(ctx, branchID)
	if err != nil {
		return storeFail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "items": items})
}

// ListBranchInspections handles GET /v1/manager/inspections.
func (h *ManagerHandler) ListBranchInspections(c echo.Context) error {
	branchID, err := h.managerBranch(c)
	if err != nil {
		return fail(c, http.StatusForbidden, "Forbidden")
	}
	ctx, cancel := opCtx(c)
	defer cancel()
	items, err := h.Inspections.ListByBranch(ctx, branchID)
	if err != nil {
		return storeFail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "items": items})
}
