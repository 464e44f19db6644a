package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stall-rental/internal/events"
	"github.com/iliyamo/stall-rental/internal/model"
	"github.com/iliyamo/stall-rental/internal/repository"
)

// maxUploadBytes caps a single document upload.
const maxUploadBytes = 10 << 20

// TenantHandler serves applicants and stallholders: applications, document
// uploads, bids, and the holder's own leases and payment history.
type TenantHandler struct {
	UploadDir    string
	Stalls       *repository.StallRepo
	Applications *repository.ApplicationRepo
	Documents    *repository.DocumentRepo
	Leases       *repository.LeaseRepo
	Payments     *repository.PaymentRepo
	Auctions     *repository.AuctionRepo
	Broker       *events.Broker
}

// CreateApplication handles POST /v1/tenant/applications.  Only vacant
// stalls can be applied for, and an applicant may hold at most one pending
// application per stall.
func (h *TenantHandler) CreateApplication(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "Unauthorized")
	}
	var body struct {
		StallID      uint64 `json:"stall_id"`
		BusinessName string `json:"business_name"`
		BusinessType string `json:"business_type"`
	}
	if err := c.Bind(&body); err != nil || body.StallID == 0 || strings.TrimSpace(body.BusinessName) == "" {
		return fail(c, http.StatusBadRequest, "stall_id and business_name are required")
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
	if stall.Status != model.StallVacant {
		return fail(c, http.StatusConflict, "Stall is not vacant")
	}
	pending, err := h.Applications.HasPendingForStall(ctx, uid, body.StallID)
	if err != nil {
		return storeFail(c, err)
	}
	if pending {
		return fail(c, http.StatusConflict, "Application already pending for this stall")
	}

	app := &model.Application{
		ApplicantID:  uid,
		StallID:      body.StallID,
		BusinessName: strings.TrimSpace(body.BusinessName),
		BusinessType: strings.TrimSpace(body.BusinessType),
		Status:       model.ApplicationPending,
	}
	if err := h.Applications.Create(ctx, app); err != nil {
		return storeFail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "application": app})
}

// ListMyApplications handles GET /v1/tenant/applications.
func (h *TenantHandler) ListMyApplications(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "Unauthorized")
	}
	ctx, cancel := opCtx(c)
	defer cancel()
	items, err := h.Applications.ListByApplicant(ctx, uid)
	if err != nil {
		return storeFail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "applications": items})
}

// WithdrawApplication handles POST /v1/tenant/applications/:id/withdraw.
// Only the owner can withdraw and only while the application is pending.
func (h *TenantHandler) WithdrawApplication(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "Unauthorized")
	}
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid id")
	}
	ctx, cancel := opCtx(c)
	defer cancel()
	if err := h.Applications.Withdraw(ctx, id, uid); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return fail(c, http.StatusConflict, "Application is no longer pending")
		}
		if errors.Is(err, repository.ErrApplicationNotFound) {
			return fail(c, http.StatusNotFound, "Application not found")
		}
		return storeFail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

var documentKinds = map[string]struct{}{
	model.DocumentPermit:     {},
	model.DocumentValidID:    {},
	model.DocumentClearance:  {},
	model.DocumentInspection: {},
	model.DocumentOther:      {},
}

// UploadDocument handles POST /v1/tenant/documents (multipart).  The file
// lands on disk under the upload directory with a generated name; only the
// metadata row keeps the original filename.
func (h *TenantHandler) UploadDocument(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "Unauthorized")
	}
	kind := strings.ToUpper(strings.TrimSpace(c.FormValue("kind")))
	if kind == "" {
		kind = model.DocumentOther
	}
	if _, ok := documentKinds[kind]; !ok {
		return fail(c, http.StatusBadRequest, "Unknown document kind")
	}
	var appID uint64
	if v := strings.TrimSpace(c.FormValue("application_id")); v != "" {
		appID, err = parseUint(v)
		if err != nil {
			return fail(c, http.StatusBadRequest, "Invalid application_id")
		}
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return fail(c, http.StatusBadRequest, "file is required")
	}
	if fh.Size > maxUploadBytes {
		return fail(c, http.StatusRequestEntityTooLarge, "File too large")
	}

	ctx, cancel := opCtx(c)
	defer cancel()

	if appID != 0 {
		app, err := h.Applications.GetByID(ctx, appID)
		if err != nil {
			if errors.Is(err, repository.ErrApplicationNotFound) {
				return fail(c, http.StatusNotFound, "Application not found")
			}
			return storeFail(c, err)
		}
		if app.ApplicantID != uid {
			return fail(c, http.StatusForbidden, "Forbidden")
		}
	}

	src, err := fh.Open()
	if err != nil {
		return fail(c, http.StatusBadRequest, "Unreadable upload")
	}
	defer src.Close()

	if err := os.MkdirAll(h.UploadDir, 0o755); err != nil {
		return storeFail(c, err)
	}
	stored := fmt.Sprintf("%s%s", uuid.NewString(), strings.ToLower(filepath.Ext(fh.Filename)))
	dst, err := os.Create(filepath.Join(h.UploadDir, stored))
	if err != nil {
		return storeFail(c, err)
	}
	defer dst.Close()
	if _, err := io.Copy(dst, io.LimitReader(src, maxUploadBytes)); err != nil {
		_ = os.Remove(dst.Name())
		return storeFail(c, err)
	}

	doc := &model.Document{
		OwnerID:       uid,
		ApplicationID: appID,
		Kind:          kind,
		Filename:      filepath.Base(fh.Filename),
		StoredPath:    stored,
		SizeBytes:     fh.Size,
	}
	if err := h.Documents.Create(ctx, doc); err != nil {
		_ = os.Remove(dst.Name())
		return storeFail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "document": doc})
}

// ListMyDocuments handles GET /v1/tenant/documents.
func (h *TenantHandler) ListMyDocuments(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "Unauthorized")
	}
	ctx, cancel := opCtx(c)
	defer cancel()
	items, err := h.Documents.ListByOwner(ctx, uid)
	if err != nil {
		return storeFail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "documents": items})
}

// PlaceBid handles POST /v1/tenant/auctions/:id/bids.
func (h *TenantHandler) PlaceBid(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "Unauthorized")
	}
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid id")
	}
	var body struct {
		AmountCents uint64 `json:"amount_cents"`
	}
	if err := c.Bind(&body); err != nil || body.AmountCents == 0 {
		return fail(c, http.StatusBadRequest, "amount_cents is required")
	}

	ctx, cancel := opCtx(c)
	defer cancel()

	bid := &model.Bid{AuctionID: id, BidderID: uid, AmountCents: body.AmountCents}
	if err := h.Auctions.PlaceBid(ctx, bid); err != nil {
		switch {
		case errors.Is(err, repository.ErrAuctionNotFound):
			return fail(c, http.StatusNotFound, "Auction not found")
		case errors.Is(err, repository.ErrConflict):
			return fail(c, http.StatusConflict, "Auction is not open")
		case errors.Is(err, repository.ErrBidTooLow):
			return fail(c, http.StatusConflict, "Bid too low")
		}
		return storeFail(c, err)
	}

	h.Broker.Publish("auction.bid", echo.Map{
		"auctionId":   id,
		"amountCents": body.AmountCents,
	})
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "bid": bid})
}

// ListMyLeases handles GET /v1/tenant/leases.
func (h *TenantHandler) ListMyLeases(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "Unauthorized")
	}
	ctx, cancel := opCtx(c)
	defer cancel()
	items, err := h.Leases.ListByHolder(ctx, uid)
	if err != nil {
		return storeFail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "leases": items})
}

// ListMyPayments handles GET /v1/tenant/payments.
func (h *TenantHandler) ListMyPayments(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "Unauthorized")
	}
	ctx, cancel := opCtx(c)
	defer cancel()
	items, err := h.Payments.ListByHolder(ctx, uid)
	if err != nil {
		return storeFail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "payments": items})
}
