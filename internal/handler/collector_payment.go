package handler

import (
	"errors"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stall-rental/internal/events"
	"github.com/iliyamo/stall-rental/internal/model"
	"github.com/iliyamo/stall-rental/internal/queue"
	"github.com/iliyamo/stall-rental/internal/repository"
	queue_publisher "github.com/iliyamo/stall-rental/internal/service"
)

// periodPattern matches the "YYYY-MM" rent period form.
var periodPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// CollectorHandler serves the field-collection surface: recording rent
// payments against active leases and reading a lease's payment history.
type CollectorHandler struct {
	Leases   *repository.LeaseRepo
	Stalls   *repository.StallRepo
	Payments *repository.PaymentRepo
	Broker   *events.Broker
}

// RecordPayment handles POST /v1/collector/payments.  The lease must be
// active, the OR number unique; the recorded payment is fanned out to the
// message broker for the ledger and to live subscribers.
func (h *CollectorHandler) RecordPayment(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "Unauthorized")
	}
	var body struct {
		LeaseID     uint64 `json:"lease_id"`
		ORNumber    string `json:"or_number"`
		AmountCents uint64 `json:"amount_cents"`
		Period      string `json:"period"`
	}
	if err := c.Bind(&body); err != nil || body.LeaseID == 0 || body.AmountCents == 0 {
		return fail(c, http.StatusBadRequest, "lease_id and amount_cents are required")
	}
	body.ORNumber = strings.TrimSpace(body.ORNumber)
	if body.ORNumber == "" {
		return fail(c, http.StatusBadRequest, "or_number is required")
	}
	if !periodPattern.MatchString(body.Period) {
		return fail(c, http.StatusBadRequest, "period must be YYYY-MM")
	}

	ctx, cancel := opCtx(c)
	defer cancel()

	lease, err := h.Leases.GetActiveByID(ctx, body.LeaseID)
	if err != nil {
		if errors.Is(err, repository.ErrLeaseNotFound) {
			return fail(c, http.StatusNotFound, "No active lease with that id")
		}
		return storeFail(c, err)
	}
	stall, err := h.Stalls.GetByID(ctx, lease.StallID)
	if err != nil {
		return storeFail(c, err)
	}

	p := &model.Payment{
		LeaseID:     lease.ID,
		CollectorID: uid,
		ORNumber:    body.ORNumber,
		AmountCents: body.AmountCents,
		Period:      body.Period,
	}
	if err := h.Payments.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return fail(c, http.StatusConflict, "OR number already recorded")
		}
		return storeFail(c, err)
	}

	event := queue.PaymentRecordedEvent{
		PaymentID:   p.ID,
		LeaseID:     lease.ID,
		StallID:     stall.ID,
		BranchID:    stall.BranchID,
		HolderID:    lease.HolderID,
		CollectorID: uid,
		ORNumber:    p.ORNumber,
		AmountCents: p.AmountCents,
		Period:      p.Period,
		PaidAt:      time.Now().UTC().Format(time.RFC3339),
	}
	if err := queue_publisher.PublishPaymentRecorded(ctx, event); err != nil {
		// The payment is committed; the ledger catches up from the
		// database if the broker was down.
		log.Printf("queue publish payment.recorded: %v", err)
	}
	h.Broker.Publish("payment.recorded", event)

	return c.JSON(http.StatusCreated, echo.Map{"success": true, "payment": p})
}

// ListLeasePayments handles GET /v1/collector/leases/:id/payments.
func (h *CollectorHandler) ListLeasePayments(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid id")
	}
	ctx, cancel := opCtx(c)
	defer cancel()
	items, err := h.Payments.ListByLease(ctx, id)
	if err != nil {
		return storeFail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "payments": items})
}
