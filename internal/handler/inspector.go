package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stall-rental/internal/events"
	"github.com/iliyamo/stall-rental/internal/model"
	"github.com/iliyamo/stall-rental/internal/repository"
)

// InspectorHandler serves the compliance surface.
type InspectorHandler struct {
	Stalls      *repository.StallRepo
	Inspections *repository.InspectionRepo
	Broker      *events.Broker
}

// FileInspection handles POST /v1/inspector/inspections.
func (h *InspectorHandler) FileInspection(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "Unauthorized")
	}
	var body struct {
		StallID uint64 `json:"stall_id"`
		Result  string `json:"result"`
		Remarks string `json:"remarks"`
	}
	if err := c.Bind(&body); err != nil || body.StallID == 0 {
		return fail(c, http.StatusBadRequest, "stall_id is required")
	}
	result := strings.ToUpper(strings.TrimSpace(body.Result))
	if result != model.InspectionPassed && result != model.InspectionFailed {
		return fail(c, http.StatusBadRequest, "result must be PASSED or FAILED")
	}
	if result == model.InspectionFailed && strings.TrimSpace(body.Remarks) == "" {
		return fail(c, http.StatusBadRequest, "Remarks are required on a failed inspection")
	}

	ctx, cancel := opCtx(c)
	defer cancel()

	if _, err := h.Stalls.GetByID(ctx, body.StallID); err != nil {
		if errors.Is(err, repository.ErrStallNotFound) {
			return fail(c, http.StatusNotFound, "Stall not found")
		}
		return storeFail(c, err)
	}

	ins := &model.Inspection{
		StallID:     body.StallID,
		InspectorID: uid,
		Result:      result,
		Remarks:     strings.TrimSpace(body.Remarks),
	}
	if err := h.Inspections.Create(ctx, ins); err != nil {
		return storeFail(c, err)
	}

	h.Broker.Publish("inspection.filed", echo.Map{
		"inspectionId": ins.ID,
		"stallId":      ins.StallID,
		"result":       ins.Result,
	})
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "inspection": ins})
}

// ListStallInspections handles GET /v1/inspector/stalls/:id/inspections.
func (h *InspectorHandler) ListStallInspections(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid id")
	}
	ctx, cancel := opCtx(c)
	defer cancel()
	items, err := h.Inspections.ListByStall(ctx, id)
	if err != nil {
		return storeFail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "inspections": items})
}
