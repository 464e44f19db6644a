package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stall-rental/internal/handler"
	"github.com/iliyamo/stall-rental/internal/middleware"
	"github.com/iliyamo/stall-rental/internal/model"
	"github.com/iliyamo/stall-rental/internal/session"
)

// RegisterCollector registers the rent-collection endpoints under
// /v1/collector.  Only collectors record payments.
func RegisterCollector(e *echo.Echo, h *handler.CollectorHandler, jwtSecret string, tracker *session.Tracker) {
	g := e.Group(
		"/v1/collector",
		middleware.JWTAuth(jwtSecret, tracker),
		middleware.RequireRole(model.RoleCollector),
	)
	g.POST("/payments", h.RecordPayment)
	g.GET("/leases/:id/payments", h.ListLeasePayments)
}

// RegisterInspector registers the compliance endpoints under /v1/inspector.
func RegisterInspector(e *echo.Echo, h *handler.InspectorHandler, jwtSecret string, tracker *session.Tracker) {
	g := e.Group(
		"/v1/inspector",
		middleware.JWTAuth(jwtSecret, tracker),
		middleware.RequireRole(model.RoleInspector),
	)
	g.POST("/inspections", h.FileInspection)
	g.GET("/stalls/:id/inspections", h.ListStallInspections)
}
