package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stall-rental/internal/handler"
	"github.com/iliyamo/stall-rental/internal/middleware"
	"github.com/iliyamo/stall-rental/internal/model"
	"github.com/iliyamo/stall-rental/internal/session"
)

// RegisterTenant registers the applicant and stallholder endpoints under
// /v1/tenant.  Applicants apply for stalls, upload supporting documents and
// bid in auctions; stallholders additionally read their own leases and
// payment history.  A stallholder keeps bidding rights so an existing
// holder can compete for a second stall.
func RegisterTenant(e *echo.Echo, h *handler.TenantHandler, jwtSecret string, tracker *session.Tracker) {
	g := e.Group(
		"/v1/tenant",
		middleware.JWTAuth(jwtSecret, tracker),
		middleware.RequireRole(model.RoleApplicant, model.RoleStallholder),
	)
	// Applications.
	g.POST("/applications", h.CreateApplication)
	g.GET("/applications", h.ListMyApplications)
	g.POST("/applications/:id/withdraw", h.WithdrawApplication)
	// Supporting documents.
	g.POST("/documents", h.UploadDocument)
	g.GET("/documents", h.ListMyDocuments)
	// Auction bidding.
	g.POST("/auctions/:id/bids", h.PlaceBid)

	// Holder-only reads.
	holder := e.Group(
		"/v1/tenant",
		middleware.JWTAuth(jwtSecret, tracker),
		middleware.RequireRole(model.RoleStallholder),
	)
	holder.GET("/leases", h.ListMyLeases)
	holder.GET("/payments", h.ListMyPayments)
}
