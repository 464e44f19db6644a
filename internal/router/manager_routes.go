package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stall-rental/internal/handler"
	"github.com/iliyamo/stall-rental/internal/middleware"
	"github.com/iliyamo/stall-rental/internal/model"
	"github.com/iliyamo/stall-rental/internal/session"
)

// RegisterManager registers branch-manager endpoints under /v1/manager.
// Every operation is scoped server-side to the manager's own branch; the
// routes never accept a branch id.
func RegisterManager(e *echo.Echo, h *handler.ManagerHandler, jwtSecret string, tracker *session.Tracker) {
	g := e.Group(
		"/v1/manager",
		middleware.JWTAuth(jwtSecret, tracker),
		middleware.RequireRole(model.RoleBranchManager),
	)
	// Stall inventory.
	g.POST("/stalls", h.CreateStall)
	g.GET("/stalls", h.ListStalls)
	g.PUT("/stalls/:id", h.UpdateStall)
	g.POST("/stalls/:id/maintenance", h.SetStallMaintenance)
	// Application review.
	g.GET("/applications", h.ListApplications)
	g.POST("/applications/:id/approve", h.ApproveApplication)
	g.POST("/applications/:id/reject", h.RejectApplication)
	// Auctions over vacant stalls.
	g.POST("/auctions", h.OpenAuction)
	g.GET("/auctions", h.ListBranchAuctions)
	g.GET("/auctions/:id/bids", h.ListAuctionBids)
	g.POST("/auctions/:id/close", h.CloseAuction)
	// Branch oversight reads are shared with the business-owner reporting
	// account, which is bound to the same branch but cannot mutate anything.
	reads := e.Group(
		"/v1/manager",
		middleware.JWTAuth(jwtSecret, tracker),
		middleware.RequireRole(model.RoleBranchManager, model.RoleBusinessOwner),
	)
	reads.GET("/payments", h.ListBranchPayments)
	reads.GET("/inspections", h.ListBranchInspections)
}
