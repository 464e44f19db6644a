package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stall-rental/internal/handler"
	"github.com/iliyamo/stall-rental/internal/middleware"
	"github.com/iliyamo/stall-rental/internal/model"
	"github.com/iliyamo/stall-rental/internal/session"
)

// RegisterAdmin registers administrator-scoped endpoints under /v1/admin.
// All routes require a valid JWT, a live session and the administrator role.
// Administrators manage branches and the employee accounts attached to them.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string, tracker *session.Tracker) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret, tracker),
		middleware.RequireRole(model.RoleAdministrator),
	)
	g.POST("/branches", h.CreateBranch)
	g.PUT("/branches/:id", h.UpdateBranch)
	g.DELETE("/branches/:id", h.DeactivateBranch)
	g.POST("/employees", h.CreateEmployee)
	g.GET("/employees", h.ListEmployees)
	g.DELETE("/employees/:id", h.DeactivateEmployee)
}
