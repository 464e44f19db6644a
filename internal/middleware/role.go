package middleware // middleware provides shared request processing for handlers

import (
    "net/http" // http package defines standard HTTP status codes

    "github.com/labstack/echo/v4" // echo provides middleware chaining and context

    "github.com/iliyamo/stall-rental/internal/model" // closed role enumeration
)

// RequireRole returns a middleware function that enforces that the
// authenticated user holds one of the specified roles.  Membership is
// exact: roles carry no hierarchy, an administrator reaches branch-manager
// routes only when the route lists administrator too.  It assumes JWTAuth
// has stored the verified role in the context under "role"; a missing or
// unknown role fails closed with 403.
func RequireRole(allowedRoles ...model.Role) echo.MiddlewareFunc {
    // Build a set of allowed roles for constant-time lookups.
    allowed := make(map[model.Role]bool, len(allowedRoles))
    for _, r := range allowedRoles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            v := c.Get("role")
            role, ok := v.(model.Role)
            if !ok || !role.Valid() || !allowed[role] {
                return c.JSON(http.StatusForbidden, echo.Map{"success": false, "message": "Forbidden"})
            }
            return next(c)
        }
    }
}
