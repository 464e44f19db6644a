package handler // handler defines http handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stall-rental/internal/model"
)

// dbTimeout bounds every database operation started by a handler.  A store
// that does not answer inside this window turns into a 503, never a hung
// request.
const dbTimeout = 5 * time.Second

// opCtx derives a bounded context for one store operation from the request.
func opCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// fail writes the uniform failure envelope every error path uses.
func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"success": false, "message": msg})
}

// storeFail maps a store-layer fault to the client.  Context expiry means
// the database did not answer in time (503); anything else is an internal
// fault (500).  Raw driver text stays in the server log.
func storeFail(c echo.Context, err error) error {
	c.Logger().Errorf("store error: %v", err)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fail(c, http.StatusServiceUnavailable, "Service unavailable")
	}
	return fail(c, http.StatusInternalServerError, "Internal error")
}

// getUserID extracts the authenticated user id stored by the JWT middleware.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// getRole extracts the authenticated role stored by the JWT middleware.
func getRole(c echo.Context) (model.Role, bool) {
	r, ok := c.Get("role").(model.Role)
	return r, ok && r.Valid()
}

// getSessionID extracts the session id stored by the JWT middleware.
func getSessionID(c echo.Context) string {
	s, _ := c.Get("session_id").(string)
	return s
}

// pathID parses a numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

func parseUint(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 64)
}
