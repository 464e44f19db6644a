package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "context"  // bounded deadline for the heartbeat store call
    "errors"   // sentinel matching for session errors
    "net/http" // HTTP status codes for responses
    "strings"  // string utilities for prefix checking and trimming
    "time"     // heartbeat timeout duration

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

    "github.com/iliyamo/stall-rental/internal/session" // session tracker for heartbeat on every request
    "github.com/iliyamo/stall-rental/internal/utils"   // token verification helpers
)

// heartbeatTimeout bounds the session-store round trip made on every
// authenticated request.  Matches the per-operation budget the handlers use:
// a store that does not answer turns into a 503, never a hung request.
const heartbeatTimeout = 5 * time.Second

// JWTAuth returns an Echo middleware that validates a Bearer access token,
// heartbeats the session named in the token and injects the token's claims
// into the request context.  The provided secret must match the one used
// when issuing tokens.  Handlers behind this middleware can read
// `c.Get("user_id")`, `c.Get("role")` and `c.Get("session_id")`.
//
// Session liveness is the stronger cutoff: a token that verifies fine still
// gets a 401 when its session has been logged out or idled past the
// staleness window.  Token expiry and session expiry are deliberately kept
// as distinct client messages (both 401) so a client knows whether to
// refresh or to log in again.
func JWTAuth(secret string, tracker *session.Tracker) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            // A valid header starts with "Bearer " followed by the JWT.
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "Missing bearer token"})
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            claims, err := utils.VerifyAccessToken(secret, raw)
            if err != nil {
                if errors.Is(err, utils.ErrTokenExpired) {
                    return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "Token expired"})
                }
                return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "Invalid token"})
            }

            // Every authenticated request doubles as a heartbeat.  A stale
            // or ended session turns the request away even though the token
            // itself verified.
            hbCtx, cancel := context.WithTimeout(c.Request().Context(), heartbeatTimeout)
            err = tracker.Heartbeat(hbCtx, claims.SessionID)
            cancel()
            if err != nil {
                switch {
                case errors.Is(err, session.ErrSessionExpired), errors.Is(err, session.ErrSessionNotFound):
                    return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "Session expired"})
                default:
                    // Store unreachable; never leak driver detail.
                    c.Logger().Errorf("session heartbeat failed: %v", err)
                    return c.JSON(http.StatusServiceUnavailable, echo.Map{"success": false, "message": "Service unavailable"})
                }
            }

            c.Set("user_id", claims.UserID)
            c.Set("role", claims.Role)
            c.Set("session_id", claims.SessionID)
            return next(c)
        }
    }
}
