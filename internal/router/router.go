package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // the Echo web framework that carries all routing

	"github.com/iliyamo/stall-rental/internal/handler"    // handlers implementing the business logic
	"github.com/iliyamo/stall-rental/internal/middleware" // JWT authentication and role enforcement
	"github.com/iliyamo/stall-rental/internal/session"    // heartbeat tracker consulted on every protected request
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  Load
	// balancers and monitors use this endpoint to verify the service is up.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies the
// necessary middleware.  Unauthenticated operations live under /v1/auth,
// while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, tracker *session.Tracker, mw ...echo.MiddlewareFunc) {
	// Operations that do not require an existing session: register, login,
	// refresh and logout.  Each handler generates or exchanges tokens on
	// its own; logout also accepts an expired access token so a client can
	// always terminate its session.  The caller passes the rate limiter in
	// through mw so credential stuffing cannot hammer the bcrypt verifier.
	g := e.Group("/v1/auth", mw...)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	// The same operations are also mounted without the version prefix so
	// clients written against the legacy /auth paths keep working.
	legacy := e.Group("/auth", mw...)
	legacy.POST("/register", a.Register)
	legacy.POST("/login", a.Login)
	legacy.POST("/refresh", a.Refresh)
	legacy.POST("/logout", a.Logout)
	legacyAuthed := e.Group("/auth", middleware.JWTAuth(jwtSecret, tracker))
	legacyAuthed.GET("/me", a.Me)
	legacyAuthed.POST("/heartbeat", a.Heartbeat)

	// Routes that require a live access token and a live session.  The
	// JWTAuth middleware verifies the token and records a heartbeat on
	// the session named inside it; a stale session fails the request.
	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret, tracker))
	// /v1/me returns the authenticated identity as the middleware sees it.
	auth.GET("/me", a.Me)
	// /v1/heartbeat lets a quiet client keep its session alive without
	// performing any other operation.
	auth.POST("/heartbeat", a.Heartbeat)
}

// RegisterPublic registers the unauthenticated browse endpoints.  The extra
// middleware (per-IP rate limiting and the Redis response cache) is supplied
// by the caller so tests can mount these routes bare.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, mw ...echo.MiddlewareFunc) {
	g := e.Group("/v1", mw...)
	// Browse the branches of the market authority.
	g.GET("/branches", p.ListBranches)
	// Browse the stalls of one branch, optionally filtered by status so a
	// prospective applicant can list only VACANT stalls.
	g.GET("/branches/:id/stalls", p.ListBranchStalls)
	// Stall details by id.
	g.GET("/stalls/:id", p.GetStall)
	// Open auctions in one branch.
	g.GET("/branches/:id/auctions", p.ListOpenAuctions)
}

// RegisterEvents registers the server-sent-events stream.  Any authenticated
// role may subscribe; notices carry no data beyond what the subscriber's own
// routes already expose.
func RegisterEvents(e *echo.Echo, h *handler.EventsHandler, jwtSecret string, tracker *session.Tracker) {
	e.GET("/v1/events", h.Stream, middleware.JWTAuth(jwtSecret, tracker))
}
