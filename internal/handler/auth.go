package handler

import (
    "context"      // bounded store operations
    "database/sql" // sentinel errors like sql.ErrNoRows
    "errors"       // sentinel matching
    "net/http"     // HTTP status codes and primitives
    "strings"      // string manipulation utilities

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/iliyamo/stall-rental/internal/config"     // app configuration
    "github.com/iliyamo/stall-rental/internal/model"      // role enumeration
    "github.com/iliyamo/stall-rental/internal/repository" // DB repositories
    "github.com/iliyamo/stall-rental/internal/session"    // session tracker
    "github.com/iliyamo/stall-rental/internal/utils"      // hashing and token issuing
)

// invalidCredentials is the one message every failed login gets.  An unknown
// username, a wrong password, an unknown role and a deactivated account are
// indistinguishable from the outside; anything more specific would let a
// caller enumerate accounts.
const invalidCredentials = "Invalid credentials"

// AuthHandler is the request-facing face of the auth lifecycle: it checks
// credentials against the store through the hasher, mints tokens, opens and
// closes sessions.  All state it needs arrives through injection.
type AuthHandler struct {
	Cfg     config.Config
	Users   *repository.UserRepo
	Tokens  *repository.TokenRepo
	Tracker *session.Tracker
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo, tr *session.Tracker) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Tracker: tr}
}

// ----- DTOs -----

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}
type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

type loginResp struct {
	Success      bool   `json:"success"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	Role         string `json:"role"`
	ExpiresAt    int64  `json:"expiresAt"`
}

type registerReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register creates an applicant credential and logs it straight in.  Only
// applicants self-register; every other role is provisioned by an
// administrator.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid body")
	}
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	if req.Username == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, "Username and password are required")
	}

	ctx, cancel := opCtx(c)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Username, req.Password, model.RoleApplicant, 0, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrUsernameExists) {
			return fail(c, http.StatusConflict, "Username already exists")
		}
		return storeFail(c, err)
	}

	sid, err := h.Tracker.Start(ctx, uid, model.RoleApplicant)
	if err != nil {
		return storeFail(c, err)
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, uid, model.RoleApplicant, sid, h.Cfg.AccessTTLMin)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Internal error")
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Internal error")
	}
	if err := h.Tokens.StoreRefresh(ctx, uid, sid, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return storeFail(c, err)
	}

	return c.JSON(http.StatusCreated, loginResp{
		Success:      true,
		AccessToken:  access.Token,
		RefreshToken: refresh.Raw,
		Role:         model.RoleApplicant.String(),
		ExpiresAt:    access.Exp.Unix(),
	})
}

// Login verifies a credential inside one role namespace and, on success,
// opens a session and returns a fresh token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid body")
	}
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	if req.Username == "" || req.Password == "" || req.Role == "" {
		return fail(c, http.StatusBadRequest, "Username, password and role are required")
	}
	role, ok := model.ParseRole(strings.ToLower(strings.TrimSpace(req.Role)))
	if !ok {
		// An unknown role can never match a stored credential; answer
		// exactly like a bad password.
		return fail(c, http.StatusUnauthorized, invalidCredentials)
	}

	ctx, cancel := opCtx(c)
	defer cancel()

	u, err := h.Users.GetByUsernameAndRole(ctx, req.Username, role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fail(c, http.StatusUnauthorized, invalidCredentials)
		}
		return storeFail(c, err)
	}
	if !u.IsActive || !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return fail(c, http.StatusUnauthorized, invalidCredentials)
	}

	sid, err := h.Tracker.Start(ctx, u.ID, u.Role)
	if err != nil {
		return storeFail(c, err)
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, sid, h.Cfg.AccessTTLMin)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Internal error")
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Internal error")
	}
	if err := h.Tokens.StoreRefresh(ctx, u.ID, sid, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return storeFail(c, err)
	}
	// Best effort; a failed last-login stamp must not fail the login.
	if err := h.Users.TouchLastLogin(ctx, u.ID); err != nil {
		c.Logger().Warnf("touch last login failed: %v", err)
	}

	return c.JSON(http.StatusOK, loginResp{
		Success:      true,
		AccessToken:  access.Token,
		RefreshToken: refresh.Raw, // raw back to client, only the hash is stored
		Role:         u.Role.String(),
		ExpiresAt:    access.Exp.Unix(),
	})
}

// Refresh exchanges a valid refresh token for a new token pair.  Rotation is
// strict: the presented token is revoked before the new one is stored, so a
// replay of the old token fails.  The owning session must still be live;
// refresh is not a back door around session expiry.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return fail(c, http.StatusBadRequest, "refreshToken required")
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := opCtx(c)
	defer cancel()

	userID, sid, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fail(c, http.StatusUnauthorized, "Invalid refresh token")
		}
		return storeFail(c, err)
	}

	// Refresh counts as activity, so heartbeat rather than peek.  A stale
	// or logged-out session rejects the refresh even though the token
	// itself checked out.
	if err := h.Tracker.Heartbeat(ctx, sid); err != nil {
		switch {
		case errors.Is(err, session.ErrSessionExpired), errors.Is(err, session.ErrSessionNotFound):
			return fail(c, http.StatusUnauthorized, "Session expired")
		default:
			return storeFail(c, err)
		}
	}

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fail(c, http.StatusUnauthorized, "Invalid refresh token")
		}
		return storeFail(c, err)
	}
	if !u.IsActive {
		return fail(c, http.StatusUnauthorized, "Invalid refresh token")
	}

	// Rotate: kill the presented token first, then mint its successor.
	if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
		return storeFail(c, err)
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, sid, h.Cfg.AccessTTLMin)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Internal error")
	}
	newRef, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Internal error")
	}
	if err := h.Tokens.StoreRefresh(ctx, u.ID, sid, utils.HashRefreshRaw(newRef.Raw), newRef.Exp); err != nil {
		return storeFail(c, err)
	}

	return c.JSON(http.StatusOK, loginResp{
		Success:      true,
		AccessToken:  access.Token,
		RefreshToken: newRef.Raw,
		Role:         u.Role.String(),
		ExpiresAt:    access.Exp.Unix(),
	})
}

// Logout always answers 200 {success:true}.  When the request names a
// session (through a parseable bearer token, a refresh token, or both)
// that session is ended and its refresh chain revoked.  Ending something
// already ended, or naming nothing at all, is still a success: logout is
// idempotent by contract.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx, cancel := opCtx(c)
	defer cancel()

	// Bearer path: an expired token is still good enough to log out with;
	// only the signature has to hold.
	if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		raw := strings.TrimPrefix(auth, "Bearer ")
		if claims, err := utils.VerifyAccessToken(h.Cfg.JWTSecret, raw); err == nil || errors.Is(err, utils.ErrTokenExpired) {
			if claims.SessionID != "" {
				h.endSession(c, ctx, claims.SessionID)
			}
		}
	}

	// Refresh-token path: lets a client without a live access token close
	// the session the refresh token belongs to.
	var req refreshReq
	_ = c.Bind(&req)
	if raw := strings.TrimSpace(req.RefreshToken); raw != "" {
		hash := utils.HashRefreshRaw(raw)
		if _, sid, err := h.Tokens.ValidateRefresh(ctx, hash); err == nil {
			h.endSession(c, ctx, sid)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// endSession closes one session and revokes its refresh tokens, logging
// rather than failing on store trouble: logout reports success regardless.
func (h *AuthHandler) endSession(c echo.Context, ctx context.Context, sid string) {
	if err := h.Tracker.End(ctx, sid); err != nil {
		c.Logger().Warnf("logout: end session %s failed: %v", sid, err)
	}
	if err := h.Tokens.RevokeBySession(ctx, sid); err != nil {
		c.Logger().Warnf("logout: revoke tokens for session %s failed: %v", sid, err)
	}
}

// Heartbeat is the explicit keep-alive endpoint.  The JWT middleware has
// already verified the token and touched the session by the time this
// handler runs, so all that is left is to confirm it.
func (h *AuthHandler) Heartbeat(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"success": true, "sessionId": getSessionID(c)})
}

// Me returns the authenticated identity, mostly for clients and smoke tests.
func (h *AuthHandler) Me(c echo.Context) error {
	role, _ := getRole(c)
	uid, _ := getUserID(c)
	return c.JSON(http.StatusOK, echo.Map{
		"success":   true,
		"userId":    uid,
		"role":      role.String(),
		"sessionId": getSessionID(c),
	})
}
