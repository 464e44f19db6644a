package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/stall-rental/internal/config"
	"github.com/iliyamo/stall-rental/internal/model"
	"github.com/iliyamo/stall-rental/internal/repository"
	"github.com/iliyamo/stall-rental/internal/session"
	"github.com/iliyamo/stall-rental/internal/utils"
)

func testConfig() config.Config {
	return config.Config{
		JWTSecret:      "handler-test-secret",
		AccessTTLMin:   15,
		RefreshTTLDays: 7,
		BcryptCost:     bcrypt.MinCost,
		SessionStale:   15 * time.Minute,
	}
}

func newAuthEnv(t *testing.T) (*AuthHandler, sqlmock.Sqlmock, *echo.Echo) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := testConfig()
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	tracker := session.NewTracker(repository.NewSessionRepo(db), cfg.SessionStale)
	return NewAuthHandler(cfg, users, tokens, tracker), mock, echo.New()
}

func doJSON(e *echo.Echo, h echo.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	_ = h(e.NewContext(req, rec))
	return rec
}

func userRow(hash string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(
		[]string{"id", "username", "password_hash", "role", "branch_id", "is_active", "last_login_at", "created_at", "updated_at"}).
		AddRow(7, "alice", hash, "stallholder", 3, true, nil, now, now)
}

func TestLoginSuccess(t *testing.T) {
	h, mock, e := newAuthEnv(t)
	hash, err := utils.HashPassword("correct horse", bcrypt.MinCost)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE username=? AND role=?")).
		WithArgs("alice", "stallholder").
		WillReturnRows(userRow(hash))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sessions")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO refresh_tokens")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET last_login_at=NOW()")).
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := doJSON(e, h.Login, http.MethodPost, "/v1/auth/login",
		`{"username":"alice","password":"correct horse","role":"stallholder"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success      bool   `json:"success"`
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
		Role         string `json:"role"`
		ExpiresAt    int64  `json:"expiresAt"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "stallholder", resp.Role)
	assert.Len(t, resp.RefreshToken, 96)
	assert.Greater(t, resp.ExpiresAt, time.Now().Unix())

	claims, err := utils.VerifyAccessToken(h.Cfg.JWTSecret, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), claims.UserID)
	assert.Equal(t, model.RoleStallholder, claims.Role)
	assert.NotEmpty(t, claims.SessionID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	h, mock, e := newAuthEnv(t)
	hash, err := utils.HashPassword("correct horse", bcrypt.MinCost)
	require.NoError(t, err)

	// Wrong password.
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE username=? AND role=?")).
		WithArgs("alice", "stallholder").
		WillReturnRows(userRow(hash))
	wrongPass := doJSON(e, h.Login, http.MethodPost, "/v1/auth/login",
		`{"username":"alice","password":"nope","role":"stallholder"}`)

	// Unknown username: the lookup misses entirely.
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE username=? AND role=?")).
		WithArgs("ghost", "stallholder").
		WillReturnError(sql.ErrNoRows)

	unknownUser := doJSON(e, h.Login, http.MethodPost, "/v1/auth/login",
		`{"username":"ghost","password":"nope","role":"stallholder"}`)

	// Unknown role short-circuits before the store is touched.
	unknownRole := doJSON(e, h.Login, http.MethodPost, "/v1/auth/login",
		`{"username":"alice","password":"correct horse","role":"superuser"}`)

	assert.Equal(t, http.StatusUnauthorized, wrongPass.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownUser.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownRole.Code)
	// Identical bodies: the caller cannot tell which part was wrong.
	assert.JSONEq(t, `{"success":false,"message":"Invalid credentials"}`, wrongPass.Body.String())
	assert.Equal(t, wrongPass.Body.String(), unknownUser.Body.String())
	assert.Equal(t, wrongPass.Body.String(), unknownRole.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginDeactivatedAccount(t *testing.T) {
	h, mock, e := newAuthEnv(t)
	hash, err := utils.HashPassword("correct horse", bcrypt.MinCost)
	require.NoError(t, err)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE username=? AND role=?")).
		WithArgs("alice", "stallholder").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "username", "password_hash", "role", "branch_id", "is_active", "last_login_at", "created_at", "updated_at"}).
			AddRow(7, "alice", hash, "stallholder", 3, false, nil, now, now))

	rec := doJSON(e, h.Login, http.MethodPost, "/v1/auth/login",
		`{"username":"alice","password":"correct horse","role":"stallholder"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"Invalid credentials"}`, rec.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshRotatesToken(t *testing.T) {
	h, mock, e := newAuthEnv(t)
	now := time.Now().UTC()
	oldRaw := strings.Repeat("ef", 48)
	oldHash := utils.HashRefreshRaw(oldRaw)

	mock.ExpectQuery(regexp.QuoteMeta("FROM refresh_tokens WHERE token_hash=?")).
		WithArgs(oldHash).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "session_id", "expires_at", "revoked_at"}).
			AddRow(7, "sess-1", now.Add(time.Hour), nil))
	// Refresh counts as activity: the session is read and touched.
	mock.ExpectQuery(regexp.QuoteMeta("FROM sessions WHERE id=?")).
		WithArgs("sess-1").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "user_id", "role", "login_time", "last_activity", "active", "logout_time"}).
			AddRow("sess-1", 7, "stallholder", now.Add(-time.Hour), now.Add(-time.Minute), true, nil))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE sessions SET last_activity=?")).
		WithArgs(sqlmock.AnyArg(), "sess-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id=?")).
		WithArgs(uint64(7)).
		WillReturnRows(userRow("irrelevant"))
	// Rotation order matters: the presented token dies before its
	// successor is written.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE refresh_tokens SET revoked_at=NOW() WHERE token_hash=?")).
		WithArgs(oldHash).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO refresh_tokens")).
		WithArgs(uint64(7), "sess-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(2, 1))

	rec := doJSON(e, h.Refresh, http.MethodPost, "/v1/auth/refresh",
		`{"refreshToken":"`+oldRaw+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success      bool   `json:"success"`
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Len(t, resp.RefreshToken, 96)
	assert.NotEqual(t, oldRaw, resp.RefreshToken)

	// The new access token still names the same principal and session.
	claims, err := utils.VerifyAccessToken(h.Cfg.JWTSecret, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), claims.UserID)
	assert.Equal(t, model.RoleStallholder, claims.Role)
	assert.Equal(t, "sess-1", claims.SessionID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshRotatedTokenRejected(t *testing.T) {
	h, mock, e := newAuthEnv(t)

	// The presented hash exists but carries revoked_at: it was already
	// spent by an earlier rotation.
	mock.ExpectQuery(regexp.QuoteMeta("FROM refresh_tokens WHERE token_hash=?")).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "session_id", "expires_at", "revoked_at"}).
			AddRow(7, "sess-1", time.Now().Add(time.Hour), time.Now()))

	rec := doJSON(e, h.Refresh, http.MethodPost, "/v1/auth/refresh",
		`{"refreshToken":"`+strings.Repeat("ab", 48)+`"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"Invalid refresh token"}`, rec.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshDeadSessionRejected(t *testing.T) {
	h, mock, e := newAuthEnv(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("FROM refresh_tokens WHERE token_hash=?")).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "session_id", "expires_at", "revoked_at"}).
			AddRow(7, "sess-1", now.Add(time.Hour), nil))
	// The session the token belongs to has already been ended.
	mock.ExpectQuery(regexp.QuoteMeta("FROM sessions WHERE id=?")).
		WithArgs("sess-1").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "user_id", "role", "login_time", "last_activity", "active", "logout_time"}).
			AddRow("sess-1", 7, "stallholder", now.Add(-time.Hour), now.Add(-30*time.Minute), false, now.Add(-30*time.Minute)))

	rec := doJSON(e, h.Refresh, http.MethodPost, "/v1/auth/refresh",
		`{"refreshToken":"`+strings.Repeat("cd", 48)+`"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"Session expired"}`, rec.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogoutAlwaysSucceeds(t *testing.T) {
	h, _, e := newAuthEnv(t)

	// No bearer, no refresh token, nothing to end: still a 200.
	rec := doJSON(e, h.Logout, http.MethodPost, "/v1/auth/logout", `{}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	// Garbage refresh token: unknown hash, still a 200.
	rec = doJSON(e, h.Logout, http.MethodPost, "/v1/auth/logout", `{"refreshToken":"garbage"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogoutWithExpiredBearerEndsSession(t *testing.T) {
	h, mock, e := newAuthEnv(t)

	at, err := utils.NewAccessToken(h.Cfg.JWTSecret, 7, model.RoleStallholder, "sess-9", -1)
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE sessions SET active=0")).
		WithArgs(sqlmock.AnyArg(), "sess-9").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE refresh_tokens SET revoked_at=NOW() WHERE session_id=?")).
		WithArgs("sess-9").
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/logout", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("Authorization", "Bearer "+at.Token)
	rec := httptest.NewRecorder()
	_ = h.Logout(e.NewContext(req, rec))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterDuplicateUsername(t *testing.T) {
	h, mock, e := newAuthEnv(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry"))

	rec := doJSON(e, h.Register, http.MethodPost, "/v1/auth/register",
		`{"username":"alice","password":"pw"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"Username already exists"}`, rec.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}
